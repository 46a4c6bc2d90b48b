package types

import (
	"time"

	"github.com/shopspring/decimal"
)

// Purchase is an immutable record of a completed checkout.
type Purchase struct {
	ID    string          `json:"id"`
	Items []CartLine      `json:"items"`
	Total decimal.Decimal `json:"total"`
	Date  time.Time       `json:"date"`
}

// User is the stored account record. PasswordHash never leaves the store.
type User struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	PasswordHash string     `json:"password_hash"`
	Favorites    []Movie    `json:"favorites"`
	Purchases    []Purchase `json:"purchases"`
	Created      time.Time  `json:"created"`
}

// SessionUser is the de-sensitized copy of a User held as a client's session.
type SessionUser struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Favorites []Movie    `json:"favorites"`
	Purchases []Purchase `json:"purchases"`
	Created   time.Time  `json:"created"`
}

// Session strips the credentials from u.
func (u User) Session() SessionUser {
	favorites := make([]Movie, len(u.Favorites))
	copy(favorites, u.Favorites)
	purchases := make([]Purchase, len(u.Purchases))
	copy(purchases, u.Purchases)
	return SessionUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Favorites: favorites,
		Purchases: purchases,
		Created:   u.Created,
	}
}

// HasFavorite reports whether movieID is already among the favorites.
func (u User) HasFavorite(movieID int) bool {
	for _, movie := range u.Favorites {
		if movie.ID == movieID {
			return true
		}
	}
	return false
}
