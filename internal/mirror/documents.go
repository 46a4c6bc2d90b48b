package mirror

import (
	"strings"
	"time"

	"github.com/angelmondragon/filmex-backend/pkg/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	OrderStatusPending = "pending"
	OrderStatusInCart  = "in_cart"
)

// UserDocument is a user as replicated to the USERS collection.
type UserDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name      string             `bson:"name" json:"name"`
	LastName  string             `bson:"lastname" json:"lastname"`
	Password  string             `bson:"password" json:"-"`
	Mail      string             `bson:"mail" json:"mail"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// FavoriteDocument is one favorited movie in the FAVS collection.
type FavoriteDocument struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Name    string             `bson:"name" json:"name"`
	Year    int                `bson:"year" json:"year"`
	UserID  string             `bson:"user_id" json:"user_id"`
	AddedAt time.Time          `bson:"added_at" json:"added_at"`
}

// OrderDocument is one order line in the orders collection.
type OrderDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	MovieName  string             `bson:"movie_name" json:"movie_name"`
	MoviePrice float64            `bson:"movie_price" json:"movie_price"`
	Quantity   int                `bson:"cantidad" json:"cantidad"`
	UserID     string             `bson:"user_id" json:"user_id"`
	Total      float64            `bson:"total" json:"total"`
	OrderDate  time.Time          `bson:"order_date" json:"order_date"`
	Status     string             `bson:"status" json:"status"`
}

// SplitName breaks a display name into first name and the remainder.
func SplitName(full string) (string, string) {
	fields := strings.Fields(full)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}

// NewUserDocument mirrors a stored user. Only the password hash is copied.
func NewUserDocument(user types.User) UserDocument {
	first, last := SplitName(user.Name)
	return UserDocument{
		Name:      first,
		LastName:  last,
		Password:  user.PasswordHash,
		Mail:      user.Email,
		CreatedAt: user.Created.UTC(),
	}
}

// NewFavoriteDocument mirrors a favorited movie. A missing year falls back
// to the year of now.
func NewFavoriteDocument(movie types.Movie, userID string, now time.Time) FavoriteDocument {
	year := movie.Year
	if year == 0 {
		year = now.Year()
	}
	return FavoriteDocument{
		Name:    movie.Title,
		Year:    year,
		UserID:  userID,
		AddedAt: now.UTC(),
	}
}

// NewOrderDocument mirrors one cart line as an order entry.
func NewOrderDocument(line types.CartLine, userID, status string, now time.Time) OrderDocument {
	return OrderDocument{
		MovieName:  line.Title,
		MoviePrice: line.Price.InexactFloat64(),
		Quantity:   line.Quantity,
		UserID:     userID,
		Total:      line.Subtotal().InexactFloat64(),
		OrderDate:  now.UTC(),
		Status:     status,
	}
}
