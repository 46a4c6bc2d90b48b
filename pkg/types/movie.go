package types

import "github.com/shopspring/decimal"

// Movie is a catalog entry. Entries are static and never mutated.
type Movie struct {
	ID          int             `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Image       string          `json:"image"`
	Year        int             `json:"year"`
	Director    string          `json:"director"`
	Cast        []string        `json:"cast"`
	Trailer     string          `json:"trailer"`
}
