// Package catalog exposes the storefront's fixed movie list.
package catalog

import (
	"sort"

	"github.com/angelmondragon/filmex-backend/pkg/types"
	"github.com/shopspring/decimal"
)

// Catalog is a read-only, in-memory list of movies.
type Catalog struct {
	movies []types.Movie
	byID   map[int]types.Movie
}

// New indexes movies by id. Later duplicates replace earlier ones.
func New(movies []types.Movie) *Catalog {
	byID := make(map[int]types.Movie, len(movies))
	for _, movie := range movies {
		byID[movie.ID] = movie
	}
	ordered := make([]types.Movie, 0, len(byID))
	for _, movie := range byID {
		ordered = append(ordered, movie)
	}
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].ID < ordered[j].ID })
	return &Catalog{movies: ordered, byID: byID}
}

// Default returns the catalog the storefront ships with.
func Default() *Catalog {
	return New(defaultMovies())
}

// List returns every movie ordered by id.
func (c *Catalog) List() []types.Movie {
	out := make([]types.Movie, len(c.movies))
	for i, movie := range c.movies {
		out[i] = cloneMovie(movie)
	}
	return out
}

// Lookup finds a movie by id.
func (c *Catalog) Lookup(id int) (types.Movie, bool) {
	movie, ok := c.byID[id]
	if !ok {
		return types.Movie{}, false
	}
	return cloneMovie(movie), true
}

func cloneMovie(movie types.Movie) types.Movie {
	movie.Cast = append([]string(nil), movie.Cast...)
	return movie
}

func defaultMovies() []types.Movie {
	return []types.Movie{
		{
			ID:          1,
			Title:       "Interstellar",
			Description: "A team of explorers travels through a wormhole in search of a new home for humanity.",
			Price:       decimal.RequireFromString("19.99"),
			Image:       "https://m.media-amazon.com/images/I/91obuWzA3XL._AC_UF1000,1000_QL80_.jpg",
			Year:        2014,
			Director:    "Christopher Nolan",
			Cast:        []string{"Matthew McConaughey", "Anne Hathaway", "Jessica Chastain"},
			Trailer:     "https://www.youtube.com/embed/zSWdZVtXT7E",
		},
		{
			ID:          2,
			Title:       "The Shawshank Redemption",
			Description: "Two imprisoned men bond over the years, finding solace and redemption through acts of common decency.",
			Price:       decimal.RequireFromString("14.99"),
			Image:       "https://m.media-amazon.com/images/I/51NiGlapXlL._AC_UF1000,1000_QL80_.jpg",
			Year:        1994,
			Director:    "Frank Darabont",
			Cast:        []string{"Tim Robbins", "Morgan Freeman", "Bob Gunton"},
			Trailer:     "https://www.youtube.com/embed/6hB3S9bIaco",
		},
		{
			ID:          3,
			Title:       "The Dark Knight",
			Description: "Batman faces the Joker, a criminal mastermind set on plunging Gotham into anarchy.",
			Price:       decimal.RequireFromString("16.99"),
			Image:       "https://m.media-amazon.com/images/I/91KkWf50SoL._AC_UF1000,1000_QL80_.jpg",
			Year:        2008,
			Director:    "Christopher Nolan",
			Cast:        []string{"Christian Bale", "Heath Ledger", "Aaron Eckhart"},
			Trailer:     "https://www.youtube.com/embed/EXeTwQWrcwY",
		},
		{
			ID:          4,
			Title:       "Pulp Fiction",
			Description: "Two hitmen, a boxer, a gangster's wife and a pair of bandits cross paths in four tales of violence and redemption.",
			Price:       decimal.RequireFromString("15.99"),
			Image:       "https://m.media-amazon.com/images/I/71CXxWupsCL._AC_UF1000,1000_QL80_.jpg",
			Year:        1994,
			Director:    "Quentin Tarantino",
			Cast:        []string{"John Travolta", "Uma Thurman", "Samuel L. Jackson"},
			Trailer:     "https://www.youtube.com/embed/s7EdQ4FqbhY",
		},
		{
			ID:          5,
			Title:       "The Matrix",
			Description: "A programmer learns that reality is a simulation run by intelligent machines.",
			Price:       decimal.RequireFromString("13.99"),
			Image:       "https://m.media-amazon.com/images/I/51EG732BV3L._AC_UF1000,1000_QL80_.jpg",
			Year:        1999,
			Director:    "Lana Wachowski, Lilly Wachowski",
			Cast:        []string{"Keanu Reeves", "Laurence Fishburne", "Carrie-Anne Moss"},
			Trailer:     "https://www.youtube.com/embed/vKQi3bBA1y8",
		},
		{
			ID:          6,
			Title:       "Forrest Gump",
			Description: "Decades in the life of Forrest Gump, who stumbles through landmark moments of American history.",
			Price:       decimal.RequireFromString("12.99"),
			Image:       "https://m.media-amazon.com/images/I/71xfR1wEUnL._AC_UF1000,1000_QL80_.jpg",
			Year:        1994,
			Director:    "Robert Zemeckis",
			Cast:        []string{"Tom Hanks", "Robin Wright", "Gary Sinise"},
			Trailer:     "https://www.youtube.com/embed/bLvqoHBptjg",
		},
	}
}
