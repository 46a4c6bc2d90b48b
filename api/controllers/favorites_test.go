package controllers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/filmex-backend/internal/catalog"
	"github.com/angelmondragon/filmex-backend/internal/session"
	"github.com/angelmondragon/filmex-backend/pkg/types"
	"github.com/go-chi/chi/v5"
)

type stubFavorites struct {
	favorites []types.Movie
	purchases []types.Purchase
	added     *types.Movie
	err       error
}

func (s *stubFavorites) Favorites(ctx context.Context, client string) ([]types.Movie, error) {
	return s.favorites, s.err
}

func (s *stubFavorites) AddToFavorites(ctx context.Context, client string, movie types.Movie) (*types.SessionUser, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.added = &movie
	s.favorites = append(s.favorites, movie)
	return &types.SessionUser{ID: "u1", Favorites: s.favorites}, nil
}

func (s *stubFavorites) Purchases(ctx context.Context, client string) ([]types.Purchase, error) {
	return s.purchases, s.err
}

func TestFavoritesAddResolvesCatalogMovie(t *testing.T) {
	svc := &stubFavorites{}
	resp := httptest.NewRecorder()

	FavoritesAdd(svc, catalog.Default(), nil).ServeHTTP(resp, scopedRequest(http.MethodPost, "/favorites", "c1", `{"movie_id":5}`))

	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d", resp.Code)
	}
	if svc.added == nil || svc.added.ID != 5 || svc.added.Title == "" {
		t.Fatalf("expected catalog movie 5, got %+v", svc.added)
	}
	var favorites []types.Movie
	decodeData(t, resp, &favorites)
	if len(favorites) != 1 {
		t.Fatalf("expected one favorite, got %d", len(favorites))
	}
}

func TestFavoritesAddUnknownMovie(t *testing.T) {
	svc := &stubFavorites{}
	resp := httptest.NewRecorder()

	FavoritesAdd(svc, catalog.Default(), nil).ServeHTTP(resp, scopedRequest(http.MethodPost, "/favorites", "c1", `{"movie_id":404}`))

	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
	if svc.added != nil {
		t.Fatal("unknown movie must not be added")
	}
}

func TestFavoritesAddDuplicate(t *testing.T) {
	svc := &stubFavorites{err: session.ErrAlreadyFavorite}
	resp := httptest.NewRecorder()

	FavoritesAdd(svc, catalog.Default(), nil).ServeHTTP(resp, scopedRequest(http.MethodPost, "/favorites", "c1", `{"movie_id":1}`))

	if resp.Code != http.StatusConflict {
		t.Fatalf("expected 409 got %d", resp.Code)
	}
}

func TestFavoritesAndPurchasesRequireSession(t *testing.T) {
	svc := &stubFavorites{err: session.ErrNotAuthenticated}

	resp := httptest.NewRecorder()
	FavoritesList(svc, nil).ServeHTTP(resp, scopedRequest(http.MethodGet, "/favorites", "c1", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("favorites: expected 401 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	PurchasesList(svc, nil).ServeHTTP(resp, scopedRequest(http.MethodGet, "/purchases", "c1", nil))
	if resp.Code != http.StatusUnauthorized {
		t.Fatalf("purchases: expected 401 got %d", resp.Code)
	}
}

func TestPurchasesListReturnsHistory(t *testing.T) {
	svc := &stubFavorites{purchases: []types.Purchase{{ID: "p1"}, {ID: "p2"}}}
	resp := httptest.NewRecorder()

	PurchasesList(svc, nil).ServeHTTP(resp, scopedRequest(http.MethodGet, "/purchases", "c1", nil))

	var purchases []types.Purchase
	decodeData(t, resp, &purchases)
	if len(purchases) != 2 || purchases[1].ID != "p2" {
		t.Fatalf("unexpected purchases %+v", purchases)
	}
}

func TestMovieDetail(t *testing.T) {
	r := chi.NewRouter()
	r.Get("/movies", MoviesList(catalog.Default(), nil))
	r.Get("/movies/{movieId}", MovieDetail(catalog.Default(), nil))

	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/movies/2", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	var movie types.Movie
	decodeData(t, resp, &movie)
	if movie.ID != 2 || movie.Title != "The Shawshank Redemption" {
		t.Fatalf("unexpected movie %+v", movie)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/movies/99", nil))
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/movies", nil))
	var movies []types.Movie
	decodeData(t, resp, &movies)
	if len(movies) < 2 || movies[0].ID != 1 {
		t.Fatalf("expected catalog ordered by id, got %d movies", len(movies))
	}
}
