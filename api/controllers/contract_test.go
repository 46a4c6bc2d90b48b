package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/angelmondragon/filmex-backend/internal/catalog"
	"github.com/angelmondragon/filmex-backend/internal/mirror"
	"github.com/angelmondragon/filmex-backend/internal/mirror/mirrortest"
	"github.com/angelmondragon/filmex-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var contractNow = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func newContractRouter(t *testing.T, accounts contractAccounts, mr contractMirror) http.Handler {
	t.Helper()
	c, err := NewContract(ContractParams{
		Accounts: accounts,
		Catalog:  catalog.Default(),
		Mirror:   mr,
		JWT:      testJWT,
		Logger:   testLogger(),
		Now:      func() time.Time { return contractNow },
	})
	require.NoError(t, err)

	r := chi.NewRouter()
	r.Post("/users", c.CreateUser())
	r.Get("/users", c.ListUsers())
	r.Get("/users/{email}", c.GetUser())
	r.Post("/auth/login", c.Login())
	r.Get("/movies", c.ListMovies())
	r.Get("/movies/{id}", c.GetMovie())
	r.Post("/favorites", c.AddFavorite())
	r.Get("/favorites", c.ListFavorites())
	r.Post("/orders", c.AddOrder())
	r.Get("/orders", c.ListOrders())
	r.Get("/orders/{id}", c.GetOrder())
	return r
}

func decodeRaw(t *testing.T, resp *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(dest))
}

func TestContractUsers(t *testing.T) {
	accounts := &stubAccounts{
		user:  &types.SessionUser{ID: "u1", Name: "John Doe", Email: "john.doe@example.com", Created: contractNow},
		users: []types.SessionUser{{ID: "u1", Name: "John Doe", Email: "john.doe@example.com", Created: contractNow}},
	}
	h := newContractRouter(t, accounts, nil)

	resp := serve(h, scopedRequest(http.MethodPost, "/users", "c1", `{"name":"John","lastname":"Doe","mail":"john.doe@example.com","password":"secret"}`))
	require.Equal(t, http.StatusCreated, resp.Code)
	assert.Equal(t, "John Doe", accounts.gotName)
	var created map[string]any
	decodeRaw(t, resp, &created)
	assert.Equal(t, "u1", created["_id"])
	assert.Equal(t, "Doe", created["lastname"])
	assert.Equal(t, "john.doe@example.com", created["mail"])

	resp = serve(h, scopedRequest(http.MethodGet, "/users", "c1", nil))
	var users []contractUser
	decodeRaw(t, resp, &users)
	require.Len(t, users, 1)
	assert.Equal(t, "John", users[0].Name)

	resp = serve(h, scopedRequest(http.MethodGet, "/users/JOHN.DOE@example.com", "c1", nil))
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = serve(h, scopedRequest(http.MethodGet, "/users/nobody@example.com", "c1", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestContractLogin(t *testing.T) {
	accounts := &stubAccounts{user: &types.SessionUser{ID: "u1", Name: "John Doe", Email: "john.doe@example.com"}}
	h := newContractRouter(t, accounts, nil)

	resp := serve(h, scopedRequest(http.MethodPost, "/auth/login", "c1", `{"mail":"john.doe@example.com","password":"secret"}`))
	require.Equal(t, http.StatusOK, resp.Code)
	var body contractLoginResponse
	decodeRaw(t, resp, &body)
	assert.NotEmpty(t, body.Token)
	assert.Equal(t, "john.doe@example.com", body.User.Mail)
	assert.Equal(t, "c1", accounts.gotClient)
}

func TestContractMoviesUseDocumentShape(t *testing.T) {
	h := newContractRouter(t, &stubAccounts{}, nil)

	resp := serve(h, scopedRequest(http.MethodGet, "/movies/1", "c1", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	var movie map[string]any
	decodeRaw(t, resp, &movie)
	assert.Equal(t, 19.99, movie["price"])
	assert.Equal(t, "Matthew McConaughey, Anne Hathaway, Jessica Chastain", movie["cast"])

	resp = serve(h, scopedRequest(http.MethodGet, "/movies", "c1", nil))
	var movies []contractMovie
	decodeRaw(t, resp, &movies)
	assert.NotEmpty(t, movies)
}

func TestContractOrdersThroughMirror(t *testing.T) {
	recorder := &mirrortest.Recorder{}
	h := newContractRouter(t, &stubAccounts{}, recorder)

	resp := serve(h, scopedRequest(http.MethodPost, "/orders", "c1", `{"movie_name":"Interstellar","movie_price":19.99,"cantidad":3,"user_id":"u1"}`))
	require.Equal(t, http.StatusCreated, resp.Code)
	var created mirror.OrderDocument
	decodeRaw(t, resp, &created)
	assert.False(t, created.ID.IsZero())
	assert.InDelta(t, 59.97, created.Total, 0.0001)
	assert.Equal(t, mirror.OrderStatusPending, created.Status)
	assert.True(t, contractNow.Equal(created.OrderDate))

	resp = serve(h, scopedRequest(http.MethodGet, "/orders/"+created.ID.Hex(), "c1", nil))
	require.Equal(t, http.StatusOK, resp.Code)
	var fetched mirror.OrderDocument
	decodeRaw(t, resp, &fetched)
	assert.Equal(t, created.ID, fetched.ID)

	resp = serve(h, scopedRequest(http.MethodGet, "/orders/not-an-id", "c1", nil))
	assert.Equal(t, http.StatusBadRequest, resp.Code)

	resp = serve(h, scopedRequest(http.MethodGet, "/orders?user_id=u1", "c1", nil))
	var orders []mirror.OrderDocument
	decodeRaw(t, resp, &orders)
	assert.Len(t, orders, 1)

	recorder.Err = mirrortest.ErrDown
	resp = serve(h, scopedRequest(http.MethodGet, "/orders?user_id=u1", "c1", nil))
	assert.Equal(t, http.StatusServiceUnavailable, resp.Code)
}

func TestContractFavoritesThroughMirror(t *testing.T) {
	recorder := &mirrortest.Recorder{}
	h := newContractRouter(t, &stubAccounts{}, recorder)

	resp := serve(h, scopedRequest(http.MethodPost, "/favorites", "c1", `{"name":"Interstellar","year":2014,"user_id":"u1"}`))
	require.Equal(t, http.StatusCreated, resp.Code)

	resp = serve(h, scopedRequest(http.MethodGet, "/favorites?user_id=u1", "c1", nil))
	var favorites []mirror.FavoriteDocument
	decodeRaw(t, resp, &favorites)
	require.Len(t, favorites, 1)
	assert.Equal(t, 2014, favorites[0].Year)

	resp = serve(h, scopedRequest(http.MethodGet, "/favorites?user_id=other", "c1", nil))
	decodeRaw(t, resp, &favorites)
	assert.Empty(t, favorites)
}

func TestContractFallsBackToLocalRecords(t *testing.T) {
	purchaseDate := contractNow.Add(-time.Hour)
	accounts := &stubAccounts{users: []types.SessionUser{{
		ID:        "u1",
		Name:      "Ana",
		Favorites: []types.Movie{{ID: 1, Title: "Interstellar", Year: 2014}},
		Purchases: []types.Purchase{{
			ID:   "p1",
			Date: purchaseDate,
			Items: []types.CartLine{
				{ID: 1, Title: "Interstellar", Price: decimal.RequireFromString("19.99"), Quantity: 2},
			},
		}},
	}}}
	h := newContractRouter(t, accounts, nil)

	resp := serve(h, scopedRequest(http.MethodGet, "/favorites?user_id=u1", "c1", nil))
	var favorites []mirror.FavoriteDocument
	decodeRaw(t, resp, &favorites)
	require.Len(t, favorites, 1)
	assert.Equal(t, "Interstellar", favorites[0].Name)

	resp = serve(h, scopedRequest(http.MethodGet, "/orders?user_id=u1", "c1", nil))
	var orders []mirror.OrderDocument
	decodeRaw(t, resp, &orders)
	require.Len(t, orders, 1)
	assert.Equal(t, 2, orders[0].Quantity)
	assert.InDelta(t, 39.98, orders[0].Total, 0.0001)

	resp = serve(h, scopedRequest(http.MethodPost, "/orders", "c1", `{"movie_name":"Interstellar","movie_price":19.99,"cantidad":1,"user_id":"u1"}`))
	require.Equal(t, http.StatusCreated, resp.Code)
	var echoed mirror.OrderDocument
	decodeRaw(t, resp, &echoed)
	assert.False(t, echoed.ID.IsZero())

	resp = serve(h, scopedRequest(http.MethodGet, "/orders/"+echoed.ID.Hex(), "c1", nil))
	assert.Equal(t, http.StatusNotFound, resp.Code)
}

func TestNewContractValidatesDependencies(t *testing.T) {
	_, err := NewContract(ContractParams{})
	require.Error(t, err)
}
