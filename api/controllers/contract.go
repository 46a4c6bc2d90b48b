package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/angelmondragon/filmex-backend/api/responses"
	"github.com/angelmondragon/filmex-backend/api/validators"
	"github.com/angelmondragon/filmex-backend/internal/mirror"
	"github.com/angelmondragon/filmex-backend/internal/session"
	"github.com/angelmondragon/filmex-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/types"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const defaultContractTimeout = 5 * time.Second

var errOrderNotFound = pkgerrors.New(pkgerrors.CodeNotFound, "order not found")

type contractAccounts interface {
	Register(ctx context.Context, name, email, password string) (*types.SessionUser, error)
	Login(ctx context.Context, client, email, password string) (*types.SessionUser, error)
	Users(ctx context.Context) ([]types.SessionUser, error)
}

type contractMirror interface {
	AddFavorite(ctx context.Context, doc mirror.FavoriteDocument) (string, error)
	ListFavorites(ctx context.Context, userID string) ([]mirror.FavoriteDocument, error)
	AddOrder(ctx context.Context, doc mirror.OrderDocument) (string, error)
	GetOrder(ctx context.Context, id string) (*mirror.OrderDocument, error)
	ListOrders(ctx context.Context, userID string) ([]mirror.OrderDocument, error)
}

type ContractParams struct {
	Accounts contractAccounts
	Catalog  movieCatalog
	// Mirror is optional. Without it favorites and orders are served from
	// the local users record and writes are echoed back unsaved.
	Mirror  contractMirror
	JWT     config.JWTConfig
	Timeout time.Duration
	Logger  *logger.Logger
	Now     func() time.Time
}

// Contract serves the document-shaped endpoints the storefront frontend was
// first written against. Payloads are written without the response envelope.
type Contract struct {
	accounts contractAccounts
	catalog  movieCatalog
	mirror   contractMirror
	jwt      config.JWTConfig
	timeout  time.Duration
	logg     *logger.Logger
	now      func() time.Time
}

type contractUser struct {
	ID        string    `json:"_id"`
	Name      string    `json:"name"`
	LastName  string    `json:"lastname"`
	Mail      string    `json:"mail"`
	CreatedAt time.Time `json:"created_at"`
}

type contractMovie struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Image       string  `json:"image"`
	Year        int     `json:"year"`
	Director    string  `json:"director"`
	Cast        string  `json:"cast"`
	Trailer     string  `json:"trailer"`
}

type contractCreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=60"`
	LastName string `json:"lastname" validate:"max=60"`
	Mail     string `json:"mail" validate:"required,email"`
	Password string `json:"password" validate:"required,min=4,max=128"`
}

type contractLoginRequest struct {
	Mail     string `json:"mail" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type contractLoginResponse struct {
	Token string       `json:"token"`
	User  contractUser `json:"user"`
}

type contractFavoriteRequest struct {
	Name   string `json:"name" validate:"required,max=200"`
	Year   int    `json:"year" validate:"omitempty,min=1870,max=2200"`
	UserID string `json:"user_id" validate:"required"`
}

type contractOrderRequest struct {
	MovieName  string  `json:"movie_name" validate:"required,max=200"`
	MoviePrice float64 `json:"movie_price" validate:"min=0"`
	Quantity   int     `json:"cantidad" validate:"required,min=1"`
	UserID     string  `json:"user_id" validate:"required"`
}

func NewContract(params ContractParams) (*Contract, error) {
	if params.Accounts == nil {
		return nil, fmt.Errorf("accounts required")
	}
	if params.Catalog == nil {
		return nil, fmt.Errorf("catalog required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = defaultContractTimeout
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Contract{
		accounts: params.Accounts,
		catalog:  params.Catalog,
		mirror:   params.Mirror,
		jwt:      params.JWT,
		timeout:  timeout,
		logg:     params.Logger,
		now:      now,
	}, nil
}

// CreateUser registers the account locally. The mirror copy follows through
// the session manager's dispatcher.
func (c *Contract) CreateUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body contractCreateUserRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		fullName := strings.TrimSpace(body.Name + " " + body.LastName)
		user, err := c.accounts.Register(r.Context(), fullName, body.Mail, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusCreated, newContractUser(*user))
	}
}

func (c *Contract) ListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, err := c.accounts.Users(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		out := make([]contractUser, 0, len(users))
		for _, user := range users {
			out = append(out, newContractUser(user))
		}
		responses.WriteRaw(w, http.StatusOK, out)
	}
}

func (c *Contract) GetUser() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		email := session.NormalizeEmail(chi.URLParam(r, "email"))
		users, err := c.accounts.Users(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		for _, user := range users {
			if user.Email == email {
				responses.WriteRaw(w, http.StatusOK, newContractUser(user))
				return
			}
		}
		responses.WriteError(r.Context(), c.logg, w, session.ErrUserNotFound)
	}
}

func (c *Contract) Login() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, err := requireClient(r)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		var body contractLoginRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		user, err := c.accounts.Login(r.Context(), client, body.Mail, body.Password)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		token, err := mintSessionToken(c.jwt, user.ID, client)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusOK, contractLoginResponse{Token: token, User: newContractUser(*user)})
	}
}

func (c *Contract) ListMovies() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		movies := c.catalog.List()
		out := make([]contractMovie, 0, len(movies))
		for _, movie := range movies {
			out = append(out, newContractMovie(movie))
		}
		responses.WriteRaw(w, http.StatusOK, out)
	}
}

func (c *Contract) GetMovie() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathInt(r, "id")
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		movie, ok := c.catalog.Lookup(id)
		if !ok {
			responses.WriteError(r.Context(), c.logg, w, errMovieNotFound)
			return
		}
		responses.WriteRaw(w, http.StatusOK, newContractMovie(movie))
	}
}

func (c *Contract) AddFavorite() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body contractFavoriteRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		doc := mirror.NewFavoriteDocument(types.Movie{Title: body.Name, Year: body.Year}, body.UserID, c.now())
		if err := c.insert(r.Context(), &doc.ID, func(ctx context.Context) (string, error) {
			return c.mirror.AddFavorite(ctx, doc)
		}); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusCreated, doc)
	}
}

func (c *Contract) ListFavorites() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))

		if c.mirror != nil {
			ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
			defer cancel()
			docs, err := c.mirror.ListFavorites(ctx, userID)
			if err != nil {
				responses.WriteError(r.Context(), c.logg, w, mirrorError(err))
				return
			}
			responses.WriteRaw(w, http.StatusOK, nonNil(docs))
			return
		}

		user, err := c.localUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		docs := []mirror.FavoriteDocument{}
		if user != nil {
			for _, movie := range user.Favorites {
				docs = append(docs, mirror.NewFavoriteDocument(movie, user.ID, user.Created))
			}
		}
		responses.WriteRaw(w, http.StatusOK, docs)
	}
}

func (c *Contract) AddOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body contractOrderRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}

		line := types.CartLine{
			Title:    body.MovieName,
			Price:    decimal.NewFromFloat(body.MoviePrice),
			Quantity: body.Quantity,
		}
		doc := mirror.NewOrderDocument(line, body.UserID, mirror.OrderStatusPending, c.now())
		if err := c.insert(r.Context(), &doc.ID, func(ctx context.Context) (string, error) {
			return c.mirror.AddOrder(ctx, doc)
		}); err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		responses.WriteRaw(w, http.StatusCreated, doc)
	}
}

func (c *Contract) ListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := strings.TrimSpace(r.URL.Query().Get("user_id"))

		if c.mirror != nil {
			ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
			defer cancel()
			docs, err := c.mirror.ListOrders(ctx, userID)
			if err != nil {
				responses.WriteError(r.Context(), c.logg, w, mirrorError(err))
				return
			}
			responses.WriteRaw(w, http.StatusOK, nonNil(docs))
			return
		}

		user, err := c.localUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, err)
			return
		}
		docs := []mirror.OrderDocument{}
		if user != nil {
			for _, purchase := range user.Purchases {
				for _, line := range purchase.Items {
					docs = append(docs, mirror.NewOrderDocument(line, user.ID, mirror.OrderStatusPending, purchase.Date))
				}
			}
		}
		responses.WriteRaw(w, http.StatusOK, docs)
	}
}

func (c *Contract) GetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if c.mirror == nil {
			responses.WriteError(r.Context(), c.logg, w, errOrderNotFound)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), c.timeout)
		defer cancel()
		doc, err := c.mirror.GetOrder(ctx, chi.URLParam(r, "id"))
		if err != nil {
			responses.WriteError(r.Context(), c.logg, w, mirrorError(err))
			return
		}
		responses.WriteRaw(w, http.StatusOK, doc)
	}
}

// insert stores a document through the mirror and sets its id. Without a
// mirror a fresh id is assigned and nothing is stored.
func (c *Contract) insert(ctx context.Context, id *primitive.ObjectID, store func(ctx context.Context) (string, error)) error {
	if c.mirror == nil {
		*id = primitive.NewObjectID()
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()
	hex, err := store(ctx)
	if err != nil {
		return mirrorError(err)
	}
	parsed, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mirror returned an invalid id")
	}
	*id = parsed
	return nil
}

func (c *Contract) localUser(ctx context.Context, userID string) (*types.SessionUser, error) {
	if userID == "" {
		return nil, nil
	}
	users, err := c.accounts.Users(ctx)
	if err != nil {
		return nil, err
	}
	for _, user := range users {
		if user.ID == userID {
			return &user, nil
		}
	}
	return nil, nil
}

// mirrorError keeps not-found and bad-id errors and reports everything else
// as an unavailable dependency.
func mirrorError(err error) error {
	if pkgerrors.IsCode(err, pkgerrors.CodeNotFound) || pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		return err
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, mirror.ErrUnavailable.Message())
}

func newContractUser(user types.SessionUser) contractUser {
	first, last := mirror.SplitName(user.Name)
	return contractUser{
		ID:        user.ID,
		Name:      first,
		LastName:  last,
		Mail:      user.Email,
		CreatedAt: user.Created,
	}
}

func newContractMovie(movie types.Movie) contractMovie {
	return contractMovie{
		ID:          movie.ID,
		Title:       movie.Title,
		Description: movie.Description,
		Price:       movie.Price.InexactFloat64(),
		Image:       movie.Image,
		Year:        movie.Year,
		Director:    movie.Director,
		Cast:        strings.Join(movie.Cast, ", "),
		Trailer:     movie.Trailer,
	}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
