package routes

import (
	"fmt"
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/filmex-backend/api/controllers"
	"github.com/angelmondragon/filmex-backend/api/docs"
	"github.com/angelmondragon/filmex-backend/api/middleware"
	"github.com/angelmondragon/filmex-backend/api/responses"
	"github.com/angelmondragon/filmex-backend/internal/cart"
	"github.com/angelmondragon/filmex-backend/internal/catalog"
	"github.com/angelmondragon/filmex-backend/internal/checkout"
	"github.com/angelmondragon/filmex-backend/internal/session"
	"github.com/angelmondragon/filmex-backend/pkg/config"
	pkgerrors "github.com/angelmondragon/filmex-backend/pkg/errors"
	"github.com/angelmondragon/filmex-backend/pkg/httpclient"
	"github.com/angelmondragon/filmex-backend/pkg/kvstore"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/mongo"
	"github.com/angelmondragon/filmex-backend/pkg/redis"
)

// Params carries everything the HTTP surface is wired to. Redis, Mongo,
// Upstream, Contract, Registry and Assets are optional.
type Params struct {
	Config   *config.Config
	Logger   *logger.Logger
	Records  *kvstore.Records
	Redis    *redis.Client
	Mongo    *mongo.Client
	Catalog  *catalog.Catalog
	Sessions *session.Manager
	Carts    *cart.Manager
	Checkout *checkout.Service
	Upstream *httpclient.Client
	Contract *controllers.Contract
	Registry *prometheus.Registry
	Assets   fs.FS
}

func (p Params) validate() error {
	switch {
	case p.Config == nil:
		return fmt.Errorf("config required")
	case p.Logger == nil:
		return fmt.Errorf("logger required")
	case p.Catalog == nil:
		return fmt.Errorf("catalog required")
	case p.Sessions == nil:
		return fmt.Errorf("session manager required")
	case p.Carts == nil:
		return fmt.Errorf("cart manager required")
	case p.Checkout == nil:
		return fmt.Errorf("checkout service required")
	}
	return nil
}

// NewRouter wires the HTTP surface. The storefront services are checked
// here once so every handler below receives a usable dependency.
func NewRouter(p Params) (http.Handler, error) {
	if err := p.validate(); err != nil {
		return nil, fmt.Errorf("routes: %w", err)
	}
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var checks []controllers.ReadinessCheck
	if p.Records != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "store", Pinger: p.Records})
	}
	if p.Redis != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "redis", Pinger: p.Redis})
	}
	if p.Mongo != nil {
		checks = append(checks, controllers.ReadinessCheck{Name: "mongo", Pinger: p.Mongo})
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, checks...))
	})

	if p.Registry != nil {
		r.Handle("/metrics", promhttp.HandlerFor(p.Registry, promhttp.HandlerOpts{}))
	}

	r.Get("/api-docs/swagger.json", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(docs.Swagger())
	})

	scope := middleware.ClientScope(middleware.ClientScopeOptions{
		CookieName:   cfg.App.ClientCookie,
		JWT:          cfg.JWT,
		SecureCookie: cfg.App.IsProd(),
	}, logg)

	loginLimit := passthrough
	registerLimit := passthrough
	if p.Redis != nil {
		loginLimit = middleware.CredentialThrottle(middleware.ThrottlePolicy{
			Surface:  "login",
			Window:   cfg.AuthRateLimit.LoginWindow,
			PerIP:    cfg.AuthRateLimit.LoginIPLimit,
			PerEmail: cfg.AuthRateLimit.LoginEmailLimit,
		}, p.Redis, logg)
		registerLimit = middleware.CredentialThrottle(middleware.ThrottlePolicy{
			Surface:  "register",
			Window:   cfg.AuthRateLimit.RegisterWindow,
			PerIP:    cfg.AuthRateLimit.RegisterIPLimit,
			PerEmail: cfg.AuthRateLimit.RegisterEmailLimit,
		}, p.Redis, logg)
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(scope)
		r.NotFound(apiNotFound(logg))

		r.Route("/auth", func(r chi.Router) {
			r.With(registerLimit).Post("/register", controllers.AuthRegister(p.Sessions, logg))
			r.With(loginLimit).Post("/login", controllers.AuthLogin(p.Sessions, cfg.JWT, logg))
			r.Post("/logout", controllers.AuthLogout(p.Sessions, logg))
			r.Get("/me", controllers.AuthMe(p.Sessions, logg))
		})

		r.Route("/movies", func(r chi.Router) {
			r.Get("/", controllers.MoviesList(p.Catalog, logg))
			r.Get("/{movieId}", controllers.MovieDetail(p.Catalog, logg))
		})

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", controllers.CartFetch(p.Carts, logg))
			r.Delete("/", controllers.CartClear(p.Carts, logg))
			r.Post("/items", controllers.CartAddItem(p.Carts, logg))
			r.Put("/items/{movieId}", controllers.CartUpdateItem(p.Carts, logg))
			r.Delete("/items/{movieId}", controllers.CartRemoveItem(p.Carts, logg))
		})

		r.Post("/checkout", controllers.CheckoutSubmit(p.Checkout, logg))
		r.Post("/checkout/cancel", controllers.CheckoutCancel(p.Checkout, logg))

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", controllers.FavoritesList(p.Sessions, logg))
			r.Post("/", controllers.FavoritesAdd(p.Sessions, p.Catalog, logg))
		})
		r.Get("/purchases", controllers.PurchasesList(p.Sessions, logg))

		if p.Upstream != nil {
			r.Get("/demo/posts", controllers.DemoPosts(p.Upstream, logg))
			r.Post("/demo/posts", controllers.DemoCreatePost(p.Upstream, logg))
		}
	})

	if p.Contract != nil {
		r.Group(func(r chi.Router) {
			r.Use(scope)
			r.Post("/users", p.Contract.CreateUser())
			r.Get("/users", p.Contract.ListUsers())
			r.Get("/users/{email}", p.Contract.GetUser())
			r.With(loginLimit).Post("/auth/login", p.Contract.Login())
			r.Get("/movies", p.Contract.ListMovies())
			r.Get("/movies/{id}", p.Contract.GetMovie())
			r.Post("/favorites", p.Contract.AddFavorite())
			r.Get("/favorites", p.Contract.ListFavorites())
			r.Post("/orders", p.Contract.AddOrder())
			r.Get("/orders", p.Contract.ListOrders())
			r.Get("/orders/{id}", p.Contract.GetOrder())
		})
	}

	if p.Assets != nil {
		r.NotFound(spaHandler(p.Assets).ServeHTTP)
	}

	return r, nil
}

func apiNotFound(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "route not found"))
	}
}

func passthrough(next http.Handler) http.Handler {
	return next
}
