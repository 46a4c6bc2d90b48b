package main

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/angelmondragon/filmex-backend/api/controllers"
	"github.com/angelmondragon/filmex-backend/api/routes"
	"github.com/angelmondragon/filmex-backend/internal/cart"
	"github.com/angelmondragon/filmex-backend/internal/catalog"
	"github.com/angelmondragon/filmex-backend/internal/checkout"
	"github.com/angelmondragon/filmex-backend/internal/mirror"
	"github.com/angelmondragon/filmex-backend/internal/session"
	"github.com/angelmondragon/filmex-backend/pkg/config"
	"github.com/angelmondragon/filmex-backend/pkg/db"
	"github.com/angelmondragon/filmex-backend/pkg/httpclient"
	"github.com/angelmondragon/filmex-backend/pkg/kvstore"
	"github.com/angelmondragon/filmex-backend/pkg/logger"
	"github.com/angelmondragon/filmex-backend/pkg/metrics"
	"github.com/angelmondragon/filmex-backend/pkg/migrate"
	"github.com/angelmondragon/filmex-backend/pkg/mongo"
	"github.com/angelmondragon/filmex-backend/pkg/redis"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/multierr"
	"gorm.io/gorm"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "filmex-api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "filmex-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
		Format:      cfg.App.LogFormat,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var closers []func() error

	var redisClient *redis.Client
	if cfg.Redis.Configured() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap redis", err)
			os.Exit(1)
		}
		closers = append(closers, redisClient.Close)
	}

	var gormDB *gorm.DB
	if cfg.Store.Backend == config.StoreBackendSQL {
		dbClient, err := db.New(ctx, cfg.DB, logg)
		if err != nil {
			logg.Error(ctx, "failed to bootstrap database", err)
			os.Exit(1)
		}
		closers = append(closers, dbClient.Close)
		if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
			logg.Error(ctx, "failed to run dev migrations", err)
			os.Exit(1)
		}
		gormDB = dbClient.DB()
	}

	var mongoClient *mongo.Client
	var mongoMirror *mirror.MongoMirror
	if cfg.Mongo.Enabled() {
		mongoClient, err = mongo.New(ctx, cfg.Mongo, logg)
		if err != nil {
			// the storefront keeps working without its mirror
			logg.Warn(logg.WithField(ctx, "err", err.Error()), "mongo unavailable, mirroring disabled")
			mongoClient = nil
		} else {
			closers = append(closers, func() error { return mongoClient.Close(context.Background()) })
			mongoMirror, err = mirror.NewMongo(mongoClient.Database(), cfg.Mongo)
			if err != nil {
				logg.Error(ctx, "failed to build mongo mirror", err)
				os.Exit(1)
			}
		}
	}

	store, locker, err := kvstore.Open(cfg.Store, kvstore.Backends{Redis: redisClient, DB: gormDB})
	if err != nil {
		logg.Error(ctx, "failed to open record store", err)
		os.Exit(1)
	}
	records, err := kvstore.NewRecords(store, logg)
	if err != nil {
		logg.Error(ctx, "failed to create records", err)
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	var remote mirror.Mirror
	if mongoMirror != nil {
		remote = mongoMirror
	}
	dispatcher, err := mirror.NewDispatcher(mirror.DispatcherParams{
		Mirror:      remote,
		Logger:      logg,
		Metrics:     metrics.NewMirrorMetrics(registry),
		Timeout:     cfg.Mirror.Timeout,
		MaxInFlight: cfg.Mirror.MaxInFlight,
	})
	if err != nil {
		logg.Error(ctx, "failed to create mirror dispatcher", err)
		os.Exit(1)
	}

	movies := catalog.Default()

	sessions, err := session.NewManager(session.ManagerParams{
		Records:    records,
		Locker:     locker,
		Dispatcher: dispatcher,
		Logger:     logg,
		Password:   cfg.Password,
	})
	if err != nil {
		logg.Error(ctx, "failed to create session manager", err)
		os.Exit(1)
	}

	carts, err := cart.NewManager(cart.ManagerParams{
		Records:    records,
		Locker:     locker,
		Catalog:    movies,
		Sessions:   sessions,
		Dispatcher: dispatcher,
		Logger:     logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create cart manager", err)
		os.Exit(1)
	}

	checkoutService, err := checkout.NewService(checkout.ServiceParams{Carts: carts, Sessions: sessions, Logger: logg})
	if err != nil {
		logg.Error(ctx, "failed to create checkout service", err)
		os.Exit(1)
	}

	upstream, err := httpclient.NewClient(cfg.Upstream.BaseURL, httpclient.WithTimeout(cfg.Upstream.Timeout))
	if err != nil {
		logg.Error(ctx, "failed to create upstream client", err)
		os.Exit(1)
	}

	var contract *controllers.Contract
	if cfg.FeatureFlags.ContractMocks || mongoMirror != nil {
		params := controllers.ContractParams{
			Accounts: sessions,
			Catalog:  movies,
			JWT:      cfg.JWT,
			Timeout:  cfg.Mirror.Timeout,
			Logger:   logg,
		}
		if mongoMirror != nil {
			params.Mirror = mongoMirror
		}
		contract, err = controllers.NewContract(params)
		if err != nil {
			logg.Error(ctx, "failed to create contract routes", err)
			os.Exit(1)
		}
	}

	var assets fs.FS
	if info, err := os.Stat(cfg.App.StaticDir); err == nil && info.IsDir() {
		assets = os.DirFS(cfg.App.StaticDir)
	} else {
		logg.Warn(logg.WithField(ctx, "static_dir", cfg.App.StaticDir), "static directory missing, frontend not served")
	}

	routeParams := routes.Params{
		Config:   cfg,
		Logger:   logg,
		Records:  records,
		Redis:    redisClient,
		Catalog:  movies,
		Sessions: sessions,
		Carts:    carts,
		Checkout: checkoutService,
		Upstream: upstream,
		Contract: contract,
		Registry: registry,
		Assets:   assets,
	}
	if mongoClient != nil {
		routeParams.Mongo = mongoClient
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":     cfg.App.Env,
		"addr":    addr,
		"store":   cfg.Store.Backend,
		"mirror":  dispatcher.Enabled(),
		"catalog": len(movies.List()),
	})

	router, err := routes.NewRouter(routeParams)
	if err != nil {
		logg.Error(logCtx, "failed to build router", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logg.Info(logCtx, "starting api server")
		serveErr <- server.ListenAndServe()
	}()

	exitCode := 0
	select {
	case err := <-serveErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			exitCode = 1
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs error
	errs = multierr.Append(errs, server.Shutdown(shutdownCtx))
	errs = multierr.Append(errs, dispatcher.Wait(shutdownCtx))
	for i := len(closers) - 1; i >= 0; i-- {
		errs = multierr.Append(errs, closers[i]())
	}
	if errs != nil {
		logg.Error(logCtx, "shutdown finished with errors", errs)
		exitCode = 1
	} else {
		logg.Info(logCtx, "api server stopped")
	}

	if exitCode != 0 {
		os.Exit(exitCode)
	}
}
