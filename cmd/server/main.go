package main // Entry point package

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"    // .env loader for local runs
	"github.com/labstack/echo/v4" // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/laptop-inventory/internal/config"     // Internal config loader
	"github.com/iliyamo/laptop-inventory/internal/database"   // MySQL / MongoDB connections
	"github.com/iliyamo/laptop-inventory/internal/handler"    // HTTP handlers
	"github.com/iliyamo/laptop-inventory/internal/logging"    // slog setup
	"github.com/iliyamo/laptop-inventory/internal/middleware" // request logging and cache
	"github.com/iliyamo/laptop-inventory/internal/queue"      // lifecycle events
	"github.com/iliyamo/laptop-inventory/internal/repository" // storage backends
	"github.com/iliyamo/laptop-inventory/internal/router"     // Internal router setup
	"github.com/iliyamo/laptop-inventory/internal/service"    // inventory rules
)

func main() {
	_ = godotenv.Load() // a missing .env is fine; real deployments use the environment

	cfg := config.Load() // Load environment config
	logger := logging.New(cfg.Env)
	slog.SetDefault(logger)
	for _, w := range cfg.DevFallbacks() {
		logger.Warn("insecure development setting", "env", cfg.Env, "detail", w)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(cctx); err != nil {
			logger.Warn("store close", "err", err)
		}
	}()
	logger.Info("store ready", "driver", cfg.StoreDriver)

	var events service.EventPublisher
	if cfg.Events {
		events = queue.NewPublisher(cfg.RabbitURL, logger)
		logger.Info("lifecycle events enabled", "queue", queue.QueueName)
	}
	if cfg.EventsWatch {
		go func() {
			err := queue.Consume(ctx, cfg.RabbitURL, queue.LogNotifier(logger), logger)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("events consumer stopped", "err", err)
			}
		}()
	}

	svc := service.New(store, service.Options{
		JWTSecret:  cfg.JWTSecret,
		TokenTTL:   cfg.TokenTTL,
		BcryptCost: cfg.BcryptCost,
		Events:     events,
		Logger:     logger,
	})
	if cfg.SeedAdmin {
		if _, err := svc.EnsureAdmin(ctx); err != nil {
			return err
		}
	}

	deps := router.Deps{
		Auth:     handler.NewAuthHandler(svc),
		Laptops:  handler.NewLaptopHandler(svc),
		Users:    handler.NewUserHandler(svc),
		Verifier: svc,
	}
	cacheCfg := config.LoadCacheConfig()
	if cacheCfg.Enabled {
		rdb, err := config.NewRedisClient()
		if err != nil {
			logger.Warn("redis unavailable, response cache disabled", "err", err)
		} else {
			defer func() { _ = rdb.Close() }()
			deps.Cache = middleware.NewRedisCache(cacheCfg, rdb)
			deps.Invalidate = middleware.InvalidateCache(cacheCfg, rdb)
			logger.Info("response cache enabled", "ttl", cacheCfg.TTL, "prefix", cacheCfg.Prefix)
		}
	}

	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = handler.ErrorHandler(logger)
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization},
	}))
	e.Use(echomw.BodyLimit("1M"))
	router.Register(e, deps) // Register application routes

	addr := ":" + cfg.Port // Address string with port
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", addr, "env", cfg.Env)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return e.Shutdown(sctx)
}

// openStore builds the storage backend selected by STORE_DRIVER.
func openStore(ctx context.Context, cfg config.Config) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverMemory:
		return repository.NewMemoryStore(), nil
	case config.DriverMongo:
		db, err := database.OpenMongo(cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, err
		}
		s, err := repository.NewMongoStore(ctx, db)
		if err != nil {
			_ = db.Client().Disconnect(context.Background())
			return nil, err
		}
		return s, nil
	default:
		db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return nil, err
		}
		if err := database.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, err
		}
		return repository.NewMySQLStore(db), nil
	}
}
