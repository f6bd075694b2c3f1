package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"                  // Echo web framework
	echomw "github.com/labstack/echo/v4/middleware" // request logging, recovery, body limit
	"github.com/redis/go-redis/v9"                  // rate limiter and asset cache backend

	"github.com/iliyamo/croabboard/internal/config"     // Internal config loader
	"github.com/iliyamo/croabboard/internal/database"   // MySQL connection and migrations
	"github.com/iliyamo/croabboard/internal/dbx"        // transaction-scoped handles
	"github.com/iliyamo/croabboard/internal/handler"    // HTTP handlers
	"github.com/iliyamo/croabboard/internal/logging"    // structured logger
	"github.com/iliyamo/croabboard/internal/middleware" // app middleware
	"github.com/iliyamo/croabboard/internal/queue"      // event publisher and audit consumer
	"github.com/iliyamo/croabboard/internal/repository" // repository managers
	"github.com/iliyamo/croabboard/internal/repository/memory"
	"github.com/iliyamo/croabboard/internal/router"  // Internal router setup
	"github.com/iliyamo/croabboard/internal/service" // core services
	"github.com/iliyamo/croabboard/internal/storage" // asset content backends
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		fmt.Fprintln(os.Stderr, "load .env:", err)
		os.Exit(1)
	}
	cfg := config.Load() // Load environment config
	logger := logging.New(os.Stdout, cfg.Env, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error(ctx, "server stopped", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *logging.Log) error {
	// ---- Relational store ----
	var (
		repos repository.Manager
		db    *sql.DB
	)
	switch cfg.DBDriver {
	case config.DriverMySQL:
		var err error
		db, err = database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		repos = repository.NewSQLManager(db)
	default:
		logger.Warn(ctx, "using the in-memory store; data is lost on exit")
		repos = memory.NewManager()
	}

	// ---- Asset content ----
	var blobDB dbx.DBTX // nil unless MySQL is configured
	if db != nil {
		blobDB = db
	}
	store, err := storage.Open(ctx, storage.Options{
		Backend: cfg.StorageBackend,
		Dir:     cfg.UploadDir,
		S3: storage.S3Config{
			Bucket:    cfg.S3Bucket,
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			PathStyle: cfg.S3PathStyle,
		},
	}, blobDB)
	if err != nil {
		return fmt.Errorf("open asset store: %w", err)
	}

	// ---- Redis (optional) ----
	rdb, err := config.NewRedisClient(ctx)
	if err != nil {
		logger.Warn(ctx, "redis unavailable; rate limiting and asset cache disabled", "err", err)
		rdb = nil
	} else {
		defer rdb.Close()
	}

	// ---- Events ----
	var events service.EventPublisher = queue.AuditSink{Audit: repos.Audit(repos.Conn())}
	if cfg.EventsEnabled {
		events = queue.NewPublisher(cfg.AMQPURL, cfg.EventsQueue, logger)
		consumer := queue.NewConsumer(cfg.AMQPURL, cfg.EventsQueue, repos.Audit(repos.Conn()), logger)
		go func() {
			if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error(ctx, "audit consumer stopped", "err", err)
			}
		}()
	}

	// ---- Services ----
	auth := service.NewAuth(repos, service.AuthConfig{
		Secret:         cfg.JWTSecret,
		SessionTTL:     cfg.SessionTTL,
		BcryptCost:     cfg.BcryptCost,
		DefaultBtnSize: cfg.DefaultBtnSize,
	}, events, logger)
	ordering := service.NewOrdering(repos, logger)
	categories := service.NewCategories(repos, logger)
	lifecycle := service.NewLifecycle(repos, store, ordering, categories, events, logger)

	// ---- HTTP ----
	e := echo.New() // Create Echo instance
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(requestLogger(logger.Std()))
	e.Use(echomw.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB)))
	e.Use(middleware.ClientInfo())

	deps := map[string]handler.Pinger{}
	if db != nil {
		deps["database"] = db
	}
	if rdb != nil {
		deps["redis"] = redisPinger{rdb}
	}

	router.RegisterRoutes(e, router.Handlers{
		Auth:       handler.NewAuthHandler(auth, logger, cfg.Env == "prod"),
		Buttons:    handler.NewButtonHandler(lifecycle, ordering, categories, logger),
		Categories: handler.NewCategoryHandler(categories, logger),
		Stats:      handler.NewStatsHandler(service.NewStats(repos, logger), logger),
		Admin:      handler.NewAdminHandler(service.NewAdmin(repos), logger),
		Assets:     handler.NewAssetHandler(store, logger),
		Health:     handler.Health(deps),
	}, router.Middleware{
		Session:    middleware.SessionAuth(auth),
		RateLimit:  middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb, logger),
		AssetCache: middleware.NewRedisCache(config.LoadCacheConfig(), rdb),
	})

	addr := ":" + cfg.Port // Address string with port
	logger.Info(ctx, "listening", "addr", addr, "env", cfg.Env, "db", cfg.DBDriver, "storage", cfg.StorageBackend)

	errCh := make(chan error, 1)
	go func() {
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	logger.Info(shutdownCtx, "shutting down")
	return e.Shutdown(shutdownCtx)
}

type redisPinger struct{ c *redis.Client }

func (p redisPinger) PingContext(ctx context.Context) error { return p.c.Ping(ctx).Err() }

// requestLogger logs one line per request through slog.
func requestLogger(l *slog.Logger) echo.MiddlewareFunc {
	return echomw.RequestLoggerWithConfig(echomw.RequestLoggerConfig{
		LogMethod:   true,
		LogURI:      true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(c echo.Context, v echomw.RequestLoggerValues) error {
			level := slog.LevelInfo
			if v.Error != nil || v.Status >= http.StatusInternalServerError {
				level = slog.LevelError
			}
			attrs := []slog.Attr{
				slog.String("method", v.Method),
				slog.String("uri", v.URI),
				slog.Int("status", v.Status),
				slog.Duration("latency", v.Latency),
				slog.String("remote_ip", v.RemoteIP),
			}
			if v.Error != nil {
				attrs = append(attrs, slog.String("err", v.Error.Error()))
			}
			l.LogAttrs(c.Request().Context(), level, "request", attrs...)
			return nil
		},
	})
}
