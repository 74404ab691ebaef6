// Command server runs the ClearBook HTTP API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	appaudit "github.com/clearbook/backend/internal/application/audit"
	appbanking "github.com/clearbook/backend/internal/application/banking"
	appshared "github.com/clearbook/backend/internal/application/shared"
	"github.com/clearbook/backend/internal/bootstrap"
	"github.com/clearbook/backend/internal/infrastructure/auth"
	"github.com/clearbook/backend/internal/infrastructure/cache"
	"github.com/clearbook/backend/internal/infrastructure/config"
	"github.com/clearbook/backend/internal/infrastructure/event"
	"github.com/clearbook/backend/internal/infrastructure/logger"
	"github.com/clearbook/backend/internal/infrastructure/persistence"
	"github.com/clearbook/backend/internal/infrastructure/storage"
	"github.com/clearbook/backend/internal/infrastructure/telemetry"
	"github.com/clearbook/backend/internal/interfaces/http/middleware"
	"github.com/clearbook/backend/internal/interfaces/http/router"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	log.Info("Starting ClearBook",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tp, err := telemetry.NewTracerProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracer provider", zap.Error(err))
	}
	defer func() {
		if err := tp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down tracer provider", zap.Error(err))
		}
	}()

	mp, err := telemetry.NewMeterProvider(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize meter provider", zap.Error(err))
	}
	defer func() {
		if err := mp.Shutdown(context.Background()); err != nil {
			log.Error("Error shutting down meter provider", zap.Error(err))
		}
	}()

	db, err := persistence.NewDatabase(&cfg.Database, log.Named("gorm"))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	if err := telemetry.InstrumentDB(db.DB, cfg.Telemetry, cfg.IsProduction(), log); err != nil {
		log.Fatal("Failed to instrument database", zap.Error(err))
	}
	sqlDB, err := db.SQL()
	if err != nil {
		log.Fatal("Failed to get sql.DB", zap.Error(err))
	}
	if mp.IsEnabled() {
		reg, err := telemetry.RegisterPoolMetrics(mp.Meter(), sqlDB)
		if err != nil {
			log.Fatal("Failed to register pool metrics", zap.Error(err))
		}
		defer func() { _ = reg.Unregister() }()
	}

	// Redis backs token revocation and idempotency keys when enabled
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}

	var (
		stores    *cache.Stores
		blacklist auth.TokenBlacklist
	)
	if redisClient != nil {
		stores = cache.NewStores(redisClient, log)
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	} else {
		stores = cache.NewStores(nil, log)
		blacklist = auth.NewMemoryTokenBlacklist()
	}
	defer func() { _ = stores.Close() }()

	var archive appbanking.StatementArchive
	if cfg.Storage.Enabled {
		s3, err := storage.NewS3ObjectStorage(&cfg.Storage, storage.WithLogger(log.Named("storage")))
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		if err := s3.EnsureBucket(ctx); err != nil {
			log.Fatal("Failed to ensure storage bucket", zap.Error(err))
		}
		archive = s3
		log.Info("Statement archive enabled", zap.String("bucket", s3.Bucket()))
	}

	repos := persistence.NewRepositories(db.DB)
	scope := persistence.NewGormTransactionScope(db.DB)

	bus := event.NewInMemoryEventBus(log.Named("events"))
	bus.Subscribe(event.NewIdempotentHandler(
		appaudit.NewEventHandler(repos.AuditLogs(), log.Named("audit")),
		stores.Events, 0, log.Named("audit")))
	if mp.IsEnabled() {
		em, err := telemetry.NewEventMetrics(mp.Meter())
		if err != nil {
			log.Fatal("Failed to create event metrics", zap.Error(err))
		}
		bus.Subscribe(em)
	}
	if err := bus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	dispatcher := appshared.NewEventDispatcher(log.Named("events"))
	dispatcher.SetEventPublisher(bus)

	jwtService := auth.NewJWTService(cfg.JWT)
	services := bootstrap.NewServices(bootstrap.Deps{
		Scope:                        scope,
		Repos:                        repos,
		Events:                       dispatcher,
		JWT:                          jwtService,
		Blacklist:                    blacklist,
		Archive:                      archive,
		ReconciliationDateWindowDays: cfg.Accounting.ReconciliationDateWindowDays,
		Logger:                       log,
	})

	var limiter *middleware.RateLimiter
	if cfg.HTTP.RateLimitEnabled {
		limiter = middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Stop()
	}

	security := middleware.DefaultSecurityConfig()
	security.HSTSEnabled = cfg.IsProduction()

	serviceName := ""
	if cfg.Telemetry.Enabled {
		serviceName = cfg.Telemetry.ServiceName
	}

	engine, err := router.New(router.Config{
		ServiceName:    serviceName,
		JWT:            jwtService,
		Revocation:     services.Auth,
		Idempotency:    stores.Requests,
		IdempotencyTTL: cfg.Accounting.IdempotencyTTL,
		CORS:           cfg.CORS,
		Security:       security,
		MaxBodySize:    cfg.HTTP.MaxBodySize,
		RateLimiter:    limiter,
		TrustedProxies: cfg.HTTP.TrustedProxies,
		Logger:         log,
	}, services.Handlers(sqlDB, telemetry.ServiceVersion))
	if err != nil {
		log.Fatal("Failed to build router", zap.Error(err))
	}

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	// drain queued events after the last request has committed
	if err := bus.Stop(shutdownCtx); err != nil {
		log.Error("Event bus did not drain", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
