package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appledger "github.com/genlab/backend/internal/application/ledger"
	"github.com/genlab/backend/internal/infrastructure/auth"
	"github.com/genlab/backend/internal/infrastructure/cache"
	"github.com/genlab/backend/internal/infrastructure/config"
	"github.com/genlab/backend/internal/infrastructure/event"
	"github.com/genlab/backend/internal/infrastructure/lock"
	"github.com/genlab/backend/internal/infrastructure/logger"
	"github.com/genlab/backend/internal/infrastructure/persistence"
	"github.com/genlab/backend/internal/infrastructure/scheduler"
	"github.com/genlab/backend/internal/infrastructure/storage"
	"github.com/genlab/backend/internal/infrastructure/telemetry"
	"github.com/genlab/backend/internal/interfaces/http/handler"
	"github.com/genlab/backend/internal/interfaces/http/middleware"
	"github.com/genlab/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

//	@title			Sample Ledger API
//	@version		1.0
//	@description	Semen and embryo inventory ledger: inputs, withdrawals and production batches
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(cfg.Log, cfg.App)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	providers, err := telemetry.Setup(ctx, cfg.Telemetry, cfg.App.Env, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := providers.Shutdown(shutdownCtx); err != nil {
			log.Error("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	if providers.Logs.IsEnabled() {
		minLevel, err := zapcore.ParseLevel(cfg.Log.Level)
		if err != nil {
			minLevel = zapcore.InfoLevel
		}
		log = providers.Logs.Bridge(log, minLevel)
	}

	log.Info("Starting sample ledger",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, persistence.WithGormLogger(gormLog))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if stats, err := db.Stats(); err == nil {
			log.Info("Closing database pool", zap.Int("open", stats.Open), zap.Int64("wait_count", stats.WaitCount))
		}
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
		TracerProvider:  otel.GetTracerProvider(),
	}, log); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	log.Info("Database connected successfully")

	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() { _ = redisClient.Close() }()
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	} else {
		log.Warn("Redis not configured, shared state stays in process")
	}

	// Events
	eventBus := event.NewInMemoryEventBus(log)
	auditHandler := appledger.NewAuditHandler(log)
	eventBus.Subscribe(auditHandler)
	if redisClient != nil {
		stream := event.NewRedisStreamHandler(redisClient, event.NewLedgerSerializer(), event.DefaultLedgerStream, 100_000, log)
		eventBus.Subscribe(stream)
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	// Ledger services
	retry := appledger.RetryPolicy{MaxAttempts: cfg.Ledger.MaxRetries, Backoff: cfg.Ledger.RetryBackoff}
	txScope := persistence.NewGormTransactionScope(db.DB)

	ledgerService := appledger.NewLedgerService(txScope, persistence.NewGormBullRepository(db.DB), log)
	ledgerService.SetRetryPolicy(retry)
	ledgerService.SetMetrics(providers.Ledger)
	ledgerService.SetEventPublisher(eventBus)

	queryService := appledger.NewQueryService(
		persistence.NewGormLedgerQueryRepository(db.DB),
		persistence.NewGormInputRepository(db.DB),
		persistence.NewGormOutputRepository(db.DB),
		log,
	)
	batchService := appledger.NewBatchService(txScope, log)

	compensator := appledger.NewCompensator(txScope, log)
	compensator.SetRetryPolicy(retry)
	compensator.SetMetrics(providers.Ledger)
	compensator.SetEventPublisher(eventBus)
	if redisClient != nil {
		compensator.SetBatchLocker(lock.NewRedisBatchLocker(redisClient, log, lock.WithTTL(cfg.Ledger.BatchLockTTL)))
	}

	var reconcileScheduler *scheduler.ReconcileScheduler
	if cfg.Ledger.ReconcileEnabled {
		reconcileScheduler = scheduler.NewReconcileScheduler(cfg.Ledger, ledgerService, log)
		if cfg.Storage.Enabled() {
			archive, err := storage.NewS3ReportArchive(ctx, cfg.Storage, storage.WithLogger(log))
			if err != nil {
				log.Fatal("Failed to configure report storage", zap.Error(err))
			}
			if err := archive.EnsureBucket(ctx); err != nil {
				log.Fatal("Report bucket unavailable", zap.String("bucket", archive.Bucket()), zap.Error(err))
			}
			reconcileScheduler.SetArchive(archive)
		}
		if err := reconcileScheduler.Start(); err != nil {
			log.Fatal("Failed to start reconciliation scheduler", zap.Error(err))
		}
	}

	// HTTP
	var blacklist auth.TokenBlacklist = auth.NewInMemoryTokenBlacklist()
	if redisClient != nil {
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}

	deps := router.Deps{
		Logger:           log,
		ServiceName:      cfg.Telemetry.ServiceName,
		HTTP:             cfg.HTTP,
		TracingEnabled:   cfg.Telemetry.Enabled,
		ProfilingEnabled: providers.Profiler.IsEnabled(),
		Meter:            providers.Meter.Meter("github.com/genlab/backend/http"),
		JWTService:       auth.NewJWTService(cfg.JWT, cfg.Auth),
		TokenBlacklist:   blacklist,
		Handlers: router.Handlers{
			Inputs:  handler.NewInputHandler(ledgerService, queryService),
			Outputs: handler.NewOutputHandler(ledgerService, queryService),
			Batches: handler.NewProductionBatchHandler(batchService, compensator),
			Auth:    handler.NewAuthHandler(blacklist),
			Health:  handler.NewHealthHandler(db, redisClient),
		},
	}
	if cfg.Idempotency.Enabled {
		store, err := cache.NewIdempotencyStoreFactory(redisClient, cache.WithLogger(log)).CreateStore()
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		deps.Idempotency = store
		deps.IdempotencyTTL = cfg.Idempotency.TTL
	}
	if cfg.HTTP.RateLimitRequests > 0 {
		if redisClient != nil {
			deps.RateLimiter = middleware.NewRedisRateLimiter(redisClient, cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		} else {
			limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
			defer limiter.Close()
			deps.RateLimiter = limiter
		}
	}

	if err := middleware.SetupValidator(); err != nil {
		log.Fatal("Failed to register validators", zap.Error(err))
	}
	engine, err := router.New(deps)
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if reconcileScheduler != nil {
		if err := reconcileScheduler.Stop(shutdownCtx); err != nil {
			log.Warn("Reconciliation still running at shutdown", zap.Error(err))
		}
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}
	if deps.Idempotency != nil {
		_ = deps.Idempotency.Close()
	}

	log.Info("Server exited gracefully")
}
