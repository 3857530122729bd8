package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	ledgerapp "github.com/slnkoenergy/epc-backend/internal/application/ledger"
	paymentapp "github.com/slnkoenergy/epc-backend/internal/application/payment"
	"github.com/slnkoenergy/epc-backend/internal/domain/ledger"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/auth"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/cache"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/config"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/logger"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/notify"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/persistence"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/scheduler"
	"github.com/slnkoenergy/epc-backend/internal/infrastructure/telemetry"
	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/handler"
	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/middleware"
	"github.com/slnkoenergy/epc-backend/internal/interfaces/http/router"
)

const (
	shutdownTimeout   = 30 * time.Second
	notifierQueueSize = 256
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	zapLogger, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer logger.Sync(zapLogger)

	zapLogger.Info("starting server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	ctx := context.Background()

	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize tracer provider", zap.Error(err))
	}
	defer shutdownWithTimeout(tracerProvider.Shutdown, zapLogger, "tracer provider")

	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize meter provider", zap.Error(err))
	}
	defer shutdownWithTimeout(meterProvider.Shutdown, zapLogger, "meter provider")

	logProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogExportEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to initialize logger provider", zap.Error(err))
	}
	defer shutdownWithTimeout(logProvider.Shutdown, zapLogger, "logger provider")
	if logProvider.IsEnabled() {
		otelCore := telemetry.NewZapOTELCore(telemetry.ZapBridgeConfig{
			ServiceName:    cfg.Telemetry.ServiceName,
			LoggerProvider: logProvider,
			Level:          zapcore.InfoLevel,
		})
		zapLogger = telemetry.NewBridgedLogger(zapLogger.Core(), otelCore,
			zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:             cfg.Telemetry.ProfilingEnabled,
		ServerAddress:       cfg.Telemetry.ProfilingServer,
		ApplicationName:     cfg.Telemetry.ServiceName,
		ProfileCPU:          true,
		ProfileAllocObjects: true,
		ProfileInuseSpace:   true,
		ProfileGoroutines:   true,
	}, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to start profiler", zap.Error(err))
	}
	defer func() {
		if err := profiler.Stop(); err != nil {
			zapLogger.Error("failed to stop profiler", zap.Error(err))
		}
	}()

	gormLogger := logger.NewGormLogger(zapLogger, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLogger)
	if err != nil {
		zapLogger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			zapLogger.Error("failed to close database", zap.Error(err))
		}
	}()

	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
			Enabled:  true,
			DBSystem: "postgresql",
		}, zapLogger); err != nil {
			zapLogger.Warn("failed to register database tracing", zap.Error(err))
		}
	}
	if meterProvider.IsEnabled() {
		if _, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{}, zapLogger); err != nil {
			zapLogger.Warn("failed to register database metrics", zap.Error(err))
		}
	}

	// Redis is optional: without it the balance sheet reads straight from
	// Postgres and token revocation checks are disabled.
	var snapshotCache ledger.SnapshotCache = cache.NoopSnapshotCache{}
	var blacklist auth.TokenBlacklist
	redisClient, err := cache.NewRedisClient(cfg.Redis)
	if err != nil {
		zapLogger.Warn("redis unavailable, snapshot cache and token revocation disabled", zap.Error(err))
	} else {
		defer redisClient.Close()
		snapshotCache = cache.NewRedisSnapshotCache(redisClient, cfg.Ledger.SnapshotCacheTTL, zapLogger)
		blacklist = auth.NewRedisTokenBlacklist(redisClient)
	}

	projectRepo := persistence.NewGormProjectRepository(db.DB)
	creditRepo := persistence.NewGormCreditRepository(db.DB)
	debitRepo := persistence.NewGormDebitRepository(db.DB)
	adjustmentRepo := persistence.NewGormAdjustmentRepository(db.DB)
	poRepo := persistence.NewGormPurchaseOrderRepository(db.DB)
	billRepo := persistence.NewGormBillRepository(db.DB)
	materials := persistence.NewGormMaterialCategories(db.DB)
	payRepo := persistence.NewGormPayRequestRepository(db.DB)
	snapshotRepo := persistence.NewGormSnapshotRepository(db.DB)
	vendors := persistence.NewGormVendorDirectory(db.DB)
	counter := persistence.NewGormSettlementCounter(db.DB)
	tokens := persistence.NewGormAdvanceTokenStore(db.DB)
	uow := persistence.NewGormUnitOfWork(db.DB)

	balances := ledgerapp.NewBalanceService(
		projectRepo, creditRepo, debitRepo, adjustmentRepo,
		poRepo, billRepo, payRepo, snapshotRepo, snapshotCache,
		cfg.Ledger.SyncBatchSize, cfg.Ledger.SyncConcurrency,
		zapLogger,
	)

	notifier := notify.NewAsyncDispatcher(notify.NewLogNotifier(zapLogger), notifierQueueSize, zapLogger)
	defer notifier.Close()

	approvals := paymentapp.NewApprovalService(
		payRepo, projectRepo, poRepo, materials, counter, debitRepo,
		uow, balances, notifier, zapLogger,
	)
	settlement := paymentapp.NewSettlementService(
		payRepo, debitRepo, poRepo, tokens, vendors,
		uow, balances, notifier, cfg.Settlement.DebitAccount, zapLogger,
	)

	var businessMetrics *telemetry.BusinessMetrics
	if meterProvider.IsEnabled() {
		bm, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:    meterProvider.Meter("epc-backend/business"),
			Logger:   zapLogger,
			Provider: telemetry.NewGormLedgerMetricsProvider(db.DB),
		})
		if err != nil {
			zapLogger.Warn("failed to initialize business metrics", zap.Error(err))
		} else {
			bm.StartPeriodicCollection(ctx, 0)
			defer bm.Stop()
			businessMetrics = bm
		}
	}

	verifier := auth.NewJWTVerifier(cfg.JWT)

	balanceHandler := handler.NewBalanceHandler(balances)
	paymentHandler := handler.NewPaymentHandler(approvals, settlement)
	if businessMetrics != nil {
		paymentHandler.WithMetrics(businessMetrics)
	}
	systemHandler := handler.NewSystemHandler(handler.PingerFunc(func(context.Context) error {
		return db.Ping()
	}))

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		zapLogger.Fatal("failed to set trusted proxies", zap.Error(err))
	}

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(zapLogger))
	engine.Use(logger.GinMiddleware(zapLogger))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(limiter))
	}
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     true,
		}))
		engine.Use(middleware.SpanErrorMarker())
	}

	// Probes stay outside the versioned, authenticated API surface.
	engine.GET("/health", systemHandler.Health)
	engine.GET("/ready", systemHandler.Ready)

	authn := middleware.Authenticate(verifier, blacklist)

	ledgerGroup := router.NewDomainGroup("ledger", "/ledger").
		Use(authn, middleware.TracingAttributeInjector()).
		GET("/balances", balanceHandler.List).
		GET("/balances/:project_number", balanceHandler.Get).
		POST("/balances/export", balanceHandler.Export).
		POST("/balances/sync", balanceHandler.Sync)

	paymentsGroup := router.NewDomainGroup("payments", "/payments").
		Use(authn, middleware.TracingAttributeInjector()).
		POST("", paymentHandler.Create).
		POST("/approvals", paymentHandler.Approvals).
		POST("/utr", paymentHandler.AssignUTR).
		GET("/settlement-batch", paymentHandler.SettlementBatch).
		POST("/:id/trash", paymentHandler.Trash).
		POST("/:id/restore", paymentHandler.Restore)

	systemGroup := router.NewDomainGroup("system", "/system").
		GET("/health", systemHandler.Health).
		GET("/ready", systemHandler.Ready)

	router.NewRouter(engine, router.WithAPIVersion("v1")).
		Register(ledgerGroup).
		Register(paymentsGroup).
		Register(systemGroup).
		Setup()

	schedCfg := scheduler.DefaultConfig()
	schedCfg.SweepInterval = cfg.Trash.SweepInterval
	var sweeper scheduler.TrashSweeper
	if cfg.Trash.SweepEnabled {
		sweeper = approvals
	}
	jobs := scheduler.New(schedCfg, sweeper, func(ctx context.Context) (int, int, error) {
		var result *ledgerapp.SyncResult
		var err error
		telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels("ledger_sync", nil), func(ctx context.Context) {
			result, err = balances.SyncAll(ctx)
		})
		if err != nil {
			return 0, 0, err
		}
		return result.Projects, result.Failed, nil
	}, zapLogger)
	if err := jobs.Start(); err != nil {
		zapLogger.Fatal("failed to start scheduler", zap.Error(err))
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
		zapLogger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zapLogger.Fatal("http server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	zapLogger.Info("shutting down", zap.String("signal", sig.String()))

	jobs.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("forced shutdown", zap.Error(err))
	}

	zapLogger.Info("server stopped")
}

// shutdownWithTimeout flushes a telemetry provider during shutdown without
// letting a hung collector block process exit.
func shutdownWithTimeout(shutdown func(context.Context) error, zapLogger *zap.Logger, name string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		zapLogger.Error("failed to shut down "+name, zap.Error(err))
	}
}
