package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	appevent "github.com/evmarket/backend/internal/application/event"
	settlementapp "github.com/evmarket/backend/internal/application/settlement"
	"github.com/evmarket/backend/internal/infrastructure/auth"
	"github.com/evmarket/backend/internal/infrastructure/cache"
	"github.com/evmarket/backend/internal/infrastructure/config"
	"github.com/evmarket/backend/internal/infrastructure/event"
	"github.com/evmarket/backend/internal/infrastructure/logger"
	"github.com/evmarket/backend/internal/infrastructure/persistence"
	"github.com/evmarket/backend/internal/infrastructure/scheduler"
	"github.com/evmarket/backend/internal/infrastructure/telemetry"
	"github.com/evmarket/backend/internal/interfaces/http/handler"
	"github.com/evmarket/backend/internal/interfaces/http/middleware"
	"github.com/evmarket/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	_ "github.com/evmarket/backend/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			EV Market Settlement API
//	@version		1.0
//	@description	Vendor revenue analytics, settlement requests and reconciliation for the EV charging and restaurant marketplace.

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	baseLog, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	tel, err := setupTelemetry(ctx, cfg, baseLog)
	if err != nil {
		baseLog.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer tel.shutdown(baseLog)

	// Export warnings and above through OTLP when logs export is enabled
	log := tel.logs.Bridge(baseLog, zapcore.WarnLevel)
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting settlement service",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("database", cfg.Database.Driver),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if !db.IsPostgres() {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected successfully")

	dbSystem := "postgresql"
	if !db.IsPostgres() {
		dbSystem = "sqlite"
	}
	dbTracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log)
	if err := dbTracing.RegisterOtelGorm(db.DB); err != nil {
		log.Warn("Database tracing disabled", zap.Error(err))
	}

	if tel.meters.IsEnabled() {
		sqlDB, err := db.DB.DB()
		if err != nil {
			log.Fatal("Failed to get sql.DB", zap.Error(err))
		}
		dbMetrics, err := telemetry.NewDBMetrics(tel.meters.Meter("db"), sqlDB, cfg.Telemetry.MetricsInterval, log)
		if err != nil {
			log.Warn("Database pool metrics disabled", zap.Error(err))
		} else {
			dbMetrics.Start(ctx)
			defer dbMetrics.Stop()
		}
	}

	settlementMetrics, err := telemetry.NewSettlementMetrics(telemetry.SettlementMetricsConfig{
		Meter:  tel.meters.Meter("settlement"),
		Logger: log,
	})
	if err != nil {
		log.Fatal("Failed to create settlement metrics", zap.Error(err))
	}

	// Idempotency keys for settlement requests
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(cfg.App.Env != "production"),
	).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}
	defer func() {
		if err := idempotencyStore.Close(); err != nil {
			log.Error("Error closing idempotency store", zap.Error(err))
		}
	}()

	// Events are written to the outbox inside the settlement transaction and
	// relayed to the bus after commit
	serializer := event.NewSettlementEventSerializer()
	recorder := event.NewOutboxRecorder(db.DB, serializer)
	uow := persistence.NewGormUnitOfWork(db.DB, recorder)
	repos := persistence.NewRepositories(db.DB, recorder)
	vendorRepo := persistence.NewGormVendorRepository(db.DB)

	eventBus := event.NewInMemoryEventBus(log)
	auditLogHandler := settlementapp.NewAuditLogHandler(log)
	metricsHandler := settlementapp.NewMetricsHandler(settlementMetrics)
	eventBus.Subscribe(auditLogHandler, auditLogHandler.EventTypes()...)
	eventBus.Subscribe(metricsHandler, metricsHandler.EventTypes()...)
	log.Info("Event handlers registered",
		zap.Strings("audit_log_events", auditLogHandler.EventTypes()),
		zap.Strings("metrics_events", metricsHandler.EventTypes()),
	)

	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	outboxRepo := event.NewGormOutboxRepository(db.DB)
	outboxConfig := event.DefaultOutboxProcessorConfig()
	outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, serializer, outboxConfig, log)
	if err := outboxProcessor.Start(ctx); err != nil {
		log.Fatal("Failed to start outbox processor", zap.Error(err))
	}
	defer func() {
		if err := outboxProcessor.Stop(context.Background()); err != nil {
			log.Error("Error stopping outbox processor", zap.Error(err))
		}
	}()
	log.Info("Outbox processor started",
		zap.Int("batch_size", outboxConfig.BatchSize),
		zap.Duration("poll_interval", outboxConfig.PollInterval),
	)

	// Application services
	svcCfg := settlementapp.ConfigFromSettings(cfg.Settlement)
	balanceService := settlementapp.NewBalanceService(repos.Transactions, repos.Settlements, svcCfg, settlementMetrics)
	analyticsService := settlementapp.NewAnalyticsService(repos.Transactions, repos.Settlements, vendorRepo, balanceService, svcCfg, settlementMetrics)
	workflowService := settlementapp.NewWorkflowService(uow, vendorRepo, idempotencyStore, svcCfg, settlementMetrics)
	lifecycleService := settlementapp.NewLifecycleService(uow, repos.Settlements, svcCfg, settlementMetrics)
	historyService := settlementapp.NewHistoryService(repos.Settlements, svcCfg)
	holdService := settlementapp.NewHoldService(uow, repos.Holds)
	reconciliationService := settlementapp.NewReconciliationService(uow, repos.Transactions, repos.Settlements, svcCfg, settlementMetrics)

	// Nightly reconciliation sweep
	if cfg.Reconcile.ScheduleEnabled {
		hour, minute, err := scheduler.ParseCronSchedule(cfg.Reconcile.Schedule)
		if err != nil {
			log.Fatal("Invalid reconcile.schedule", zap.Error(err))
		}
		auditScheduler := scheduler.NewAuditScheduler(scheduler.AuditSchedulerConfig{
			Enabled:             true,
			CronHour:            hour,
			CronMinute:          minute,
			JobTimeout:          cfg.Reconcile.JobTimeout,
			MaxConcurrentAudits: cfg.Reconcile.Concurrency,
			Location:            cfg.Settlement.Location(),
		}, vendorRepo, reconciliationService, log)
		if err := auditScheduler.Start(ctx); err != nil {
			log.Fatal("Failed to start audit scheduler", zap.Error(err))
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := auditScheduler.Stop(stopCtx); err != nil {
				log.Error("Error stopping audit scheduler", zap.Error(err))
			}
		}()
	}

	// HTTP handlers
	settlementHandler := handler.NewSettlementHandler(workflowService, historyService)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsService, balanceService)
	adminHandler := handler.NewSettlementAdminHandler(lifecycleService, holdService, reconciliationService)
	outboxHandler := handler.NewOutboxHandler(appevent.NewOutboxService(outboxRepo, log))

	healthHandler := handler.NewHealthHandler(2 * time.Second).
		AddCheck("database", func(ctx context.Context) error { return db.DB.WithContext(ctx).Exec("SELECT 1").Error })
	if pinger, ok := idempotencyStore.(*cache.RedisIdempotencyStore); ok {
		healthHandler.AddCheck("redis", func(ctx context.Context) error { return pinger.GetClient().Ping(ctx).Err() })
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Root span per request, then request attributes and error marking
	// 3. Metrics and profiling labels
	// 4. Recovery - Catch panics
	// 5. Logger - Log requests
	// 6. Security headers, CORS, body limit
	engine.Use(middleware.RequestID())
	engine.Use(middleware.TracingWithConfig(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
	}))
	engine.Use(middleware.TracingAttributeInjector())
	engine.Use(middleware.SpanErrorMarker())
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: tel.meters,
		Enabled:       cfg.Telemetry.MetricsEnabled,
		Logger:        log,
	}))
	profilingConfig := middleware.DefaultProfilingConfig()
	profilingConfig.Enabled = tel.profiler.IsEnabled()
	engine.Use(middleware.ProfilingWithConfig(profilingConfig))
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	engine.GET("/health", healthHandler.Health)
	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	var routerOpts []router.RouterOption
	if cfg.JWT.Enabled {
		jwtService := auth.NewJWTService(cfg.JWT)
		routerOpts = append(routerOpts, router.WithMiddleware(middleware.JWTAuthMiddlewareWithConfig(middleware.JWTMiddlewareConfig{
			JWTService: jwtService,
			Logger:     log,
		})))
	} else {
		log.Warn("JWT authentication disabled, vendor scoping checks path format only")
	}

	stopCleanup := make(chan struct{})
	var requestLimiter *middleware.RateLimiter
	if cfg.HTTP.SettlementRateLimit > 0 {
		requestLimiter = middleware.NewRateLimiter(cfg.HTTP.SettlementRateLimit, cfg.HTTP.SettlementRateBurst)
		go requestLimiter.RunCleanup(time.Minute, stopCleanup)
		log.Info("Settlement request rate limiting enabled",
			zap.Float64("per_second", cfg.HTTP.SettlementRateLimit),
			zap.Int("burst", cfg.HTTP.SettlementRateBurst),
		)
	}

	r := router.NewRouter(engine, routerOpts...)
	r.Register(router.SettlementGroups(router.SettlementHandlers{
		Settlements:    settlementHandler,
		Analytics:      analyticsHandler,
		Admin:          adminHandler,
		Outbox:         outboxHandler,
		RequestLimiter: requestLimiter,
	})...)
	r.Setup()

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
	close(stopCleanup)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}

	log.Info("Server exited gracefully")
}

type telemetryProviders struct {
	tracer   *telemetry.TracerProvider
	meters   *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
}

// setupTelemetry starts tracing, metrics, log export and continuous profiling.
// Disabled components are no-ops.
func setupTelemetry(ctx context.Context, cfg *config.Config, log *zap.Logger) (*telemetryProviders, error) {
	tc := cfg.Telemetry

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           tc.Enabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		SamplingRatio:     tc.SamplingRatio,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	meters, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           tc.MetricsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ExportInterval:    tc.MetricsInterval,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           tc.LogsEnabled,
		CollectorEndpoint: tc.CollectorEndpoint,
		ServiceName:       tc.ServiceName,
		Insecure:          tc.Insecure,
	}, log)
	if err != nil {
		return nil, err
	}

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         tc.ProfilingEnabled,
		ServerAddress:   tc.ProfilingServer,
		ApplicationName: tc.ServiceName,
		ProfileTypes:    tc.ProfilingProfileTypes,
	}, log)
	if err != nil {
		return nil, err
	}
	if profiler.IsEnabled() && tracer.IsEnabled() {
		tracer.EnableSpanProfiles()
	}

	return &telemetryProviders{tracer: tracer, meters: meters, logs: logs, profiler: profiler}, nil
}

func (t *telemetryProviders) shutdown(log *zap.Logger) {
	ctx := context.Background()
	if err := t.profiler.Stop(); err != nil {
		log.Error("Error stopping profiler", zap.Error(err))
	}
	if err := t.meters.Shutdown(ctx); err != nil {
		log.Error("Error shutting down meter provider", zap.Error(err))
	}
	if err := t.tracer.Shutdown(ctx); err != nil {
		log.Error("Error shutting down tracer provider", zap.Error(err))
	}
	if err := t.logs.Shutdown(ctx); err != nil {
		log.Error("Error shutting down logger provider", zap.Error(err))
	}
}
