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
	"go.uber.org/zap"

	identityapp "github.com/sultan/backend/internal/application/identity"
	partnerapp "github.com/sultan/backend/internal/application/partner"
	"github.com/sultan/backend/internal/domain/shared/snowflake"
	"github.com/sultan/backend/internal/infrastructure/auth"
	"github.com/sultan/backend/internal/infrastructure/cache"
	"github.com/sultan/backend/internal/infrastructure/config"
	"github.com/sultan/backend/internal/infrastructure/logger"
	"github.com/sultan/backend/internal/infrastructure/persistence"
	"github.com/sultan/backend/internal/infrastructure/telemetry"
	"github.com/sultan/backend/internal/interfaces/http/handler"
	"github.com/sultan/backend/internal/interfaces/http/middleware"
	"github.com/sultan/backend/internal/interfaces/http/router"
)

//	@title			Sultan Backend API
//	@version		1.0
//	@description	Customers, branches and branch scoped permissions
//	@BasePath		/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
		Service:    cfg.App.Name,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting Sultan backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.Int64("node_id", cfg.Snowflake.NodeID),
	)

	ctx := context.Background()

	// Telemetry
	otelProviders, err := telemetry.Setup(ctx, cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}
	defer func() {
		if err := otelProviders.Shutdown(context.Background()); err != nil {
			log.Error("Error flushing telemetry", zap.Error(err))
		}
	}()
	// from here on entries also go to the collector when telemetry.logs_enabled
	log = otelProviders.Bridge(log)
	meter := otelProviders.Meter(telemetry.MeterName)

	coreMetrics, err := telemetry.NewCoreMetrics(meter)
	if err != nil {
		log.Fatal("Failed to create core metrics", zap.Error(err))
	}

	// Id allocation
	generator, err := snowflake.New(cfg.Snowflake.NodeID)
	if err != nil {
		log.Fatal("Failed to create id generator", zap.Error(err))
	}
	ids := telemetry.NewCountingIDGenerator(generator, coreMetrics)

	// Database
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, log, logger.MapGormLogLevel(cfg.Log.Level))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully", zap.String("driver", cfg.Database.Driver))

	if db.Driver() == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}

	dbTracing := telemetry.DefaultDBTracingConfig()
	dbTracing.Enabled = cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled
	dbTracing.LogFullSQL = !cfg.IsProduction()
	dbTracing.DBSystem = db.Driver()
	if err := telemetry.NewDBTracingPlugin(dbTracing, log).RegisterOtelGorm(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}

	if err := telemetry.RegisterPoolMetrics(meter, db.Pool()); err != nil {
		log.Warn("Failed to register pool metrics", zap.Error(err))
	}

	// Permission cache
	permissionCache, cacheCloser, err := cache.NewPermissionCacheFactory(cfg.Permission, cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).Create(ctx)
	if err != nil {
		log.Fatal("Failed to create permission cache", zap.Error(err))
	}
	defer func() {
		if err := cacheCloser.Close(); err != nil {
			log.Error("Error closing permission cache", zap.Error(err))
		}
	}()

	// Repositories and services
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	branchRepo := persistence.NewGormBranchRepository(db.DB)
	permissionRepo := persistence.NewGormPermissionRepository(db.DB)

	customerService := partnerapp.NewCustomerService(customerRepo, ids, log)
	branchService := identityapp.NewBranchService(branchRepo, ids, log)
	permissionService := identityapp.NewPermissionService(permissionRepo, permissionCache, log).
		WithLoadObserver(coreMetrics)

	jwtService := auth.NewJWTService(cfg.JWT)

	// HTTP
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	httpMetrics, err := middleware.HTTPMetrics(middleware.HTTPMetricsConfig{Meter: meter, Core: coreMetrics})
	if err != nil {
		log.Fatal("Failed to create HTTP metrics", zap.Error(err))
	}

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.Use(
		middleware.RequestID(),
		logger.Recovery(log),
		logger.GinMiddleware(log),
		middleware.Secure(),
		middleware.Tracing(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     otelProviders.TracingEnabled(),
		}),
		middleware.SpanEnricher(),
		httpMetrics,
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	)

	engine.GET("/health", healthHandler(db))

	r := router.NewRouter(engine).Use(middleware.JWTAuth(middleware.JWTConfig{
		Tokens: jwtService,
		Access: permissionService,
		Logger: log,
	}))
	router.RegisterAPI(r, router.Handlers{
		Customers:   handler.NewCustomerHandler(customerService),
		Branches:    handler.NewBranchHandler(branchService),
		Permissions: handler.NewPermissionHandler(permissionService),
	}).Setup()

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
		return
	}

	log.Info("Server exited gracefully")
}

// healthHandler reports whether the database answers
func healthHandler(db *persistence.Database) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(c.Request.Context()); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"time":     time.Now().Format(time.RFC3339),
				"database": "error",
			})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"time":     time.Now().Format(time.RFC3339),
			"database": "ok",
		})
	}
}
