package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	_ "github.com/tierhub/backend/docs"
	"github.com/tierhub/backend/internal/application/access"
	appbilling "github.com/tierhub/backend/internal/application/billing"
	appcatalog "github.com/tierhub/backend/internal/application/catalog"
	appidentity "github.com/tierhub/backend/internal/application/identity"
	"github.com/tierhub/backend/internal/application/stats"
	"github.com/tierhub/backend/internal/domain/shared"
	"github.com/tierhub/backend/internal/infrastructure/auth"
	billinginfra "github.com/tierhub/backend/internal/infrastructure/billing"
	"github.com/tierhub/backend/internal/infrastructure/cache"
	"github.com/tierhub/backend/internal/infrastructure/config"
	"github.com/tierhub/backend/internal/infrastructure/event"
	"github.com/tierhub/backend/internal/infrastructure/identityprovider"
	"github.com/tierhub/backend/internal/infrastructure/logger"
	"github.com/tierhub/backend/internal/infrastructure/persistence"
	"github.com/tierhub/backend/internal/infrastructure/scheduler"
	"github.com/tierhub/backend/internal/infrastructure/telemetry"
	"github.com/tierhub/backend/internal/interfaces/http/handler"
	"github.com/tierhub/backend/internal/interfaces/http/middleware"
	"github.com/tierhub/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//	@title			TierHub API
//	@version		1.0
//	@description	Subscription tiers, payments and API-call entitlements.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: logger.DefaultTimeFormat,
		Service:    cfg.App.Name,
		Env:        cfg.App.Env,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	if err := run(cfg, log); err != nil {
		log.Error("Server stopped with error", zap.Error(err))
		_ = logger.Sync(log)
		os.Exit(1)
	}
}

func run(cfg *config.Config, baseLog *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tel, err := telemetry.Setup(ctx, cfg.Telemetry, baseLog)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			baseLog.Error("Telemetry shutdown failed", zap.Error(err))
		}
	}()
	log := tel.Logs.Bridge(baseLog)

	log.Info("Starting TierHub backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	db, err := persistence.NewDatabase(&cfg.Database, gormLog)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := telemetry.RegisterDBTracing(db.DB, telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, log); err != nil {
		return err
	}
	log.Info("Database connected successfully")

	// Key-value stores for webhook idempotency and access token nonces
	stores, err := cache.NewStoreFactory(cfg.Redis,
		cache.WithLogger(log),
		cache.WithInMemoryFallback(!cfg.IsProduction()),
	).CreateStores()
	if err != nil {
		return err
	}
	defer func() {
		if err := stores.Close(); err != nil {
			log.Error("Error closing stores", zap.Error(err))
		}
	}()

	// External collaborators
	gateway, err := billinginfra.NewStripeAdapter(&billinginfra.StripeConfig{
		SecretKey:   cfg.Stripe.SecretKey,
		TestMode:    cfg.Stripe.TestMode,
		FrontendURL: cfg.App.FrontendURL,
		Timeout:     cfg.Stripe.GatewayTimeout,
	}, log)
	if err != nil {
		return err
	}
	profiles, err := identityprovider.NewClerkClient(identityprovider.ClerkConfig{
		BaseURL:   cfg.Identity.ClerkBaseURL,
		SecretKey: cfg.Identity.ClerkSecretKey,
		Timeout:   cfg.Identity.Timeout,
	}, nil, log.Named("clerk"))
	if err != nil {
		return err
	}
	jwtService := auth.NewJWTService(cfg.Auth)

	// Domain events are recorded by the audit handler
	bus := event.NewInMemoryEventBus(log.Named("event_bus"))
	bus.Subscribe(event.NewBillingAuditHandler(log))
	defer func() { _ = bus.Stop(context.Background()) }()

	billingMetrics, err := telemetry.NewBillingMetrics(tel.Meter.Meter(telemetry.BillingMeterName))
	if err != nil {
		return err
	}

	// Repositories
	userRepo := persistence.NewGormUserRepository(db.DB)
	tierRepo := persistence.NewGormTierRepository(db.DB)
	productRepo := persistence.NewGormProductRepository(db.DB)
	subscriptionRepo := persistence.NewGormSubscriptionRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)

	// Application services
	entitlements := appbilling.NewEntitlementService(userRepo, subscriptionRepo)
	subscriptions := appbilling.NewSubscriptionService(appbilling.SubscriptionServiceDeps{
		TxScope:          txScope,
		UserRepo:         userRepo,
		TierRepo:         tierRepo,
		SubscriptionRepo: subscriptionRepo,
		Gateway:          gateway,
		Events:           bus,
		Metrics:          billingMetrics,
		Logger:           log.Named("subscriptions"),
	}, appbilling.SubscriptionServiceConfig{GatewayTimeout: cfg.Stripe.GatewayTimeout})
	webhooks := appbilling.NewStripeWebhookService(appbilling.StripeWebhookServiceConfig{
		WebhookSecret:     cfg.Stripe.WebhookSecret,
		Confirmer:         subscriptions,
		TxScope:           txScope,
		PaymentRepo:       paymentRepo,
		Idempotency:       stores.Idempotency,
		IdempotencyConfig: shared.DefaultIdempotencyConfig(),
		Events:            bus,
		Logger:            log.Named("stripe_webhook"),
	})
	refills := appbilling.NewRefillService(txScope, subscriptionRepo, billingMetrics, log.Named("refill"))
	users := appidentity.NewUserService(userRepo, profiles, entitlements, log.Named("users"))
	tiers := appcatalog.NewTierService(txScope, tierRepo, productRepo, log.Named("tiers"))
	products := appcatalog.NewProductService(productRepo, log.Named("products"))
	productAccess := access.NewProductAccessService(productRepo, entitlements, jwtService, stores.Nonces, log.Named("product_access"))
	statsService := stats.NewStatsService(paymentRepo, userRepo, cfg.Stripe.DefaultCurrency)

	// Daily quota refill
	if cfg.Scheduler.RefillEnabled {
		refillScheduler, err := scheduler.NewRefillScheduler(scheduler.RefillSchedulerConfig{
			Hour:       cfg.Scheduler.RefillHour,
			RunTimeout: cfg.Scheduler.RefillTimeout,
		}, refills, log.Named("refill_scheduler"))
		if err != nil {
			return err
		}
		if err := refillScheduler.Start(ctx); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := refillScheduler.Stop(stopCtx); err != nil {
				log.Error("Refill scheduler did not stop cleanly", zap.Error(err))
			}
		}()
	}

	engine, err := newEngine(cfg, log, tel, db)
	if err != nil {
		return err
	}

	authenticate := middleware.JWTAuth(middleware.JWTMiddlewareConfig{Validator: jwtService, Logger: log})
	apiMiddleware := []gin.HandlerFunc{
		middleware.SecureWithConfig(securityConfig(cfg)),
		middleware.BodyLimit(cfg.HTTP.MaxBodySize),
	}
	if cfg.HTTP.RateLimitEnabled {
		limiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		defer limiter.Close()
		apiMiddleware = append(apiMiddleware, middleware.RateLimit(limiter))
	}

	r := router.NewRouter(engine, router.Guards{
		Authenticate: authenticate,
		Admin:        middleware.RequireAdmin(users, log),
	}, router.WithMiddleware(apiMiddleware...))
	r.Register(router.APIGroups(router.Handlers{
		Auth:         handler.NewAuthHandler(users),
		User:         handler.NewUserHandler(users),
		Subscription: handler.NewSubscriptionHandler(subscriptions, entitlements),
		Webhook:      handler.NewStripeWebhookHandler(webhooks, cfg.HTTP.WebhookMaxBodySize),
		Tier:         handler.NewTierHandler(tiers),
		Product:      handler.NewProductHandler(products, productAccess),
		Admin:        handler.NewAdminHandler(statsService, gateway),
	})...)
	if err := r.Setup(); err != nil {
		return fmt.Errorf("mount API routes: %w", err)
	}
	log.Debug("API routes mounted", zap.Int("count", len(r.Routes())), zap.String("base_path", r.BasePath()))

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return err
	}

	log.Info("Server exited gracefully")
	return nil
}

// newEngine builds the gin engine with the global middleware chain plus the
// health and documentation routes that live outside the versioned API.
func newEngine(cfg *config.Config, log *zap.Logger, tel *telemetry.Telemetry, db *persistence.Database) (*gin.Engine, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		return nil, err
	}

	httpMetrics, err := middleware.HTTPMetrics(tel.Meter.Meter(middleware.HTTPMeterName))
	if err != nil {
		return nil, err
	}

	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		cors.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		cors.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		cors.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.TracingWithConfig(middleware.TracingConfig{
			ServiceName: cfg.Telemetry.ServiceName,
			Enabled:     cfg.Telemetry.Enabled,
		}),
		middleware.SpanAttributes(),
		middleware.CORSWithConfig(cors),
		httpMetrics,
	)

	system := handler.NewSystemHandler(cfg.App.Name, version, db)
	engine.GET("/health", system.Health)

	engine.GET("/swagger/*any",
		middleware.SwaggerProtection(middleware.SwaggerConfig{
			Enabled:    cfg.Swagger.Enabled,
			AllowedIPs: cfg.Swagger.AllowedIPs,
		}),
		ginSwagger.WrapHandler(swaggerFiles.Handler),
	)

	return engine, nil
}

func securityConfig(cfg *config.Config) middleware.SecurityConfig {
	sec := middleware.DefaultSecurityConfig()
	sec.HSTSEnabled = cfg.IsProduction()
	return sec
}
