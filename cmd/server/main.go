package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	affiliateapp "github.com/czachandrew/tru-server/internal/application/affiliate"
	catalogapp "github.com/czachandrew/tru-server/internal/application/catalog"
	eventapp "github.com/czachandrew/tru-server/internal/application/event"
	identityapp "github.com/czachandrew/tru-server/internal/application/identity"
	importapp "github.com/czachandrew/tru-server/internal/application/import"
	matchingapp "github.com/czachandrew/tru-server/internal/application/matching"
	offerapp "github.com/czachandrew/tru-server/internal/application/offer"
	referralapp "github.com/czachandrew/tru-server/internal/application/referral"
	storeapp "github.com/czachandrew/tru-server/internal/application/store"
	walletapp "github.com/czachandrew/tru-server/internal/application/wallet"
	"github.com/czachandrew/tru-server/internal/domain/matching"
	"github.com/czachandrew/tru-server/internal/infrastructure/auth"
	"github.com/czachandrew/tru-server/internal/infrastructure/cache"
	"github.com/czachandrew/tru-server/internal/infrastructure/config"
	"github.com/czachandrew/tru-server/internal/infrastructure/event"
	csvimport "github.com/czachandrew/tru-server/internal/infrastructure/import"
	"github.com/czachandrew/tru-server/internal/infrastructure/logger"
	"github.com/czachandrew/tru-server/internal/infrastructure/payment"
	"github.com/czachandrew/tru-server/internal/infrastructure/persistence"
	"github.com/czachandrew/tru-server/internal/infrastructure/scheduler"
	"github.com/czachandrew/tru-server/internal/infrastructure/storage"
	"github.com/czachandrew/tru-server/internal/infrastructure/telemetry"
	"github.com/czachandrew/tru-server/internal/infrastructure/worker"
	"github.com/czachandrew/tru-server/internal/interfaces/http/handler"
	"github.com/czachandrew/tru-server/internal/interfaces/http/middleware"
	"github.com/czachandrew/tru-server/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	_ "github.com/czachandrew/tru-server/docs"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

//	@title			TRU Affiliate Platform API
//	@version		1.0
//	@description	E-commerce affiliate platform API - product catalog, affiliate link generation, wallets and referrals

//	@contact.name	API Support
//	@contact.url	https://github.com/czachandrew/tru-server
//	@contact.email	support@tru.example.com

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

//	@host		localhost:8080
//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Bearer token authentication. Format: "Bearer {token}"

//	@externalDocs.description	OpenAPI
//	@externalDocs.url			https://swagger.io/resources/open-api/

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
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting TRU Server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Create GORM logger backed by zap
	gormLogLevel := logger.MapGormLogLevel(cfg.Log.Level)
	gormLog := logger.NewGormLogger(log, gormLogLevel)

	// Initialize database connection with custom logger
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Initialize OpenTelemetry (tracing + metrics) if enabled
	var meterProvider *telemetry.MeterProvider
	if cfg.Telemetry.Enabled {
		tracerProvider, err := telemetry.NewTracerProvider(context.Background(), telemetry.Config{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			SamplingRatio:     cfg.Telemetry.SamplingRatio,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize tracer provider", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				log.Error("Error shutting down tracer provider", zap.Error(err))
			}
		}()

		meterProvider, err = telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
			Enabled:           true,
			CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
			ServiceName:       cfg.Telemetry.ServiceName,
			Insecure:          cfg.Telemetry.Insecure,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize meter provider", zap.Error(err))
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := meterProvider.Shutdown(shutdownCtx); err != nil {
				log.Error("Error shutting down meter provider", zap.Error(err))
			}
		}()

		// Database query tracing
		if cfg.Telemetry.DBTraceEnabled {
			tracingPlugin := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
				Enabled:         true,
				LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
				SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
			}, log)
			if err := tracingPlugin.RegisterOtelGorm(db.DB); err != nil {
				log.Warn("Failed to register database tracing plugin", zap.Error(err))
			}
		}

		// Database metrics (query duration, pool stats)
		dbMetrics, err := telemetry.NewDBMetrics(meterProvider.Meter("tru-server/db"), telemetry.DBMetricsConfig{
			Enabled:            true,
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err != nil {
			log.Warn("Failed to initialize database metrics", zap.Error(err))
		} else if err := db.DB.Use(telemetry.NewDBMetricsPlugin(dbMetrics, log)); err != nil {
			log.Warn("Failed to register database metrics plugin", zap.Error(err))
		}

		log.Info("Telemetry enabled",
			zap.String("collector", cfg.Telemetry.CollectorEndpoint),
			zap.Float64("sampling_ratio", cfg.Telemetry.SamplingRatio),
		)
	}

	// Initialize Redis (task store, pub/sub dispatch, token blacklist)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", zap.Error(err))
		}
	}()
	log.Info("Redis connected successfully")

	// Initialize repositories
	productRepo := persistence.NewGormProductRepository(db.DB)
	categoryRepo := persistence.NewGormCategoryRepository(db.DB)
	manufacturerRepo := persistence.NewGormManufacturerRepository(db.DB)
	linkRepo := persistence.NewGormLinkRepository(db.DB)
	assocRepo := persistence.NewGormAssociationRepository(db.DB)
	matchingRepo := persistence.NewGormMatchingRepository(db.DB)
	offerRepo := persistence.NewGormOfferRepository(db.DB)
	vendorRepo := persistence.NewGormVendorRepository(db.DB)
	cartRepo := persistence.NewGormCartRepository(db.DB)
	userRepo := persistence.NewGormUserRepository(db.DB)
	walletRepo := persistence.NewGormWalletRepository(db.DB)
	transactionRepo := persistence.NewGormTransactionRepository(db.DB)
	payoutRepo := persistence.NewGormPayoutRepository(db.DB)
	codeRepo := persistence.NewGormCodeRepository(db.DB)
	allocationRepo := persistence.NewGormAllocationRepository(db.DB)
	organizationRepo := persistence.NewGormOrganizationRepository(db.DB)
	disbursementRepo := persistence.NewGormDisbursementRepository(db.DB)
	importHistoryRepo := persistence.NewGormImportHistoryRepository(db.DB)
	outboxRepo := event.NewGormOutboxRepository(db.DB)
	jobRecordRepo := scheduler.NewJobRecordRepository(db.DB)

	// Initialize event serializer and register all event types
	eventSerializer := event.NewEventSerializer()
	event.RegisterAllEvents(eventSerializer)

	// Initialize event bus
	eventBus := event.NewInMemoryEventBus(log)

	// Identity services (auth, user)
	jwtService := auth.NewJWTService(cfg.JWT)
	tokenBlacklist := auth.NewRedisTokenBlacklistWithClient(redisClient)
	authService := identityapp.NewAuthService(userRepo, jwtService, tokenBlacklist, eventBus, identityapp.DefaultAuthServiceConfig(), log)
	userService := identityapp.NewUserService(userRepo, log)

	// Catalog services
	productService := catalogapp.NewProductService(productRepo, manufacturerRepo, categoryRepo, eventBus)
	categoryService := catalogapp.NewCategoryService(categoryRepo)
	manufacturerService := catalogapp.NewManufacturerService(manufacturerRepo)

	// Object storage for product images (S3 or stub)
	var objectStorage catalogapp.ObjectStorageService
	if cfg.Storage.Enabled {
		s3Storage, err := storage.NewS3ObjectStorage(&cfg.Storage)
		if err != nil {
			log.Fatal("Failed to initialize object storage", zap.Error(err))
		}
		objectStorage = s3Storage
		log.Info("Object storage enabled", zap.String("bucket", cfg.Storage.Bucket))
	} else {
		objectStorage = storage.NewStubObjectStorage()
		log.Warn("Object storage disabled, image uploads return stub URLs")
	}
	imageService := catalogapp.NewImageService(productRepo, objectStorage, log)

	// Affiliate link generation (Redis pub/sub worker fleet or in-process chromedp)
	taskStore := worker.NewRedisTaskStore(redisClient)
	dispatcher, err := worker.NewDispatcher(cfg, redisClient, log)
	if err != nil {
		log.Fatal("Failed to initialize task dispatcher", zap.Error(err))
	}
	callbackURL := strings.TrimRight(cfg.App.BaseURL, "/") + "/api/v1/affiliate/callback"
	linkService := affiliateapp.NewLinkService(linkRepo, productRepo, taskStore, dispatcher, eventBus, callbackURL)
	log.Info("Affiliate worker configured",
		zap.String("mode", cfg.Worker.Mode),
		zap.String("callback_url", callbackURL),
	)

	// Product matching and search
	consumerMatcher := matching.NewConsumerMatcher(matchingRepo)
	partMatcher := matching.NewMatcher(matchingRepo)
	searchService := matchingapp.NewSearchService(consumerMatcher, partMatcher, productRepo, manufacturerRepo, assocRepo, eventBus)

	// Offer and vendor services
	offerService := offerapp.NewOfferService(offerRepo, vendorRepo, productRepo, eventBus)
	vendorService := offerapp.NewVendorService(vendorRepo)

	// Cart service
	cartService := storeapp.NewCartService(cartRepo, offerRepo)

	// Wallet service; new wallets open at the configured revenue share and
	// cashout floor
	walletService := walletapp.NewWalletService(walletRepo, transactionRepo, eventBus)
	minCashout, err := decimal.NewFromString(cfg.Affiliate.MinCashout)
	if err != nil {
		log.Fatal("Invalid affiliate.min_cashout", zap.Error(err))
	}
	walletService.SetSignupDefaults(decimal.NewFromFloat(cfg.Affiliate.RevenueShareRate), minCashout)

	// Payout gateways (Stripe, PayPal) are registered only when configured;
	// unconfigured rails reject payouts at request time
	var stripeGateway *payment.StripeGateway
	var stripeSender payment.Sender
	if cfg.Payout.StripeSecretKey != "" {
		gw, err := payment.NewStripeGateway(&payment.StripeConfig{
			SecretKey:     cfg.Payout.StripeSecretKey,
			WebhookSecret: cfg.Payout.StripeWebhookSecret,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize Stripe gateway", zap.Error(err))
		}
		stripeGateway = gw
		stripeSender = gw
		log.Info("Stripe payouts enabled")
	}
	var paypalSender payment.Sender
	if cfg.Payout.PayPalClientID != "" {
		gw, err := payment.NewPayPalGateway(&payment.PayPalConfig{
			ClientID:     cfg.Payout.PayPalClientID,
			ClientSecret: cfg.Payout.PayPalClientSecret,
			BaseURL:      cfg.Payout.PayPalBaseURL,
		}, log)
		if err != nil {
			log.Fatal("Failed to initialize PayPal gateway", zap.Error(err))
		}
		paypalSender = gw
		log.Info("PayPal payouts enabled")
	}
	payoutGateway := payment.NewRoutingGateway(stripeSender, paypalSender)
	withdrawalService := walletapp.NewWithdrawalService(walletService, payoutRepo, userRepo, payoutGateway, eventBus)

	// Referral services
	codeService := referralapp.NewCodeService(codeRepo, allocationRepo, organizationRepo, eventBus)
	organizationService := referralapp.NewOrganizationService(organizationRepo, disbursementRepo)
	disbursementService := referralapp.NewDisbursementService(codeRepo, allocationRepo, organizationRepo, disbursementRepo, walletService, eventBus)

	// CSV import services
	productImportService := importapp.NewProductImportService(productRepo, manufacturerRepo, categoryRepo, eventBus)
	offerImportService := importapp.NewOfferImportService(offerRepo, vendorRepo, productRepo, eventBus)
	importHistoryService := importapp.NewImportHistoryService(importHistoryRepo)
	importSessionStore := csvimport.NewInMemorySessionStore(15 * time.Minute)

	// Outbox admin service (dead-letter inspection and retry)
	outboxService := eventapp.NewOutboxService(outboxRepo, log)

	// Idempotency store guards money-bearing handlers against redelivery
	idempotencyStore, err := cache.NewIdempotencyStoreFactory(cfg.Redis, cache.WithLogger(log)).CreateStore()
	if err != nil {
		log.Fatal("Failed to create idempotency store", zap.Error(err))
	}

	// Register event handlers for cross-context integration
	// Conversion recorded -> projected wallet earning
	conversionHandler := walletapp.NewConversionProjectionHandler(walletService, log)
	eventBus.Subscribe(event.NewIdempotentHandler(conversionHandler, idempotencyStore, log))

	// Earning confirmed -> referral disbursement allocation
	earningHandler := referralapp.NewEarningConfirmedHandler(disbursementService, log)
	eventBus.Subscribe(earningHandler)

	log.Info("Event handlers registered",
		zap.Strings("conversion_projection_events", conversionHandler.EventTypes()),
		zap.Strings("earning_confirmed_events", earningHandler.EventTypes()),
	)

	// Start event bus
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		if err := eventBus.Stop(context.Background()); err != nil {
			log.Error("Error stopping event bus", zap.Error(err))
		}
	}()

	// Initialize and start outbox processor (if enabled)
	// The processor drains the outbox_events table back onto the event bus
	// and retires dead entries for the admin retry endpoints
	if cfg.Event.ProcessorEnabled {
		processorConfig := event.DefaultOutboxProcessorConfig()
		if cfg.Event.BatchSize > 0 {
			processorConfig.BatchSize = cfg.Event.BatchSize
		}
		if cfg.Event.PollInterval > 0 {
			processorConfig.PollInterval = cfg.Event.PollInterval
		}
		processorConfig.CleanupEnabled = cfg.Event.CleanupEnabled
		if cfg.Event.CleanupRetention > 0 {
			processorConfig.CleanupRetention = cfg.Event.CleanupRetention
		}
		outboxProcessor := event.NewOutboxProcessor(outboxRepo, eventBus, eventSerializer, processorConfig, log)
		if err := outboxProcessor.Start(context.Background()); err != nil {
			log.Fatal("Failed to start outbox processor", zap.Error(err))
		}
		defer func() {
			if err := outboxProcessor.Stop(context.Background()); err != nil {
				log.Error("Error stopping outbox processor", zap.Error(err))
			}
		}()
		log.Info("Outbox processor started",
			zap.Int("batch_size", processorConfig.BatchSize),
			zap.Duration("poll_interval", processorConfig.PollInterval),
		)
	}

	// Background sweeps (stalled tasks, payout retries, stale projections,
	// quote expiry, abandoned carts). Start is a no-op when disabled.
	sweepScheduler := scheduler.NewSweepScheduler(cfg.Scheduler, linkService, walletService, withdrawalService, offerService, cartService, jobRecordRepo, log)
	if err := sweepScheduler.Start(context.Background()); err != nil {
		log.Fatal("Failed to start sweep scheduler", zap.Error(err))
	}
	defer sweepScheduler.Stop()
	if cfg.Scheduler.Enabled {
		log.Info("Sweep scheduler started",
			zap.Int("max_concurrent_jobs", cfg.Scheduler.MaxConcurrentJobs),
			zap.Duration("job_timeout", cfg.Scheduler.JobTimeout),
		)
	}

	// Business metrics (wallet liability, pending payouts/tasks gauges)
	if meterProvider != nil {
		businessMetrics, err := telemetry.NewBusinessMetrics(telemetry.BusinessMetricsConfig{
			Meter:          meterProvider.Meter("tru-server/business"),
			Logger:         log,
			WalletProvider: telemetry.NewGormWalletMetricsProvider(db.DB),
			TaskProvider:   taskStore,
		})
		if err != nil {
			log.Warn("Failed to initialize business metrics", zap.Error(err))
		} else {
			businessMetrics.StartPeriodicCollection(context.Background(), 5*time.Minute)
			defer businessMetrics.Stop()
		}
	}

	// Initialize HTTP handlers
	authHandler := handler.NewAuthHandler(authService, userService)
	userHandler := handler.NewUserHandler(userService)
	productHandler := handler.NewProductHandler(productService, imageService)
	categoryHandler := handler.NewCategoryHandler(categoryService)
	manufacturerHandler := handler.NewManufacturerHandler(manufacturerService)
	affiliateHandler := handler.NewAffiliateHandler(linkService)
	searchHandler := handler.NewSearchHandler(searchService)
	offerHandler := handler.NewOfferHandler(offerService)
	vendorHandler := handler.NewVendorHandler(vendorService)
	cartHandler := handler.NewCartHandler(cartService)
	walletHandler := handler.NewWalletHandler(walletService)
	withdrawalHandler := handler.NewWithdrawalHandler(withdrawalService)
	referralHandler := handler.NewReferralHandler(codeService, organizationService, disbursementService)
	productImportHandler := handler.NewProductImportHandler(productImportService, importHistoryService, importSessionStore)
	defer productImportHandler.Stop()
	offerImportHandler := handler.NewOfferImportHandler(offerImportService, importHistoryService, importSessionStore)
	defer offerImportHandler.Stop()
	importHistoryHandler := handler.NewImportHistoryHandler(importHistoryService)
	importSessionHandler := handler.NewImportSessionHandler(importSessionStore)
	outboxHandler := handler.NewOutboxHandler(outboxService)
	systemHandler := handler.NewSystemHandler(sweepScheduler)

	// Set Gin mode based on environment
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup validation
	middleware.SetupValidator()

	// Initialize router with custom middleware
	engine := gin.New()

	// Configure trusted proxies
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Apply middleware stack in order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Recovery - Catch panics
	// 3. Logger - Log requests
	// 4. Security - Add security headers
	// 5. CORS - Handle cross-origin requests
	// 6. BodyLimit - Limit request body size
	// 7. RateLimit - Apply rate limiting (if enabled)
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	// Configure CORS from config
	corsConfig := middleware.CORSConfig{
		AllowOrigins:     cfg.HTTP.CORSAllowOrigins,
		AllowMethods:     cfg.HTTP.CORSAllowMethods,
		AllowHeaders:     cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders:    []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))

	// Body size limit
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	// Request tracing and HTTP metrics
	if cfg.Telemetry.Enabled {
		engine.Use(middleware.Tracing())
	}
	if meterProvider != nil {
		engine.Use(middleware.HTTPMetricsWithMeter(meterProvider.Meter("tru-server/http"), true))
	}

	// Rate limiting (if enabled)
	if cfg.HTTP.RateLimitEnabled {
		rateLimiter := middleware.NewRateLimiter(cfg.HTTP.RateLimitRequests, cfg.HTTP.RateLimitWindow)
		engine.Use(middleware.RateLimit(rateLimiter))
		log.Info("Rate limiting enabled",
			zap.Int("requests", cfg.HTTP.RateLimitRequests),
			zap.Duration("window", cfg.HTTP.RateLimitWindow),
		)
	}

	// JWT middleware shared by the protected API and Swagger protection
	jwtConfig := middleware.JWTMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: tokenBlacklist,
		SkipPaths: []string{
			"/api/v1/auth/register",
			"/api/v1/auth/login",
			"/api/v1/auth/refresh",
			"/api/v1/ping",
		},
		Logger: log,
	}
	jwtMiddleware := middleware.JWTAuthMiddlewareWithConfig(jwtConfig)

	// Health check endpoints (outside API versioning). /healthz is a pure
	// liveness probe; /health and /readyz also verify the database.
	engine.GET("/health", healthHandler(db, log))
	engine.GET("/readyz", healthHandler(db, log))
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Swagger documentation endpoint (if enabled)
	if cfg.Swagger.Enabled {
		swaggerCfg := middleware.SwaggerConfig{
			Enabled:     cfg.Swagger.Enabled,
			RequireAuth: cfg.Swagger.RequireAuth,
			AllowedIPs:  cfg.Swagger.AllowedIPs,
		}
		engine.GET("/swagger/*any", middleware.SwaggerProtection(swaggerCfg, jwtMiddleware), ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Stripe payout webhook (signature-verified, outside API versioning)
	if stripeGateway != nil {
		stripeWebhookHandler := handler.NewStripeWebhookHandler(stripeGateway, withdrawalService, log)
		engine.POST("/webhooks/stripe", stripeWebhookHandler.HandleStripeWebhook)
	}

	// Public storefront API. Optional JWT attaches user identity when a
	// token is present (cart merging, attributed clicks) but never rejects.
	public := engine.Group("/api/v1")
	public.Use(middleware.OptionalJWTAuthMiddleware(jwtService))
	{
		// Consumer search
		public.GET("/search", searchHandler.ConsumerSearch)

		// Product reads
		public.GET("/products", productHandler.List)
		public.GET("/products/featured", productHandler.Featured)
		public.GET("/products/exists", productHandler.Exists)
		public.GET("/products/part-number/:part_number", productHandler.GetByPartNumber)
		public.GET("/products/:id", productHandler.GetByID)
		public.GET("/products/:id/alternatives", searchHandler.Alternatives)
		public.GET("/products/:id/offers", offerHandler.GetByProduct)
		public.GET("/products/:id/best-offer", offerHandler.BestOffer)
		public.GET("/products/:id/affiliate-links", affiliateHandler.GetByProduct)

		// Category reads
		public.GET("/categories", categoryHandler.List)
		public.GET("/categories/slug/:slug", categoryHandler.GetBySlug)
		public.GET("/categories/:id", categoryHandler.GetByID)
		public.GET("/categories/:id/children", categoryHandler.Children)

		// Manufacturer reads
		public.GET("/manufacturers", manufacturerHandler.List)
		public.GET("/manufacturers/:id", manufacturerHandler.GetByID)

		// Vendor reads
		public.GET("/vendors", vendorHandler.List)
		public.GET("/vendors/slug/:slug", vendorHandler.GetBySlug)
		public.GET("/vendors/:id", vendorHandler.GetByID)

		// Offer reads
		public.GET("/offers/:id", offerHandler.GetByID)
		public.GET("/offers/:id/price-history", offerHandler.PriceHistory)

		// Search association tracking
		public.POST("/associations/:id/click", searchHandler.RecordAssociationClick)
		public.POST("/associations/:id/conversion", searchHandler.RecordAssociationConversion)

		// Affiliate click redirect and worker result callback
		public.GET("/affiliate/links/:id/click", affiliateHandler.Click)
		public.POST("/affiliate/callback", affiliateHandler.Callback)

		// Earnings leaderboard
		public.GET("/wallet/leaderboard", walletHandler.Leaderboard)

		// Carts (guest via X-Session-Token, user via optional JWT)
		public.GET("/cart", cartHandler.Get)
		public.DELETE("/cart", cartHandler.Clear)
		public.POST("/cart/items", cartHandler.AddItem)
		public.PUT("/cart/items/:id", cartHandler.UpdateItem)
		public.POST("/cart/merge", cartHandler.Merge)
		public.POST("/cart/convert", cartHandler.Convert)
	}

	// Setup authenticated API routes using router
	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Use(jwtMiddleware)

	// Identity domain (register/login/refresh are JWT skip paths)
	authRoutes := router.NewDomainGroup("auth", "/auth")
	authRoutes.POST("/register", authHandler.Register)
	authRoutes.POST("/login", authHandler.Login)
	authRoutes.POST("/refresh", authHandler.RefreshToken)
	authRoutes.POST("/logout", authHandler.Logout)
	authRoutes.POST("/logout-all", authHandler.LogoutAll)
	authRoutes.GET("/me", authHandler.GetCurrentUser)
	authRoutes.PUT("/password", authHandler.ChangePassword)
	if cfg.HTTP.AuthRateLimitEnabled {
		authLimiter := middleware.NewRateLimiter(cfg.HTTP.AuthRateLimitRequests, cfg.HTTP.AuthRateLimitWindow)
		authRoutes.Use(middleware.RateLimit(authLimiter))
		log.Info("Auth rate limiting enabled",
			zap.Int("requests", cfg.HTTP.AuthRateLimitRequests),
			zap.Duration("window", cfg.HTTP.AuthRateLimitWindow),
		)
	}

	// User profile
	userRoutes := router.NewDomainGroup("users", "/users")
	userRoutes.PUT("/me", userHandler.UpdateProfile)
	userRoutes.PUT("/me/payout-profile", userHandler.SetPayoutProfile)

	// Affiliate link generation and conversion reporting
	affiliateRoutes := router.NewDomainGroup("affiliate", "/affiliate")
	affiliateRoutes.POST("/links", affiliateHandler.Generate)
	affiliateRoutes.POST("/links/standalone", affiliateHandler.GenerateStandalone)
	affiliateRoutes.POST("/links/:id/conversions", affiliateHandler.RecordConversion)
	affiliateRoutes.GET("/tasks/:id", affiliateHandler.TaskStatus)

	// Catalog writes
	productRoutes := router.NewDomainGroup("products", "/products")
	productRoutes.POST("", productHandler.Create)
	productRoutes.PUT("/:id", productHandler.Update)
	productRoutes.DELETE("/:id", productHandler.Delete)
	productRoutes.POST("/:id/future-demand", productHandler.RecordFutureDemand)
	productRoutes.POST("/:id/images/upload", productHandler.RequestImageUpload)
	productRoutes.POST("/:id/images/confirm", productHandler.ConfirmImageUpload)

	categoryRoutes := router.NewDomainGroup("categories", "/categories")
	categoryRoutes.POST("", categoryHandler.Create)
	categoryRoutes.DELETE("/:id", categoryHandler.Delete)

	manufacturerRoutes := router.NewDomainGroup("manufacturers", "/manufacturers")
	manufacturerRoutes.POST("", manufacturerHandler.GetOrCreate)
	manufacturerRoutes.PUT("/:id", manufacturerHandler.Update)

	// Offer and vendor writes
	offerRoutes := router.NewDomainGroup("offers", "/offers")
	offerRoutes.POST("", offerHandler.Create)
	offerRoutes.PUT("/:id/price", offerHandler.UpdatePrice)
	offerRoutes.PUT("/:id/stock", offerHandler.UpdateStock)
	offerRoutes.DELETE("/:id", offerHandler.Deactivate)

	vendorRoutes := router.NewDomainGroup("vendors", "/vendors")
	vendorRoutes.POST("", vendorHandler.Create)
	vendorRoutes.PUT("/:id/commission-rate", vendorHandler.SetCommissionRate)
	vendorRoutes.DELETE("/:id", vendorHandler.Deactivate)

	// Wallet and withdrawals
	walletRoutes := router.NewDomainGroup("wallet", "/wallet")
	walletRoutes.GET("", walletHandler.Get)
	walletRoutes.GET("/transactions", walletHandler.Transactions)
	walletRoutes.POST("/activity", walletHandler.RefreshActivity)
	walletRoutes.POST("/withdrawals", withdrawalHandler.Withdraw)
	walletRoutes.GET("/withdrawals", withdrawalHandler.History)
	walletRoutes.POST("/withdrawals/:id/cancel", withdrawalHandler.Cancel)

	// Referral codes, allocations and disbursements
	referralRoutes := router.NewDomainGroup("referrals", "/referrals")
	referralRoutes.POST("/codes", referralHandler.CreateCode)
	referralRoutes.GET("/codes", referralHandler.MyCodes)
	referralRoutes.GET("/codes/:code", referralHandler.GetByCode)
	referralRoutes.POST("/allocations", referralHandler.Attach)
	referralRoutes.GET("/allocations", referralHandler.Allocations)
	referralRoutes.PUT("/allocations/:id", referralHandler.SetAllocation)
	referralRoutes.DELETE("/allocations/:id", referralHandler.Detach)
	referralRoutes.GET("/disbursements", referralHandler.Disbursements)

	organizationRoutes := router.NewDomainGroup("organizations", "/organizations")
	organizationRoutes.GET("", referralHandler.ListOrganizations)
	organizationRoutes.GET("/:id", referralHandler.GetOrganization)

	// Staff-only administration
	adminRoutes := router.NewDomainGroup("admin", "/admin")
	adminRoutes.Use(middleware.RequireStaff())
	adminRoutes.POST("/affiliate/requeue-stalled", affiliateHandler.RequeueStalled)
	adminRoutes.POST("/affiliate/regenerate-failed", affiliateHandler.RegenerateFailed)
	adminRoutes.POST("/offers/expire-quotes", offerHandler.ExpireQuotes)
	adminRoutes.POST("/wallet/earnings", walletHandler.ProjectEarning)
	adminRoutes.POST("/wallet/earnings/:id/confirm", walletHandler.ConfirmEarning)
	adminRoutes.DELETE("/wallet/earnings/:id", walletHandler.CancelProjection)
	adminRoutes.POST("/wallet/reconcile", walletHandler.ReconcileStaleProjections)
	adminRoutes.GET("/withdrawals/pending", withdrawalHandler.PendingApprovals)
	adminRoutes.POST("/withdrawals/:id/approve", withdrawalHandler.Approve)
	adminRoutes.POST("/withdrawals/:id/reject", withdrawalHandler.Reject)
	adminRoutes.POST("/withdrawals/retry-failed", withdrawalHandler.RetryFailed)
	adminRoutes.POST("/organizations", referralHandler.CreateOrganization)
	adminRoutes.POST("/organizations/:id/verify", referralHandler.VerifyOrganization)
	adminRoutes.PUT("/organizations/:id/min-payout", referralHandler.SetOrganizationMinPayout)
	adminRoutes.POST("/organizations/:id/codes", referralHandler.CreateOrganizationCode)
	adminRoutes.POST("/organizations/:id/payouts", referralHandler.PayOrganization)
	adminRoutes.DELETE("/referrals/codes/:id", referralHandler.DeactivateCode)
	adminRoutes.GET("/users", userHandler.List)
	adminRoutes.GET("/users/:id", userHandler.GetByID)
	adminRoutes.POST("/users/:id/activate", userHandler.Activate)
	adminRoutes.POST("/users/:id/deactivate", userHandler.Deactivate)
	adminRoutes.POST("/users/:id/unlock", userHandler.Unlock)
	adminRoutes.POST("/users/:id/grant-staff", userHandler.GrantStaff)
	adminRoutes.POST("/users/:id/revoke-staff", userHandler.RevokeStaff)

	// System diagnostics (staff only)
	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.Use(middleware.RequireStaff())
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)
	systemRoutes.GET("/ping", systemHandler.Ping)
	systemRoutes.GET("/scheduler", systemHandler.SchedulerStatus)
	systemRoutes.GET("/outbox/dead", outboxHandler.GetDeadLetterEntries)
	systemRoutes.GET("/outbox/stats", outboxHandler.GetStats)
	systemRoutes.GET("/outbox/:id", outboxHandler.GetEntry)
	systemRoutes.POST("/outbox/:id/retry", outboxHandler.RetryDeadEntry)
	systemRoutes.POST("/outbox/dead/retry-all", outboxHandler.RetryAllDeadEntries)

	// Register all domain groups
	r.Register(authRoutes).
		Register(userRoutes).
		Register(affiliateRoutes).
		Register(productRoutes).
		Register(categoryRoutes).
		Register(manufacturerRoutes).
		Register(offerRoutes).
		Register(vendorRoutes).
		Register(walletRoutes).
		Register(referralRoutes).
		Register(organizationRoutes).
		Register(adminRoutes).
		Register(systemRoutes)

	// Setup routes
	r.Setup()

	// CSV import endpoints (staff only)
	importAPI := engine.Group("/api/v1")
	importAPI.Use(jwtMiddleware, middleware.RequireStaff())
	productImportHandler.RegisterRoutes(importAPI)
	offerImportHandler.RegisterRoutes(importAPI)
	importHistoryHandler.RegisterRoutes(importAPI)
	importSessionHandler.RegisterRoutes(importAPI)

	// Also keep a simple ping at root API level for basic health checks
	engine.GET("/api/v1/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	// Create HTTP server with config
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// healthHandler returns a handler for health check endpoints
func healthHandler(db *persistence.Database, _ *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		reqLog := logger.GetGinLogger(c)
		if err := db.Ping(); err != nil {
			reqLog.Warn("Health check failed", zap.Error(err))
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
