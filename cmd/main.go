package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/hrldev/portal-service/internal/config"
	"github.com/hrldev/portal-service/internal/email"
	"github.com/hrldev/portal-service/internal/handlers"
	"github.com/hrldev/portal-service/internal/middleware"
	"github.com/hrldev/portal-service/internal/migration"
	"github.com/hrldev/portal-service/internal/payments"
	"github.com/hrldev/portal-service/internal/ratelimit"
	"github.com/hrldev/portal-service/internal/repository"
	"github.com/hrldev/portal-service/internal/services"
)

func main() {
	// Load configuration
	cfg := config.LoadConfig()

	// Initialize database
	db, err := initDatabase(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Run database migrations
	if err := migration.Run(db); err != nil {
		log.Fatalf("Failed to run database migrations: %v", err)
	}
	log.Println("✓ Database migrated")

	// Initialize Redis
	redisClient := initRedis(cfg)
	if redisClient != nil {
		defer redisClient.Close()
	}

	// Initialize logrus logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Server.Mode == "release" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize repositories
	requestRepo := repository.NewProjectRequestRepository(db)
	consentRepo := repository.NewGdprConsentRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)
	packageRepo := repository.NewServicePackageRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	purchaseRepo := repository.NewPurchasedPackageRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	profileRepo := repository.NewProfileRepository(db)
	faqRepo := repository.NewFAQRepository(db)

	// Rate limiter: redis-backed when available, database otherwise
	gormStore := ratelimit.NewGormStore(db)
	var limiterStore ratelimit.Store = gormStore
	if redisClient != nil {
		limiterStore = ratelimit.NewRedisStore(redisClient, "", 0)
		log.Println("✓ Rate limiter backed by Redis")
	} else {
		log.Println("✓ Rate limiter backed by Postgres")
	}
	limiter := ratelimit.NewLimiter(limiterStore, nil, logger)
	formLimitCfg := ratelimit.Config{
		MaxAttempts: cfg.RateLimit.FormMaxAttempts,
		Window:      time.Duration(cfg.RateLimit.FormWindowMin) * time.Minute,
		Block:       time.Duration(cfg.RateLimit.FormBlockMin) * time.Minute,
	}

	// Email providers: SendGrid primary, SMTP fallback
	var providers []email.Provider
	if cfg.Email.SendGridAPIKey != "" {
		providers = append(providers, email.NewSendGridProvider(cfg.Email.SendGridAPIKey, cfg.Email.From, cfg.Email.FromName))
		log.Println("✓ SendGrid email provider configured")
	}
	if cfg.Email.SMTPHost != "" {
		providers = append(providers, email.NewSMTPProvider(
			cfg.Email.SMTPHost, cfg.Email.SMTPPort,
			cfg.Email.SMTPUsername, cfg.Email.SMTPPassword,
			cfg.Email.From, cfg.Email.FromName,
		))
		log.Println("✓ SMTP email provider configured")
	}
	var mailer *email.Mailer
	if len(providers) > 0 {
		mailer = email.NewMailer(email.NewFailoverProvider(logger, providers...), cfg.Email.ContactInbox, cfg.Site.Origin, logger)
	} else {
		log.Println("⚠ No email provider configured, notifications disabled")
	}

	// Payment gateway
	gateway := payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret)
	if cfg.Stripe.WebhookSecret == "" {
		log.Println("⚠ STRIPE_WEBHOOK_SECRET not set, webhook signature verification disabled")
	}

	// Initialize services
	auditService := services.NewAuditService(auditRepo, logger)
	submissionService := services.NewSubmissionService(limiter, formLimitCfg, requestRepo, consentRepo, auditService, mailer, logger)
	checkoutService := services.NewCheckoutService(gateway, packageRepo, orderRepo, cfg.Site.Origin, logger)
	webhookService := services.NewWebhookService(gateway, orderRepo, purchaseRepo, packageRepo, auditService, mailer, logger)
	gdprService := services.NewGDPRService(consentRepo, profileRepo, requestRepo, purchaseRepo, messageRepo, orderRepo, auditService, logger)
	portalService := services.NewPortalService(requestRepo, messageRepo, purchaseRepo, packageRepo, profileRepo, faqRepo, auditService, logger)

	cleanup := services.NewCleanupService(
		gormStore,
		auditService,
		time.Duration(cfg.RateLimit.RetentionDays)*24*time.Hour,
		time.Duration(cfg.RateLimit.AuditRetentionDays)*24*time.Hour,
		logger,
	)
	if err := cleanup.Start(); err != nil {
		log.Fatalf("Failed to start cleanup job: %v", err)
	}
	defer cleanup.Stop()

	// Initialize handlers
	formHandler := handlers.NewFormHandler(submissionService, logger)
	checkoutHandler := handlers.NewCheckoutHandler(checkoutService, logger)
	webhookHandler := handlers.NewWebhookHandler(webhookService, logger)
	portalHandler := handlers.NewPortalHandler(portalService, gdprService, logger)
	adminHandler := handlers.NewAdminHandler(portalService, auditService, logger)
	auditHandler := handlers.NewAuditHandler(auditService, logger)
	healthHandler := handlers.NewHealthHandler(db, redisClient)
	var emailHandler *handlers.EmailHandler
	if mailer != nil && cfg.Email.ServiceToken != "" {
		emailHandler = handlers.NewEmailHandler(mailer, cfg.Email.ServiceToken, logger)
	}

	// Initialize middleware
	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret)

	// Setup Gin router
	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.RequestLogging(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.CORS(cfg.Site.Origin))
	router.Use(middleware.Metrics())
	router.Use(gin.Recovery())

	// Health and metrics
	router.GET("/health", healthHandler.Health)
	router.GET("/ready", healthHandler.Ready)
	router.GET("/metrics", middleware.PrometheusHandler())

	// Payment provider callbacks, outside the API group: raw body required
	router.POST("/webhooks/stripe", webhookHandler.HandleStripe)

	api := router.Group("/api/v1")
	{
		// Public routes
		api.GET("/packages", portalHandler.ListPackages)
		api.GET("/packages/:slug", portalHandler.GetPackage)
		api.GET("/faqs", portalHandler.ListFAQs)

		// Form submit accepts both guests and logged-in users
		api.POST("/forms/contact", authMiddleware.OptionalAuth(), formHandler.Submit)

		// Checkout requires authentication
		api.POST("/checkout/session", authMiddleware.AuthRequired(), checkoutHandler.CreateSession)

		// Client-side audit events
		api.POST("/audit", authMiddleware.AuthRequired(), auditHandler.Record)

		// Customer dashboard
		dashboard := api.Group("/dashboard")
		dashboard.Use(authMiddleware.AuthRequired())
		{
			dashboard.GET("/requests", portalHandler.ListProjectRequests)
			dashboard.GET("/packages", portalHandler.ListPurchases)
			dashboard.POST("/packages/:id/consultation", portalHandler.ScheduleConsultation)
			dashboard.GET("/messages", portalHandler.ListMessages)
			dashboard.POST("/messages", portalHandler.SendMessage)
			dashboard.POST("/messages/:id/read", portalHandler.MarkMessageRead)
			dashboard.GET("/profile", portalHandler.GetProfile)
			dashboard.PUT("/profile", portalHandler.UpdateProfile)
			dashboard.POST("/gdpr/revoke", portalHandler.RevokeConsent)
			dashboard.GET("/gdpr/export", portalHandler.ExportData)
			dashboard.DELETE("/gdpr", portalHandler.EraseData)
		}

		// Admin routes
		admin := api.Group("/admin")
		admin.Use(authMiddleware.AuthRequired(), authMiddleware.AdminOnly(), adminHandler.RequireRole())
		{
			admin.GET("/requests", adminHandler.ListRequests)
			admin.PUT("/requests/:id/status", adminHandler.UpdateRequestStatus)
			admin.POST("/messages", adminHandler.SendMessage)
			admin.GET("/audit", adminHandler.ListAuditLogs)
		}
	}

	// Internal email endpoints for trusted services
	if emailHandler != nil {
		internal := router.Group("/internal/v1/emails")
		internal.Use(emailHandler.RequireServiceToken())
		{
			internal.POST("/welcome", emailHandler.SendWelcome)
			internal.POST("/purchase-confirmation", emailHandler.SendPurchaseConfirmation)
			internal.POST("/password-reset", emailHandler.SendPasswordReset)
			internal.POST("/verification", emailHandler.SendVerification)
			internal.POST("/otp", emailHandler.SendOTP)
		}
	}

	// Start server
	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	log.Printf("🚀 Portal service starting on %s", serverAddr)
	log.Printf("📊 Environment: %s", cfg.Server.Mode)
	log.Printf("🗄️  Database: %s@%s:%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port)

	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}

// initDatabase opens the gorm postgres connection and tunes the pool.
func initDatabase(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	logLevel := gormlogger.Warn
	if cfg.Server.Mode != "release" {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetConnMaxLifetime(5 * time.Minute)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}

// initRedis connects to Redis, or returns nil to fall back to Postgres-only
// rate limiting.
func initRedis(cfg *config.Config) *redis.Client {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Redis.Host, cfg.Redis.Port),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx := context.Background()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Printf("⚠️  Redis connection failed: %v", err)
		log.Println("🔄 Continuing without Redis")
		return nil
	}

	log.Println("✅ Redis connected successfully")
	return rdb
}
