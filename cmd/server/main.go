package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/tourdesk/booking-backend/internal/config"
	"github.com/tourdesk/booking-backend/internal/database"
	"github.com/tourdesk/booking-backend/internal/handlers"
	"github.com/tourdesk/booking-backend/internal/locks"
	"github.com/tourdesk/booking-backend/internal/middleware"
	"github.com/tourdesk/booking-backend/internal/models"
	"github.com/tourdesk/booking-backend/internal/services"
	"github.com/tourdesk/booking-backend/pkg/email"
	"github.com/tourdesk/booking-backend/pkg/jwt"
	"github.com/tourdesk/booking-backend/pkg/validator"
)

var (
	version   = "1.0.0"
	buildTime = "unknown"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.WithFields(logrus.Fields{"version": version, "build_time": buildTime}).Info("Starting tour booking backend")

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	logger.Info("Database connection established")

	exec := database.NewExecutor(database.DefaultQueryOptions(cfg.Database), logger)

	bookingRepo := database.NewBookingRepository(db, exec)
	bookingTourRepo := database.NewBookingTourRepository(db, exec)
	customerRepo := database.NewCustomerRepository(db, exec)
	tourRepo := database.NewTourRepository(db, exec)
	referenceRepo := database.NewReferenceRepository(db, exec)
	notificationRepo := database.NewNotificationRepository(db, exec)
	settingRepo := database.NewSystemSettingRepository(db, exec)
	outboxRepo := database.NewEmailOutboxRepository(db, exec)
	auditRepo := database.NewPaymentAuditRepository(db, exec, logger)

	locker := newLocker(cfg.Redis, logger)

	// Background context for the dispatcher loop; cancelled on shutdown
	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	assembler := services.NewBookingAssembler(bookingRepo, bookingTourRepo, referenceRepo, logger)
	emailClient := email.NewClient(email.Config{
		APIURL: cfg.Email.APIURL,
		APIKey: cfg.Email.APIKey,
		From:   cfg.Email.From,
	})
	dispatcher := services.NewEmailDispatcher(outboxRepo, assembler, emailClient, services.EmailDispatcherConfig{
		BatchSize:    cfg.Email.DispatchBatch,
		MaxAttempts:  cfg.Email.MaxAttempts,
		BusinessName: cfg.Business.Name,
	}, logger)
	go dispatcher.Run(bgCtx)

	reconciler := services.NewReconciliationService(
		bookingRepo,
		outboxRepo,
		notificationRepo,
		locker,
		dispatcher,
		cfg.Business.AdminUserID,
		logger,
	)
	gateway := services.NewPaymentGatewayService(&cfg.Payment, logger)
	paymentService := services.NewPaymentService(bookingRepo, gateway, reconciler, auditRepo, settingRepo, logger)
	bookingService := services.NewBookingService(
		bookingRepo,
		customerRepo,
		validator.NewPhoneValidator(cfg.Business.PhoneCountryCode),
		cfg.Server.DemoMode,
		logger,
	)
	verificationService := services.NewVerificationService(bookingRepo, assembler, logger)
	receiptService := services.NewReceiptService(assembler, cfg.Business.Name, logger)

	cronService := services.NewCronService(dispatcher, logger)
	if err := cronService.Start(); err != nil {
		logger.Fatalf("Failed to start cron service: %v", err)
	}

	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)

	if err := handlers.RegisterValidators(); err != nil {
		logger.Fatalf("Failed to register validators: %v", err)
	}

	bookingHandler := handlers.NewBookingHandler(bookingService, assembler, reconciler, logger)
	paymentHandler := handlers.NewPaymentHandler(paymentService, gateway, auditRepo, logger)
	verificationHandler := handlers.NewVerificationHandler(verificationService, receiptService, logger)
	referenceHandler := handlers.NewReferenceHandler(referenceRepo, tourRepo, logger)
	notificationHandler := handlers.NewNotificationHandler(notificationRepo, logger)
	settingHandler := handlers.NewSystemSettingHandler(settingRepo, logger)
	authHandler := handlers.NewAuthHandler(jwtService, logger)
	healthHandler := handlers.NewHealthHandler(db, cronService, logger)

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.WithError(err).Fatal("Invalid TRUSTED_PROXIES")
	}
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.SecurityHeaders())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: !containsWildcard(cfg.CORS.AllowedOrigins),
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", healthHandler.Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	limiter := middleware.NewIPRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go sweepLimiter(bgCtx, limiter, logger)

	v1 := router.Group("/api/v1")
	{
		// Public endpoints used by the booking site
		public := v1.Group("")
		public.Use(middleware.RateLimit(limiter, logger))
		{
			public.POST("/bookings", bookingHandler.CreateBooking)
			public.POST("/bookings/verify", verificationHandler.VerifyBooking)
			public.POST("/payments", paymentHandler.CreatePayment)
			public.GET("/payments/:payment_id/verify", paymentHandler.VerifyPayment)
			public.GET("/receipts/:reference", verificationHandler.VerifyReceipt)
			public.GET("/receipts/:reference/pdf", verificationHandler.DownloadReceipt)
			public.GET("/settings/public", settingHandler.Public)
			public.GET("/tours", referenceHandler.ListTours)
			public.POST("/auth/refresh", authHandler.RefreshToken)
		}

		// The provider retries on its own schedule, so the webhook is not rate limited
		v1.POST("/payments/webhook", paymentHandler.Webhook)

		dashboard := v1.Group("")
		dashboard.Use(middleware.AuthMiddleware(jwtService, logger))
		{
			dashboard.GET("/bookings", bookingHandler.ListBookings)
			dashboard.GET("/bookings/:id", bookingHandler.GetBooking)
			dashboard.GET("/bookings/reference/:reference", bookingHandler.GetBookingByReference)
			dashboard.DELETE("/bookings/:id", bookingHandler.DeleteBooking)
			dashboard.POST("/bookings/status", bookingHandler.UpdateStatus)
			dashboard.GET("/payments/:payment_id/audits", paymentHandler.ListAudits)

			referenceHandler.Register(dashboard.Group("/ships"), models.ReferenceShip)
			referenceHandler.Register(dashboard.Group("/locations"), models.ReferenceLocation)
			referenceHandler.Register(dashboard.Group("/agents"), models.ReferenceAgent)
			referenceHandler.Register(dashboard.Group("/booking-agents"), models.ReferenceBookingAgent)

			notifications := dashboard.Group("/notifications")
			{
				notifications.GET("", notificationHandler.List)
				notifications.GET("/unread-count", notificationHandler.UnreadCount)
				notifications.PUT("/read-all", notificationHandler.MarkAllRead)
				notifications.PUT("/:id/read", notificationHandler.MarkRead)
				notifications.DELETE("/:id", notificationHandler.Delete)
			}

			settings := dashboard.Group("/system-settings")
			{
				settings.GET("", settingHandler.GetAll)
				settings.GET("/:key", settingHandler.GetByKey)
				settings.PUT("/:key", settingHandler.Update)
			}

			dashboard.GET("/system/jobs", healthHandler.JobStatus)
		}
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	cronService.Stop()
	stopBackground()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// newLocker returns a Redis-backed locker when REDIS_ADDR is set and reachable,
// otherwise an in-process one
func newLocker(cfg config.RedisConfig, logger *logrus.Logger) locks.Locker {
	if cfg.Addr == "" {
		logger.Info("REDIS_ADDR not set, using in-process booking locks")
		return locks.NewLocalLocker()
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis unreachable, using in-process booking locks")
		client.Close()
		return locks.NewLocalLocker()
	}

	logger.WithField("addr", cfg.Addr).Info("Using Redis booking locks")
	return locks.NewRedisLocker(client, cfg.LockTTL, logger)
}

func sweepLimiter(ctx context.Context, limiter *middleware.IPRateLimiter, logger *logrus.Logger) {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := limiter.Cleanup(); n > 0 {
				logger.WithField("removed", n).Debug("Rate limiter entries evicted")
			}
		}
	}
}

func containsWildcard(origins []string) bool {
	for _, o := range origins {
		if o == "*" {
			return true
		}
	}
	return false
}
