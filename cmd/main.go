package main

import (
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/brokermatic"
	"github.com/silicondon/columbia-compliance-portal/internal/handler"
	"github.com/silicondon/columbia-compliance-portal/internal/mailer"
	"github.com/silicondon/columbia-compliance-portal/internal/middleware"
	"github.com/silicondon/columbia-compliance-portal/internal/model"
	"github.com/silicondon/columbia-compliance-portal/internal/notification"
	"github.com/silicondon/columbia-compliance-portal/pkg/config"
	"github.com/silicondon/columbia-compliance-portal/pkg/database"
	"github.com/silicondon/columbia-compliance-portal/pkg/jwtutil"
	"github.com/silicondon/columbia-compliance-portal/pkg/logger"
	"github.com/silicondon/columbia-compliance-portal/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting compliance portal service...", zap.String("environment", cfg.Server.Env))

	// Initialize JWT utilities
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utilities initialized")

	// Initialize Prometheus metrics
	prometheus.InitMetrics(cfg)
	log.Info("Prometheus metrics initialized")

	// Initialize database and run migrations
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	if err := database.MigrateModels(
		&model.Vendor{},
		&model.InsuranceRequirement{},
		&model.Certificate{},
		&model.CertificateRequest{},
		&model.Contract{},
		&model.VendorRate{},
		&model.UnionRateSheet{},
	); err != nil {
		log.Fatal("Failed to run database migrations", zap.Error(err))
	}
	log.Info("Database connection established and migrations completed", zap.String("db_host", cfg.DB.Host), zap.String("db_name", cfg.DB.DBName))

	// Brokermatic client (mock unless an API key is configured)
	brokermaticClient := brokermatic.NewClientFromConfig(&cfg.Brokermatic, log)
	handler.SetBrokermaticClient(brokermaticClient)
	handler.SetWebhookSecret(cfg.Brokermatic.WebhookSecret)
	log.Info("Brokermatic client initialized", zap.Bool("mock", cfg.Brokermatic.UseMock()))

	// Notification scheduler wired to the certificate store and outbound mail
	scheduler := notification.NewScheduler(
		notification.NewGormStore(database.GetDB()),
		mailer.NewLogMailer(cfg.Mail.From, log),
		cfg.Notify.Recipients,
		cfg.Notify.BaseURL,
		cfg.Notify.SendTimeout,
		log,
	)
	handler.SetNotificationScheduler(scheduler)
	log.Info("Notification scheduler initialized", zap.Strings("recipients", cfg.Notify.Recipients))

	// Create Echo instance
	e := echo.New()

	// Middleware
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(middleware.MetricsMiddleware)

	// Request logging middleware
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()

			// Process request
			err := next(c)

			// Log request details
			log := logger.FromContext(c)
			log.Info("HTTP Request",
				zap.String("method", c.Request().Method),
				zap.String("path", c.Request().URL.Path),
				zap.Int("status", c.Response().Status),
				zap.Float64("duration_s", time.Since(start).Seconds()),
				zap.String("ip", c.RealIP()),
			)

			return err
		}
	})

	// Routes
	// Public routes that don't require authentication
	e.GET("/", handler.Hello)
	e.GET("/health", handler.Hello)

	// Prometheus metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Brokermatic webhook ingestion, authenticated by HMAC signature
	e.POST("/webhooks/brokermatic", handler.HandleBrokermaticWebhook)
	e.GET("/webhooks/brokermatic", handler.WebhookHealth)

	// Notification trigger for the external cron, guarded by API key
	notifications := e.Group("/notifications")
	e.GET("/notifications/check", handler.NotificationHealth)
	notifications.Use(middleware.APIKeyMiddleware(cfg.Notify.APIKey))
	notifications.POST("/check", handler.RunNotificationChecks)

	// API routes that require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Vendor endpoints
	vendors := api.Group("/vendors")
	vendors.POST("", handler.CreateVendor)
	vendors.GET("", handler.ListVendors)
	vendors.GET("/:id", handler.GetVendor)
	vendors.PUT("/:id", handler.UpdateVendor)
	vendors.DELETE("/:id", handler.DeleteVendor)
	vendors.POST("/:id/suspend", handler.SuspendVendor)
	vendors.DELETE("/:id/suspend", handler.ReinstateVendor)
	vendors.POST("/:id/request-insurance", handler.RequestInsurance)
	vendors.POST("/:id/check-compliance", handler.CheckVendorCompliance)

	// Certificate endpoints
	certificates := api.Group("/certificates")
	certificates.POST("", handler.CreateCertificate)
	certificates.GET("", handler.ListCertificates)
	certificates.GET("/:id", handler.GetCertificate)
	certificates.PUT("/:id", handler.UpdateCertificate)
	certificates.DELETE("/:id", handler.DeleteCertificate)
	certificates.POST("/parse", handler.ParseCertificate)
	certificates.POST("/:id/check", handler.CheckCertificateCompliance)

	// Contract and rate lookups
	api.GET("/contracts", handler.ListContracts)
	api.GET("/rates", handler.ListVendorRates)
	api.GET("/union-rates", handler.ListUnionRates)

	// Dashboard summary
	api.GET("/dashboard", handler.GetDashboard)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
