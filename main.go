package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/Ananth-NQI/washpe-backend/database"
	"github.com/Ananth-NQI/washpe-backend/internal/config"
	"github.com/Ananth-NQI/washpe-backend/internal/handlers"
	"github.com/Ananth-NQI/washpe-backend/internal/jobs"
	"github.com/Ananth-NQI/washpe-backend/internal/metrics"
	"github.com/Ananth-NQI/washpe-backend/internal/middleware"
	"github.com/Ananth-NQI/washpe-backend/internal/models"
	"github.com/Ananth-NQI/washpe-backend/internal/routes"
	"github.com/Ananth-NQI/washpe-backend/internal/services"
	"github.com/Ananth-NQI/washpe-backend/internal/storage"
)

func main() {
	// Load .env file for local development
	if os.Getenv("INSTANCE_CONNECTION_NAME") == "" {
		if err := godotenv.Load(".env"); err != nil {
			if err := godotenv.Load("environments/.env.development"); err != nil {
				log.Info("⚠️  No .env file found - checking environment variables")
			}
		}
	}

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("Invalid configuration")
	}
	setupLogging(cfg)

	// Initialize storage
	store, err := openStore(cfg)
	if err != nil {
		log.WithError(err).Fatal("Failed to initialize storage")
	}

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewCollector(registry)

	// OTP delivery
	smsSender, emailSender := openSenders(cfg)
	notifier := services.NewNotifier(smsSender, emailSender, cfg.OTPDeliveryTimeout, recorder)

	if err := os.MkdirAll(cfg.MediaDir, 0o755); err != nil {
		log.WithError(err).Fatal("Failed to create media directory")
	}
	media := services.NewMediaStore(afero.NewBasePathFs(afero.NewOsFs(), cfg.MediaDir), cfg.MediaBaseURL, cfg.MediaMaxBytes)

	tokens := services.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	throttle := services.NewThrottle(cfg.OTPRateInterval, cfg.OTPRateBurst)
	deps := services.FlowDeps{
		Registrations: store.Registrations(),
		OTP:           services.NewOTPService(cfg.OTPHashCost),
		Notifier:      notifier,
		Tokens:        tokens,
		Media:         media,
		Throttle:      throttle,
		LoginTTL:      cfg.LoginOTPTTL,
		Metrics:       recorder,
	}

	// Initialize all services
	coupons := services.NewCouponService(store.Coupons(), store.Partners())
	app := fiber.New(fiber.Config{
		AppName:      "WashPe Backend v" + routes.Version,
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    int(cfg.MediaMaxBytes)*len(models.DocumentFields) + 1<<20,
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowOrigins(),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))
	app.Use(middleware.RecordRequests(recorder))
	app.Static(cfg.MediaBaseURL, cfg.MediaDir)

	routes.SetupRoutes(app, routes.Dependencies{
		Store:  store,
		Tokens: tokens,
		Media:  media,

		UserFlow:            services.NewFlow[models.User, *models.User](services.UserDescriptor(cfg.UserOTPTTL), store.Users(), deps),
		PartnerFlow:         services.NewFlow[models.Partner, *models.Partner](services.PartnerDescriptor(cfg.PartnerOTPTTL), store.Partners(), deps),
		DeliveryPartnerFlow: services.NewFlow[models.DeliveryPartner, *models.DeliveryPartner](services.DeliveryPartnerDescriptor(cfg.DeliveryOTPTTL), store.DeliveryPartners(), deps),

		Users:            services.NewUserService(store.Users(), media),
		Partners:         services.NewPartnerService(store.Partners(), media),
		DeliveryPartners: services.NewDeliveryPartnerService(store.DeliveryPartners(), media),
		Coupons:          coupons,
		Orders:           services.NewOrderService(store, coupons),

		Metrics:  recorder,
		Gatherer: registry,

		TwilioAuthToken:       cfg.TwilioAuthToken,
		SkipWebhookValidation: cfg.DisableWebhookValidation,
		HealthTimeout:         cfg.StoreTimeout,
	})

	// Initialize and start the staging purge job
	purgeJob := jobs.NewStagingPurgeJob(store.Registrations(), media, cfg.StagingRetention, cfg.StagingPurgeInterval, cfg.StoreTimeout, recorder)
	purgeJob.Start()

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Info("🛑 Gracefully shutting down...")
		log.Info("⏹️  Stopping staging purge job...")
		purgeJob.Stop()
		throttle.Stop()
		log.Info("⏹️  Shutting down server...")
		_ = app.ShutdownWithTimeout(10 * time.Second)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(ctx); err != nil {
			log.WithError(err).Warn("Failed to close storage")
		}
	}()

	// Start server
	log.Info("========================================")
	log.Infof("🚀 WashPe Backend starting on port %s", cfg.Port)
	log.Infof("📊 Storage: %s", cfg.StoreDriver)
	log.Infof("🌍 Environment: %s", cfg.Env)
	log.Infof("📱 SMS: %s", configured(cfg.TwilioConfigured()))
	log.Infof("📧 Email: %s", configured(cfg.SMTPConfigured()))
	log.Info("========================================")

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Server stopped")
	}
}

func setupLogging(cfg *config.Config) {
	if cfg.IsProduction() {
		log.SetFormatter(&log.JSONFormatter{})
		log.SetLevel(log.InfoLevel)
		return
	}
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.DebugLevel)
}

// openStore connects the configured backend and runs its migrations
func openStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		log.Warn("⚠️  Using in-memory storage (not for production!)")
		return storage.NewMemoryStore(), nil

	case "mongo":
		log.Info("📦 Connecting to MongoDB...")
		db, err := database.ConnectMongo(context.Background(), cfg)
		if err != nil {
			return nil, err
		}
		store := storage.NewMongoStore(db, cfg.StoreTimeout)
		log.Info("🔄 Creating MongoDB indexes...")
		if err := store.Migrate(context.Background()); err != nil {
			return nil, err
		}
		log.Info("✅ Using MongoDB storage")
		return store, nil

	default:
		log.Info("📦 Connecting to PostgreSQL database...")
		db, err := database.Connect(cfg)
		if err != nil {
			return nil, err
		}
		store := storage.NewDatabaseStore(db, cfg.StoreTimeout)
		log.Info("🔄 Running database migrations...")
		if err := store.Migrate(); err != nil {
			return nil, err
		}
		log.Info("✅ Using PostgreSQL database storage")
		return store, nil
	}
}

// openSenders returns the SMS and email senders; unconfigured channels log instead of sending
func openSenders(cfg *config.Config) (services.Sender, services.Sender) {
	var sms services.Sender = services.LogSender{Channel: models.ChannelMobile}
	if cfg.TwilioConfigured() {
		twilioSender, err := services.NewTwilioSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken,
			cfg.TwilioPhoneNumber, cfg.SMSCountryCode, cfg.TwilioStatusCallback)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Twilio sender")
		}
		sms = twilioSender
		log.Info("✅ Twilio SMS sender initialized")
	} else {
		log.Warn("⚠️  Twilio credentials not found - OTP SMS will only be logged")
	}

	var email services.Sender = services.LogSender{Channel: models.ChannelEmail}
	if cfg.SMTPConfigured() {
		email = services.NewSMTPSender(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom)
		log.Info("✅ SMTP email sender initialized")
	} else {
		log.Warn("⚠️  SMTP settings not found - OTP emails will only be logged")
	}
	return sms, email
}

func configured(ok bool) string {
	if ok {
		return "Configured"
	}
	return "Not configured"
}
