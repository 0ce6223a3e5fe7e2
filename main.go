package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sdssn/config"
	authControllers "sdssn/controllers/auth"
	certificationControllers "sdssn/controllers/certification"
	membershipControllers "sdssn/controllers/membership"
	"sdssn/database"
	"sdssn/middleware"
	authRoutes "sdssn/routers/authRoutes"
	certificationRoutes "sdssn/routers/certificationRoutes"
	membershipRoutes "sdssn/routers/membershipRoutes"
	metricsRoutes "sdssn/routers/metricsRoutes"
	"sdssn/services/certification"
	"sdssn/services/otp"
	"sdssn/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"golang.org/x/sync/errgroup"
)

const uploadsPath = "/uploads"

func main() {
	config.LoadConfig()
	cfg := config.AppConfig
	log := utils.InitLogger(cfg.LogLevel, cfg.LogFormat)

	database.ConnectDb()
	db := database.Database.Db

	notifier := &utils.MailNotifier{Mailer: utils.NewMailer(cfg, log)}

	var assets certification.AssetStore = &utils.LocalAssetStore{Dir: cfg.UploadDir, BaseURL: uploadsPath}
	if cfg.CloudinaryCloudName != "" {
		assets = utils.NewCloudinaryAssetStore(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
	}

	deps := certification.Deps{
		Notifier:  notifier,
		Assets:    assets,
		Serials:   utils.NewSerialGenerator(cfg.SerialPrefix),
		Renderer:  utils.HTMLCertificateRenderer{},
		Logger:    log,
		VerifyURL: cfg.FrontendCertificateVerifyURL,
	}
	if cfg.RedisURL != "" {
		client, err := utils.NewRedisClient(cfg.RedisURL)
		if err != nil {
			log.Fatalf("Invalid REDIS_URL: %v", err)
		}
		defer client.Close()
		deps.Cache = &utils.RedisVerificationCache{Client: client, TTL: cfg.VerifyCacheTTL}
		log.Infof("Verification cache enabled (ttl %s)", cfg.VerifyCacheTTL)
	}

	certifications := certification.NewService(db, deps)
	certificationControllers.Init(certifications)
	membershipControllers.Init(certifications)
	authControllers.Init(otp.NewService(db, cfg.OTPTTL, cfg.SaltRound), notifier)

	scheduler, err := utils.InitializeCertificateScheduler(cfg.CertificateCron, certifications)
	if err != nil {
		log.Fatalf("Invalid CERTIFICATE_CRON: %v", err)
	}

	verifyLimiter := middleware.NewRateLimiter(cfg.VerifyRatePerMinute)
	defer verifyLimiter.Stop()
	otpLimiter := middleware.NewRateLimiter(cfg.VerifyRatePerMinute / 6)
	defer otpLimiter.Stop()

	app := fiber.New(fiber.Config{BodyLimit: 8 << 20})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",  // Allowed HTTP methods
		AllowHeaders: "Content-Type,Authorization", // Allowed headers
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
		Output: log.Writer(),
	}))

	// Locally stored credentials and certificates
	app.Static(uploadsPath, cfg.UploadDir)

	authRoutes.SetupAuthRoutes(app, otpLimiter.Handler())
	certificationRoutes.SetupCertificationRoutes(app)
	membershipRoutes.SetupMembershipRoutes(app, verifyLimiter.Handler())
	metricsRoutes.SetupMetricsRoutes(app)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Infof("Server is running on port %s", cfg.Port)
		return app.Listen(":" + cfg.Port)
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("Shutting down...")

		<-scheduler.Stop().Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return app.ShutdownWithContext(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Errorf("Server stopped: %v", err)
	}
}
