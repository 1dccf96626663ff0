package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/ilask/weather-data/configs"
	"github.com/ilask/weather-data/handlers"
	"github.com/ilask/weather-data/middlewares"
	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/services"
	"github.com/ilask/weather-data/system"
)

func main() {
	config := configs.GetConfig()

	if err := system.InitLogger(config.Server.LogDir); err != nil {
		panic(err)
	}
	defer system.Close()

	system.InitMetrics()

	db, err := gorm.Open(sqlite.Open(config.Database.Path), &gorm.Config{})
	if err != nil {
		system.Error("Failed to open database: %v", err)
		os.Exit(1)
	}
	db.Exec("PRAGMA journal_mode=WAL;")

	if err := db.AutoMigrate(models.All()...); err != nil {
		system.Error("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	storage, err := services.NewS3Storage(
		config.AWS.Region,
		config.AWS.AccessKeyID,
		config.AWS.SecretAccessKey,
		config.AWS.Bucket,
		config.AWS.Endpoint,
	)
	if err != nil {
		system.Error("Failed to initialize object storage: %v", err)
		os.Exit(1)
	}

	notifier := services.NewSMTPNotifier(
		config.SMTP.Host,
		config.SMTP.Port,
		config.SMTP.Username,
		config.SMTP.Password,
		config.SMTP.From,
		config.SMTP.AdminEmail,
	)
	llm := services.NewLLMClient(config.LLM.APIURL, config.LLM.APIKey)

	h := handlers.NewHandler(
		db,
		[]byte(config.Auth.JWTSecret),
		services.NewMonitorService(db, notifier),
		services.NewRateLimitService(db),
		services.NewWeatherService(config.Weather.APIURL),
		services.NewBackupService(db, storage, llm),
		services.NewArchiveService(db, storage),
		services.NewExportService(db, storage),
		services.NewConversionService(db, llm),
		services.NewQualityService(db, llm),
		services.NewTaskService(db, config.Notify.Endpoint),
		services.NewSysInfoService(),
	)
	h.DefaultAdminUser = config.Auth.DefaultUser
	h.DefaultAdminPassword = config.Auth.DefaultPassword

	app := fiber.New(fiber.Config{
		AppName: config.Server.AppName,
	})

	app.Use(recover.New())
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(middlewares.Prometheus())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	handlers.RegisterRoutes(app, h)

	go func() {
		if err := app.Listen(":" + config.Server.Port); err != nil {
			system.Error("Server stopped: %v", err)
			os.Exit(1)
		}
	}()
	system.Info("Server listening on port %s", config.Server.Port)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	system.Info("Shutting down")
	if err := app.Shutdown(); err != nil {
		system.Error("Shutdown failed: %v", err)
	}
}
