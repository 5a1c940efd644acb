package main

import (
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	amqp "github.com/streadway/amqp"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/conadsciacca/totem-voti/internal/config"
	"github.com/conadsciacca/totem-voti/internal/handlers"
	"github.com/conadsciacca/totem-voti/internal/models"
	"github.com/conadsciacca/totem-voti/internal/repositories"
	"github.com/conadsciacca/totem-voti/internal/services"
	"github.com/conadsciacca/totem-voti/internal/storage"
	"github.com/conadsciacca/totem-voti/pkg/rabbitmq"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := openDatabase(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Employee{}, &models.Vote{}); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	photos, err := storage.NewPhotoStore(cfg.UploadDir)
	if err != nil {
		log.Fatalf("Failed to initialize photo store: %v", err)
	}

	// The broker is optional: without RABBITMQ_URL the vote service
	// simply skips event publishing.
	var mqClient *rabbitmq.Client
	if cfg.RabbitMQURL != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: cfg.RabbitMQURL})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()

		// In-process consumer for the vote event queue; it only logs.
		err = mqClient.ConsumeVoteEvents(func(msg amqp.Delivery) error {
			log.Printf("Vote event (tag %d): %s", msg.DeliveryTag, msg.Body)
			return nil
		})
		if err != nil {
			log.Printf("Failed to start vote event consumer: %v", err)
		}
	} else {
		log.Println("RABBITMQ_URL not set, vote events disabled")
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	employeeRepo := repositories.NewGORMEmployeeRepository(db)
	voteRepo := repositories.NewGORMVoteRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, cfg.SessionSecret)
	employeeService := services.NewEmployeeService(employeeRepo, voteRepo, photos)
	voteService := services.NewVoteService(voteRepo, mqClient)
	reportService := services.NewReportService(voteRepo)

	if err := authService.EnsureSeedUsers(cfg.SeedUsers); err != nil {
		log.Fatalf("Failed to seed users: %v", err)
	}

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	scanHandler := handlers.NewScanHandler(employeeService, voteService)
	adminHandler := handlers.NewAdminHandler(employeeService)
	reportHandler := handlers.NewReportHandler(reportService)

	app := fiber.New()
	app.Use(logger.New())

	app.Static("/static/foto", photos.Dir())

	authHandler.RegisterRoutes(app)
	scanHandler.RegisterRoutes(app, authService)
	adminHandler.RegisterRoutes(app, authService)
	reportHandler.RegisterRoutes(app, authService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	log.Printf("Starting server on %s", cfg.AppPort)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := app.Shutdown(); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}

// openDatabase picks the driver from the URL: postgres DSNs start with
// postgres:// (or postgresql://), anything else is treated as a SQLite
// path. TranslateError makes unique-index violations comparable across
// both drivers.
func openDatabase(url string) (*gorm.DB, error) {
	gormCfg := &gorm.Config{TranslateError: true}
	if strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://") {
		return gorm.Open(postgres.Open(url), gormCfg)
	}
	return gorm.Open(sqlite.Open(url), gormCfg)
}
