package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"inventory/internal/handlers"
	"inventory/internal/models"
	"inventory/internal/repositories"
	"inventory/internal/services"
	"inventory/pkg/events"
)

// NewApp wires repositories, services and handlers into a Fiber app using
// configuration from the environment. Without DATABASE_DSN the app falls
// back to in-memory repositories; a DSN that fails to connect is an error.
func NewApp() (*fiber.App, error) {
	viper.SetDefault("APP_PORT", ":3000")
	viper.SetDefault("DATABASE_DSN", "")
	viper.SetDefault("JWT_SECRET", "dev_secret_change_me")
	viper.SetDefault("AMQP_URL", "")
	viper.AutomaticEnv()

	// --- Store ---
	var (
		productRepo repositories.ProductRepository
		userRepo    repositories.UserRepository
	)
	if dsn := viper.GetString("DATABASE_DSN"); dsn != "" {
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, err
		}
		if err := db.AutoMigrate(&models.Product{}, &models.User{}); err != nil {
			return nil, err
		}
		productRepo = repositories.NewGORMProductRepository(db)
		userRepo = repositories.NewGORMUserRepository(db)
	} else {
		log.Println("DATABASE_DSN not set, using in-memory store")
		productRepo = repositories.NewInMemoryProductRepository()
		userRepo = repositories.NewInMemoryUserRepository()
	}

	// --- Stock events (optional) ---
	var publisher services.StockEventPublisher
	var mqClient *events.Client
	if amqpURL := viper.GetString("AMQP_URL"); amqpURL != "" {
		client, err := events.NewClient(events.Config{URL: amqpURL})
		if err != nil {
			return nil, err
		}
		publisher = client
		mqClient = client
	}

	// --- Services ---
	productService := services.NewProductService(productRepo, publisher)
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))

	// --- Handlers ---
	productHandler := handlers.NewProductHandler(productService)
	authHandler := handlers.NewAuthHandler(authService)

	app := fiber.New()
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := app.Group("/api")
	productHandler.RegisterRoutes(api)
	authHandler.RegisterRoutes(api)

	if mqClient != nil {
		app.Hooks().OnShutdown(func() error {
			return mqClient.Close()
		})
	}

	return app, nil
}

func main() {
	app, err := NewApp()
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	appPort := viper.GetString("APP_PORT")
	log.Printf("Starting server on %s", appPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := app.Listen(appPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	log.Println("Server gracefully stopped")
}
