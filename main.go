package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/streadway/amqp"
	"github.com/spf13/viper"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"farmart/internal/cart"
	"farmart/internal/handlers"
	"farmart/internal/middleware"
	"farmart/internal/models"
	"farmart/internal/repositories"
	"farmart/internal/services"
	"farmart/pkg/rabbitmq"
)

// NewApp wires configuration, storage, services and routes and returns the
// Fiber app ready to listen. The returned cleanup function releases the
// message queue and cart store connections.
func NewApp() (*fiber.App, *services.AuthService, func(), error) {
	// --- Configuration ---
	viper.SetDefault("APP_PORT", ":8080")
	viper.SetDefault("DATABASE_DRIVER", "sqlite")
	viper.SetDefault("DATABASE_DSN", "file::memory:?cache=shared")
	viper.SetDefault("JWT_SECRET", "farmart_dev_secret")
	viper.SetDefault("RABBITMQ_URL", "")
	viper.SetDefault("REDIS_URL", "")
	viper.SetDefault("PAYMENT_URL", "")
	viper.SetDefault("CART_MAX_ITEMS", cart.DefaultMaxItems)
	viper.AutomaticEnv()

	cleanup := func() {}

	// --- Database ---
	db, err := openDatabase()
	if err != nil {
		return nil, nil, cleanup, err
	}
	if err := db.AutoMigrate(&models.User{}, &models.Animal{}, &models.Order{}, &models.OrderItem{}); err != nil {
		return nil, nil, cleanup, fmt.Errorf("failed to migrate database: %w", err)
	}

	// --- RabbitMQ (optional) ---
	var mqClient *rabbitmq.Client
	var publisher services.OrderEventPublisher
	if url := viper.GetString("RABBITMQ_URL"); url != "" {
		mqClient, err = rabbitmq.NewClient(rabbitmq.Config{URL: url})
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("failed to initialize RabbitMQ client: %w", err)
		}
		publisher = mqClient

		// Log-and-ack consumer; notification fan-out hangs off this queue.
		if consumerErr := mqClient.ConsumeOrderEvents(func(msg amqp.Delivery) error {
			log.Printf("Received order event (tag %d): %s", msg.DeliveryTag, string(msg.Body))
			return nil
		}); consumerErr != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", consumerErr)
		}
	}

	// --- Cart store (Redis when configured, in-memory otherwise) ---
	var cartStore cart.Store
	var redisStore *cart.RedisStore
	if url := viper.GetString("REDIS_URL"); url != "" {
		redisStore, err = cart.NewRedisStore(url, 7*24*time.Hour)
		if err != nil {
			return nil, nil, cleanup, fmt.Errorf("failed to initialize cart store: %w", err)
		}
		cartStore = redisStore
	} else {
		cartStore = cart.NewMemoryStore(0)
	}

	cleanup = func() {
		if mqClient != nil {
			if err := mqClient.Close(); err != nil {
				log.Printf("Error closing RabbitMQ client: %v", err)
			}
		}
		if redisStore != nil {
			if err := redisStore.Close(); err != nil {
				log.Printf("Error closing cart store: %v", err)
			}
		}
	}

	// --- Repositories ---
	userRepo := repositories.NewGORMUserRepository(db)
	animalRepo := repositories.NewGORMAnimalRepository(db)
	orderRepo := repositories.NewGORMOrderRepository(db)

	// --- Services ---
	authService := services.NewAuthService(userRepo, viper.GetString("JWT_SECRET"))
	animalService := services.NewAnimalService(animalRepo)
	catalogService := services.NewCatalogService()
	inventoryService := services.NewInventoryService(animalRepo)
	orderService := services.NewOrderService(orderRepo, animalRepo, userRepo, inventoryService, publisher)
	paymentService := services.NewPaymentService(viper.GetString("PAYMENT_URL"))
	buyerCart := cart.New(cartStore, viper.GetInt("CART_MAX_ITEMS"))

	// --- Handlers ---
	authHandler := handlers.NewAuthHandler(authService)
	animalHandler := handlers.NewAnimalHandler(animalService, catalogService)
	orderHandler := handlers.NewOrderHandler(orderService)
	cartHandler := handlers.NewCartHandler(buyerCart, animalService, orderService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, orderService)

	// --- Fiber app and routes ---
	app := fiber.New()
	app.Use(logger.New())

	apiV1 := app.Group("/api/v1")
	authRequired := middleware.AuthRequired(authService)
	farmerOnly := middleware.RoleRequired(models.RoleFarmer)
	buyerOnly := middleware.RoleRequired(models.RoleBuyer)

	// Public: registration, login, catalog browsing, payment callback.
	authHandler.RegisterRoutes(apiV1)
	animalHandler.RegisterPublicRoutes(apiV1)

	// Any authenticated account reads and decides orders; buyers create them.
	orderHandler.RegisterRoutes(apiV1, authRequired, buyerOnly)
	paymentHandler.RegisterRoutes(apiV1, authRequired)

	// Farmers: listing management. Buyers: cart and checkout.
	animalHandler.RegisterFarmerRoutes(apiV1, authRequired, farmerOnly)
	cartHandler.RegisterRoutes(apiV1, authRequired, buyerOnly)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	return app, authService, cleanup, nil
}

// openDatabase opens the configured GORM backend: SQLite by default,
// PostgreSQL when DATABASE_DRIVER=postgres.
func openDatabase() (*gorm.DB, error) {
	dsn := viper.GetString("DATABASE_DSN")
	switch driver := viper.GetString("DATABASE_DRIVER"); driver {
	case "postgres":
		db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return db, nil
	case "sqlite":
		db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to sqlite: %w", err)
		}
		return db, nil
	default:
		return nil, fmt.Errorf("unknown DATABASE_DRIVER %q", driver)
	}
}

func main() {
	app, _, cleanup, err := NewApp()
	if err != nil {
		log.Fatalf("Failed to build app: %v", err)
	}
	defer cleanup()

	appPort := viper.GetString("APP_PORT")
	log.Printf("Starting server on port %s", appPort)

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
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}
