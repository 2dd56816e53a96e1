package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"catalog-service/internal/catalog"
	"catalog-service/internal/config"
	"catalog-service/internal/events"
	"catalog-service/internal/handlers"
	"catalog-service/internal/middleware"
	"catalog-service/internal/repository"
	"catalog-service/internal/subscribers"
)

// @title Catalog Service API
// @version 1.0.0
// @description Product catalog service: categories, products, homepage showcase and featured ranking, variant resolution and stock.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8086
// @BasePath /api/v1

// @securityDefinitions.bearer BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Initialize configuration
	cfg := config.Load()

	// Initialize database
	db, err := config.InitDB(cfg)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	if cfg.Environment == "production" {
		logger.SetLevel(logrus.InfoLevel)
	} else {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Initialize Redis client
	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Printf("WARNING: Failed to parse Redis URL: %v (continuing without Redis)", err)
		redisOpts = &redis.Options{
			Addr: "localhost:6379",
		}
	}
	redisClient := redis.NewClient(redisOpts)

	// Test Redis connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Printf("WARNING: Failed to connect to Redis: %v (caching will be disabled)", err)
		redisClient = nil
	} else {
		log.Println("✓ Redis connected successfully")
	}
	cancel()

	// Initialize repositories
	catalogRepo := repository.NewCatalogRepository(db, redisClient, logger)
	productsRepo := repository.NewProductsRepository(db, redisClient, logger)

	// Initialize event publisher only if NATS_URL is set
	var eventsPublisher *events.Publisher
	if cfg.NATSURL != "" {
		eventsPublisher, err = events.NewPublisher(cfg.NATSURL, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize events publisher: %v (continuing without event publishing)", err)
		} else {
			log.Println("✓ Events publisher initialized (NATS connected)")
		}
	}
	defer func() {
		if eventsPublisher != nil {
			eventsPublisher.Close()
		}
	}()

	// Initialize the merchandising service
	catalogService := catalog.NewService(catalogRepo, productsRepo, eventsPublisher, logger, cfg.ShowcaseLimit, cfg.FeaturedProductLimit)

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(catalogRepo, catalogService, eventsPublisher, cfg)
	productsHandler := handlers.NewProductsHandler(productsRepo, catalogService, eventsPublisher, cfg)
	storefrontHandler := handlers.NewStorefrontHandler(catalogRepo, productsRepo)
	exportHandler := handlers.NewExportHandler(productsRepo)
	healthHandler := handlers.NewHealthHandler(eventsPublisher)

	// Start the order.placed stock deduction subscriber
	var ordersSubscriber *subscribers.OrdersSubscriber
	if cfg.NATSURL != "" {
		ordersSubscriber, err = subscribers.NewOrdersSubscriber(cfg.NATSURL, productsRepo, logger)
		if err != nil {
			log.Printf("WARNING: Failed to initialize orders subscriber: %v (stock deduction disabled)", err)
		} else if err := ordersSubscriber.Start(); err != nil {
			log.Printf("WARNING: Failed to start orders subscriber: %v", err)
		} else {
			log.Println("✓ Orders subscriber started")
		}
	}
	defer func() {
		if ordersSubscriber != nil {
			ordersSubscriber.Stop()
		}
	}()

	// Initialize Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())

	// Health check endpoints (no auth required)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.HealthCheck)

	// Admin API routes
	api := router.Group("/api/v1")
	if cfg.Environment == "development" {
		api.Use(middleware.DevelopmentAuthMiddleware())
	} else {
		api.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	}

	{
		categories := api.Group("/categories")
		{
			categories.POST("", catalogHandler.CreateCategory)
			categories.GET("", catalogHandler.GetCategories)
			categories.GET("/:id", catalogHandler.GetCategory)
			categories.PUT("/:id", catalogHandler.UpdateCategory)
			categories.DELETE("/:id", catalogHandler.DeleteCategory)

			// Showcase rank operations
			categories.POST("/:id/showcase", catalogHandler.PromoteCategory)
			categories.DELETE("/:id/showcase", catalogHandler.DemoteCategory)
			categories.PUT("/:id/showcase/rank", catalogHandler.ReorderCategory)
			categories.POST("/showcase/repair", catalogHandler.RepairShowcase)

			// Featured rank repair is category-scoped
			categories.POST("/:id/featured/repair", productsHandler.RepairFeatured)

			// Counter maintenance
			categories.POST("/:id/recount", catalogHandler.RecountCategory)
		}

		subcategories := api.Group("/subcategories")
		{
			subcategories.POST("", catalogHandler.CreateSubCategory)
			subcategories.GET("", catalogHandler.GetSubCategories)
			subcategories.GET("/:id", catalogHandler.GetSubCategory)
			subcategories.PUT("/:id", catalogHandler.UpdateSubCategory)
			subcategories.DELETE("/:id", catalogHandler.DeleteSubCategory)
			subcategories.POST("/:id/recount", catalogHandler.RecountSubCategory)
		}

		products := api.Group("/products")
		{
			products.POST("", productsHandler.CreateProduct)
			products.GET("", productsHandler.GetProducts)
			products.GET("/:id", productsHandler.GetProduct)
			products.PUT("/:id", productsHandler.UpdateProduct)
			products.DELETE("/:id", productsHandler.DeleteProduct)

			// Featured rank operations
			products.POST("/:id/feature", productsHandler.PromoteProduct)
			products.DELETE("/:id/feature", productsHandler.DemoteProduct)
			products.PUT("/:id/feature/rank", productsHandler.ReorderProduct)

			// Explicit legacy variant upgrade
			products.POST("/:id/upgrade", productsHandler.UpgradeProduct)
		}

		api.GET("/export/products", exportHandler.ExportProducts)
	}

	// Public storefront endpoints (no auth required)
	storefront := router.Group("/api/v1/storefront")
	{
		storefront.GET("/showcase", storefrontHandler.GetShowcase)
		storefront.GET("/categories/:id/featured", storefrontHandler.GetFeatured)
		storefront.GET("/products/:id", storefrontHandler.GetProductDetail)
		storefront.POST("/stock/check", storefrontHandler.CheckStock)
	}

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Catalog service starting on port %s", cfg.Port)
		if err := router.Run(":" + cfg.Port); err != nil {
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-quit
	log.Println("Shutting down catalog-service...")
	log.Println("Catalog service stopped")
}
