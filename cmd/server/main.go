package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/stocktrail/inventory-service/config"
	"github.com/stocktrail/inventory-service/internal/middleware"
	"github.com/stocktrail/inventory-service/internal/pkg/broker"
	"github.com/stocktrail/inventory-service/internal/pkg/cache"
	"github.com/stocktrail/inventory-service/internal/pkg/db"
	"github.com/stocktrail/inventory-service/internal/pkg/logger"
	"github.com/stocktrail/inventory-service/internal/pkg/search"

	catH "github.com/stocktrail/inventory-service/internal/category/handler"
	catRepoPkg "github.com/stocktrail/inventory-service/internal/category/repository"
	catUCPkg "github.com/stocktrail/inventory-service/internal/category/usecase"

	itemH "github.com/stocktrail/inventory-service/internal/item/handler"
	itemListenerPkg "github.com/stocktrail/inventory-service/internal/item/listener"
	itemRepoPkg "github.com/stocktrail/inventory-service/internal/item/repository"
	itemUCPkg "github.com/stocktrail/inventory-service/internal/item/usecase"

	reportH "github.com/stocktrail/inventory-service/internal/report/handler"
	reportUCPkg "github.com/stocktrail/inventory-service/internal/report/usecase"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          "json",
		Level:             "info",
		DisableCaller:     false,
		DisableStacktrace: false,
	}

	if cfg.Server.AppEnv == "dev" || cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = cfg.Logger.Encoding
		logConfig.Level = cfg.Logger.Level
		logConfig.DisableCaller = cfg.Logger.DisableCaller
		logConfig.DisableStacktrace = cfg.Logger.DisableStacktrace
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	conn, err := db.NewPostgres(&db.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer conn.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	// 4. Initialize Redis
	redisClient, err := cache.NewRedisClient(&cache.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()
	appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))

	// 5. Initialize Kafka Consumer
	kafkaConsumer := broker.NewConsumer(&broker.Config{
		Brokers: cfg.Kafka.Brokers,
		Topic:   cfg.Kafka.Topic,
		GroupID: cfg.Kafka.GroupID,
	})
	defer kafkaConsumer.Close()
	appLogger.Info("Connected to Kafka Consumer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

	// 6. Initialize Elasticsearch
	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Warn("Could not connect to Elasticsearch (search falls back to the database)", zap.Error(err))
		esClient = nil
	} else {
		appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
	}

	// 7. Initialize Repositories
	catRepo := catRepoPkg.NewPGRepository(conn)
	itemRepo := itemRepoPkg.NewPGRepository(conn)

	// 8. Initialize UseCases
	catUC := catUCPkg.NewCategoryUseCase(catRepo, appLogger)
	itemUC := itemUCPkg.NewItemUseCase(itemRepo, catRepo, redisClient, redisClient, esClient, appLogger)
	reportUC := reportUCPkg.NewReportUseCase(itemRepo, appLogger)

	// 9. Start the sale event listener
	saleListener := itemListenerPkg.NewSaleListener(kafkaConsumer, itemUC, appLogger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go saleListener.Start(ctx)

	// 10. Initialize Handlers
	catHandler := catH.NewCategoryHandler(catUC, appLogger)
	itemHandler := itemH.NewItemHandler(itemUC, appLogger)
	reportHandler := reportH.NewReportHandler(reportUC, appLogger)

	// 11. HTTP server
	app := fiber.New()
	app.Use(cors.New(cors.Config{
		AllowMethods: "GET, POST, PUT, PATCH, DELETE, OPTIONS",
		AllowHeaders: "Content-Type, Authorization",
	}))
	app.Use(fiberlogger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	api := app.Group("/api", middleware.JWTProtected(cfg.JWT.SecretKey))

	categories := api.Group("/categories")
	categories.Get("/", catHandler.List)
	categories.Post("/", catHandler.Create)
	categories.Get("/:id", catHandler.Get)
	categories.Put("/:id", catHandler.Update)
	categories.Delete("/:id", catHandler.Delete)

	items := api.Group("/items")
	items.Get("/", itemHandler.List)
	items.Post("/", itemHandler.Create)
	items.Get("/levels", itemHandler.Levels)
	items.Get("/:id", itemHandler.Get)
	items.Put("/:id", itemHandler.Update)
	items.Patch("/:id", itemHandler.Update)
	items.Delete("/:id", itemHandler.Delete)
	items.Get("/:id/changes", itemHandler.ItemChanges)
	items.Post("/:id/adjust", itemHandler.Adjust)

	api.Get("/changes", itemHandler.Changes)
	api.Get("/reports", reportHandler.Get)

	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := app.Listen(port); err != nil {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	if err := app.Shutdown(); err != nil {
		appLogger.Error("server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
