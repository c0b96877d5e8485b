package main

import (
	"context" // context package is needed for Redis operations
	"log"     // log package is needed for logging
	"time"    // Time durations

	"nanogallery/internal/api"        // Custom package for API handlers
	"nanogallery/internal/catalog"    // Template catalog views
	"nanogallery/internal/config"     // Custom package for configuration
	"nanogallery/internal/gemini"     // Image model client
	"nanogallery/internal/generation" // Generation orchestrator
	"nanogallery/internal/ledger"     // Credit ledger
	"nanogallery/internal/middleware" // Custom package for middleware
	"nanogallery/internal/moderation" // Moderation state machine
	"nanogallery/internal/storage"    // Durable object store

	"github.com/gin-contrib/cors"  // CORS middleware
	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server. Every client is constructed
// here and passed down explicitly; no package-level singletons.
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Durable object store for generated images
	var store storage.Store
	serveLocalImages := false
	switch cfg.StorageBackend {
	case "bucket":
		store = storage.NewBucketStore(cfg.BucketURL, cfg.BucketKey, cfg.BucketName)
	default:
		diskStore, err := storage.NewDiskStore(cfg.StorageDir, cfg.PublicBaseURL)
		if err != nil {
			logrus.Fatalf("failed to initialize disk storage: %v", err)
		}
		store = diskStore
		serveLocalImages = true
	}

	// Image model client; left nil without credentials so generation requests
	// fail with a model-unavailable error instead of leaking a bad key upstream
	var model generation.ImageModel
	if cfg.GeminiAPIKey != "" {
		model = gemini.New(cfg.GeminiAPIKey, cfg.GeminiModel)
	} else {
		logrus.Warn("GEMINI_API_KEY not set; generation endpoint will be unavailable")
	}

	// Core services, wired explicitly
	ledgerSvc := ledger.New(db, cfg.DefaultCredits)
	orchestrator := generation.NewOrchestrator(
		ledgerSvc,
		model,
		store,
		time.Duration(cfg.GenerationTimeout)*time.Second,
		cfg.CreditProratePartial,
	)
	moderationSvc := moderation.New(db)
	templateCatalog := catalog.New(db)

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// CORS for browser clients
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000", "http://localhost:5173"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	// Auth routes
	authGroup := r.Group("/auth")
	authGroup.POST("/register", api.RegisterHandler(db, cfg))         // Registration endpoint
	authGroup.POST("/login", api.LoginHandler(db, cfg.JWTSecret))     // Login endpoint

	// Public gallery
	r.GET("/templates", api.ListTemplatesHandler(templateCatalog, redisClient)) // Public view endpoint

	// Serve disk-stored images when the disk backend is active
	if serveLocalImages {
		r.Static("/images", cfg.StorageDir)
	}

	// Authenticated routes (protected by JWT)
	authed := r.Group("")
	authed.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret))
	authed.GET("/session", api.SessionHandler(db, ledgerSvc))                              // Current account endpoint
	authed.POST("/generate", api.GenerateHandler(orchestrator))                            // Generation endpoint
	authed.GET("/templates/mine", api.MyTemplatesHandler(templateCatalog))                 // Personal view endpoint
	authed.POST("/templates", api.CreateTemplateHandler(db, moderationSvc, redisClient))   // Save template endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(middleware.JWTAuthMiddleware(cfg.JWTSecret), middleware.AdminOnlyMiddleware(db))
	adminGroup.GET("/review", api.ReviewQueueHandler(templateCatalog))                               // Review queue endpoint
	adminGroup.POST("/templates/:id/approve", api.ApproveTemplateHandler(moderationSvc, redisClient)) // Approve endpoint
	adminGroup.POST("/templates/:id/reject", api.RejectTemplateHandler(moderationSvc, redisClient))   // Reject endpoint
	adminGroup.GET("/accounts", api.ListAccountsHandler(db, redisClient))                            // List accounts endpoint
	adminGroup.POST("/credits", api.GrantCreditsHandler(ledgerSvc, redisClient))                     // Credit grant endpoint
	adminGroup.GET("/credits", api.ListGrantsHandler(db, redisClient))                               // Grant history endpoint

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
