package main

import (
	"log"
	"os"
	"time"

	"github.com/mustafateksen/virtue-local-admin-dashboard/config"
	"github.com/mustafateksen/virtue-local-admin-dashboard/database"
	"github.com/mustafateksen/virtue-local-admin-dashboard/handlers"
	"github.com/mustafateksen/virtue-local-admin-dashboard/middleware"
	"github.com/mustafateksen/virtue-local-admin-dashboard/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Initialize device client and sync service
	deviceClient := services.NewHTTPDeviceClient(cfg.Device)
	syncService := services.NewSyncService(db, deviceClient)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(db, cfg.JWT)
	computeUnitHandler := handlers.NewComputeUnitHandler(db, deviceClient, syncService)
	streamerHandler := handlers.NewStreamerHandler(db, deviceClient)
	favoriteHandler := handlers.NewFavoriteHandler(db)
	systemHandler := handlers.NewSystemHandler(deviceClient)
	proxyHandler := handlers.NewProxyHandler(db, deviceClient)
	anomalyHandler := handlers.NewAnomalyHandler(deviceClient)

	// Setup router
	router := setupRouter(authHandler, computeUnitHandler, streamerHandler, favoriteHandler, systemHandler, proxyHandler, anomalyHandler, cfg)

	// Periodic sweep so offline units come back online without an
	// operator listing them.
	go monitorComputeUnits(syncService, cfg.Device.MonitorInterval)

	// Start server
	port := cfg.Server.Port
	if port == "" {
		port = "8001"
	}

	log.Printf("Server starting on port %s", port)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func monitorComputeUnits(syncService *services.SyncService, interval time.Duration) {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		syncService.ReconcileAll()
	}
}

func setupRouter(
	authHandler *handlers.AuthHandler,
	computeUnitHandler *handlers.ComputeUnitHandler,
	streamerHandler *handlers.StreamerHandler,
	favoriteHandler *handlers.FavoriteHandler,
	systemHandler *handlers.SystemHandler,
	proxyHandler *handlers.ProxyHandler,
	anomalyHandler *handlers.AnomalyHandler,
	cfg *config.Config,
) *gin.Engine {
	// Set Gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// CORS configuration
	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:   []string{"Content-Length", "Content-Type"},
		MaxAge:          12 * 3600, // 12 hours
	}))

	// Health and probe endpoints stay public
	router.GET("/api/health", systemHandler.HealthCheck)
	router.GET("/api/ping", systemHandler.Ping)

	// Auth routes
	auth := router.Group("/api/auth")
	{
		auth.GET("/check-registration", authHandler.CheckRegistration)
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes
	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(cfg.JWT.Secret))
	{
		protected.GET("/auth/me", authHandler.GetMe)

		// Compute unit routes
		computeUnits := protected.Group("/compute_units")
		{
			computeUnits.GET("", computeUnitHandler.GetComputeUnits)
			computeUnits.POST("", computeUnitHandler.CreateComputeUnit)
			computeUnits.GET("/:id", computeUnitHandler.GetComputeUnit)
			computeUnits.PUT("/:id", computeUnitHandler.UpdateComputeUnit)
			computeUnits.DELETE("/:id", computeUnitHandler.DeleteComputeUnit)
			computeUnits.POST("/:id/sync", computeUnitHandler.SyncComputeUnit)
		}

		// Streamer routes
		streamers := protected.Group("/streamers")
		{
			streamers.GET("/get_streamers", streamerHandler.GetStreamers)
			streamers.PUT("/:streamer_uuid/name", streamerHandler.RenameStreamer)
			streamers.POST("/last_frame", proxyHandler.GetLastFrame)
		}

		// Favorites routes
		favorites := protected.Group("/favorites")
		{
			favorites.GET("", favoriteHandler.GetFavorites)
			favorites.POST("", favoriteHandler.CreateFavorite)
			favorites.DELETE("/:streamer_uuid", favoriteHandler.DeleteFavorite)
		}

		// Proxy routes
		protected.GET("/get_cameras", proxyHandler.GetCameras)
		apps := protected.Group("/apps")
		{
			apps.GET("/assignments", proxyHandler.GetAppAssignments)
			apps.GET("/supported", proxyHandler.GetSupportedApps)
		}

		// Anomaly review routes
		anomalyLogs := protected.Group("/anomaly_logs")
		{
			anomalyLogs.GET("/metadata", anomalyHandler.GetAnomalyLogsMetadata)
			anomalyLogs.GET("/image", anomalyHandler.GetAnomalyLogImage)
			anomalyLogs.POST("/star", anomalyHandler.SetAnomalyLogStar)
			anomalyLogs.DELETE("/delete", anomalyHandler.DeleteAnomalyLog)
		}
		memorySet := protected.Group("/memory_set")
		{
			memorySet.GET("/rows", anomalyHandler.GetMemorySetRows)
			memorySet.GET("/samples", anomalyHandler.GetMemorySetSamples)
			memorySet.POST("/thumbnails", anomalyHandler.GetMemorySetThumbnails)
			memorySet.DELETE("/delete", anomalyHandler.DeleteMemorySet)
		}

		// System routes
		protected.GET("/system/stats", systemHandler.GetSystemStats)
	}

	return router
}
