package cmd

import (
	"log"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/arconis2020/smb-to-kodi/config"
	"github.com/arconis2020/smb-to-kodi/database"
	"github.com/arconis2020/smb-to-kodi/handlers"
	"github.com/arconis2020/smb-to-kodi/middleware"
	"github.com/arconis2020/smb-to-kodi/services"
	"github.com/arconis2020/smb-to-kodi/websocket"
)

// StartWebServer starts the web server.
func StartWebServer(port int) {
	if mode := os.Getenv("GIN_MODE"); mode != "" {
		gin.SetMode(mode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.Open(config.GetDatabasePath())
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}

	// Initialize services
	hub := websocket.NewHub()
	go hub.Run()

	scanner := services.NewScanner(db)
	syncQueue := services.NewSyncQueue(config.GetSyncWorkers(), db, scanner, hub)
	syncQueue.Start()

	r := NewRouter(db, scanner, syncQueue, hub)

	portStr := strconv.Itoa(port)
	if serverPort := config.Env["SERVER_PORT"]; serverPort != "" {
		portStr = serverPort
	}

	log.Printf("smb-to-kodi web server starting on port %s", portStr)
	log.Printf("Database: %s", config.GetDatabasePath())
	if err := r.Run(":" + portStr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// NewRouter wires up middleware, handlers, and routes. Split out from
// StartWebServer so tests can run the full route table against httptest.
func NewRouter(db *gorm.DB, scanner services.Scanner, syncQueue services.SyncQueue, hub websocket.Hub) *gin.Engine {
	libraryHandler := handlers.NewLibraryHandler(db)
	seriesHandler := handlers.NewSeriesHandler(db, scanner)
	treeHandler := handlers.NewTreeHandler(db)
	syncHandler := handlers.NewSyncHandler(syncQueue, hub)
	healthHandler := handlers.NewHealthHandler(db)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.Logging())

	setupRoutes(r, libraryHandler, seriesHandler, treeHandler, syncHandler, healthHandler)
	return r
}

// setupRoutes configures all the HTTP routes.
func setupRoutes(r *gin.Engine, libraryHandler *handlers.LibraryHandler, seriesHandler *handlers.SeriesHandler, treeHandler *handlers.TreeHandler, syncHandler *handlers.SyncHandler, healthHandler *handlers.HealthHandler) {
	// Health check endpoint
	r.GET("/health", healthHandler.HealthCheck)

	// API routes group
	apiGroup := r.Group("/api")
	{
		apiGroup.GET("/status", healthHandler.APIStatus)

		// Player configuration
		apiGroup.POST("/player", libraryHandler.SetPlayer)

		// Library management
		librariesGroup := apiGroup.Group("/libraries")
		{
			librariesGroup.GET("", libraryHandler.List)
			librariesGroup.POST("", libraryHandler.Add)
			librariesGroup.DELETE("/:shortname", libraryHandler.Delete)

			// Series libraries
			librariesGroup.GET("/:shortname/series", seriesHandler.List)
			librariesGroup.POST("/:shortname/series", seriesHandler.Add)
			librariesGroup.GET("/:shortname/series/:series/episodes", seriesHandler.Episodes)
			librariesGroup.POST("/:shortname/series/:series/episodes/play", seriesHandler.Play)
			librariesGroup.POST("/:shortname/series/:series/episodes/watched", seriesHandler.MarkWatched)
			librariesGroup.POST("/:shortname/series/:series/episodes/watched-up-to", seriesHandler.WatchedUpTo)
			librariesGroup.POST("/:shortname/series/:series/episodes/manage", seriesHandler.Manage)
			librariesGroup.POST("/:shortname/series/:series/episodes/kodi", seriesHandler.KodiControl)

			// Movie and music libraries render as a nested folder tree
			librariesGroup.GET("/:shortname/tree", treeHandler.Tree)
			librariesGroup.POST("/:shortname/movies/play", treeHandler.PlayMovie)
			librariesGroup.POST("/:shortname/songs/play", treeHandler.PlaySong)
		}

		// Disk sync jobs
		syncGroup := apiGroup.Group("/sync")
		{
			syncGroup.POST("/libraries/:shortname", syncHandler.QueueLibrary)
			syncGroup.POST("/series/:series", syncHandler.QueueSeries)
			syncGroup.GET("", syncHandler.GetAllJobs)
			syncGroup.GET("/:jobId", syncHandler.GetJob)
			syncGroup.DELETE("/:jobId", syncHandler.CancelJob)
		}

		// WebSocket endpoints for real-time sync progress
		wsGroup := apiGroup.Group("/ws")
		{
			wsGroup.GET("/sync/:jobId", syncHandler.HandleWebSocketConnection)
			wsGroup.GET("/sync", syncHandler.HandleWebSocketAllConnection)
		}
	}
}
