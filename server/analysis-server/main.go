package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nvr-labs/crashwatch/server/analysis-server/handlers"
	"github.com/nvr-labs/crashwatch/server/analysis-server/middleware"
	"github.com/nvr-labs/crashwatch/server/core/analysis"
	"github.com/nvr-labs/crashwatch/server/core/cameras"
	"github.com/nvr-labs/crashwatch/server/core/ccc/auth"
	"github.com/nvr-labs/crashwatch/server/core/ccc/db"
	"github.com/nvr-labs/crashwatch/server/core/ccc/logging"
	"github.com/nvr-labs/crashwatch/server/core/config"
	"github.com/nvr-labs/crashwatch/server/core/hub"
	"github.com/nvr-labs/crashwatch/server/core/users"
	"github.com/nvr-labs/crashwatch/server/core/videos"
)

func main() {
	configPath := flag.String("config", "config.json", "Path to the server config file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// Persist the effective config so a fresh install gets a file to edit
	if err := cfg.SaveConfig(*configPath); err != nil {
		log.Printf("Failed to save configuration: %v", err)
	}

	// Initialize logger
	logger := logging.CreateLogger(logging.LogLevel(cfg.LogLevel), cfg.LogPath, "analysis-server")
	logger.Info("Starting analysis server", "port", cfg.WebPort)

	// Initialize database
	database, err := db.NewFileDB(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer database.Close()

	// Initialize user accounts and sessions
	userRepo, err := users.NewSQLiteUserRepository(database)
	if err != nil {
		log.Fatalf("Failed to create user repository: %v", err)
	}
	userService := users.NewUserService(logger, userRepo)
	sessionStore := users.NewMemorySessionStore(time.Duration(cfg.SessionTTLMinutes) * time.Minute)
	failureTracker := auth.NewMemoryFailureTracker(auth.ThrottleSettings{
		Threshold:  cfg.LoginThrottleThreshold,
		TimeWindow: time.Duration(cfg.LoginThrottleWindowMinutes) * time.Minute,
	})

	// Initialize video storage and analysis pipeline
	uploadStore, err := videos.NewDiskUploadStore(cfg.UploadPath, logger)
	if err != nil {
		log.Fatalf("Failed to create upload store: %v", err)
	}
	metadataExtractor := videos.NewFFmpegMetadataExtractor(logger)

	eventHub := hub.NewEventHub(logger)
	analyzer := analysis.NewCommandAnalyzer(logger, cfg.AnalyzerCommand, cfg.AnalyzerArgs...)
	analysisQueue := analysis.NewQueue(
		logger,
		analyzer,
		eventHub,
		uploadStore,
		cfg.AnalysisQueueSize,
		time.Duration(cfg.AnalysisTimeoutMinutes)*time.Minute,
		30*time.Second,
	)

	stopChan := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go analysisQueue.Start(stopChan, &wg)

	// Initialize camera validation
	streamValidator := cameras.NewOpenCVStreamValidator(logger)

	// Initialize handlers and middleware
	authMiddleware := middleware.NewAuthMiddleware(logger, sessionStore)
	maxBytes := int64(cfg.MaxUploadMegabytes) * 1024 * 1024
	videoHandler := handlers.NewVideoHandler(logger, uploadStore, metadataExtractor, analysisQueue, maxBytes)
	cameraHandler := handlers.NewCameraHandler(logger, streamValidator, time.Duration(cfg.CameraProbeTimeoutSeconds)*time.Second)
	authHandler := handlers.NewAuthHandler(logger, userService, sessionStore, failureTracker)
	eventsHandler := handlers.NewEventsHandler(logger, eventHub)

	// Set up Gin router
	router := initializeGin(cfg)
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = 8 << 20

	setupRoutes(router, authMiddleware, videoHandler, cameraHandler, authHandler, eventsHandler)

	addr := fmt.Sprintf("%s:%d", cfg.WebAddr, cfg.WebPort)
	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("Server listening", "address", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown failed", "error", err)
	}

	// Let queued analyses finish within the drain window
	close(stopChan)
	wg.Wait()

	logger.Info("Shutdown complete")
}

// setupRoutes configures the HTTP routes
func setupRoutes(
	router *gin.Engine,
	authMiddleware *middleware.AuthMiddleware,
	videoHandler *handlers.VideoHandler,
	cameraHandler *handlers.CameraHandler,
	authHandler *handlers.AuthHandler,
	eventsHandler *handlers.EventsHandler,
) {
	// Account endpoints (no auth required)
	router.POST("/register", authHandler.Register)
	router.POST("/login", authHandler.Login)

	// Push channel for analysis events
	router.GET("/events", eventsHandler.Events)

	// Camera validation is a one-shot probe with no stored state
	router.POST("/validate-camera", cameraHandler.ValidateCamera)

	// Video submission requires a valid session
	authed := router.Group("/")
	authed.Use(authMiddleware.RequireAuth())
	authed.POST("/process-video", videoHandler.ProcessVideo)

	// Health check endpoint (no auth required)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"service": "analysis-server",
		})
	})
}
