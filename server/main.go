package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/phambaophuc/image-resizer-bridge/internal/config"
	"github.com/phambaophuc/image-resizer-bridge/internal/http/handlers"
	"github.com/phambaophuc/image-resizer-bridge/internal/http/routes"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/bridge"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/processor"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/queue"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/source"
	"github.com/phambaophuc/image-resizer-bridge/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Initialize services
	storageService, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer storageService.Close()

	var (
		bucket    source.Downloader
		publisher bridge.Publisher
	)
	if storageService.HasBucket() {
		bucket = storageService
		publisher = storageService
	} else {
		logger.Info("Supabase bucket not configured; storage:// sources and publishing are disabled")
	}

	resolver := source.NewResolver(bucket, cfg.Storage.MaxFileSize, cfg.Bridge.DownloadTimeout)
	orchestrator := bridge.NewOrchestrator(cfg.Storage, processor.NewImageProcessor(), resolver, publisher, logger)

	probePool := queue.NewWorkerPool(cfg.Bridge.ProbeWorkers, cfg.Bridge.ProbeQueueSize, logger)
	dispatcher := bridge.NewDispatcher(orchestrator, probePool, logger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var jobQueue handlers.JobQueue
	queueService, err := queue.NewQueueService(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName, orchestrator, storageService, logger)
	if err != nil {
		logger.Warn("Failed to initialize queue service", zap.Error(err))
		// Continue without queue service for basic functionality
	} else {
		defer queueService.Close()
		jobQueue = queueService

		for i := 0; i < cfg.RabbitMQ.Workers; i++ {
			if err := queueService.StartWorker(workerCtx, i); err != nil {
				logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
			}
		}
	}

	// Initialize handlers
	bridgeHandler := handlers.NewBridgeHandler(dispatcher, probePool, jobQueue, storageService, logger)

	router := routes.NewRouter(bridgeHandler, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	stopWorkers()
	probePool.Close()

	logger.Info("Server exited")
}
