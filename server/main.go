package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/whoyoshome/mini-productos/internal/config"
	"github.com/whoyoshome/mini-productos/internal/http/handlers"
	"github.com/whoyoshome/mini-productos/internal/http/routes"
	"github.com/whoyoshome/mini-productos/internal/logging"
	"github.com/whoyoshome/mini-productos/internal/services/catalog"
	"github.com/whoyoshome/mini-productos/internal/services/processor"
	"github.com/whoyoshome/mini-productos/internal/services/proxy"
	"github.com/whoyoshome/mini-productos/internal/services/queue"
	"github.com/whoyoshome/mini-productos/internal/services/storage"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	// Initialize logger
	logger, err := logging.New(!cfg.Server.IsProduction())
	if err != nil {
		log.Fatal("Failed to initialize logger:", err)
	}
	defer logger.Sync()

	// Database
	db, err := catalog.OpenDatabase(cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to open database", zap.Error(err))
	}
	if cfg.Database.Seed {
		n, err := catalog.Seed(db)
		if err != nil {
			logger.Fatal("Failed to seed database", zap.Error(err))
		}
		logger.Info("Database seeded", zap.Int("inserted", n))
	}
	repo := catalog.NewRepository(db)

	// Initialize services
	store, err := storage.NewStorageService(cfg)
	if err != nil {
		logger.Fatal("Failed to initialize storage service", zap.Error(err))
	}
	defer store.Close()

	var cache proxy.Cache
	if store.CacheEnabled() {
		cache = store
	}
	fetcher := proxy.NewFetcher(proxy.Options{
		Timeout:       cfg.Proxy.Timeout,
		RelayURL:      cfg.Proxy.RelayURL,
		Production:    cfg.Server.IsProduction(),
		MaxCacheBytes: cfg.Proxy.MaxCacheBytes,
	}, cache, logger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	var warmup handlers.WarmupPublisher
	var queueService *queue.QueueService
	if cfg.RabbitMQ.URL != "" {
		queueService, err = queue.NewQueueService(cfg.RabbitMQ.URL, fetcher, store, logger)
		if err != nil {
			logger.Warn("Failed to initialize queue service", zap.Error(err))
			// Continue without warm-up jobs
		} else {
			defer queueService.Close()
			warmup = queueService
			for i := 1; i <= cfg.RabbitMQ.Workers; i++ {
				if err := queueService.StartWorker(workerCtx, i); err != nil {
					logger.Error("Failed to start worker", zap.Int("worker_id", i), zap.Error(err))
				}
			}
		}
	}

	// Initialize handlers
	productHandler := handlers.NewProductHandler(repo, warmup, store, logger)
	imageHandler := handlers.NewImageHandler(fetcher, processor.NewImageProcessor(cfg.Storage.MaxFileSize), store, logger)
	healthHandler := handlers.NewHealthHandler(repo, store, queueService)

	router := routes.NewRouter(productHandler, imageHandler, healthHandler, cfg, logger)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Handler:      router.SetupRoutes(),
	}

	// Start server
	go func() {
		logger.Info("Starting server",
			zap.String("addr", server.Addr),
			zap.String("env", cfg.Server.Environment))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")
	stopWorkers()

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}

	logger.Info("Server exited")
}
