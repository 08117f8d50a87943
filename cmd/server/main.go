package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/namerapp/namer/internal/api"
	"github.com/namerapp/namer/internal/api/handler"
	"github.com/namerapp/namer/internal/config"
	"github.com/namerapp/namer/internal/repository"
	"github.com/namerapp/namer/internal/service"
	"github.com/namerapp/namer/internal/worker"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "", "Path to config file")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("namer %s (built %s)\n", Version, BuildTime)
		os.Exit(0)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	logger.Info("starting namer",
		"version", Version,
		"build_time", BuildTime,
	)

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Ensure the staging directory exists
	if err := os.MkdirAll(cfg.Storage.StagingPath, 0755); err != nil {
		logger.Error("failed to create staging directory", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	sessionRepo := repository.NewInMemorySessionRepository()
	blobStore, err := repository.NewFilesystemBlobStore(cfg.Storage.StagingPath)
	if err != nil {
		logger.Error("failed to initialize blob store", "error", err)
		os.Exit(1)
	}

	// Initialize event service (activity log)
	eventSvc, err := service.NewEventService(service.EventServiceConfig{
		RingBufferSize: cfg.Events.RingSize,
		SQLitePath:     cfg.Events.SQLitePath,
		RetentionDays:  cfg.Events.RetentionDays,
	}, logger)
	if err != nil {
		logger.Error("failed to initialize event service", "error", err)
		os.Exit(1)
	}

	// Initialize services
	sessionSvc := service.NewSessionService(
		sessionRepo,
		blobStore,
		cfg.Session,
		cfg.Storage,
		eventSvc,
		logger,
	)
	exportSvc := service.NewExportService(sessionRepo, blobStore, eventSvc, logger)

	// Initialize handlers
	sessionHandler := handler.NewSessionHandler(sessionSvc, cfg.Storage.MaxUploadSize, logger)
	exportHandler := handler.NewExportHandler(exportSvc, logger)
	eventHandler := handler.NewEventHandler(eventSvc, logger)
	healthHandler := handler.NewHealthHandler(sessionRepo, cfg.Storage.StagingPath)
	uiHandler := handler.NewUIHandler()

	// Setup router
	router := api.NewRouter(sessionHandler, exportHandler, eventHandler, healthHandler, uiHandler, cfg.Server.APIKey)

	// Start the session janitor
	janitor := worker.NewJanitor(
		worker.Config{SweepInterval: cfg.Session.SweepInterval},
		sessionSvc,
		eventSvc,
		logger,
	)
	janitor.Start()

	// Setup HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info("starting HTTP server", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Stop accepting new requests
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	// Stop the janitor (allow an in-flight sweep to complete)
	if err := janitor.Stop(10 * time.Second); err != nil {
		logger.Error("janitor shutdown error", "error", err)
	}

	// Flush the activity log
	if err := eventSvc.Close(); err != nil {
		logger.Error("event service shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
