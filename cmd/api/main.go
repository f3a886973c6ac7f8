package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/bimflow/engine/internal/api"
	"github.com/bimflow/engine/internal/api/handlers"
	"github.com/bimflow/engine/internal/repository"
	"github.com/bimflow/engine/internal/services"
	"github.com/bimflow/engine/pkg/config"
	"github.com/bimflow/engine/pkg/database"
	"github.com/bimflow/engine/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.MustLoad()

	// Initialize logger
	log, err := logger.Init(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	log.Info("Starting BIMflow Engine",
		zap.String("env", cfg.AppEnv),
		zap.String("addr", cfg.HTTPAddr),
	)

	// Connect to database
	ctx := context.Background()
	db, err := database.OpenPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database connected successfully")

	// Queue client for background refreshes
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       0,
	})
	defer asynqClient.Close()

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db)
	tidpRepo := repository.NewTIDPRepository(db)
	midpRepo := repository.NewMIDPRepository(db)
	snapshotRepo := repository.NewSnapshotRepository(db)

	// Initialize services
	projectSvc := services.NewProjectService(projectRepo)
	tidpSvc := services.NewTIDPService(tidpRepo, projectRepo)
	planSvc := services.NewPlanService(projectRepo, tidpRepo, midpRepo, snapshotRepo, asynqClient)

	// Create router with dependencies
	router := api.NewRouter(api.Dependencies{
		DB:              db,
		ProjectsHandler: handlers.NewProjectsHandler(projectSvc),
		TIDPsHandler:    handlers.NewTIDPsHandler(tidpSvc),
		MIDPsHandler:    handlers.NewMIDPsHandler(planSvc),
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       90 * time.Second,
	}

	// Start server in goroutine
	errCh := make(chan error, 1)
	go func() {
		log.Info("HTTP server starting", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
	case err := <-errCh:
		log.Error("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown error", zap.Error(err))
	} else {
		log.Info("server exited gracefully")
	}
}
