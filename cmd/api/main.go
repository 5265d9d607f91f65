package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/saberlights/maimai-SillyTavern-plugin/internal/config"
	"github.com/saberlights/maimai-SillyTavern-plugin/internal/handlers"
	"github.com/saberlights/maimai-SillyTavern-plugin/internal/logger"
	"github.com/saberlights/maimai-SillyTavern-plugin/internal/middleware"
	"github.com/saberlights/maimai-SillyTavern-plugin/internal/services"
)

func main() {
	cfg := config.Load()
	log := logger.Setup(cfg)

	log.Info("Starting Preset Assembly API",
		"port", cfg.Port,
		"environment", cfg.Environment)

	var storage services.Storage = services.NewRedisService(cfg.RedisURL, log)
	storageCtx, storageCancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer storageCancel()

	if err := storage.Ping(storageCtx); err != nil {
		log.Error("Failed to connect to storage", "error", err)
		os.Exit(1)
	}
	log.Info("Storage connection established successfully")

	mux := http.NewServeMux()

	healthHandler := handlers.NewHealthHandler(storage, log)
	mux.Handle("/health", healthHandler)

	presetHandler := handlers.NewPresetHandler(log, storage)
	mux.Handle("/v1/presets", presetHandler)
	mux.Handle("/v1/presets/", presetHandler)

	styleHandler := handlers.NewStyleHandler(log, storage)
	mux.Handle("/v1/style", styleHandler)

	assembleHandler := handlers.NewAssembleHandler(log, storage, cfg.GuidelineMarkers, cfg.HostManagedIDs)
	mux.Handle("/v1/assemble", assembleHandler)

	sessionHandler := handlers.NewSessionHandler(log, storage)
	mux.Handle("/v1/sessions/", sessionHandler)

	handler := middleware.Logger(mux)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info("Server starting", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Server is shutting down...")

	if err := storage.Close(); err != nil {
		log.Error("Error closing storage connection", "error", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	log.Info("Server exited")
}
