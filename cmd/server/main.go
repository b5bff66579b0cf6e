package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/segyhp/client-followup/internal/app"
	"github.com/segyhp/client-followup/internal/config"
	"github.com/segyhp/client-followup/internal/handler"
	"github.com/segyhp/client-followup/pkg/logger"
	"github.com/segyhp/client-followup/pkg/response"
)

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.Logging.Level, cfg.LogFormat())
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	tracker, err := app.New(ctx, cfg, zl)
	cancel()
	if err != nil {
		zl.Fatal("failed to initialize tracker", zap.Error(err))
	}
	defer func() {
		if err := tracker.Close(); err != nil {
			zl.Warn("error closing backends", zap.Error(err))
		}
	}()

	clientHandler := handler.NewClientHandler(tracker.Service, zl.Named("handler"))
	healthHandler := handler.NewHealthHandler(tracker.Checks)

	router := setupRoutes(clientHandler, healthHandler, zl.Named("http"))

	server := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		zl.Info("server starting", zap.String("addr", server.Addr), zap.String("env", cfg.Server.Env))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zl.Fatal("server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zl.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		zl.Error("server forced to shutdown", zap.Error(err))
		return
	}

	zl.Info("server exited")
}

func setupRoutes(clientHandler *handler.ClientHandler, healthHandler *handler.HealthHandler, zl *zap.Logger) *mux.Router {
	router := mux.NewRouter()
	router.Use(response.LoggingMiddleware(zl), response.CORSMiddleware)

	// Health check
	router.HandleFunc("/health", healthHandler.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", healthHandler.Ready).Methods(http.MethodGet)

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(response.JSONMiddleware)
	clientHandler.RegisterRoutes(api)

	return router
}
