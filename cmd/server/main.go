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

	"alcyxob/movement-program/internal/api"
	"alcyxob/movement-program/internal/app"
	"alcyxob/movement-program/internal/config"
	"alcyxob/movement-program/internal/logger"
	"alcyxob/movement-program/internal/service"

	"github.com/gin-gonic/gin"
)

// @title Movement Program API
// @version 1.0
// @description Generates personalized 7-day movement programs from an assessment profile.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.
func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	appLogger, err := logger.New(cfg.Log.Mode)
	if err != nil {
		log.Fatalf("FATAL: Could not build logger: %v", err)
	}
	defer appLogger.Sync()
	appLogger.Info("Starting Movement Program Server...", "corpus_source", cfg.Corpus.Source, "scoring_version", cfg.Corpus.ScoringVersion)

	// --- Backends ---
	startCtx, cancelStart := context.WithTimeout(context.Background(), time.Minute)
	components, err := app.Build(startCtx, cfg, appLogger)
	cancelStart()
	if err != nil {
		appLogger.Fatal("Could not initialize backends", "error", err.Error())
	}
	defer components.Close()

	// Fail fast when the configured corpus has nothing to serve.
	if versions, err := components.Source.Versions(context.Background()); err != nil {
		appLogger.Fatal("Corpus is unavailable", "error", err.Error())
	} else {
		appLogger.Info("Corpus ready", "versions", versions)
	}

	// --- Initialize Services ---
	programService := components.ProgramService(cfg, appLogger)
	corpusService := service.NewCorpusService(components.Source)

	// --- Initialize Gin Engine ---
	if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default() // Includes Logger and Recovery middleware

	api.SetupRoutes(router, api.RouteConfig{
		JWTSecret:      cfg.JWT.Secret,
		RequireAuth:    cfg.JWT.Required,
		ProgramService: programService,
		CorpusService:  corpusService,
		Log:            appLogger,
	})

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second, // Enhancement may take a few seconds
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		appLogger.Info("Server starting", "address", cfg.Server.Address)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("ListenAndServe error", "error", err.Error())
		}
	}()

	// --- Graceful Shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	appLogger.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		appLogger.Error("Server forced to shutdown", "error", err.Error())
	}

	appLogger.Info("Server exiting.")
}
