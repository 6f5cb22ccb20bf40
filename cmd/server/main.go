package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"alcyxob/jogging-api/internal/api"
	"alcyxob/jogging-api/internal/config"
	"alcyxob/jogging-api/internal/logging"
	"alcyxob/jogging-api/internal/metrics"
	"alcyxob/jogging-api/internal/repository/mongo"
	"alcyxob/jogging-api/internal/service"
	"alcyxob/jogging-api/internal/storage"
	"alcyxob/jogging-api/internal/weather"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	log "github.com/sirupsen/logrus"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		log.Fatalf("FATAL: Could not load config: %v", err)
	}

	logging.Setup(logging.SetupParams{
		LogFileName:   cfg.Log.FileName,
		LogToStdout:   cfg.Log.ToStdout,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})
	log.Info("starting jogging api server ...")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("FATAL: Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Info("disconnecting MongoDB ...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("database connection established")

	// --- Ensure Indexes ---
	// Runs in the background; the unique (user, day) session index is what
	// keeps concurrent writers from slipping two sessions into one day.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		if err := mongo.EnsureUserIndexes(ctx, appDB.Collection("users")); err != nil {
			log.Errorf("failed to ensure user indexes: %v", err)
		}
		if err := mongo.EnsureSessionIndexes(ctx, appDB.Collection("sessions")); err != nil {
			log.Errorf("failed to ensure session indexes: %v", err)
		}
		log.Info("index creation process completed")
	}()

	// --- Initialize Storage ---
	reportArchive, err := storage.NewS3Archive(cfg.Archive)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize report archive: %v", err)
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	sessionRepo := mongo.NewMongoSessionRepository(appDB)

	// --- Initialize Services ---
	weatherClient := weather.NewClient(cfg.Weather.APIURL, cfg.Weather.APIKey, cfg.Weather.Timeout)
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	userService := service.NewUserService(userRepo, sessionRepo)
	sessionService := service.NewSessionService(sessionRepo, weatherClient)
	reportService := service.NewReportService(sessionRepo, reportArchive)

	// --- Metrics ---
	metricsRegistry := prometheus.NewRegistry()
	metricsManager := metrics.NewManager("jogging", "server", metricsRegistry)

	// --- Initialize Gin Engine ---
	router := gin.Default()

	// --- Setup Routes ---
	api.SetupRoutes(
		router,
		cfg.JWT.Secret,
		metricsManager,
		metricsRegistry,
		authService,
		userService,
		sessionService,
		reportService,
	)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Infof("server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("FATAL: ListenAndServe Error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server ...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("FATAL: Server forced to shutdown: %v", err)
	}

	log.Info("server exiting")
}
