package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	_ "github.com/lib/pq"

	"github.com/greystone/loan-service/internal/cache"
	"github.com/greystone/loan-service/internal/config"
	"github.com/greystone/loan-service/internal/handler"
	"github.com/greystone/loan-service/internal/integrations/cbr"
	"github.com/greystone/loan-service/internal/middleware"
	"github.com/greystone/loan-service/internal/repository"
	"github.com/greystone/loan-service/internal/service"
	"github.com/greystone/loan-service/internal/storage"
	"github.com/greystone/loan-service/internal/utils"
	"github.com/greystone/loan-service/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration, .env first if present
	if err := godotenv.Load(); err == nil {
		logger.Debug("Loaded configuration from .env")
	}
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	if err := storage.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Schedule cache: redis when configured, otherwise recompute every time
	var scheduleCache cache.Cache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisCache := cache.NewRedis(cfg.RedisAddr)
		if err := redisCache.Ping(); err != nil {
			logger.Fatalf("Failed to ping redis at %s: %v", cfg.RedisAddr, err)
		}
		scheduleCache = redisCache
		logger.Infof("Schedule cache backed by redis at %s", cfg.RedisAddr)
	}

	// Outgoing email is optional
	var notifier service.Notifier
	if cfg.SMTPEnabled() {
		notifier = email.NewSender(cfg, logger)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, scheduleCache, notifier, logger, utils.GenerateAPIKey)
	h := handler.NewHandler(svc)
	rateClient := cbr.NewClient(cfg, logger)

	// Keep the cached key rate fresh
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.KeyRateCron, func() {
		if err := rateClient.Refresh(); err != nil {
			logger.Warnf("Failed to refresh key rate: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Invalid KEY_RATE_CRON %q: %v", cfg.KeyRateCron, err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Setup router
	r := handler.NewRouter(h, middleware.Auth(svc, logger), middleware.RequestLogger(logger))
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/rates/key-rate", func(w http.ResponseWriter, req *http.Request) {
		rate, err := rateClient.KeyRate()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get key rate: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"key_rate": rate})
	}).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
