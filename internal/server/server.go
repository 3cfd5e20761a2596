package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/dpfaff/lineup-edge/internal/api"
	"github.com/dpfaff/lineup-edge/internal/api/middleware"
	"github.com/dpfaff/lineup-edge/internal/models"
	"github.com/dpfaff/lineup-edge/internal/providers"
	"github.com/dpfaff/lineup-edge/internal/services"
	"github.com/dpfaff/lineup-edge/internal/ws"
	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/database"
)

// Version is reported by the health endpoint and the CLI.
const Version = "1.0.0"

// Run wires the full service graph and serves HTTP until SIGINT/SIGTERM.
// Both cmd/server and the lineupctl serve command go through here.
func Run(cfg *config.Config, logger *logrus.Logger) error {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := models.Migrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Redis is optional. Without it the cache degrades to pass-through and
	// every pool read hits ESPN inside the provider's rate limit.
	redisClient := connectRedis(cfg, logger)
	if redisClient != nil {
		defer redisClient.Close()
	}
	cache := services.NewCacheService(redisClient)

	hub := ws.NewHub(logger)
	go hub.Run()

	espn := providers.NewESPNClient(providers.ESPNConfig{
		LeagueID:          cfg.LeagueID,
		ScoringID:         cfg.ScoringID,
		ESPNS2:            cfg.ESPNS2,
		SWID:              cfg.SWID,
		Timeout:           cfg.ExternalAPITimeout,
		RequestsPerSecond: cfg.ESPNRateLimit,
		BreakerThreshold:  cfg.CircuitBreakerThreshold,
		PoolCacheTTL:      cfg.PoolCacheTTL,
		LeagueCacheTTL:    cfg.LeagueCacheTTL,
	}, cache, logger)

	projections := services.NewProjectionService(db, cache, logger, espn, cfg)
	roster := services.NewRosterService(logger, espn, cfg)
	matchups := services.NewMatchupService(logger, projections, roster, cfg)

	limiter := services.NewAlertRateLimiter(cfg.AlertDailyLimit, 24*time.Hour)
	alerts := services.NewAlertService(logger, smsProvider(cfg, logger), limiter, cfg.AlertPhoneNumber)

	refresher := services.NewRefresherService(db, cache, projections, matchups, roster, alerts, hub, logger, cfg)
	if cfg.RefreshEnabled {
		if err := refresher.Start(); err != nil {
			return fmt.Errorf("failed to start refresher: %w", err)
		}
		defer refresher.Stop()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.CorsOrigins))

	apiV1 := router.Group("/api/v1")
	api.SetupRoutes(apiV1, db, cache, projections, roster, matchups, refresher, alerts, hub, logger, cfg, Version)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("port", cfg.Port).Info("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
	return nil
}

// connectRedis returns a verified client or nil when redis is absent.
func connectRedis(cfg *config.Config, logger *logrus.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.WithError(err).Warn("Invalid REDIS_URL; running without cache")
		return nil
	}

	client := redis.NewClient(opt)
	if err := client.Ping(context.Background()).Err(); err != nil {
		logger.WithError(err).Warn("Redis unavailable; running without cache")
		client.Close()
		return nil
	}

	return client
}

func smsProvider(cfg *config.Config, logger *logrus.Logger) services.SMSProvider {
	if cfg.SMSProvider == "twilio" &&
		cfg.TwilioAccountSID != "" && cfg.TwilioAuthToken != "" && cfg.TwilioFromNumber != "" {
		return services.NewTwilioProvider(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
	}
	if cfg.SMSProvider == "twilio" {
		logger.Warn("Twilio selected but credentials incomplete; falling back to mock SMS")
	}
	return services.NewMockProvider(logger)
}
