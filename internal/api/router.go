package api

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dpfaff/lineup-edge/internal/api/handlers"
	"github.com/dpfaff/lineup-edge/internal/api/middleware"
	"github.com/dpfaff/lineup-edge/internal/services"
	"github.com/dpfaff/lineup-edge/internal/ws"
	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/database"
)

// SetupRoutes configures all API routes on the given router group.
func SetupRoutes(
	group *gin.RouterGroup,
	db *database.DB,
	cache *services.CacheService,
	projections *services.ProjectionService,
	roster *services.RosterService,
	matchups *services.MatchupService,
	refresher *services.RefresherService,
	alerts *services.AlertService,
	hub *ws.Hub,
	logger *logrus.Logger,
	cfg *config.Config,
	version string,
) {
	healthHandler := handlers.NewHealthHandler(db, cache, version)
	poolHandler := handlers.NewPoolHandler(projections, cfg)
	optimizeHandler := handlers.NewOptimizeHandler(matchups, cfg)
	matchupHandler := handlers.NewMatchupHandler(matchups, cfg)
	adminHandler := handlers.NewAdminHandler(refresher, roster, alerts, logger, cfg)
	wsHandler := handlers.NewWebSocketHandler(hub, logger)

	group.GET("/health", healthHandler.GetHealth)
	group.GET("/pool", poolHandler.GetPool)
	group.POST("/optimize", optimizeHandler.Optimize)
	group.GET("/matchup", matchupHandler.GetMatchup)

	// Event stream for pool refreshes and lineup changes
	group.GET("/ws", wsHandler.HandleWebSocket)

	admin := group.Group("/admin")
	admin.Use(middleware.AuthRequired(cfg.JWTSecret))
	{
		admin.POST("/refresh", adminHandler.ForceRefresh)
		admin.POST("/alerts/test", adminHandler.TestAlert)
		admin.GET("/status", adminHandler.GetStatus)
	}
}
