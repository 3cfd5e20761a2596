package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dpfaff/lineup-edge/internal/services"
	"github.com/dpfaff/lineup-edge/pkg/database"
	"github.com/dpfaff/lineup-edge/pkg/utils"
)

const healthCheckTimeout = 2 * time.Second

type HealthHandler struct {
	db      *database.DB
	cache   *services.CacheService
	version string
}

func NewHealthHandler(db *database.DB, cache *services.CacheService, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		cache:   cache,
		version: version,
	}
}

// GetHealth reports the service and its backing stores. The endpoint stays
// 200 as long as the process is up; degraded backends show in the body.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	dbStatus := "ok"
	if h.db == nil {
		dbStatus = "disabled"
	} else if err := h.pingDatabase(); err != nil {
		dbStatus = "error"
	}

	redisStatus := "ok"
	if h.cache == nil || !h.cache.Enabled() {
		redisStatus = "disabled"
	} else if err := h.cache.Ping(ctx); err != nil {
		redisStatus = "error"
	}

	utils.SendSuccess(c, gin.H{
		"status":   "ok",
		"service":  "lineup-edge",
		"version":  h.version,
		"database": dbStatus,
		"redis":    redisStatus,
	})
}

func (h *HealthHandler) pingDatabase() error {
	sqlDB, err := h.db.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
