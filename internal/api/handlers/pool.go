package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/dpfaff/lineup-edge/internal/services"
	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/utils"
)

const (
	minWeek = 1
	maxWeek = 18
)

type poolBuilder interface {
	BuildPool(ctx context.Context, week int) (*services.PoolResult, error)
}

type PoolHandler struct {
	projections poolBuilder
	config      *config.Config
}

func NewPoolHandler(projections poolBuilder, cfg *config.Config) *PoolHandler {
	return &PoolHandler{
		projections: projections,
		config:      cfg,
	}
}

// GetPool returns the projected player pool for a week.
func (h *PoolHandler) GetPool(c *gin.Context) {
	week, ok := weekFromQuery(c)
	if !ok {
		return
	}
	setMeta(c, h.config.Season, week)

	pool, err := h.projections.BuildPool(c.Request.Context(), week)
	if err != nil {
		utils.SendUpstreamError(c, "Failed to build player pool", err.Error())
		return
	}

	utils.SendSuccess(c, pool)
}

// weekFromQuery parses and validates the required week query parameter.
// On failure it writes the error response and returns ok=false.
func weekFromQuery(c *gin.Context) (int, bool) {
	raw := c.Query("week")
	if raw == "" {
		utils.SendValidationError(c, "Missing week parameter", "week query parameter is required")
		return 0, false
	}

	week, err := strconv.Atoi(raw)
	if err != nil {
		utils.SendValidationError(c, "Invalid week parameter", fmt.Sprintf("week %q is not a number", raw))
		return 0, false
	}
	if week < minWeek || week > maxWeek {
		utils.SendValidationError(c, "Invalid week parameter",
			fmt.Sprintf("week must be between %d and %d", minWeek, maxWeek))
		return 0, false
	}

	return week, true
}

// setMeta stores season and week for the response envelope.
func setMeta(c *gin.Context, season, week int) {
	c.Set("season", season)
	c.Set("week", week)
}
