package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/dpfaff/lineup-edge/internal/optimizer"
	"github.com/dpfaff/lineup-edge/internal/services"
	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/utils"
)

type lineupOptimizer interface {
	OptimizeWeek(ctx context.Context, opts services.OptimizeOptions) (*services.LineupResult, error)
}

type OptimizeHandler struct {
	matchups lineupOptimizer
	config   *config.Config
}

func NewOptimizeHandler(matchups lineupOptimizer, cfg *config.Config) *OptimizeHandler {
	return &OptimizeHandler{
		matchups: matchups,
		config:   cfg,
	}
}

// Optimize runs one lineup optimization. roster_only defaults to true so
// the plain request answers "who should I start this week".
func (h *OptimizeHandler) Optimize(c *gin.Context) {
	var req struct {
		Week          int      `json:"week" binding:"required,min=1,max=18"`
		Format        string   `json:"format"`
		PenaltyWeight *float64 `json:"penalty_weight"`
		RosterOnly    *bool    `json:"roster_only"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request body", err.Error())
		return
	}

	if req.PenaltyWeight != nil && *req.PenaltyWeight < 0 {
		utils.SendValidationError(c, "Invalid penalty weight", "penalty_weight must be >= 0")
		return
	}

	rosterOnly := true
	if req.RosterOnly != nil {
		rosterOnly = *req.RosterOnly
	}

	if rosterOnly {
		if err := h.config.RequireLeague(); err != nil {
			utils.SendInvalidConfiguration(c, "League not configured", err.Error())
			return
		}
	}

	setMeta(c, h.config.Season, req.Week)

	result, err := h.matchups.OptimizeWeek(c.Request.Context(), services.OptimizeOptions{
		Week:          req.Week,
		Format:        req.Format,
		PenaltyWeight: req.PenaltyWeight,
		RosterOnly:    rosterOnly,
	})
	if err != nil {
		if errors.Is(err, optimizer.ErrInvalidConfiguration) {
			utils.SendInvalidConfiguration(c, "Invalid lineup configuration", err.Error())
			return
		}
		utils.SendUpstreamError(c, "Failed to optimize lineup", err.Error())
		return
	}

	utils.SendSuccess(c, result)
}
