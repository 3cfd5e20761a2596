package handlers

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/dpfaff/lineup-edge/internal/services"
	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/utils"
)

type matchupEvaluator interface {
	EvaluateWeek(ctx context.Context, week int) (*services.MatchupReport, error)
}

type MatchupHandler struct {
	matchups matchupEvaluator
	config   *config.Config
}

func NewMatchupHandler(matchups matchupEvaluator, cfg *config.Config) *MatchupHandler {
	return &MatchupHandler{
		matchups: matchups,
		config:   cfg,
	}
}

// GetMatchup evaluates both sides of the week's head-to-head matchup.
func (h *MatchupHandler) GetMatchup(c *gin.Context) {
	week, ok := weekFromQuery(c)
	if !ok {
		return
	}

	if err := h.config.RequireLeague(); err != nil {
		utils.SendInvalidConfiguration(c, "League not configured", err.Error())
		return
	}

	setMeta(c, h.config.Season, week)

	report, err := h.matchups.EvaluateWeek(c.Request.Context(), week)
	if err != nil {
		if errors.Is(err, services.ErrNoMatchup) {
			utils.SendNotFound(c, "No matchup scheduled for this week")
			return
		}
		utils.SendUpstreamError(c, "Failed to evaluate matchup", err.Error())
		return
	}

	utils.SendSuccess(c, report)
}
