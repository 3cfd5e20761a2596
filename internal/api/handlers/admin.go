package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dpfaff/lineup-edge/internal/services"
	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/utils"
)

type refreshRunner interface {
	RefreshNow(ctx context.Context, week int) (*services.RefreshResult, error)
	Status() map[string]interface{}
}

type weekResolver interface {
	CurrentWeek(ctx context.Context) (int, error)
}

type alertSender interface {
	SendTest() error
	Configured() bool
	ProviderName() string
}

type AdminHandler struct {
	refresher refreshRunner
	roster    weekResolver
	alerts    alertSender
	logger    *logrus.Logger
	config    *config.Config
}

func NewAdminHandler(
	refresher refreshRunner,
	roster weekResolver,
	alerts alertSender,
	logger *logrus.Logger,
	cfg *config.Config,
) *AdminHandler {
	return &AdminHandler{
		refresher: refresher,
		roster:    roster,
		alerts:    alerts,
		logger:    logger,
		config:    cfg,
	}
}

// ForceRefresh drops caches and refetches immediately. Week defaults to the
// league's current scoring period.
func (h *AdminHandler) ForceRefresh(c *gin.Context) {
	var req struct {
		Week int `json:"week" binding:"omitempty,min=1,max=18"`
	}

	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			utils.SendValidationError(c, "Invalid request body", err.Error())
			return
		}
	}

	week := req.Week
	if week == 0 {
		resolved, err := h.roster.CurrentWeek(c.Request.Context())
		if err != nil {
			utils.SendUpstreamError(c, "Failed to resolve current week", err.Error())
			return
		}
		week = resolved
	}

	setMeta(c, h.config.Season, week)

	result, err := h.refresher.RefreshNow(c.Request.Context(), week)
	if err != nil {
		utils.SendUpstreamError(c, "Refresh failed", err.Error())
		return
	}

	h.logger.WithFields(logrus.Fields{
		"week":    week,
		"players": result.PlayerCount,
		"changes": len(result.Changes),
	}).Info("Manual refresh completed")

	utils.SendSuccess(c, result)
}

// TestAlert sends a test SMS through the configured provider.
func (h *AdminHandler) TestAlert(c *gin.Context) {
	if !h.alerts.Configured() {
		utils.SendInvalidConfiguration(c, "Alerts not configured", "set ALERT_PHONE_NUMBER to enable SMS alerts")
		return
	}

	if err := h.alerts.SendTest(); err != nil {
		utils.SendUpstreamError(c, "Failed to send test alert", err.Error())
		return
	}

	utils.SendSuccess(c, gin.H{
		"sent":     true,
		"provider": h.alerts.ProviderName(),
	})
}

// GetStatus reports the background refresher and alert configuration.
func (h *AdminHandler) GetStatus(c *gin.Context) {
	utils.SendSuccess(c, gin.H{
		"refresher": h.refresher.Status(),
		"alerts": gin.H{
			"configured": h.alerts.Configured(),
			"provider":   h.alerts.ProviderName(),
		},
	})
}
