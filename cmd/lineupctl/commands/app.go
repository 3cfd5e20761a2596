package commands

import (
	"context"
	"fmt"

	"github.com/dpfaff/lineup-edge/internal/models"
	"github.com/dpfaff/lineup-edge/internal/providers"
	"github.com/dpfaff/lineup-edge/internal/services"
	"github.com/dpfaff/lineup-edge/pkg/database"
)

// app is the service graph one CLI command runs against. Commands are
// one-shot so redis is skipped; the provider's rate limiter still applies.
type app struct {
	db          *database.DB
	projections *services.ProjectionService
	roster      *services.RosterService
	matchups    *services.MatchupService
}

func newApp() (*app, error) {
	db, err := database.NewConnection(cfg.DatabaseURL, cfg.IsDevelopment())
	if err != nil {
		return nil, err
	}
	if err := models.Migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	cache := services.NewCacheService(nil)
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
	}, cache, log)

	projections := services.NewProjectionService(db, cache, log, espn, cfg)
	roster := services.NewRosterService(log, espn, cfg)
	matchups := services.NewMatchupService(log, projections, roster, cfg)

	return &app{
		db:          db,
		projections: projections,
		roster:      roster,
		matchups:    matchups,
	}, nil
}

func (a *app) Close() {
	_ = a.db.Close()
}

// resolveWeek returns --week when given, otherwise the league's current
// scoring period.
func (a *app) resolveWeek(ctx context.Context) (int, error) {
	if weekFlag != 0 {
		if weekFlag < 1 || weekFlag > 18 {
			return 0, fmt.Errorf("week must be between 1 and 18")
		}
		return weekFlag, nil
	}

	week, err := a.roster.CurrentWeek(ctx)
	if err != nil {
		return 0, fmt.Errorf("cannot resolve current week (pass --week): %w", err)
	}
	return week, nil
}
