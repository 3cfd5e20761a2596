package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/dpfaff/lineup-edge/internal/ffl"
	"github.com/dpfaff/lineup-edge/pkg/config"
)

// ErrNoMatchup marks weeks where the configured team has no scheduled
// opponent. Callers separate a bye from a provider failure with errors.Is.
var ErrNoMatchup = errors.New("no matchup scheduled")

// RosterService resolves the configured team, its opponents, and the league
// calendar from provider data.
type RosterService struct {
	logger   *logrus.Logger
	provider ffl.Provider
	config   *config.Config
}

// NewRosterService creates a new roster service.
func NewRosterService(logger *logrus.Logger, provider ffl.Provider, cfg *config.Config) *RosterService {
	return &RosterService{
		logger:   logger,
		provider: provider,
		config:   cfg,
	}
}

// League fetches the configured league for a scoring period.
func (s *RosterService) League(ctx context.Context, week int) (*ffl.League, error) {
	return s.provider.League(ctx, s.config.Season, week)
}

// CurrentWeek asks ESPN which scoring period is live. Week 0 requests the
// league's present state instead of a historical period.
func (s *RosterService) CurrentWeek(ctx context.Context) (int, error) {
	league, err := s.provider.League(ctx, s.config.Season, 0)
	if err != nil {
		return 0, err
	}
	if league.CurrentWeek < 1 {
		return 0, fmt.Errorf("league %d reports no current scoring period", league.ID)
	}
	return league.CurrentWeek, nil
}

// MyTeam returns the configured team with its roster for a week.
func (s *RosterService) MyTeam(ctx context.Context, week int) (*ffl.Team, error) {
	if err := s.config.RequireLeague(); err != nil {
		return nil, err
	}
	league, err := s.provider.League(ctx, s.config.Season, week)
	if err != nil {
		return nil, err
	}
	return teamFromLeague(league, s.config.TeamID)
}

// MyRoster returns the configured team's roster entries for a week.
func (s *RosterService) MyRoster(ctx context.Context, week int) ([]ffl.RosterEntry, error) {
	team, err := s.MyTeam(ctx, week)
	if err != nil {
		return nil, err
	}
	return team.Roster, nil
}

// Opponent returns the week's opponent with its roster. A bye or schedule
// gap is an explicit error, never a silent empty team.
func (s *RosterService) Opponent(ctx context.Context, week int) (*ffl.Team, error) {
	_, opponent, err := s.MatchupTeams(ctx, week)
	return opponent, err
}

// OpponentRoster returns the week's opponent roster entries.
func (s *RosterService) OpponentRoster(ctx context.Context, week int) ([]ffl.RosterEntry, error) {
	opponent, err := s.Opponent(ctx, week)
	if err != nil {
		return nil, err
	}
	return opponent.Roster, nil
}

// MatchupTeams resolves both sides of the configured team's matchup from a
// single league fetch.
func (s *RosterService) MatchupTeams(ctx context.Context, week int) (*ffl.Team, *ffl.Team, error) {
	if err := s.config.RequireLeague(); err != nil {
		return nil, nil, err
	}
	league, err := s.provider.League(ctx, s.config.Season, week)
	if err != nil {
		return nil, nil, err
	}

	own, err := teamFromLeague(league, s.config.TeamID)
	if err != nil {
		return nil, nil, err
	}

	opponentID, err := opponentIDForWeek(league, s.config.TeamID, week)
	if err != nil {
		return nil, nil, err
	}
	opponent, err := teamFromLeague(league, opponentID)
	if err != nil {
		return nil, nil, err
	}

	return own, opponent, nil
}

func teamFromLeague(league *ffl.League, teamID int) (*ffl.Team, error) {
	team := league.TeamByID(teamID)
	if team == nil {
		return nil, fmt.Errorf("team %d not found in league %d", teamID, league.ID)
	}
	return team, nil
}

func opponentIDForWeek(league *ffl.League, teamID, week int) (int, error) {
	for _, matchup := range league.Schedule {
		if matchup.Period != week {
			continue
		}
		switch teamID {
		case matchup.HomeTeamID:
			return matchup.AwayTeamID, nil
		case matchup.AwayTeamID:
			return matchup.HomeTeamID, nil
		}
	}
	return 0, fmt.Errorf("team %d week %d: %w; bye week or schedule gap", teamID, week, ErrNoMatchup)
}
