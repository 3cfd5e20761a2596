package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dpfaff/lineup-edge/internal/optimizer"
	"github.com/dpfaff/lineup-edge/pkg/config"
)

// benchLimit caps how many bench candidates a lineup view carries. Full-pool
// runs would otherwise ship thousands of rows to the client.
const benchLimit = 15

// MatchupService orchestrates pool building and optimization into the DTOs
// the API and CLI share.
type MatchupService struct {
	logger      *logrus.Logger
	projections *ProjectionService
	roster      *RosterService
	config      *config.Config
}

// NewMatchupService creates a new matchup service.
func NewMatchupService(
	logger *logrus.Logger,
	projections *ProjectionService,
	roster *RosterService,
	cfg *config.Config,
) *MatchupService {
	return &MatchupService{
		logger:      logger,
		projections: projections,
		roster:      roster,
		config:      cfg,
	}
}

// OptimizeOptions control one lineup optimization run. A nil PenaltyWeight
// keeps the configured weight; RosterOnly restricts the candidate pool to
// the configured team's roster.
type OptimizeOptions struct {
	Week          int
	Format        string
	PenaltyWeight *float64
	RosterOnly    bool
}

// StarterView is one recommended starter decorated for presentation.
type StarterView struct {
	Slot         string   `json:"slot"`
	PlayerID     string   `json:"player_id"`
	Name         string   `json:"name"`
	Team         string   `json:"team,omitempty"`
	Positions    []string `json:"positions"`
	Points       float64  `json:"points"`
	Utility      float64  `json:"utility"`
	Uncertainty  float64  `json:"uncertainty"`
	Floor        float64  `json:"floor"`
	Ceiling      float64  `json:"ceiling"`
	InjuryStatus string   `json:"injury_status,omitempty"`
	Reasons      []string `json:"reasons,omitempty"`
}

// BenchView is one unstarted candidate.
type BenchView struct {
	PlayerID     string   `json:"player_id"`
	Name         string   `json:"name"`
	Team         string   `json:"team,omitempty"`
	Positions    []string `json:"positions"`
	Points       float64  `json:"points"`
	InjuryStatus string   `json:"injury_status,omitempty"`
}

// LineupView is one optimized lineup decorated for presentation.
type LineupView struct {
	TeamID       int                 `json:"team_id,omitempty"`
	TeamName     string              `json:"team_name,omitempty"`
	Starters     []StarterView       `json:"starters"`
	Bench        []BenchView         `json:"bench,omitempty"`
	Unfilled     []string            `json:"unfilled,omitempty"`
	TotalPoints  float64             `json:"total_points"`
	TotalUtility float64             `json:"total_utility"`
	Warnings     []optimizer.Warning `json:"warnings,omitempty"`
}

// Incomplete reports whether the lineup left slots unfilled.
func (v *LineupView) Incomplete() bool {
	return len(v.Unfilled) > 0
}

// LineupResult is the product of one optimization run.
type LineupResult struct {
	RunID       string     `json:"run_id"`
	Season      int        `json:"season"`
	Week        int        `json:"week"`
	Format      string     `json:"format"`
	Lineup      LineupView `json:"lineup"`
	GeneratedAt time.Time  `json:"generated_at"`
}

// MatchupReport is the product of one head-to-head evaluation.
type MatchupReport struct {
	RunID         string     `json:"run_id"`
	Season        int        `json:"season"`
	Week          int        `json:"week"`
	Format        string     `json:"format"`
	Own           LineupView `json:"own"`
	Opponent      LineupView `json:"opponent"`
	OwnTotal      float64    `json:"own_total"`
	OpponentTotal float64    `json:"opponent_total"`
	Margin        float64    `json:"margin"`
	GeneratedAt   time.Time  `json:"generated_at"`
}

// OptimizeWeek builds the candidate pool for a week and runs the optimizer.
func (s *MatchupService) OptimizeWeek(ctx context.Context, opts OptimizeOptions) (*LineupResult, error) {
	format := opts.Format
	if format == "" {
		format = s.config.LineupFormat
	}
	slots, err := optimizer.SlotsForFormat(format)
	if err != nil {
		return nil, err
	}

	scorer := s.projections.Scorer()
	if opts.PenaltyWeight != nil {
		scorer.PenaltyWeight = *opts.PenaltyWeight
	}

	var (
		pool     *PoolResult
		teamID   int
		teamName string
	)
	if opts.RosterOnly {
		team, err := s.roster.MyTeam(ctx, opts.Week)
		if err != nil {
			return nil, err
		}
		teamID = team.ID
		teamName = team.Name
		pool, err = s.projections.RosterPool(ctx, opts.Week, team.Roster)
		if err != nil {
			return nil, err
		}
	} else {
		pool, err = s.projections.BuildPool(ctx, opts.Week)
		if err != nil {
			return nil, err
		}
	}

	lineup, err := optimizer.Optimize(pool.Projections(), slots, scorer)
	if err != nil {
		return nil, err
	}

	view := s.lineupView(lineup, pool, scorer, teamID, teamName)
	result := &LineupResult{
		RunID:       uuid.New().String(),
		Season:      pool.Season,
		Week:        opts.Week,
		Format:      format,
		Lineup:      view,
		GeneratedAt: time.Now().UTC(),
	}

	s.logger.WithFields(logrus.Fields{
		"component":   "matchup",
		"run_id":      result.RunID,
		"week":        opts.Week,
		"roster_only": opts.RosterOnly,
		"starters":    len(view.Starters),
		"unfilled":    len(view.Unfilled),
		"total":       view.TotalPoints,
	}).Info("Optimized lineup")

	return result, nil
}

// EvaluateWeek optimizes both sides of the configured team's matchup and
// projects the margin.
func (s *MatchupService) EvaluateWeek(ctx context.Context, week int) (*MatchupReport, error) {
	slots, err := optimizer.SlotsForFormat(s.config.LineupFormat)
	if err != nil {
		return nil, err
	}
	scorer := s.projections.Scorer()

	own, opponent, err := s.roster.MatchupTeams(ctx, week)
	if err != nil {
		return nil, err
	}

	ownPool, err := s.projections.RosterPool(ctx, week, own.Roster)
	if err != nil {
		return nil, err
	}
	opponentPool, err := s.projections.RosterPool(ctx, week, opponent.Roster)
	if err != nil {
		return nil, err
	}

	result, err := optimizer.Evaluate(ownPool.Projections(), opponentPool.Projections(), slots, scorer)
	if err != nil {
		return nil, err
	}

	report := &MatchupReport{
		RunID:         uuid.New().String(),
		Season:        ownPool.Season,
		Week:          week,
		Format:        s.config.LineupFormat,
		Own:           s.lineupView(&result.Own, ownPool, scorer, own.ID, own.Name),
		Opponent:      s.lineupView(&result.Opponent, opponentPool, scorer, opponent.ID, opponent.Name),
		OwnTotal:      result.OwnTotal,
		OpponentTotal: result.OpponentTotal,
		Margin:        result.Margin(),
		GeneratedAt:   time.Now().UTC(),
	}

	s.logger.WithFields(logrus.Fields{
		"component": "matchup",
		"run_id":    report.RunID,
		"week":      week,
		"own":       fmt.Sprintf("%.1f", report.OwnTotal),
		"opponent":  fmt.Sprintf("%.1f", report.OpponentTotal),
		"margin":    fmt.Sprintf("%+.1f", report.Margin),
	}).Info("Evaluated matchup")

	return report, nil
}

func (s *MatchupService) lineupView(lineup *optimizer.Lineup, pool *PoolResult, scorer optimizer.Scorer, teamID int, teamName string) LineupView {
	view := LineupView{
		TeamID:       teamID,
		TeamName:     teamName,
		Starters:     make([]StarterView, 0, len(lineup.Starters)),
		Unfilled:     lineup.Unfilled,
		TotalPoints:  lineup.TotalPoints,
		TotalUtility: lineup.TotalUtility,
	}

	for _, assignment := range lineup.Starters {
		starter := StarterView{
			Slot:        assignment.Slot,
			PlayerID:    assignment.Player.PlayerID,
			Name:        assignment.Player.Name,
			Positions:   assignment.Player.Positions,
			Points:      assignment.Player.Points,
			Utility:     assignment.Utility,
			Uncertainty: scorer.ResolveUncertainty(assignment.Player),
		}
		if entry := pool.Find(assignment.Player.PlayerID); entry != nil {
			starter.Team = entry.Team
			starter.Floor = entry.Floor
			starter.Ceiling = entry.Ceiling
			starter.InjuryStatus = entry.InjuryStatus
			starter.Reasons = starterReasons(entry, pool.Week, starter.Uncertainty)
		}
		view.Starters = append(view.Starters, starter)
	}

	for _, candidate := range lineup.Bench {
		if len(view.Bench) >= benchLimit {
			break
		}
		bench := BenchView{
			PlayerID:  candidate.PlayerID,
			Name:      candidate.Name,
			Positions: candidate.Positions,
			Points:    candidate.Points,
		}
		if entry := pool.Find(candidate.PlayerID); entry != nil {
			bench.Team = entry.Team
			bench.InjuryStatus = entry.InjuryStatus
		}
		view.Bench = append(view.Bench, bench)
	}

	// Pool-level data warnings ride with the optimizer's own.
	view.Warnings = append(view.Warnings, pool.Warnings...)
	view.Warnings = append(view.Warnings, lineup.Warnings...)

	return view
}

// starterReasons derives short explanations for why a starter rates: edge
// over the prior-season baseline, projection above current pace, heavy
// recent usage, or a wide spread.
func starterReasons(player *PoolPlayer, week int, uncertainty float64) []string {
	var reasons []string
	if player.PriorPerGame != nil && player.Points > *player.PriorPerGame+1 {
		reasons = append(reasons, "model edge over public projection")
	}
	if week > 1 {
		perGame := player.YTDPoints / float64(week-1)
		if player.Points > perGame+2 {
			reasons = append(reasons, "favorable matchup")
		}
		if perGame > 10 {
			reasons = append(reasons, "recent usage trending up")
		}
	}
	if uncertainty > 4 {
		reasons = append(reasons, "boom/bust profile")
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "balanced profile")
	}
	return reasons
}
