package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dpfaff/lineup-edge/internal/ffl"
	"github.com/dpfaff/lineup-edge/internal/models"
	"github.com/dpfaff/lineup-edge/internal/optimizer"
	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/database"
)

// Warning code for pool entries that matched no stored prior-season total.
const WarnCodeMissingPrior = "MISSING_PRIOR"

// uncertaintyRatio scales a weekly projection into its spread estimate.
const uncertaintyRatio = 0.2

// Floor and ceiling display band around the weekly projection.
const (
	floorRatio   = 0.8
	ceilingRatio = 1.25
)

// ProjectionService turns provider and store data into optimizer-ready pools.
type ProjectionService struct {
	db       *database.DB
	cache    *CacheService
	logger   *logrus.Logger
	provider ffl.Provider
	config   *config.Config
}

// NewProjectionService creates a new projection service.
func NewProjectionService(
	db *database.DB,
	cache *CacheService,
	logger *logrus.Logger,
	provider ffl.Provider,
	cfg *config.Config,
) *ProjectionService {
	return &ProjectionService{
		db:       db,
		cache:    cache,
		logger:   logger,
		provider: provider,
		config:   cfg,
	}
}

// PoolPlayer is one optimizer candidate enriched with the display and
// context fields the API and CLI surface. Floor and ceiling are presentation
// data only and never feed the objective.
type PoolPlayer struct {
	optimizer.PlayerProjection

	Team         string   `json:"team"`
	InjuryStatus string   `json:"injury_status,omitempty"`
	PriorPerGame *float64 `json:"prior_per_game,omitempty"`
	YTDPoints    float64  `json:"ytd_points"`
	Floor        float64  `json:"floor"`
	Ceiling      float64  `json:"ceiling"`
	PercentOwned float64  `json:"percent_owned"`
}

// PoolResult is a built candidate pool for one scoring period.
type PoolResult struct {
	Season    int                 `json:"season"`
	Week      int                 `json:"week"`
	Players   []PoolPlayer        `json:"players"`
	Warnings  []optimizer.Warning `json:"warnings,omitempty"`
	FetchedAt time.Time           `json:"fetched_at"`
}

// Projections returns the optimizer view of the pool.
func (r *PoolResult) Projections() []optimizer.PlayerProjection {
	projections := make([]optimizer.PlayerProjection, 0, len(r.Players))
	for _, player := range r.Players {
		projections = append(projections, player.PlayerProjection)
	}
	return projections
}

// Find returns the pool entry with the given player id, or nil.
func (r *PoolResult) Find(playerID string) *PoolPlayer {
	for i := range r.Players {
		if r.Players[i].PlayerID == playerID {
			return &r.Players[i]
		}
	}
	return nil
}

// BuildPool fetches the week's player pool and converts it into optimizer
// candidates: projection points, derived uncertainty, prior-season baseline,
// and the floor/ceiling band. Players without a projection for the week are
// left out; they cannot be scored. The result is cached and the player rows
// are upserted for later roster joins.
func (s *ProjectionService) BuildPool(ctx context.Context, week int) (*PoolResult, error) {
	season := s.config.Season
	cacheKey := PoolCacheKey(season, week)

	var cached PoolResult
	if err := s.cache.GetSimple(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	raw, err := s.provider.PlayerPool(ctx, season, week)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player pool: %w", err)
	}

	priors, err := models.SeasonTotalsByKey(s.db, season-1)
	if err != nil {
		s.logger.Warnf("Prior season totals unavailable: %v", err)
		priors = map[string]models.SeasonTotal{}
	}

	result := &PoolResult{
		Season:    season,
		Week:      week,
		Players:   make([]PoolPlayer, 0, len(raw)),
		FetchedAt: time.Now().UTC(),
	}

	unprojected := 0
	for _, data := range raw {
		if data.Position == "" {
			continue
		}
		if data.Projected == nil {
			unprojected++
			continue
		}
		result.Players = append(result.Players, s.poolPlayer(data, priors))
	}

	s.logger.WithFields(logrus.Fields{
		"component":   "projections",
		"season":      season,
		"week":        week,
		"players":     len(result.Players),
		"unprojected": unprojected,
	}).Info("Built player pool")

	if err := s.persistPlayers(raw); err != nil {
		s.logger.Errorf("Failed to persist player rows: %v", err)
	}

	if len(result.Players) > 0 {
		s.cache.SetWithRetry(ctx, cacheKey, result, s.config.PoolCacheTTL, 2)
	}

	return result, nil
}

// RosterPool builds the week's pool and filters it to the given roster,
// reporting roster players the projection pool cannot score and starters
// whose prior-season baseline is missing. When no totals were imported at
// all, one aggregate warning replaces the per-player noise.
func (s *ProjectionService) RosterPool(ctx context.Context, week int, roster []ffl.RosterEntry) (*PoolResult, error) {
	pool, err := s.BuildPool(ctx, week)
	if err != nil {
		return nil, err
	}

	priorSeason := pool.Season - 1
	priorsLoaded, err := models.HasSeasonTotals(s.db, priorSeason)
	if err != nil {
		s.logger.Warnf("Prior season totals unavailable: %v", err)
	}

	wanted := make(map[string]ffl.RosterEntry, len(roster))
	for _, entry := range roster {
		wanted[strconv.Itoa(entry.PlayerID)] = entry
	}

	filtered := &PoolResult{
		Season:    pool.Season,
		Week:      pool.Week,
		Players:   make([]PoolPlayer, 0, len(roster)),
		FetchedAt: pool.FetchedAt,
	}

	for _, player := range pool.Players {
		entry, ok := wanted[player.PlayerID]
		if !ok {
			continue
		}
		delete(wanted, player.PlayerID)
		filtered.Players = append(filtered.Players, player)
		if priorsLoaded && player.PriorPerGame == nil {
			filtered.Warnings = append(filtered.Warnings, optimizer.Warning{
				Code:     WarnCodeMissingPrior,
				PlayerID: player.PlayerID,
				Message:  fmt.Sprintf("%s has no stored %d total", entry.Name, priorSeason),
			})
		}
	}

	if !priorsLoaded {
		filtered.Warnings = append(filtered.Warnings, optimizer.Warning{
			Code:    WarnCodeMissingPrior,
			Message: fmt.Sprintf("no %d season totals imported; baselines unavailable", priorSeason),
		})
	}

	// Whatever is left in wanted has no scoreable projection this week.
	missing := make([]string, 0, len(wanted))
	for id := range wanted {
		missing = append(missing, id)
	}
	sort.Strings(missing)
	for _, id := range missing {
		filtered.Warnings = append(filtered.Warnings, optimizer.Warning{
			Code:     optimizer.WarnCodeExcludedProjection,
			PlayerID: id,
			Message:  fmt.Sprintf("%s has no week %d projection", wanted[id].Name, week),
		})
	}

	return filtered, nil
}

// Scorer returns the configured objective scorer. DefaultUncertainty stands
// in for candidates that arrive without an uncertainty value, such as raw
// pools posted straight to the optimize endpoint.
func (s *ProjectionService) Scorer() optimizer.Scorer {
	return optimizer.Scorer{
		PenaltyWeight:      s.config.PenaltyWeight,
		MissingUncertainty: s.config.DefaultUncertainty,
	}
}

func (s *ProjectionService) poolPlayer(data ffl.PlayerData, priors map[string]models.SeasonTotal) PoolPlayer {
	points := *data.Projected
	uncertainty := s.uncertaintyFor(points)

	player := PoolPlayer{
		PlayerProjection: optimizer.PlayerProjection{
			PlayerID:    strconv.Itoa(data.ESPNID),
			Name:        data.Name,
			Positions:   []string{data.Position},
			Points:      points,
			Uncertainty: &uncertainty,
		},
		Team:         data.Team,
		InjuryStatus: data.InjuryStatus,
		YTDPoints:    data.YTDPoints,
		Floor:        clampZero(floorRatio * points),
		Ceiling:      clampZero(ceilingRatio * points),
		PercentOwned: data.PercentOwned,
	}

	if total, ok := priors[NameKey(data.Name)]; ok {
		perGame := total.PerGame(s.config.PriorSeasonGames)
		player.PriorPerGame = &perGame
	}

	return player
}

// uncertaintyFor derives the spread estimate from a weekly projection,
// floored so small projections keep a meaningful penalty.
func (s *ProjectionService) uncertaintyFor(points float64) float64 {
	uncertainty := uncertaintyRatio * points
	if uncertainty < s.config.MinUncertainty {
		uncertainty = s.config.MinUncertainty
	}
	return uncertainty
}

func (s *ProjectionService) persistPlayers(raw []ffl.PlayerData) error {
	rows := make([]models.Player, 0, len(raw))
	for _, data := range raw {
		if data.Position == "" {
			continue
		}
		row := models.Player{
			ESPNID:       data.ESPNID,
			Name:         data.Name,
			NameKey:      NameKey(data.Name),
			Team:         data.Team,
			Position:     data.Position,
			InjuryStatus: data.InjuryStatus,
			PercentOwned: data.PercentOwned,
		}
		if err := row.SetEligiblePositions([]string{data.Position}); err != nil {
			return err
		}
		rows = append(rows, row)
	}
	return models.UpsertPlayers(s.db, rows)
}

func clampZero(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

var nameKeyStrip = regexp.MustCompile(`[^a-z0-9 ]+`)

// NameKey normalizes a player name for joining across data sources:
// lowercase, hyphens to spaces, punctuation removed, generational suffixes
// dropped, whitespace collapsed.
func NameKey(name string) string {
	key := strings.ToLower(name)
	key = strings.ReplaceAll(key, "-", " ")
	key = nameKeyStrip.ReplaceAllString(key, "")
	fields := strings.Fields(key)
	for len(fields) > 1 {
		switch fields[len(fields)-1] {
		case "jr", "sr", "ii", "iii", "iv", "v":
			fields = fields[:len(fields)-1]
		default:
			return strings.Join(fields, " ")
		}
	}
	return strings.Join(fields, " ")
}

// ParseSeasonTotals reads a CSV of prior-season fantasy totals. Expected
// columns are player,points[,games]; a header row is detected and skipped.
func ParseSeasonTotals(r io.Reader, season int) ([]models.SeasonTotal, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var totals []models.SeasonTotal
	line := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read totals csv: %w", err)
		}
		line++

		if len(record) < 2 {
			return nil, fmt.Errorf("totals csv line %d: want at least name,points", line)
		}

		name := strings.TrimSpace(record[0])
		points, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			if line == 1 {
				continue // header row
			}
			return nil, fmt.Errorf("totals csv line %d: bad points %q", line, record[1])
		}
		if name == "" {
			return nil, fmt.Errorf("totals csv line %d: empty player name", line)
		}

		games := 0
		if len(record) > 2 && strings.TrimSpace(record[2]) != "" {
			games, err = strconv.Atoi(strings.TrimSpace(record[2]))
			if err != nil {
				return nil, fmt.Errorf("totals csv line %d: bad games %q", line, record[2])
			}
		}

		totals = append(totals, models.SeasonTotal{
			NameKey:     NameKey(name),
			Season:      season,
			PlayerName:  name,
			TotalPoints: points,
			Games:       games,
		})
	}

	return totals, nil
}
