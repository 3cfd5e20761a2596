package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"

	"github.com/dpfaff/lineup-edge/internal/ffl"
)

const espnFantasyBaseURL = "https://lm-api-reads.fantasy.espn.com"

// poolFilter is the X-Fantasy-Filter header ESPN requires to widen the pool
// past its 50-player default, sorted by ownership so the relevant names come
// first.
const poolFilter = `{"players":{"limit":2000,"sortPercOwned":{"sortPriority":1,"sortAsc":false}}}`

// ESPN defaultPositionId values for the positions this module understands.
var espnPositionNames = map[int]string{
	1:  "QB",
	2:  "RB",
	3:  "WR",
	4:  "TE",
	5:  "K",
	16: "DST",
}

// ESPN proTeamId values to franchise abbreviations. 0 is a free agent.
var espnProTeams = map[int]string{
	0: "FA", 1: "ATL", 2: "BUF", 3: "CHI", 4: "CIN", 5: "CLE", 6: "DAL",
	7: "DEN", 8: "DET", 9: "GB", 10: "TEN", 11: "IND", 12: "KC", 13: "LV",
	14: "LAR", 15: "MIA", 16: "MIN", 17: "NE", 18: "NO", 19: "NYG",
	20: "NYJ", 21: "PHI", 22: "ARI", 23: "PIT", 24: "LAC", 25: "SF",
	26: "SEA", 27: "TB", 28: "WSH", 29: "CAR", 30: "JAX", 33: "BAL",
	34: "HOU",
}

// ESPNConfig carries the knobs for the fantasy API client. Zero values fall
// back to the production defaults; tests point BaseURL at a local server.
type ESPNConfig struct {
	BaseURL           string
	LeagueID          int
	ScoringID         int
	ESPNS2            string
	SWID              string
	Timeout           time.Duration
	RequestsPerSecond int
	BreakerThreshold  int
	PoolCacheTTL      time.Duration
	LeagueCacheTTL    time.Duration
}

// ESPNClient implements ffl.Provider against the ESPN fantasy read API.
// Requests flow through a rate limiter and a circuit breaker so a misbehaving
// upstream degrades to errors quickly instead of piling up blocked calls.
type ESPNClient struct {
	httpClient *http.Client
	cache      ffl.CacheProvider
	logger     *logrus.Logger
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	config     ESPNConfig
}

// NewESPNClient creates a new ESPN fantasy API client.
func NewESPNClient(cfg ESPNConfig, cache ffl.CacheProvider, logger *logrus.Logger) *ESPNClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = espnFantasyBaseURL
	}
	if cfg.ScoringID == 0 {
		cfg.ScoringID = 3
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 2
	}
	if cfg.BreakerThreshold <= 0 {
		cfg.BreakerThreshold = 5
	}
	if cfg.PoolCacheTTL == 0 {
		cfg.PoolCacheTTL = 15 * time.Minute
	}
	if cfg.LeagueCacheTTL == 0 {
		cfg.LeagueCacheTTL = 5 * time.Minute
	}

	threshold := uint32(cfg.BreakerThreshold)
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "espn-fantasy",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"component": "espn_client",
				"breaker":   name,
				"from":      from.String(),
				"to":        to.String(),
			}).Warn("Circuit breaker state changed")
		},
	})

	return &ESPNClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		cache:      cache,
		logger:     logger,
		limiter:    rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
		breaker:    breaker,
		config:     cfg,
	}
}

// ESPN API response structures

type espnPoolResponse struct {
	Players []espnPoolEntry `json:"players"`
}

type espnPoolEntry struct {
	Player espnPlayer `json:"player"`
}

type espnPlayer struct {
	ID                int            `json:"id"`
	FullName          string         `json:"fullName"`
	DefaultPositionID int            `json:"defaultPositionId"`
	ProTeamID         int            `json:"proTeamId"`
	InjuryStatus      string         `json:"injuryStatus"`
	Ownership         espnOwnership  `json:"ownership"`
	Stats             []espnStatLine `json:"stats"`
}

type espnOwnership struct {
	PercentOwned float64 `json:"percentOwned"`
}

type espnStatLine struct {
	SeasonID        int                `json:"seasonId"`
	ScoringPeriodID int                `json:"scoringPeriodId"`
	StatSourceID    int                `json:"statSourceId"`
	StatSplitTypeID int                `json:"statSplitTypeId"`
	AppliedTotal    *float64           `json:"appliedTotal"`
	AppliedStats    map[string]float64 `json:"appliedStats"`
}

type espnLeagueResponse struct {
	ID       int              `json:"id"`
	Status   espnLeagueStatus `json:"status"`
	Teams    []espnLeagueTeam `json:"teams"`
	Schedule []espnMatchup    `json:"schedule"`
}

type espnLeagueStatus struct {
	CurrentMatchupPeriod int `json:"currentMatchupPeriod"`
	LatestScoringPeriod  int `json:"latestScoringPeriod"`
}

type espnLeagueTeam struct {
	ID       int        `json:"id"`
	Abbrev   string     `json:"abbrev"`
	Name     string     `json:"name"`
	Location string     `json:"location"`
	Nickname string     `json:"nickname"`
	Roster   espnRoster `json:"roster"`
}

type espnRoster struct {
	Entries []espnRosterEntry `json:"entries"`
}

type espnRosterEntry struct {
	PlayerID        int `json:"playerId"`
	PlayerPoolEntry struct {
		Player espnPlayer `json:"player"`
	} `json:"playerPoolEntry"`
}

type espnMatchup struct {
	MatchupPeriodID int             `json:"matchupPeriodId"`
	Home            espnMatchupSide `json:"home"`
	Away            espnMatchupSide `json:"away"`
}

type espnMatchupSide struct {
	TeamID int `json:"teamId"`
}

// PlayerPool fetches the league-defaults player pool for a scoring period:
// every rostered-or-relevant player with their weekly projection, season
// actuals, and ownership data.
func (c *ESPNClient) PlayerPool(ctx context.Context, season, week int) ([]ffl.PlayerData, error) {
	cacheKey := fmt.Sprintf("ffl:pool:%d:%d:%d", c.config.ScoringID, season, week)

	var cached []ffl.PlayerData
	if err := c.cache.GetSimple(cacheKey, &cached); err == nil {
		return cached, nil
	}

	url := fmt.Sprintf("%s/apis/v3/games/ffl/seasons/%d/segments/0/leaguedefaults/%d?scoringPeriodId=%d&view=kona_player_info",
		c.config.BaseURL, season, c.config.ScoringID, week)

	var resp espnPoolResponse
	if err := c.doJSON(ctx, url, poolFilter, &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch player pool: %w", err)
	}

	fetched := time.Now().UTC()
	players := make([]ffl.PlayerData, 0, len(resp.Players))
	for _, entry := range resp.Players {
		p := entry.Player
		players = append(players, ffl.PlayerData{
			ESPNID:       p.ID,
			Name:         p.FullName,
			Team:         proTeamAbbrev(p.ProTeamID),
			Position:     positionName(p.DefaultPositionID),
			Projected:    weeklyProjection(p.Stats, season, week),
			YTDPoints:    seasonActualTotal(p.Stats, season),
			PercentOwned: p.Ownership.PercentOwned,
			InjuryStatus: p.InjuryStatus,
			LastUpdated:  fetched,
			Source:       "espn",
		})
	}

	c.logger.WithFields(logrus.Fields{
		"component": "espn_client",
		"season":    season,
		"week":      week,
		"players":   len(players),
	}).Info("Fetched player pool")

	if len(players) > 0 {
		c.cache.SetSimple(cacheKey, players, c.config.PoolCacheTTL)
	}

	return players, nil
}

// League fetches the configured league's teams, rosters, and schedule for a
// scoring period. Private leagues need the ESPN_S2/SWID cookies.
func (c *ESPNClient) League(ctx context.Context, season, week int) (*ffl.League, error) {
	if c.config.LeagueID == 0 {
		return nil, fmt.Errorf("no league configured: set LEAGUE_ID")
	}

	cacheKey := fmt.Sprintf("ffl:league:%d:%d:%d", c.config.LeagueID, season, week)

	var cached ffl.League
	if err := c.cache.GetSimple(cacheKey, &cached); err == nil {
		return &cached, nil
	}

	url := fmt.Sprintf("%s/apis/v3/games/ffl/seasons/%d/segments/0/leagues/%d?view=mTeam&view=mRoster&view=mMatchup&scoringPeriodId=%d",
		c.config.BaseURL, season, c.config.LeagueID, week)

	var resp espnLeagueResponse
	if err := c.doJSON(ctx, url, "", &resp); err != nil {
		return nil, fmt.Errorf("failed to fetch league %d: %w", c.config.LeagueID, err)
	}

	league := &ffl.League{
		ID:          resp.ID,
		CurrentWeek: resp.Status.LatestScoringPeriod,
		Teams:       make([]ffl.Team, 0, len(resp.Teams)),
		Schedule:    make([]ffl.Matchup, 0, len(resp.Schedule)),
	}
	if league.CurrentWeek == 0 {
		league.CurrentWeek = resp.Status.CurrentMatchupPeriod
	}

	for _, team := range resp.Teams {
		roster := make([]ffl.RosterEntry, 0, len(team.Roster.Entries))
		for _, entry := range team.Roster.Entries {
			player := entry.PlayerPoolEntry.Player
			name := player.FullName
			if name == "" {
				name = fmt.Sprintf("player %d", entry.PlayerID)
			}
			roster = append(roster, ffl.RosterEntry{
				PlayerID:     entry.PlayerID,
				Name:         name,
				Position:     positionName(player.DefaultPositionID),
				InjuryStatus: player.InjuryStatus,
			})
		}
		league.Teams = append(league.Teams, ffl.Team{
			ID:     team.ID,
			Name:   teamDisplayName(team),
			Abbrev: team.Abbrev,
			Roster: roster,
		})
	}

	for _, matchup := range resp.Schedule {
		league.Schedule = append(league.Schedule, ffl.Matchup{
			Period:     matchup.MatchupPeriodID,
			HomeTeamID: matchup.Home.TeamID,
			AwayTeamID: matchup.Away.TeamID,
		})
	}

	c.logger.WithFields(logrus.Fields{
		"component": "espn_client",
		"league_id": league.ID,
		"teams":     len(league.Teams),
		"week":      week,
	}).Info("Fetched league")

	c.cache.SetSimple(cacheKey, league, c.config.LeagueCacheTTL)

	return league, nil
}

// doJSON performs one rate-limited, breaker-guarded GET and decodes the body.
func (c *ESPNClient) doJSON(ctx context.Context, url, fantasyFilter string, target interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	_, err := c.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if fantasyFilter != "" {
			req.Header.Set("X-Fantasy-Filter", fantasyFilter)
		}
		if c.config.ESPNS2 != "" && c.config.SWID != "" {
			req.AddCookie(&http.Cookie{Name: "espn_s2", Value: c.config.ESPNS2})
			req.AddCookie(&http.Cookie{Name: "SWID", Value: c.config.SWID})
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		}

		return nil, json.NewDecoder(resp.Body).Decode(target)
	})
	if err == gobreaker.ErrOpenState || err == gobreaker.ErrTooManyRequests {
		return fmt.Errorf("espn upstream unavailable: %w", err)
	}
	return err
}

// weeklyProjection extracts the projected points for one scoring period:
// the stat line with statSourceId 1 for the requested season and week. No
// matching line means the player has no projection, which callers must treat
// as an observable exclusion rather than zero.
func weeklyProjection(stats []espnStatLine, season, week int) *float64 {
	for _, line := range stats {
		if line.SeasonID != season || line.StatSourceID != 1 || line.ScoringPeriodID != week {
			continue
		}
		if line.AppliedTotal != nil {
			value := *line.AppliedTotal
			return &value
		}
	}
	return nil
}

// seasonActualTotal extracts the season-to-date actual total: statSourceId 0
// lines for the season, preferring the statSplitTypeId 2 full-season split,
// falling back to summing appliedStats when appliedTotal is absent.
func seasonActualTotal(stats []espnStatLine, season int) float64 {
	bestRank := -1
	bestTotal := 0.0
	for _, line := range stats {
		if line.SeasonID != season || line.StatSourceID != 0 {
			continue
		}
		var total float64
		switch {
		case line.AppliedTotal != nil:
			total = *line.AppliedTotal
		case len(line.AppliedStats) > 0:
			for _, v := range line.AppliedStats {
				total += v
			}
		default:
			continue
		}
		rank := 1
		if line.StatSplitTypeID == 2 {
			rank = 2
		}
		if rank > bestRank || (rank == bestRank && total > bestTotal) {
			bestRank = rank
			bestTotal = total
		}
	}
	return bestTotal
}

func positionName(defaultPositionID int) string {
	return espnPositionNames[defaultPositionID]
}

func proTeamAbbrev(proTeamID int) string {
	if abbrev, ok := espnProTeams[proTeamID]; ok {
		return abbrev
	}
	return "FA"
}

// teamDisplayName prefers the single name field newer league payloads carry,
// falling back to the older location + nickname pair.
func teamDisplayName(team espnLeagueTeam) string {
	if team.Name != "" {
		return team.Name
	}
	parts := make([]string, 0, 2)
	if team.Location != "" {
		parts = append(parts, team.Location)
	}
	if team.Nickname != "" {
		parts = append(parts, team.Nickname)
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return team.Abbrev
}
