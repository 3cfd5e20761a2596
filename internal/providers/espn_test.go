package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubCache is an in-memory ffl.CacheProvider for provider tests.
type stubCache struct {
	data map[string][]byte
}

func newStubCache() *stubCache {
	return &stubCache{data: make(map[string][]byte)}
}

func (s *stubCache) SetSimple(key string, value interface{}, _ time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	s.data[key] = raw
	return nil
}

func (s *stubCache) GetSimple(key string, dest interface{}) error {
	raw, ok := s.data[key]
	if !ok {
		return fmt.Errorf("cache miss: %s", key)
	}
	return json.Unmarshal(raw, dest)
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func newTestClient(baseURL string, cfg ESPNConfig) *ESPNClient {
	cfg.BaseURL = baseURL
	if cfg.RequestsPerSecond == 0 {
		cfg.RequestsPerSecond = 1000
	}
	return NewESPNClient(cfg, newStubCache(), testLogger())
}

const poolPayload = `{
	"players": [
		{
			"player": {
				"id": 3918298,
				"fullName": "Josh Allen",
				"defaultPositionId": 1,
				"proTeamId": 2,
				"injuryStatus": "ACTIVE",
				"ownership": {"percentOwned": 99.8},
				"stats": [
					{"seasonId": 2025, "scoringPeriodId": 3, "statSourceId": 1, "statSplitTypeId": 1, "appliedTotal": 22.4},
					{"seasonId": 2025, "scoringPeriodId": 0, "statSourceId": 1, "statSplitTypeId": 0, "appliedTotal": 380.5},
					{"seasonId": 2025, "scoringPeriodId": 0, "statSourceId": 0, "statSplitTypeId": 2, "appliedTotal": 51.3},
					{"seasonId": 2024, "scoringPeriodId": 0, "statSourceId": 0, "statSplitTypeId": 2, "appliedTotal": 385.1}
				]
			}
		},
		{
			"player": {
				"id": 4242335,
				"fullName": "Jahmyr Gibbs",
				"defaultPositionId": 2,
				"proTeamId": 8,
				"injuryStatus": "QUESTIONABLE",
				"ownership": {"percentOwned": 99.5},
				"stats": [
					{"seasonId": 2025, "scoringPeriodId": 2, "statSourceId": 1, "statSplitTypeId": 1, "appliedTotal": 18.0},
					{"seasonId": 2025, "scoringPeriodId": 1, "statSourceId": 0, "statSplitTypeId": 1, "appliedStats": {"24": 12.0, "25": 6.4}}
				]
			}
		}
	]
}`

func TestPlayerPoolParsesResponse(t *testing.T) {
	var gotFilter string
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.Header.Get("X-Fantasy-Filter")
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, poolPayload)
	}))
	defer server.Close()

	client := newTestClient(server.URL, ESPNConfig{ScoringID: 3})
	players, err := client.PlayerPool(context.Background(), 2025, 3)
	require.NoError(t, err)
	require.Len(t, players, 2)

	assert.Contains(t, gotFilter, `"limit":2000`)
	assert.Equal(t, "/apis/v3/games/ffl/seasons/2025/segments/0/leaguedefaults/3?scoringPeriodId=3&view=kona_player_info", gotPath)

	allen := players[0]
	assert.Equal(t, 3918298, allen.ESPNID)
	assert.Equal(t, "Josh Allen", allen.Name)
	assert.Equal(t, "QB", allen.Position)
	assert.Equal(t, "BUF", allen.Team)
	require.NotNil(t, allen.Projected)
	assert.InDelta(t, 22.4, *allen.Projected, 1e-9)
	assert.InDelta(t, 51.3, allen.YTDPoints, 1e-9)
	assert.InDelta(t, 99.8, allen.PercentOwned, 1e-9)
	assert.Equal(t, "espn", allen.Source)

	// Gibbs has a projection line for week 2 only, so week 3 yields none, and
	// his actuals come from summing appliedStats.
	gibbs := players[1]
	assert.Equal(t, "RB", gibbs.Position)
	assert.Equal(t, "DET", gibbs.Team)
	assert.Nil(t, gibbs.Projected)
	assert.InDelta(t, 18.4, gibbs.YTDPoints, 1e-9)
	assert.Equal(t, "QUESTIONABLE", gibbs.InjuryStatus)
}

func TestPlayerPoolCachesResult(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		fmt.Fprint(w, poolPayload)
	}))
	defer server.Close()

	client := newTestClient(server.URL, ESPNConfig{})

	first, err := client.PlayerPool(context.Background(), 2025, 3)
	require.NoError(t, err)
	second, err := client.PlayerPool(context.Background(), 2025, 3)
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&requests))
	assert.Equal(t, len(first), len(second))
	assert.Equal(t, first[0].ESPNID, second[0].ESPNID)
}

const leaguePayload = `{
	"id": 12345,
	"status": {"currentMatchupPeriod": 3, "latestScoringPeriod": 3},
	"teams": [
		{
			"id": 1,
			"abbrev": "DPF",
			"location": "Danger",
			"nickname": "Zone",
			"roster": {"entries": [
				{"playerId": 3918298, "playerPoolEntry": {"player": {"id": 3918298, "fullName": "Josh Allen", "defaultPositionId": 1, "injuryStatus": "ACTIVE"}}},
				{"playerId": 4242335, "playerPoolEntry": {"player": {"id": 4242335, "fullName": "Jahmyr Gibbs", "defaultPositionId": 2, "injuryStatus": "QUESTIONABLE"}}}
			]}
		},
		{
			"id": 2,
			"abbrev": "RVL",
			"name": "The Rivals",
			"roster": {"entries": []}
		}
	],
	"schedule": [
		{"matchupPeriodId": 3, "home": {"teamId": 1}, "away": {"teamId": 2}},
		{"matchupPeriodId": 4, "home": {"teamId": 2}, "away": {"teamId": 1}}
	]
}`

func TestLeagueParsesResponse(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path + "?" + r.URL.RawQuery
		fmt.Fprint(w, leaguePayload)
	}))
	defer server.Close()

	client := newTestClient(server.URL, ESPNConfig{LeagueID: 12345})
	league, err := client.League(context.Background(), 2025, 3)
	require.NoError(t, err)

	assert.Equal(t, "/apis/v3/games/ffl/seasons/2025/segments/0/leagues/12345?view=mTeam&view=mRoster&view=mMatchup&scoringPeriodId=3", gotPath)
	assert.Equal(t, 12345, league.ID)
	assert.Equal(t, 3, league.CurrentWeek)
	require.Len(t, league.Teams, 2)

	home := league.TeamByID(1)
	require.NotNil(t, home)
	assert.Equal(t, "Danger Zone", home.Name)
	require.Len(t, home.Roster, 2)
	assert.Equal(t, "Josh Allen", home.Roster[0].Name)
	assert.Equal(t, "QB", home.Roster[0].Position)

	away := league.TeamByID(2)
	require.NotNil(t, away)
	assert.Equal(t, "The Rivals", away.Name)

	require.Len(t, league.Schedule, 2)
	assert.Equal(t, 3, league.Schedule[0].Period)
	assert.Equal(t, 1, league.Schedule[0].HomeTeamID)
	assert.Equal(t, 2, league.Schedule[0].AwayTeamID)
}

func TestLeagueSendsCredentialCookies(t *testing.T) {
	var gotS2, gotSWID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("espn_s2"); err == nil {
			gotS2 = c.Value
		}
		if c, err := r.Cookie("SWID"); err == nil {
			gotSWID = c.Value
		}
		fmt.Fprint(w, leaguePayload)
	}))
	defer server.Close()

	client := newTestClient(server.URL, ESPNConfig{
		LeagueID: 12345,
		ESPNS2:   "s2-token",
		SWID:     "{swid}",
	})
	_, err := client.League(context.Background(), 2025, 3)
	require.NoError(t, err)

	assert.Equal(t, "s2-token", gotS2)
	assert.Equal(t, "{swid}", gotSWID)
}

func TestLeagueRequiresConfiguredID(t *testing.T) {
	client := newTestClient("http://unused.invalid", ESPNConfig{})
	_, err := client.League(context.Background(), 2025, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LEAGUE_ID")
}

func TestCircuitBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var requests int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&requests, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL, ESPNConfig{BreakerThreshold: 2})

	for i := 0; i < 2; i++ {
		_, err := client.PlayerPool(context.Background(), 2025, 3)
		require.Error(t, err)
	}
	before := atomic.LoadInt32(&requests)

	_, err := client.PlayerPool(context.Background(), 2025, 3)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unavailable")
	assert.Equal(t, before, atomic.LoadInt32(&requests), "open breaker must not hit upstream")
}

func TestSeasonActualTotalPrefersFullSeasonSplit(t *testing.T) {
	total := 10.0
	partial := 4.0
	lines := []espnStatLine{
		{SeasonID: 2025, StatSourceID: 0, StatSplitTypeID: 1, AppliedTotal: &partial},
		{SeasonID: 2025, StatSourceID: 0, StatSplitTypeID: 2, AppliedTotal: &total},
		{SeasonID: 2024, StatSourceID: 0, StatSplitTypeID: 2, AppliedTotal: &partial},
	}
	assert.InDelta(t, 10.0, seasonActualTotal(lines, 2025), 1e-9)
}

func TestWeeklyProjectionMatchesExactWeek(t *testing.T) {
	wk2 := 18.0
	wk3 := 21.5
	lines := []espnStatLine{
		{SeasonID: 2025, ScoringPeriodID: 2, StatSourceID: 1, AppliedTotal: &wk2},
		{SeasonID: 2025, ScoringPeriodID: 3, StatSourceID: 1, AppliedTotal: &wk3},
	}

	got := weeklyProjection(lines, 2025, 3)
	require.NotNil(t, got)
	assert.InDelta(t, 21.5, *got, 1e-9)

	assert.Nil(t, weeklyProjection(lines, 2025, 5))
	assert.Nil(t, weeklyProjection(lines, 2024, 3))
}
