package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpfaff/lineup-edge/internal/optimizer"
	"github.com/dpfaff/lineup-edge/internal/services"
	"github.com/dpfaff/lineup-edge/pkg/config"
)

type stubOptimizer struct {
	result   *services.LineupResult
	err      error
	lastOpts services.OptimizeOptions
	calls    int
}

func (s *stubOptimizer) OptimizeWeek(ctx context.Context, opts services.OptimizeOptions) (*services.LineupResult, error) {
	s.calls++
	s.lastOpts = opts
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func sampleLineup(week int) *services.LineupResult {
	return &services.LineupResult{
		RunID:  "run-1",
		Season: 2025,
		Week:   week,
		Format: "standard",
		Lineup: services.LineupView{
			TeamID:   1,
			TeamName: "Danger Zone",
			Starters: []services.StarterView{
				{Slot: "QB", PlayerID: "101", Name: "Test QB", Points: 22.0, Utility: 21.34},
			},
			TotalPoints:  22.0,
			TotalUtility: 21.34,
		},
	}
}

func optimizeTestRouter(stub *stubOptimizer, cfg *config.Config) *gin.Engine {
	router := testRouter()
	handler := NewOptimizeHandler(stub, cfg)
	router.POST("/optimize", handler.Optimize)
	return router
}

func TestOptimizeDefaultsToRosterOnly(t *testing.T) {
	stub := &stubOptimizer{result: sampleLineup(3)}
	router := optimizeTestRouter(stub, handlerConfig())

	w, env := doRequest(t, router, http.MethodPost, "/optimize", gin.H{"week": 3})

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.True(t, stub.lastOpts.RosterOnly)
	assert.Equal(t, 3, stub.lastOpts.Week)
	assert.Nil(t, stub.lastOpts.PenaltyWeight)

	var result services.LineupResult
	require.NoError(t, json.Unmarshal(env.Data, &result))
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, "Danger Zone", result.Lineup.TeamName)

	require.NotNil(t, env.Meta)
	assert.Equal(t, 3, env.Meta.Week)
}

func TestOptimizePassesOverrides(t *testing.T) {
	stub := &stubOptimizer{result: sampleLineup(5)}
	router := optimizeTestRouter(stub, handlerConfig())

	w, _ := doRequest(t, router, http.MethodPost, "/optimize", gin.H{
		"week":           5,
		"format":         "skill",
		"penalty_weight": 0.3,
		"roster_only":    false,
	})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "skill", stub.lastOpts.Format)
	assert.False(t, stub.lastOpts.RosterOnly)
	require.NotNil(t, stub.lastOpts.PenaltyWeight)
	assert.InDelta(t, 0.3, *stub.lastOpts.PenaltyWeight, 1e-9)
}

func TestOptimizeRequiresWeek(t *testing.T) {
	stub := &stubOptimizer{result: sampleLineup(3)}
	router := optimizeTestRouter(stub, handlerConfig())

	w, env := doRequest(t, router, http.MethodPost, "/optimize", gin.H{"format": "standard"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
	assert.Zero(t, stub.calls)
}

func TestOptimizeRejectsOutOfRangeWeek(t *testing.T) {
	stub := &stubOptimizer{result: sampleLineup(3)}
	router := optimizeTestRouter(stub, handlerConfig())

	w, env := doRequest(t, router, http.MethodPost, "/optimize", gin.H{"week": 19})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
}

func TestOptimizeRejectsNegativePenalty(t *testing.T) {
	stub := &stubOptimizer{result: sampleLineup(3)}
	router := optimizeTestRouter(stub, handlerConfig())

	w, env := doRequest(t, router, http.MethodPost, "/optimize", gin.H{
		"week":           3,
		"penalty_weight": -0.5,
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
	assert.Zero(t, stub.calls)
}

func TestOptimizeUnknownFormat(t *testing.T) {
	stub := &stubOptimizer{
		err: fmt.Errorf("%w: unknown lineup format %q", optimizer.ErrInvalidConfiguration, "dynasty"),
	}
	router := optimizeTestRouter(stub, handlerConfig())

	w, env := doRequest(t, router, http.MethodPost, "/optimize", gin.H{"week": 3, "format": "dynasty"})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CONFIGURATION", env.Error.Code)
	assert.Contains(t, env.Error.Details, "dynasty")
}

func TestOptimizeRosterOnlyNeedsLeague(t *testing.T) {
	stub := &stubOptimizer{result: sampleLineup(3)}
	cfg := handlerConfig()
	cfg.LeagueID = 0
	router := optimizeTestRouter(stub, cfg)

	w, env := doRequest(t, router, http.MethodPost, "/optimize", gin.H{"week": 3})

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_CONFIGURATION", env.Error.Code)
	assert.Zero(t, stub.calls)
}

func TestOptimizeFullPoolSkipsLeagueCheck(t *testing.T) {
	stub := &stubOptimizer{result: sampleLineup(3)}
	cfg := handlerConfig()
	cfg.LeagueID = 0
	router := optimizeTestRouter(stub, cfg)

	w, _ := doRequest(t, router, http.MethodPost, "/optimize", gin.H{"week": 3, "roster_only": false})

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 1, stub.calls)
}

func TestOptimizeUpstreamFailure(t *testing.T) {
	stub := &stubOptimizer{err: errors.New("espn upstream unavailable: timeout")}
	router := optimizeTestRouter(stub, handlerConfig())

	w, env := doRequest(t, router, http.MethodPost, "/optimize", gin.H{"week": 3})

	require.Equal(t, http.StatusBadGateway, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UPSTREAM_ERROR", env.Error.Code)
}
