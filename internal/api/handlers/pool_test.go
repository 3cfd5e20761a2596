package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dpfaff/lineup-edge/internal/services"
)

type stubPoolBuilder struct {
	pool     *services.PoolResult
	err      error
	lastWeek int
}

func (s *stubPoolBuilder) BuildPool(ctx context.Context, week int) (*services.PoolResult, error) {
	s.lastWeek = week
	if s.err != nil {
		return nil, s.err
	}
	return s.pool, nil
}

func poolTestRouter(builder *stubPoolBuilder) *gin.Engine {
	router := testRouter()
	handler := NewPoolHandler(builder, handlerConfig())
	router.GET("/pool", handler.GetPool)
	return router
}

func TestGetPoolReturnsEnvelope(t *testing.T) {
	builder := &stubPoolBuilder{pool: samplePool(2025, 3)}
	router := poolTestRouter(builder)

	w, env := doRequest(t, router, http.MethodGet, "/pool?week=3", nil)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, env.Success)
	assert.Equal(t, 3, builder.lastWeek)

	var pool services.PoolResult
	require.NoError(t, json.Unmarshal(env.Data, &pool))
	assert.Equal(t, 2025, pool.Season)
	require.Len(t, pool.Players, 1)
	assert.Equal(t, "Test QB", pool.Players[0].Name)

	require.NotNil(t, env.Meta)
	assert.Equal(t, 2025, env.Meta.Season)
	assert.Equal(t, 3, env.Meta.Week)
}

func TestGetPoolRequiresWeek(t *testing.T) {
	router := poolTestRouter(&stubPoolBuilder{pool: samplePool(2025, 3)})

	w, env := doRequest(t, router, http.MethodGet, "/pool", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.False(t, env.Success)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
}

func TestGetPoolRejectsNonNumericWeek(t *testing.T) {
	router := poolTestRouter(&stubPoolBuilder{pool: samplePool(2025, 3)})

	w, env := doRequest(t, router, http.MethodGet, "/pool?week=three", nil)

	require.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
}

func TestGetPoolRejectsOutOfRangeWeek(t *testing.T) {
	router := poolTestRouter(&stubPoolBuilder{pool: samplePool(2025, 3)})

	for _, week := range []string{"0", "19", "-2"} {
		w, env := doRequest(t, router, http.MethodGet, "/pool?week="+week, nil)
		require.Equal(t, http.StatusBadRequest, w.Code, "week=%s", week)
		require.NotNil(t, env.Error)
		assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
	}
}

func TestGetPoolUpstreamFailure(t *testing.T) {
	builder := &stubPoolBuilder{err: errors.New("espn upstream unavailable: circuit breaker is open")}
	router := poolTestRouter(builder)

	w, env := doRequest(t, router, http.MethodGet, "/pool?week=3", nil)

	require.Equal(t, http.StatusBadGateway, w.Code)
	require.NotNil(t, env.Error)
	assert.Equal(t, "UPSTREAM_ERROR", env.Error.Code)
	assert.Contains(t, env.Error.Details, "circuit breaker is open")
}
