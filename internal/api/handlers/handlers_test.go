package handlers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/dpfaff/lineup-edge/internal/optimizer"
	"github.com/dpfaff/lineup-edge/internal/services"
	"github.com/dpfaff/lineup-edge/pkg/config"
	"github.com/dpfaff/lineup-edge/pkg/utils"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *utils.AppError `json:"error"`
	Meta    *utils.Meta     `json:"meta"`
}

func handlerConfig() *config.Config {
	return &config.Config{
		Season:       2025,
		LeagueID:     12345,
		TeamID:       1,
		LineupFormat: "standard",
	}
}

func testRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

func doRequest(t *testing.T, router *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	}
	return w, env
}

func samplePool(season, week int) *services.PoolResult {
	return &services.PoolResult{
		Season: season,
		Week:   week,
		Players: []services.PoolPlayer{
			{
				PlayerProjection: optimizer.PlayerProjection{
					PlayerID:  "101",
					Name:      "Test QB",
					Positions: []string{"QB"},
					Points:    22.0,
				},
				Team:    "BUF",
				Floor:   17.6,
				Ceiling: 27.5,
			},
		},
		FetchedAt: time.Now().UTC(),
	}
}
