package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfskit/roster-engine/internal/engine"
	"github.com/dfskit/roster-engine/internal/simulator"
	"github.com/dfskit/roster-engine/internal/types"
	"github.com/dfskit/roster-engine/pkg/logger"
)

const testRulesDoc = `
sport: NBA
site: draftkings
salary_cap: 50000
projection_column: proj_points
roster_slots:
  slots:
    - {slot: G, eligible: [PG, SG], count: 2}
    - {slot: UTIL, eligible: [PG, SG, SF, PF, C], count: 1}
`

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "nba.yaml"), []byte(testRulesDoc), 0o644))

	log := logger.InitLogger("error", false)
	h := NewRosterHandler(engine.New(log), nil, dir, log)

	router := gin.New()
	router.POST("/api/v1/optimize", h.Optimize)
	router.POST("/api/v1/rank", h.Rank)
	router.GET("/api/v1/sports", h.ListSports)
	return router
}

func testPlayers(n int) []types.Player {
	positions := []string{"PG", "SG", "SF"}
	players := make([]types.Player, 0, n)
	for i := 0; i < n; i++ {
		players = append(players, types.Player{
			ID:         fmt.Sprintf("p%d", i+1),
			Name:       fmt.Sprintf("Player %d", i+1),
			Positions:  []string{positions[i%3]},
			Salary:     4000 + 500*i,
			Projection: float64(20 + i),
		})
	}
	return players
}

func postJSON(t *testing.T, router *gin.Engine, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestOptimize_Success(t *testing.T) {
	router := newTestRouter(t)
	w := postJSON(t, router, "/api/v1/optimize", OptimizeRequest{
		Sport:    "NBA",
		Players:  testPlayers(9),
		Settings: types.Settings{NumLineups: 1},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var batch types.RosterBatch
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &batch))
	require.Len(t, batch.Rosters, 1)
	assert.Len(t, batch.Rosters[0].Slots, 3)
}

func TestOptimize_UnknownSport(t *testing.T) {
	router := newTestRouter(t)
	w := postJSON(t, router, "/api/v1/optimize", OptimizeRequest{
		Sport:   "CURLING",
		Players: testPlayers(9),
	})

	require.Equal(t, http.StatusBadRequest, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "UNKNOWN_SPORT", resp.Code)
}

func TestOptimize_MalformedBody(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/optimize", bytes.NewReader([]byte("{not json")))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOptimize_SupplyShortageMapsTo422(t *testing.T) {
	router := newTestRouter(t)
	// Only centers: the G slot has zero eligible players.
	players := testPlayers(6)
	for i := range players {
		players[i].Positions = []string{"C"}
	}
	w := postJSON(t, router, "/api/v1/optimize", OptimizeRequest{Sport: "NBA", Players: players})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "SUPPLY_SHORTAGE", resp.Code)
}

func TestOptimize_NoRostersMapsTo422(t *testing.T) {
	router := newTestRouter(t)
	// Every player busts the cap on its own.
	players := testPlayers(9)
	for i := range players {
		players[i].Salary = 60000
	}
	w := postJSON(t, router, "/api/v1/optimize", OptimizeRequest{Sport: "NBA", Players: players})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var resp ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "NO_ROSTERS", resp.Code)
}

func TestRank_Success(t *testing.T) {
	router := newTestRouter(t)
	rosters := []types.Roster{
		{ID: "r1", Slots: []types.RosterSlot{{Slot: "UTIL", Instance: "UTIL__1", Player: types.Player{ID: "p1", Projection: 30, StdDev: 6}}}},
		{ID: "r2", Slots: []types.RosterSlot{{Slot: "UTIL", Instance: "UTIL__1", Player: types.Player{ID: "p2", Projection: 25, StdDev: 3}}}},
	}
	w := postJSON(t, router, "/api/v1/rank", RankRequest{
		Rosters: rosters,
		Config:  simulator.Config{NumSimulations: 1000, Seed: 9},
	})

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var rankings simulator.Rankings
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rankings))
	assert.Len(t, rankings.ByEV, 2)
	assert.Equal(t, "r1", rankings.ByEV[0].RosterID)
}

func TestListSports(t *testing.T) {
	router := newTestRouter(t)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/sports", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Sports []string `json:"sports"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []string{"NBA"}, resp.Sports)
}

func TestRank_EmptyBatch(t *testing.T) {
	router := newTestRouter(t)
	w := postJSON(t, router, "/api/v1/rank", map[string]any{"rosters": []any{}})
	// Either binding or ranking rejects an empty batch.
	assert.True(t, w.Code == http.StatusBadRequest || w.Code == http.StatusUnprocessableEntity)
}
