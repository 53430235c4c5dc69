package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dfskit/roster-engine/internal/cache"
	"github.com/dfskit/roster-engine/internal/engine"
	"github.com/dfskit/roster-engine/internal/rules"
	"github.com/dfskit/roster-engine/internal/simulator"
	"github.com/dfskit/roster-engine/internal/types"
	"github.com/dfskit/roster-engine/pkg/logger"
)

// ErrorResponse is the JSON error envelope returned by all endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// OptimizeRequest asks for a roster batch for one sport. The player pool is
// expected to be pre-normalized by the caller.
type OptimizeRequest struct {
	Sport    string         `json:"sport" binding:"required"`
	Players  []types.Player `json:"players" binding:"required"`
	Settings types.Settings `json:"settings"`
}

// RankRequest asks for Monte Carlo rankings over an existing batch.
type RankRequest struct {
	Rosters []types.Roster   `json:"rosters" binding:"required"`
	Config  simulator.Config `json:"config"`
}

// RosterHandler exposes roster generation and ranking over HTTP.
type RosterHandler struct {
	engine   *engine.Engine
	cache    *cache.RosterCache
	rulesDir string
	log      *logrus.Logger
}

// NewRosterHandler creates the handler. cache may be nil.
func NewRosterHandler(eng *engine.Engine, c *cache.RosterCache, rulesDir string, log *logrus.Logger) *RosterHandler {
	return &RosterHandler{engine: eng, cache: c, rulesDir: rulesDir, log: log}
}

// Optimize handles POST /api/v1/optimize.
func (h *RosterHandler) Optimize(c *gin.Context) {
	var req OptimizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	log := logger.WithRequestContext(h.log, uuid.New().String(), c.FullPath())

	payload, _ := json.Marshal(req)
	key := cache.Key(payload)
	if cached := h.cache.Get(c.Request.Context(), key); cached != nil {
		log.WithField("cache_key", key).Info("Returning cached roster batch")
		c.JSON(http.StatusOK, cached)
		return
	}

	r, err := rules.LoadSport(h.rulesDir, req.Sport)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "UNKNOWN_SPORT"})
		return
	}

	batch, err := h.engine.GenerateRosters(*r, req.Players, req.Settings)
	if err != nil {
		status, code := classifyError(err)
		log.WithError(err).WithField("error_code", code).Warn("Roster generation failed")
		c.JSON(status, ErrorResponse{Error: err.Error(), Code: code})
		return
	}

	h.cache.Set(c.Request.Context(), key, batch)
	c.JSON(http.StatusOK, batch)
}

// ListSports handles GET /api/v1/sports.
func (h *RosterHandler) ListSports(c *gin.Context) {
	sports, err := rules.ListSports(h.rulesDir)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error(), Code: "INTERNAL_ERROR"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sports": sports})
}

// Rank handles POST /api/v1/rank.
func (h *RosterHandler) Rank(c *gin.Context) {
	var req RankRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})
		return
	}

	rankings, err := h.engine.RankRosters(&types.RosterBatch{Rosters: req.Rosters}, req.Config)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, ErrorResponse{Error: err.Error(), Code: "RANKING_FAILED"})
		return
	}
	c.JSON(http.StatusOK, rankings)
}

func classifyError(err error) (int, string) {
	var rulesErr *types.RulesError
	var supplyErr *types.SupplyShortageError
	switch {
	case errors.As(err, &rulesErr):
		return http.StatusBadRequest, "INVALID_RULES"
	case errors.As(err, &supplyErr):
		return http.StatusUnprocessableEntity, "SUPPLY_SHORTAGE"
	case errors.Is(err, types.ErrEmptyPool):
		return http.StatusUnprocessableEntity, "EMPTY_POOL"
	case errors.Is(err, types.ErrNoRosters):
		return http.StatusUnprocessableEntity, "NO_ROSTERS"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
