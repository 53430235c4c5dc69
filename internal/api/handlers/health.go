package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/dfskit/roster-engine/internal/cache"
)

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	cache     *cache.RosterCache
	log       *logrus.Logger
	startedAt time.Time
}

// NewHealthHandler creates the handler. cache may be nil.
func NewHealthHandler(c *cache.RosterCache, log *logrus.Logger) *HealthHandler {
	return &HealthHandler{cache: c, log: log, startedAt: time.Now()}
}

// GetHealth handles GET /health.
func (h *HealthHandler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"uptime_seconds": int(time.Since(h.startedAt).Seconds()),
	})
}

// GetReady handles GET /ready. The cache is optional, so a missing or
// unreachable Redis degrades readiness detail without failing the probe.
func (h *HealthHandler) GetReady(c *gin.Context) {
	cacheStatus := "disabled"
	if h.cache != nil {
		if err := h.cache.Ping(c.Request.Context()); err != nil {
			cacheStatus = "unreachable"
			h.log.WithError(err).Warn("Cache unreachable")
		} else {
			cacheStatus = "ok"
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"cache":  cacheStatus,
	})
}
