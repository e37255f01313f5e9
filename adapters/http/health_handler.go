package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthHandler struct {
	startedAt time.Time
}

func NewHealthHandler(startedAt time.Time) *HealthHandler {
	return &HealthHandler{startedAt: startedAt}
}

// Health is a liveness probe; it does not touch the database.
func (h *HealthHandler) Health(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=60")
	c.JSON(http.StatusOK, HealthResponse{
		Status:    "OK",
		Timestamp: nowTimestamp(),
		Uptime:    time.Since(h.startedAt).Seconds(),
	})
}

func (h *HealthHandler) Index(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message": "Portfolio API",
		"endpoints": []string{
			"GET /api/health",
			"GET /api/portfolio",
			"GET /api/portfolio/core",
			"GET /api/portfolio/sections?include=skills,projects",
			"POST /api/portfolio",
			"DELETE /api/portfolio",
			"POST /api/portfolio/cleanup",
			"POST /api/portfolio/migrate",
			"POST /api/portfolio/media",
			"POST /api/auth/login",
		},
	})
}
