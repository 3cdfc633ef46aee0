package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type pinger interface {
	PingContext(ctx context.Context) error
}

type jobStatusReporter interface {
	GetJobStatus() map[string]interface{}
}

// HealthHandler reports liveness and background job state
type HealthHandler struct {
	db     pinger
	jobs   jobStatusReporter
	logger *logrus.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(db pinger, jobs jobStatusReporter, logger *logrus.Logger) *HealthHandler {
	return &HealthHandler{db: db, jobs: jobs, logger: logger}
}

// Health handles GET /health
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.WithError(err).Warn("Health check: database unreachable")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"database": "ok",
		"time":     time.Now().UTC().Format(time.RFC3339),
	})
}

// JobStatus handles GET /api/v1/system/jobs
func (h *HealthHandler) JobStatus(c *gin.Context) {
	respondOK(c, gin.H{"jobs": h.jobs.GetJobStatus()})
}
