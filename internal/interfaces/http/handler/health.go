package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/genlab/backend/internal/infrastructure/logger"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pinger is a dependency the health check can probe
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler reports whether the database and, when configured, Redis
// are reachable
type HealthHandler struct {
	checks    map[string]func(ctx context.Context) error
	timeout   time.Duration
	startTime time.Time
}

// NewHealthHandler creates a HealthHandler. redisClient may be nil.
func NewHealthHandler(db Pinger, redisClient redis.UniversalClient) *HealthHandler {
	checks := map[string]func(ctx context.Context) error{
		"database": db.PingContext,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}
	return &HealthHandler{
		checks:    checks,
		timeout:   2 * time.Second,
		startTime: time.Now(),
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status string            `json:"status" example:"healthy"`
	Time   string            `json:"time" example:"2026-03-01T12:00:00Z"`
	Uptime string            `json:"uptime" example:"1h30m0s"`
	Checks map[string]string `json:"checks"`
}

// Check godoc
// @ID           healthCheck
// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health [get]
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	resp := HealthResponse{
		Status: "healthy",
		Time:   time.Now().UTC().Format(time.RFC3339),
		Uptime: time.Since(h.startTime).Round(time.Second).String(),
		Checks: make(map[string]string, len(h.checks)),
	}
	status := http.StatusOK
	for name, ping := range h.checks {
		if err := ping(ctx); err != nil {
			logger.GetGinLogger(c).Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Checks[name] = "error"
			resp.Status = "unhealthy"
			status = http.StatusServiceUnavailable
			continue
		}
		resp.Checks[name] = "ok"
	}
	c.JSON(status, resp)
}
