package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/whoyoshome/mini-productos/internal/models"
)

const (
	statusHealthy       = "healthy"
	statusUnhealthy     = "unhealthy"
	statusNotConfigured = "not configured"

	healthCheckTimeout = 3 * time.Second
)

type Pinger interface {
	Ping(ctx context.Context) error
}

// ServiceReporter reports the status of one or more named backends.
type ServiceReporter interface {
	HealthCheck(ctx context.Context) map[string]string
}

type QueueReporter interface {
	HealthCheck() string
}

type HealthHandler struct {
	db      Pinger
	storage ServiceReporter
	queue   QueueReporter
}

// NewHealthHandler builds the health endpoint. storage and queue may be nil.
func NewHealthHandler(db Pinger, storage ServiceReporter, queue QueueReporter) *HealthHandler {
	return &HealthHandler{db: db, storage: storage, queue: queue}
}

func (h *HealthHandler) HealthCheck(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	services := map[string]string{
		"database": statusHealthy,
		"redis":    statusNotConfigured,
		"supabase": statusNotConfigured,
		"rabbitmq": statusNotConfigured,
	}

	if err := h.db.Ping(ctx); err != nil {
		services["database"] = "unhealthy: " + err.Error()
	}
	if h.storage != nil {
		for name, status := range h.storage.HealthCheck(ctx) {
			services[name] = status
		}
	}
	if h.queue != nil {
		services["rabbitmq"] = h.queue.HealthCheck()
	}

	overall := calculateOverallHealth(services)
	statusCode := http.StatusOK
	if overall == statusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}

	c.JSON(statusCode, models.APIResponse{
		Success: overall == statusHealthy,
		Data: models.HealthCheck{
			Status:    overall,
			Timestamp: time.Now(),
			Services:  services,
		},
	})
}

func calculateOverallHealth(services map[string]string) string {
	for _, status := range services {
		if status != statusHealthy && status != statusNotConfigured {
			return statusUnhealthy
		}
	}
	return statusHealthy
}
