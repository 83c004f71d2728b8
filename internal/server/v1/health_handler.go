package v1

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/nulzo/prism-local/internal/gateway"
)

const runtimeProbeTimeout = 2 * time.Second

type HealthHandler struct {
	service   gateway.Service
	startTime time.Time
}

func NewHealthHandler(service gateway.Service) *HealthHandler {
	return &HealthHandler{
		service:   service,
		startTime: time.Now(),
	}
}

// Health reports liveness plus whether the inference runtime answers. The
// proxy itself is healthy either way, so the status is always 200.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), runtimeProbeTimeout)
	defer cancel()

	runtime := "ok"
	if err := h.service.RuntimeHealth(ctx); err != nil {
		runtime = "unreachable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"runtime": runtime,
		"uptime":  time.Since(h.startTime).String(),
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
