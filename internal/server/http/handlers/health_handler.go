package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/catalogsync/internal/server/http/dto"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	environment string
	now         func() time.Time
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(environment string) *HealthHandler {
	return &HealthHandler{environment: environment, now: time.Now}
}

// Check handles GET /health and GET /api/v1/health.
func (h *HealthHandler) Check(c *gin.Context) {
	c.JSON(http.StatusOK, dto.HealthResponse{
		Success:     true,
		Message:     "Catalog sync API is running",
		Timestamp:   h.now().UTC().Format(time.RFC3339Nano),
		Environment: h.environment,
	})
}
