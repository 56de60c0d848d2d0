package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kinesin-ca/waterfall-go/internal/health"
)

// HealthHandler adapts a health.Checker to the management API's /healthz
// and /readyz routes.
type HealthHandler struct {
	checker *health.Checker
}

// NewHealthHandler returns a handler bound to checker.
func NewHealthHandler(checker *health.Checker) *HealthHandler {
	return &HealthHandler{checker: checker}
}

// Healthz answers GET /healthz with liveness: always up while the process
// is scheduling requests.
func (h *HealthHandler) Healthz(c *gin.Context) {
	result := h.checker.Liveness(c.Request.Context())
	c.JSON(http.StatusOK, result)
}

// Readyz answers GET /readyz, pinging the storage backend and reporting
// 503 if it is unreachable.
func (h *HealthHandler) Readyz(c *gin.Context) {
	result := h.checker.Readiness(c.Request.Context())
	status := http.StatusOK
	if result.Status != "up" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, result)
}
