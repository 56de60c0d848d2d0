// Package agenthttp implements the waterfall-agent worker's HTTP façade:
// GET /resources (capacity advertisement), POST /run (task submission),
// and GET /ready, the three routes the daemon's Agent executor backend
// dials against (internal/executor/agent.go). Grounded on the teacher's
// transport/http router/handler split, generalized to this domain's
// agent-worker contract from original_source/src/executors/
// agent_executor.rs.
package agenthttp

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/kinesin-ca/waterfall-go/internal/domain"
	"github.com/kinesin-ca/waterfall-go/internal/executor"
	"github.com/kinesin-ca/waterfall-go/internal/transport/http/middleware"
)

// NewRouter builds the agent worker's gin engine: local is the co-hosted
// Local executor backend that actually runs submitted tasks, and
// resources is this worker's declared total capacity.
func NewRouter(local *executor.Client, resources domain.TaskResources, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	h := NewHandler(local, resources, logger)

	r.GET("/ready", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/resources", h.Resources)
	r.POST("/run", h.Run)

	return r
}
