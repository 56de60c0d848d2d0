// Package httptransport wires the management HTTP API: the Runner's
// state/details/force-up/force-down routes plus liveness/readiness
// probes. Grounded on the teacher's transport/http/router.go route-group
// layout; the teacher's job/schedule/auth routes are out of scope for
// this domain and have been replaced wholesale.
package httptransport

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	sloggin "github.com/samber/slog-gin"

	"github.com/kinesin-ca/waterfall-go/internal/health"
	"github.com/kinesin-ca/waterfall-go/internal/runner"
	"github.com/kinesin-ca/waterfall-go/internal/transport/http/handler"
	"github.com/kinesin-ca/waterfall-go/internal/transport/http/middleware"
)

// NewRouter builds the management API's gin engine.
func NewRouter(runnerClient *runner.Client, checker *health.Checker, logger *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())

	runnerHandler := handler.NewRunnerHandler(runnerClient, logger)
	healthHandler := handler.NewHealthHandler(checker)

	r.GET("/ready", runnerHandler.Ready)
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/state", runnerHandler.State)
		v1.POST("/details", runnerHandler.Details)
		v1.POST("/force-up", runnerHandler.ForceUp)
		v1.POST("/force-down", runnerHandler.ForceDown)
	}

	return r
}
