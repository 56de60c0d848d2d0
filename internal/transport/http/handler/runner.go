// Package handler implements the management HTTP API's route handlers:
// reading Runner state and driving its ForceUp/ForceDown control
// messages. Grounded on the teacher's handler/job.go, generalized from a
// CRUD resource handler to a read-mostly state/control handler around a
// single long-lived Runner.
package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kinesin-ca/waterfall-go/internal/domain"
	"github.com/kinesin-ca/waterfall-go/internal/runner"
)

// RunnerHandler serves the management API's state/details/force-up/
// force-down routes against one Runner's Client.
type RunnerHandler struct {
	runner *runner.Client
	logger *slog.Logger
}

// NewRunnerHandler returns a handler bound to client.
func NewRunnerHandler(client *runner.Client, logger *slog.Logger) *RunnerHandler {
	return &RunnerHandler{runner: client, logger: logger.With("component", "runner_handler")}
}

// Ready answers GET /ready with a bare 200, per spec.md §6.
func (h *RunnerHandler) Ready(c *gin.Context) {
	c.Status(http.StatusOK)
}

// State answers GET /api/v1/state with the Runner's current and
// theoretical-coverage ResourceIntervals.
func (h *RunnerHandler) State(c *gin.Context) {
	snap := h.runner.GetState()
	c.JSON(http.StatusOK, gin.H{"current": snap.Current, "coverage": snap.Coverage})
}

// timelineEntry is one grouped (resource, task) entry of the
// /api/v1/details response, matching spec.md §6.2's
// "[{timeRange:[start,end], val:state}]" shape.
type timelineEntry struct {
	TimeRange [2]string          `json:"timeRange"`
	Val       domain.ActionState `json:"val"`
}

// Details answers POST /api/v1/details?max_intervals=N, returning the
// Actions touching the request body's Interval grouped resource -> task
// -> timeline entries, coalesced per maxIntervals.
func (h *RunnerHandler) Details(c *gin.Context) {
	var interval domain.Interval
	if err := c.ShouldBindJSON(&interval); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	maxIntervals := 0
	if raw := c.Query("max_intervals"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_intervals must be a non-negative integer"})
			return
		}
		maxIntervals = n
	}

	grouped := h.runner.GetResourceStateDetails(interval, maxIntervals)

	out := make(map[string]map[string][]timelineEntry, len(grouped))
	for resource, byTask := range grouped {
		out[resource] = make(map[string][]timelineEntry, len(byTask))
		for task, actions := range byTask {
			entries := make([]timelineEntry, 0, len(actions))
			for _, a := range actions {
				entries = append(entries, timelineEntry{
					TimeRange: [2]string{
						a.Interval.Start.Format(rfc3339),
						a.Interval.End.Format(rfc3339),
					},
					Val: a.State,
				})
			}
			out[resource][task] = entries
		}
	}

	c.JSON(http.StatusOK, out)
}

const rfc3339 = "2006-01-02T15:04:05Z07:00"

type forceRequest struct {
	Resources []string        `json:"resources" binding:"required"`
	Interval  domain.Interval `json:"interval" binding:"required"`
}

func (r forceRequest) resourceSet() map[string]bool {
	out := make(map[string]bool, len(r.Resources))
	for _, res := range r.Resources {
		out[res] = true
	}
	return out
}

// ForceUp answers POST /api/v1/force-up, an ambient addition exposing the
// Runner's ForceUp control message over HTTP (spec.md §6 never gives it a
// transport binding of its own).
func (h *RunnerHandler) ForceUp(c *gin.Context) {
	var req forceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.runner.ForceUp(req.resourceSet(), req.Interval)
	c.Status(http.StatusAccepted)
}

// ForceDown answers POST /api/v1/force-down, symmetric to ForceUp.
func (h *RunnerHandler) ForceDown(c *gin.Context) {
	var req forceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	h.runner.ForceDown(req.resourceSet(), req.Interval)
	c.Status(http.StatusAccepted)
}
