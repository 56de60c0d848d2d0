package agenthttp

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kinesin-ca/waterfall-go/internal/domain"
	"github.com/kinesin-ca/waterfall-go/internal/executor"
)

// Handler serves an agent worker's /resources and /run routes against a
// co-hosted Local executor.
type Handler struct {
	local     *executor.Client
	resources domain.TaskResources
	logger    *slog.Logger
}

// NewHandler returns a handler bound to local, advertising resources as
// this worker's total capacity.
func NewHandler(local *executor.Client, resources domain.TaskResources, logger *slog.Logger) *Handler {
	return &Handler{local: local, resources: resources, logger: logger.With("component", "agent_http")}
}

// Resources answers GET /resources with this worker's declared total
// capacity, per executor.AgentTarget.refresh's expected response body.
func (h *Handler) Resources(c *gin.Context) {
	c.JSON(http.StatusOK, h.resources)
}

// Run answers POST /run: executes a submitted task to completion against
// the local executor and returns the resulting TaskAttempt, per
// executor.Agent.submit's request/response contract.
func (h *Handler) Run(c *gin.Context) {
	var submission executor.TaskSubmission
	if err := c.ShouldBindJSON(&submission); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	reply := make(chan domain.TaskAttempt, 1)
	h.local.Send(executor.ExecuteTask{
		Details:       submission.Details,
		VarMap:        submission.VarMap,
		OutputOptions: submission.OutputOptions,
		Reply:         reply,
		Kill:          make(chan struct{}),
	})

	attempt := <-reply
	c.JSON(http.StatusOK, attempt)
}
