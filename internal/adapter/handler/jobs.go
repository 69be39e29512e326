package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-followup/internal/metrics"
	"github.com/johnquangdev/meeting-followup/internal/usecase/pipeline"
)

// JobsHandler exposes the pull-based queue trigger. There is no resident
// worker: a scheduler or operator POSTs here and due jobs run within the
// request.
type JobsHandler struct {
	queue  *pipeline.Queue
	proc   pipeline.JobProcessor
	logger *zap.Logger
}

// NewJobsHandler creates a jobs handler
func NewJobsHandler(queue *pipeline.Queue, proc pipeline.JobProcessor, logger *zap.Logger) *JobsHandler {
	return &JobsHandler{queue: queue, proc: proc, logger: logger}
}

type runJobsRequest struct {
	MaxJobs int `json:"max_jobs" validate:"gte=0,lte=100"`
}

// Run claims and processes due jobs
// POST /v1/jobs/run
func (h *JobsHandler) Run(c echo.Context) error {
	ctx := c.Request().Context()

	var req runJobsRequest
	if err := c.Bind(&req); err != nil {
		req = runJobsRequest{}
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_ARGUMENT",
			Message: err.Error(),
		})
	}

	result, err := h.queue.Run(ctx, h.proc, req.MaxJobs)
	if err != nil {
		return HandleError(c, h.logger, err)
	}

	metrics.JobsClaimed.Add(float64(result.ProcessedCount))
	for _, jr := range result.Results {
		metrics.JobOutcomes.WithLabelValues(string(jr.Outcome)).Inc()
		if jr.Outcome == pipeline.OutcomeQuotaBlocked {
			metrics.QuotaBlocked.Inc()
		}
		if jr.Outcome == pipeline.OutcomeCompleted {
			metrics.DraftsGenerated.Inc()
		}
	}

	return c.JSON(http.StatusOK, result)
}
