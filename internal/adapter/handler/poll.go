package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-followup/internal/metrics"
	"github.com/johnquangdev/meeting-followup/internal/usecase/ingest"
)

// PollHandler triggers a calendar reconciliation sweep over every
// calendar-connected account.
type PollHandler struct {
	poller *ingest.Poller
	logger *zap.Logger
}

// NewPollHandler creates a poll handler
func NewPollHandler(poller *ingest.Poller, logger *zap.Logger) *PollHandler {
	return &PollHandler{poller: poller, logger: logger}
}

// Run scans calendars for ended meetings the webhooks missed
// POST /v1/poll/run
func (h *PollHandler) Run(c echo.Context) error {
	ctx := c.Request().Context()

	result, err := h.poller.Run(ctx)
	if err != nil {
		return HandleError(c, h.logger, err)
	}

	metrics.PollerMeetingsSynthesized.Add(float64(result.EventsSynthesized))

	return c.JSON(http.StatusOK, result)
}
