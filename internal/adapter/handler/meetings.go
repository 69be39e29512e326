package handler

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/domain/repositories"
	"github.com/johnquangdev/meeting-followup/internal/usecase/pipeline"
)

// MeetingsHandler serves meeting state, transcripts, and drafts for clients
// polling processing progress.
type MeetingsHandler struct {
	meetings    repositories.MeetingRepository
	transcripts repositories.TranscriptRepository
	drafts      repositories.DraftRepository
	logger      *zap.Logger
}

// NewMeetingsHandler creates a meetings handler
func NewMeetingsHandler(
	meetings repositories.MeetingRepository,
	transcripts repositories.TranscriptRepository,
	drafts repositories.DraftRepository,
	logger *zap.Logger,
) *MeetingsHandler {
	return &MeetingsHandler{
		meetings:    meetings,
		transcripts: transcripts,
		drafts:      drafts,
		logger:      logger,
	}
}

type meetingResponse struct {
	*entities.Meeting
	EtaRemainingMs int64 `json:"eta_remaining_ms,omitempty"`
}

func toMeetingResponse(m *entities.Meeting) meetingResponse {
	resp := meetingResponse{Meeting: m}
	if m.Status == entities.MeetingStatusProcessing {
		resp.EtaRemainingMs = pipeline.EstimateRemaining(m).Milliseconds()
	}
	return resp
}

// List returns an account's meetings, newest first
// GET /v1/meetings?account_id=...&limit=...&offset=...
func (h *MeetingsHandler) List(c echo.Context) error {
	ctx := c.Request().Context()

	accountID := c.QueryParam("account_id")
	if accountID == "" {
		return HandleError(c, h.logger, errors.ErrInvalidArgument("account_id is required"))
	}

	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ := strconv.Atoi(c.QueryParam("offset"))
	if offset < 0 {
		offset = 0
	}

	meetings, total, err := h.meetings.List(ctx, accountID, limit, offset)
	if err != nil {
		return HandleError(c, h.logger, errors.ErrDBQuery(err))
	}

	items := make([]meetingResponse, 0, len(meetings))
	for _, m := range meetings {
		items = append(items, toMeetingResponse(m))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"meetings": items,
		"total":    total,
		"limit":    limit,
		"offset":   offset,
	})
}

// Get returns one meeting with its processing state and remaining-time
// projection
// GET /v1/meetings/:id
func (h *MeetingsHandler) Get(c echo.Context) error {
	meeting, err := h.loadMeeting(c)
	if err != nil {
		return HandleError(c, h.logger, err)
	}

	return c.JSON(http.StatusOK, toMeetingResponse(meeting))
}

// GetTranscript returns the meeting's transcript
// GET /v1/meetings/:id/transcript
func (h *MeetingsHandler) GetTranscript(c echo.Context) error {
	ctx := c.Request().Context()

	meeting, err := h.loadMeeting(c)
	if err != nil {
		return HandleError(c, h.logger, err)
	}

	transcript, err := h.transcripts.FindByMeetingID(ctx, meeting.ID)
	if err != nil {
		return HandleError(c, h.logger, errors.ErrDBQuery(err))
	}
	if transcript == nil {
		return HandleError(c, h.logger, errors.ErrNotFound("transcript"))
	}

	return c.JSON(http.StatusOK, transcript)
}

// GetDrafts returns the meeting's generated drafts, newest first
// GET /v1/meetings/:id/drafts
func (h *MeetingsHandler) GetDrafts(c echo.Context) error {
	ctx := c.Request().Context()

	meeting, err := h.loadMeeting(c)
	if err != nil {
		return HandleError(c, h.logger, err)
	}

	drafts, err := h.drafts.ListByMeetingID(ctx, meeting.ID)
	if err != nil {
		return HandleError(c, h.logger, errors.ErrDBQuery(err))
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"meeting_id": meeting.ID,
		"drafts":     drafts,
	})
}

func (h *MeetingsHandler) loadMeeting(c echo.Context) (*entities.Meeting, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return nil, errors.ErrInvalidArgument("invalid meeting id")
	}

	meeting, err := h.meetings.FindByID(c.Request().Context(), id)
	if err != nil {
		return nil, errors.ErrDBQuery(err)
	}
	if meeting == nil {
		return nil, errors.ErrNotFound("meeting")
	}
	return meeting, nil
}
