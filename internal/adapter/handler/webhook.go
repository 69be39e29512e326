package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	lkwebhook "github.com/johnquangdev/meeting-followup/internal/infrastructure/external/livekit"
	"github.com/johnquangdev/meeting-followup/internal/metrics"
	"github.com/johnquangdev/meeting-followup/internal/usecase/ingest"
	"github.com/johnquangdev/meeting-followup/pkg/config"
	"github.com/johnquangdev/meeting-followup/pkg/signature"
)

// WebhookHandler receives push notifications from conferencing platforms.
// Each platform's payload is verified and normalized here; everything past
// this point speaks the internal event shape.
type WebhookHandler struct {
	ingest  *ingest.Service
	livekit *lkwebhook.WebhookReceiver
	zoomCfg *config.ZoomConfig
	maxSkew time.Duration
	logger  *zap.Logger
}

// NewWebhookHandler creates a webhook handler
func NewWebhookHandler(
	ingestSvc *ingest.Service,
	livekitReceiver *lkwebhook.WebhookReceiver,
	zoomCfg *config.ZoomConfig,
	maxSkew time.Duration,
	logger *zap.Logger,
) *WebhookHandler {
	return &WebhookHandler{
		ingest:  ingestSvc,
		livekit: livekitReceiver,
		zoomCfg: zoomCfg,
		maxSkew: maxSkew,
		logger:  logger,
	}
}

// Handle dispatches on the platform path parameter
// POST /v1/webhooks/:platform
func (h *WebhookHandler) Handle(c echo.Context) error {
	switch c.Param("platform") {
	case "zoom":
		return h.handleZoom(c)
	case "livekit":
		return h.handleLiveKit(c)
	default:
		return HandleError(c, h.logger, errors.ErrNotFound("platform"))
	}
}

type zoomEnvelope struct {
	Event   string `json:"event"`
	EventTS int64  `json:"event_ts"`
	Payload struct {
		PlainToken string `json:"plainToken"`
		AccountID  string `json:"account_id"`
		Object     struct {
			ID        string    `json:"id"`
			UUID      string    `json:"uuid"`
			Topic     string    `json:"topic"`
			HostEmail string    `json:"host_email"`
			StartTime time.Time `json:"start_time"`
			EndTime   time.Time `json:"end_time"`
			RecordingFiles []struct {
				FileType    string `json:"file_type"`
				DownloadURL string `json:"download_url"`
			} `json:"recording_files"`
		} `json:"object"`
	} `json:"payload"`
}

// zoomEventTypes maps Zoom event names to the internal event type. Events
// outside this table are acknowledged and dropped.
var zoomEventTypes = map[string]entities.MeetingEventType{
	"meeting.ended":                  entities.MeetingEventEnded,
	"recording.completed":            entities.MeetingEventRecordingReady,
	"recording.transcript_completed": entities.MeetingEventTranscriptReady,
	"meeting.summary_completed":      entities.MeetingEventSummaryCompleted,
}

func (h *WebhookHandler) handleZoom(c echo.Context) error {
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return HandleError(c, h.logger, errors.ErrBadPayload(err))
	}

	var envelope zoomEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return HandleError(c, h.logger, errors.ErrBadPayload(err))
	}

	// URL validation is a liveness handshake, exempt from signature checks.
	if envelope.Event == "endpoint.url_validation" {
		mac := hmac.New(sha256.New, []byte(h.zoomCfg.WebhookSecret))
		mac.Write([]byte(envelope.Payload.PlainToken))
		return c.JSON(http.StatusOK, map[string]string{
			"plainToken":     envelope.Payload.PlainToken,
			"encryptedToken": hex.EncodeToString(mac.Sum(nil)),
		})
	}

	sigHeader := c.Request().Header.Get("x-zm-signature")
	tsHeader := c.Request().Header.Get("x-zm-request-timestamp")
	if !signature.Verify(rawBody, sigHeader, tsHeader, h.zoomCfg.WebhookSecret, h.maxSkew) {
		return HandleError(c, h.logger, errors.ErrBadSignature("zoom"))
	}

	eventType, known := zoomEventTypes[envelope.Event]
	if !known {
		h.logger.Debug("ignoring zoom event", zap.String("event", envelope.Event))
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}

	obj := envelope.Payload.Object
	ev := entities.MeetingEvent{
		Source:             entities.EventSourceZoomWebhook,
		ExternalEventID:    zoomEventID(envelope),
		Type:               eventType,
		Platform:           entities.PlatformZoom,
		PlatformExternalID: obj.ID,
		AccountID:          envelope.Payload.AccountID,
		HostIdentity:       obj.HostEmail,
		Topic:              obj.Topic,
		StartTime:          obj.StartTime,
		EndTime:            obj.EndTime,
	}
	for _, f := range obj.RecordingFiles {
		if f.FileType == "MP4" || f.FileType == "M4A" {
			ev.RecordingURL = f.DownloadURL
			break
		}
	}

	var payload map[string]interface{}
	if err := json.Unmarshal(rawBody, &payload); err != nil {
		payload = map[string]interface{}{}
	}

	return h.ingestAndRespond(c, ev, payload)
}

// zoomEventID builds the idempotency key for a Zoom notification. Zoom does
// not send a delivery id, but (event, meeting uuid, event_ts) identifies a
// notification across redeliveries.
func zoomEventID(envelope zoomEnvelope) string {
	return envelope.Event + ":" + envelope.Payload.Object.UUID + ":" + strconv.FormatInt(envelope.EventTS, 10)
}

func (h *WebhookHandler) handleLiveKit(c echo.Context) error {
	event, err := h.livekit.Receive(c.Request())
	if err != nil {
		return HandleError(c, h.logger, err)
	}

	ev := lkwebhook.NormalizeRoomFinished(event)
	if ev == nil {
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}

	payload := map[string]interface{}{
		"event":     event.GetEvent(),
		"event_id":  event.GetId(),
		"room_name": event.GetRoom().GetName(),
		"room_sid":  event.GetRoom().GetSid(),
	}

	return h.ingestAndRespond(c, *ev, payload)
}

func (h *WebhookHandler) ingestAndRespond(c echo.Context, ev entities.MeetingEvent, payload map[string]interface{}) error {
	result, err := h.ingest.Ingest(c.Request().Context(), ev, payload)
	if err != nil {
		return HandleError(c, h.logger, err)
	}

	if result.Duplicate {
		metrics.EventsDeduplicated.WithLabelValues(string(ev.Source)).Inc()
	} else {
		metrics.EventsIngested.WithLabelValues(string(ev.Source)).Inc()
	}

	return c.JSON(http.StatusOK, result)
}
