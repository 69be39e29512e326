package livekit

import (
	"net/http"
	"time"

	"github.com/livekit/protocol/auth"
	lkproto "github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"

	"github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/pkg/config"
)

// EventRoomFinished is the LiveKit event that marks a meeting as ended.
const EventRoomFinished = "room_finished"

// WebhookReceiver verifies and decodes LiveKit webhook notifications.
// LiveKit signs webhooks with a JWT whose claims carry a hash of the body;
// the protocol package handles both checks.
type WebhookReceiver struct {
	provider auth.KeyProvider
}

// NewWebhookReceiver creates a receiver bound to the configured API key pair
func NewWebhookReceiver(cfg *config.LiveKitConfig) *WebhookReceiver {
	return &WebhookReceiver{
		provider: auth.NewSimpleKeyProvider(cfg.APIKey, cfg.APISecret),
	}
}

// Receive verifies the request signature and decodes the event
func (r *WebhookReceiver) Receive(req *http.Request) (*lkproto.WebhookEvent, error) {
	event, err := webhook.ReceiveWebhookEvent(req, r.provider)
	if err != nil {
		return nil, errors.ErrBadSignature("livekit")
	}
	return event, nil
}

// NormalizeRoomFinished maps a room_finished event to the internal meeting
// event shape. Returns nil for events the pipeline does not consume.
func NormalizeRoomFinished(event *lkproto.WebhookEvent) *entities.MeetingEvent {
	if event.GetEvent() != EventRoomFinished || event.GetRoom() == nil {
		return nil
	}

	room := event.GetRoom()
	created := time.Unix(room.GetCreationTime(), 0).UTC()
	ended := time.Unix(event.GetCreatedAt(), 0).UTC()

	return &entities.MeetingEvent{
		Source:             entities.EventSourceLiveKitWebhook,
		ExternalEventID:    event.GetId(),
		Type:               entities.MeetingEventEnded,
		Platform:           entities.PlatformLiveKit,
		PlatformExternalID: room.GetName(),
		Topic:              room.GetMetadata(),
		StartTime:          created,
		EndTime:            ended,
	}
}
