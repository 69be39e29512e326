package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// EventSource identifies where a raw event came from.
type EventSource string

const (
	EventSourceZoomWebhook    EventSource = "zoom_webhook"
	EventSourceLiveKitWebhook EventSource = "livekit_webhook"
	EventSourceCalendarPoll   EventSource = "calendar_poll"
)

// RawEventStatus represents the processing status of a raw event
type RawEventStatus string

const (
	RawEventStatusPending   RawEventStatus = "pending"
	RawEventStatusProcessed RawEventStatus = "processed"
	RawEventStatusFailed    RawEventStatus = "failed"
)

// RawEvent is the persisted, deduplicated record of an inbound or
// poll-derived notification. Rows are never deleted; they are the audit
// trail of everything the pipeline was told.
type RawEvent struct {
	ID                uuid.UUID                                  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Source            EventSource                                `json:"source" gorm:"type:varchar(50);not null;uniqueIndex:idx_raw_events_source_external,priority:1"`
	ExternalEventID   string                                     `json:"external_event_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_raw_events_source_external,priority:2"`
	EventType         string                                     `json:"event_type" gorm:"type:varchar(100);not null;index"`
	Payload           datatypes.JSONType[map[string]interface{}] `json:"payload,omitempty" gorm:"type:jsonb"`
	Status            RawEventStatus                             `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	ResolvedMeetingID *uuid.UUID                                 `json:"resolved_meeting_id,omitempty" gorm:"type:uuid;index"`
	CreatedAt         time.Time                                  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt         time.Time                                  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (RawEvent) TableName() string {
	return "raw_events"
}

// NewRawEvent creates a new pending raw event
func NewRawEvent(source EventSource, externalEventID, eventType string, payload map[string]interface{}) *RawEvent {
	return &RawEvent{
		ID:              uuid.New(),
		Source:          source,
		ExternalEventID: externalEventID,
		EventType:       eventType,
		Payload:         datatypes.NewJSONType(payload),
		Status:          RawEventStatusPending,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
}

// MarkProcessed records that the event was resolved into a meeting.
func (e *RawEvent) MarkProcessed(meetingID uuid.UUID) {
	e.Status = RawEventStatusProcessed
	e.ResolvedMeetingID = &meetingID
	e.UpdatedAt = time.Now()
}

// MarkFailed records that the event could not be processed.
func (e *RawEvent) MarkFailed() {
	e.Status = RawEventStatusFailed
	e.UpdatedAt = time.Now()
}
