package entities

import "time"

// MeetingEventType is the normalized event type every source maps into.
type MeetingEventType string

const (
	MeetingEventEnded            MeetingEventType = "meeting.ended"
	MeetingEventTranscriptReady  MeetingEventType = "meeting.transcript_ready"
	MeetingEventRecordingReady   MeetingEventType = "meeting.recording_ready"
	MeetingEventSummaryCompleted MeetingEventType = "meeting.summary_completed"
)

// MeetingEvent is the single internal representation every platform payload
// is normalized into at the ingestion boundary. Downstream components never
// see raw platform JSON.
type MeetingEvent struct {
	Source             EventSource
	ExternalEventID    string
	Type               MeetingEventType
	Platform           Platform
	PlatformExternalID string
	AccountID          string
	HostIdentity       string
	Topic              string
	StartTime          time.Time
	EndTime            time.Time
	RecordingURL       string
	ContentPointer     string
}
