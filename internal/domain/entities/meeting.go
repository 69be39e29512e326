package entities

import (
	"time"

	"github.com/google/uuid"
)

// Platform identifies the conferencing platform a meeting took place on.
type Platform string

const (
	PlatformZoom    Platform = "zoom"
	PlatformLiveKit Platform = "livekit"
)

// MeetingStatus represents the lifecycle status of a meeting
type MeetingStatus string

const (
	MeetingStatusPending    MeetingStatus = "pending"
	MeetingStatusProcessing MeetingStatus = "processing"
	MeetingStatusReady      MeetingStatus = "ready"
	MeetingStatusFailed     MeetingStatus = "failed"
)

// ProcessingStep is a step in the fixed processing pipeline.
type ProcessingStep string

const (
	StepWebhookReceived    ProcessingStep = "webhook_received"
	StepMeetingFetched     ProcessingStep = "meeting_fetched"
	StepMeetingCreated     ProcessingStep = "meeting_created"
	StepTranscriptDownload ProcessingStep = "transcript_download"
	StepTranscriptParse    ProcessingStep = "transcript_parse"
	StepTranscriptStored   ProcessingStep = "transcript_stored"
	StepDraftGeneration    ProcessingStep = "draft_generation"
	StepCompleted          ProcessingStep = "completed"
	StepFailed             ProcessingStep = "failed"
)

// StepProgress maps each step to its fixed progress percentage. Progress is
// table-driven rather than time-estimated so the UI stays consistent under
// variable network latency.
var StepProgress = map[ProcessingStep]int{
	StepWebhookReceived:    5,
	StepMeetingFetched:     10,
	StepMeetingCreated:     15,
	StepTranscriptDownload: 30,
	StepTranscriptParse:    50,
	StepTranscriptStored:   60,
	StepDraftGeneration:    80,
	StepCompleted:          100,
	StepFailed:             0,
}

// StepOrder is the fixed forward order of pipeline steps.
var StepOrder = []ProcessingStep{
	StepWebhookReceived,
	StepMeetingFetched,
	StepMeetingCreated,
	StepTranscriptDownload,
	StepTranscriptParse,
	StepTranscriptStored,
	StepDraftGeneration,
	StepCompleted,
}

// ProcessingLogEntry is one append-only log line of a processing attempt.
type ProcessingLogEntry struct {
	Timestamp  time.Time      `json:"ts"`
	Step       ProcessingStep `json:"step"`
	Message    string         `json:"message"`
	DurationMs int64          `json:"duration_ms,omitempty"`
}

// ProcessingState is the embedded state-machine status of a meeting.
type ProcessingState struct {
	Step        ProcessingStep       `json:"step"`
	ProgressPct int                  `json:"progress_pct"`
	Logs        []ProcessingLogEntry `json:"logs"`
	StartedAt   *time.Time           `json:"started_at,omitempty"`
	CompletedAt *time.Time           `json:"completed_at,omitempty"`
	LastError   string               `json:"last_error,omitempty"`
}

// Meeting is the canonical, cross-platform record of one real-world meeting
// instance, unique on (platform, platform_external_id).
type Meeting struct {
	ID                 uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Platform           Platform        `json:"platform" gorm:"type:varchar(20);not null;uniqueIndex:idx_meetings_platform_external,priority:1"`
	PlatformExternalID string          `json:"platform_external_id" gorm:"type:varchar(255);not null;uniqueIndex:idx_meetings_platform_external,priority:2"`
	AccountID          string          `json:"account_id" gorm:"type:varchar(255);not null;index"`
	HostIdentity       string          `json:"host_identity" gorm:"type:varchar(255)"`
	Topic              string          `json:"topic" gorm:"type:varchar(500)"`
	StartTime          time.Time       `json:"start_time"`
	EndTime            time.Time       `json:"end_time"`
	RecordingURL       string          `json:"recording_url,omitempty" gorm:"type:text"`
	Status             MeetingStatus   `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Processing         ProcessingState `json:"processing" gorm:"type:jsonb;serializer:json"`
	CreatedAt          time.Time       `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt          time.Time       `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Meeting) TableName() string {
	return "meetings"
}

// NewMeeting creates a new meeting from a normalized event.
func NewMeeting(ev MeetingEvent) *Meeting {
	return &Meeting{
		ID:                 uuid.New(),
		Platform:           ev.Platform,
		PlatformExternalID: ev.PlatformExternalID,
		AccountID:          ev.AccountID,
		HostIdentity:       ev.HostIdentity,
		Topic:              ev.Topic,
		StartTime:          ev.StartTime,
		EndTime:            ev.EndTime,
		RecordingURL:       ev.RecordingURL,
		Status:             MeetingStatusPending,
		CreatedAt:          time.Now(),
		UpdatedAt:          time.Now(),
	}
}

// IsTerminal reports whether the meeting reached a terminal status.
func (m *Meeting) IsTerminal() bool {
	return m.Status == MeetingStatusReady || m.Status == MeetingStatusFailed
}
