package entities

import (
	"time"

	"github.com/google/uuid"
)

// JobState represents the queue state of a processing job
type JobState string

const (
	JobStateWaiting   JobState = "waiting"
	JobStateDelayed   JobState = "delayed"
	JobStateActive    JobState = "active"
	JobStateCompleted JobState = "completed"
	JobStateFailed    JobState = "failed"
)

// ProcessingJob is a queued, retryable unit of acquisition and processing
// work. At most one non-terminal job exists per meeting.
type ProcessingJob struct {
	ID             uuid.UUID  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID      uuid.UUID  `json:"meeting_id" gorm:"type:uuid;not null;index"`
	RawEventID     uuid.UUID  `json:"raw_event_id" gorm:"type:uuid;not null"`
	State          JobState   `json:"state" gorm:"type:varchar(20);not null;default:'waiting';index"`
	AttemptsMade   int        `json:"attempts_made" gorm:"default:0"`
	MaxRetries     int        `json:"max_retries" gorm:"default:3"`
	AvailableAt    time.Time  `json:"available_at" gorm:"not null;index"`
	ClaimExpiresAt *time.Time `json:"claim_expires_at,omitempty"`
	StartedAt      *time.Time `json:"started_at,omitempty"`
	CompletedAt    *time.Time `json:"completed_at,omitempty"`
	LastError      string     `json:"last_error,omitempty" gorm:"type:text"`
	CreatedAt      time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (ProcessingJob) TableName() string {
	return "processing_jobs"
}

// NewProcessingJob creates a waiting job for a meeting, available immediately.
func NewProcessingJob(meetingID, rawEventID uuid.UUID, maxRetries int) *ProcessingJob {
	return &ProcessingJob{
		ID:          uuid.New(),
		MeetingID:   meetingID,
		RawEventID:  rawEventID,
		State:       JobStateWaiting,
		MaxRetries:  maxRetries,
		AvailableAt: time.Now(),
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
}

// IsTerminal reports whether the job reached a terminal state.
func (j *ProcessingJob) IsTerminal() bool {
	return j.State == JobStateCompleted || j.State == JobStateFailed
}

// CanRetry reports whether a failed attempt may be rescheduled.
func (j *ProcessingJob) CanRetry() bool {
	return j.AttemptsMade <= j.MaxRetries
}
