package entities

import (
	"time"

	"github.com/google/uuid"
)

// TranscriptStatus represents the acquisition status of a transcript
type TranscriptStatus string

const (
	TranscriptStatusPending TranscriptStatus = "pending"
	TranscriptStatusReady   TranscriptStatus = "ready"
	TranscriptStatusFailed  TranscriptStatus = "failed"
)

// SpeakerSegment is a contiguous run of cues attributed to one speaker.
type SpeakerSegment struct {
	Speaker string  `json:"speaker"`
	Start   float64 `json:"start"`
	End     float64 `json:"end"`
	Text    string  `json:"text"`
}

// Transcript is the normalized transcript of one meeting, 1:1 with Meeting
// and upserted by meeting_id so retries never duplicate rows.
type Transcript struct {
	ID              uuid.UUID        `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID       uuid.UUID        `json:"meeting_id" gorm:"type:uuid;not null;uniqueIndex"`
	RawContent      string           `json:"raw_content,omitempty" gorm:"type:text"`
	NormalizedText  string           `json:"normalized_text,omitempty" gorm:"type:text"`
	SpeakerSegments []SpeakerSegment `json:"speaker_segments,omitempty" gorm:"type:jsonb;serializer:json"`
	WordCount       int              `json:"word_count"`
	SourceName      string           `json:"source_name,omitempty" gorm:"type:varchar(100)"`
	Status          TranscriptStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	FetchAttempts   int              `json:"fetch_attempts" gorm:"default:0"`
	LastFetchError  string           `json:"last_fetch_error,omitempty" gorm:"type:text"`
	ArchiveObject   string           `json:"archive_object,omitempty" gorm:"type:varchar(500)"`
	CreatedAt       time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time        `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Transcript) TableName() string {
	return "transcripts"
}

// NewTranscript creates a new pending transcript for a meeting
func NewTranscript(meetingID uuid.UUID) *Transcript {
	return &Transcript{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Status:    TranscriptStatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
