package entities

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DraftStatus represents the lifecycle status of a generated draft
type DraftStatus string

const (
	DraftStatusGenerated DraftStatus = "generated"
	DraftStatusSent      DraftStatus = "sent"
	DraftStatusFailed    DraftStatus = "failed"
)

// DraftActionItem is one action item extracted by the generation model.
type DraftActionItem struct {
	Title    string `json:"title"`
	Owner    string `json:"owner,omitempty"`
	DueHint  string `json:"due_hint,omitempty"`
	Priority string `json:"priority,omitempty"`
}

// Draft is an AI-composed follow-up email draft tied to a meeting. A meeting
// can accumulate several drafts across regenerations and refinements.
type Draft struct {
	ID              uuid.UUID                                  `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	MeetingID       uuid.UUID                                  `json:"meeting_id" gorm:"type:uuid;not null;index"`
	Subject         string                                     `json:"subject" gorm:"type:varchar(500);not null"`
	Body            string                                     `json:"body" gorm:"type:text;not null"`
	Summary         string                                     `json:"summary,omitempty" gorm:"type:text"`
	Topics          []string                                   `json:"topics,omitempty" gorm:"type:jsonb;serializer:json"`
	Decisions       []string                                   `json:"decisions,omitempty" gorm:"type:jsonb;serializer:json"`
	ActionItems     []DraftActionItem                          `json:"action_items,omitempty" gorm:"type:jsonb;serializer:json"`
	DetectedType    string                                     `json:"detected_type,omitempty" gorm:"type:varchar(50)"`
	Tone            string                                     `json:"tone,omitempty" gorm:"type:varchar(50)"`
	Status          DraftStatus                                `json:"status" gorm:"type:varchar(20);not null;default:'generated';index"`
	RefinementCount int                                        `json:"refinement_count" gorm:"default:0"`
	Degraded        bool                                       `json:"degraded" gorm:"default:false"`
	RawResponse     datatypes.JSONType[map[string]interface{}] `json:"raw_response,omitempty" gorm:"type:jsonb"`
	CreatedAt       time.Time                                  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt       time.Time                                  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName specifies the table name for GORM
func (Draft) TableName() string {
	return "drafts"
}

// NewDraft creates a generated draft for a meeting
func NewDraft(meetingID uuid.UUID, subject, body string) *Draft {
	return &Draft{
		ID:        uuid.New(),
		MeetingID: meetingID,
		Subject:   subject,
		Body:      body,
		Status:    DraftStatusGenerated,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
}
