package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// DraftRepository defines the interface for draft data access
type DraftRepository interface {
	// Create persists a generated draft
	Create(ctx context.Context, draft *entities.Draft) error

	// ListByMeetingID retrieves all drafts for a meeting, newest first
	ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]entities.Draft, error)

	// CountByMeetingID counts drafts for a meeting
	CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error)
}
