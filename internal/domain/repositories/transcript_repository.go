package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// TranscriptRepository defines the interface for transcript data access
type TranscriptRepository interface {
	// Upsert writes a transcript keyed by meeting_id; content is overwritten,
	// rows are never duplicated.
	Upsert(ctx context.Context, transcript *entities.Transcript) error

	// FindByMeetingID retrieves the transcript for a meeting
	FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error)

	// RecordFetchFailure bumps fetch_attempts and records the error without
	// touching any previously stored content.
	RecordFetchFailure(ctx context.Context, meetingID uuid.UUID, fetchErr string, failed bool) error
}
