package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// EventRepository defines the interface for raw event data access
type EventRepository interface {
	// Insert persists a new raw event. It returns entities.ErrDuplicateEvent
	// semantics via (existing, false) when a row with the same
	// (source, external_event_id) already exists.
	Insert(ctx context.Context, event *entities.RawEvent) (*entities.RawEvent, bool, error)

	// FindByID retrieves a raw event by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.RawEvent, error)

	// Update mutates status/resolved_meeting_id of an existing event
	Update(ctx context.Context, event *entities.RawEvent) error

	// ListByMeetingID retrieves all events resolved to a meeting
	ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]entities.RawEvent, error)
}
