package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// MeetingRepository defines the interface for meeting data access
type MeetingRepository interface {
	// Create creates a new meeting; returns the existing meeting and false
	// when (platform, platform_external_id) is already taken, so concurrent
	// resolutions converge on one row.
	Create(ctx context.Context, meeting *entities.Meeting) (*entities.Meeting, bool, error)

	// FindByID retrieves a meeting by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error)

	// FindByPlatformExternalID retrieves a meeting by its platform identity
	FindByPlatformExternalID(ctx context.Context, platform entities.Platform, externalID string) (*entities.Meeting, error)

	// Update updates an existing meeting
	Update(ctx context.Context, meeting *entities.Meeting) error

	// List retrieves meetings for an account, newest first
	List(ctx context.Context, accountID string, limit, offset int) ([]*entities.Meeting, int64, error)
}
