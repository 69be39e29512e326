package repositories

import (
	"context"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// AccountRepository defines the interface for account data access
type AccountRepository interface {
	// FindByID retrieves an account by its ID
	FindByID(ctx context.Context, id string) (*entities.Account, error)

	// FindByEmail retrieves an account by its email
	FindByEmail(ctx context.Context, email string) (*entities.Account, error)

	// Update updates an existing account
	Update(ctx context.Context, account *entities.Account) error

	// ListCalendarConnected retrieves accounts with a connected calendar,
	// the population the reconciliation poller iterates.
	ListCalendarConnected(ctx context.Context) ([]entities.Account, error)
}
