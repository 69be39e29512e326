package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// AccountRepository handles account data operations
type AccountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new account repository
func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// FindByID retrieves an account by ID
func (r *AccountRepository) FindByID(ctx context.Context, id string) (*entities.Account, error) {
	var account entities.Account
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// FindByEmail retrieves an account by email
func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*entities.Account, error) {
	var account entities.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Update updates an existing account
func (r *AccountRepository) Update(ctx context.Context, account *entities.Account) error {
	if account == nil {
		return errors.New("account cannot be nil")
	}
	return r.db.WithContext(ctx).Save(account).Error
}

// ListCalendarConnected retrieves accounts with a connected calendar
func (r *AccountRepository) ListCalendarConnected(ctx context.Context) ([]entities.Account, error) {
	var accounts []entities.Account
	err := r.db.WithContext(ctx).
		Where("calendar_connected = ?", true).
		Find(&accounts).Error
	return accounts, err
}
