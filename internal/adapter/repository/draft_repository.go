package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// DraftRepository handles draft data operations
type DraftRepository struct {
	db *gorm.DB
}

// NewDraftRepository creates a new draft repository
func NewDraftRepository(db *gorm.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

// Create persists a generated draft
func (r *DraftRepository) Create(ctx context.Context, draft *entities.Draft) error {
	if draft == nil {
		return errors.New("draft cannot be nil")
	}
	return r.db.WithContext(ctx).Create(draft).Error
}

// ListByMeetingID retrieves all drafts for a meeting, newest first
func (r *DraftRepository) ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]entities.Draft, error) {
	var drafts []entities.Draft
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", meetingID).
		Order("created_at DESC").
		Find(&drafts).Error
	return drafts, err
}

// CountByMeetingID counts drafts for a meeting
func (r *DraftRepository) CountByMeetingID(ctx context.Context, meetingID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&entities.Draft{}).
		Where("meeting_id = ?", meetingID).
		Count(&count).Error
	return count, err
}
