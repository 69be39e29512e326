package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// meetingListOrder sorts listings by actual meeting end, newest first. The
// column must exist in the meetings schema.
const meetingListOrder = "end_time DESC"

// MeetingRepository handles meeting data operations
type MeetingRepository struct {
	db *gorm.DB
}

// NewMeetingRepository creates a new meeting repository
func NewMeetingRepository(db *gorm.DB) *MeetingRepository {
	return &MeetingRepository{db: db}
}

// Create creates a meeting. On a (platform, platform_external_id) collision
// the existing row is returned with created=false so concurrent event
// resolutions converge on a single meeting.
func (r *MeetingRepository) Create(ctx context.Context, meeting *entities.Meeting) (*entities.Meeting, bool, error) {
	if meeting == nil {
		return nil, false, errors.New("meeting cannot be nil")
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "platform"}, {Name: "platform_external_id"}},
			DoNothing: true,
		}).
		Create(meeting)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return meeting, true, nil
	}

	existing, err := r.FindByPlatformExternalID(ctx, meeting.Platform, meeting.PlatformExternalID)
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		return nil, false, errors.New("meeting vanished after conflict")
	}
	return existing, false, nil
}

// FindByID retrieves a meeting by ID
func (r *MeetingRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.Meeting, error) {
	var meeting entities.Meeting
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&meeting).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// FindByPlatformExternalID retrieves a meeting by its platform identity
func (r *MeetingRepository) FindByPlatformExternalID(ctx context.Context, platform entities.Platform, externalID string) (*entities.Meeting, error) {
	var meeting entities.Meeting
	err := r.db.WithContext(ctx).
		Where("platform = ? AND platform_external_id = ?", platform, externalID).
		First(&meeting).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &meeting, nil
}

// Update updates a meeting
func (r *MeetingRepository) Update(ctx context.Context, meeting *entities.Meeting) error {
	if meeting == nil {
		return errors.New("meeting cannot be nil")
	}
	return r.db.WithContext(ctx).Save(meeting).Error
}

// List retrieves meetings for an account, newest first
func (r *MeetingRepository) List(ctx context.Context, accountID string, limit, offset int) ([]*entities.Meeting, int64, error) {
	var meetings []*entities.Meeting
	var total int64

	q := r.db.WithContext(ctx).Model(&entities.Meeting{})
	if accountID != "" {
		q = q.Where("account_id = ?", accountID)
	}
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := q.Order(meetingListOrder).
		Limit(limit).
		Offset(offset).
		Find(&meetings).Error
	return meetings, total, err
}
