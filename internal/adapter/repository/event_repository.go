package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// EventRepository handles raw event data operations
type EventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository
func NewEventRepository(db *gorm.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Insert persists a raw event. On a (source, external_event_id) collision the
// insert is a no-op and the existing row is returned with inserted=false.
func (r *EventRepository) Insert(ctx context.Context, event *entities.RawEvent) (*entities.RawEvent, bool, error) {
	if event == nil {
		return nil, false, errors.New("event cannot be nil")
	}

	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "source"}, {Name: "external_event_id"}},
			DoNothing: true,
		}).
		Create(event)
	if res.Error != nil {
		return nil, false, res.Error
	}
	if res.RowsAffected > 0 {
		return event, true, nil
	}

	var existing entities.RawEvent
	err := r.db.WithContext(ctx).
		Where("source = ? AND external_event_id = ?", event.Source, event.ExternalEventID).
		First(&existing).Error
	if err != nil {
		return nil, false, err
	}
	return &existing, false, nil
}

// FindByID retrieves a raw event by ID
func (r *EventRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.RawEvent, error) {
	var event entities.RawEvent
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&event).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &event, nil
}

// Update updates a raw event
func (r *EventRepository) Update(ctx context.Context, event *entities.RawEvent) error {
	if event == nil {
		return errors.New("event cannot be nil")
	}
	return r.db.WithContext(ctx).Save(event).Error
}

// ListByMeetingID retrieves all events resolved to a meeting
func (r *EventRepository) ListByMeetingID(ctx context.Context, meetingID uuid.UUID) ([]entities.RawEvent, error) {
	var events []entities.RawEvent
	err := r.db.WithContext(ctx).
		Where("resolved_meeting_id = ?", meetingID).
		Order("received_at ASC").
		Find(&events).Error
	return events, err
}
