package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// TranscriptRepository handles transcript data operations
type TranscriptRepository struct {
	db *gorm.DB
}

// NewTranscriptRepository creates a new transcript repository
func NewTranscriptRepository(db *gorm.DB) *TranscriptRepository {
	return &TranscriptRepository{db: db}
}

// Upsert writes a transcript keyed by meeting_id. Re-acquisition overwrites
// content columns instead of creating a second row.
func (r *TranscriptRepository) Upsert(ctx context.Context, transcript *entities.Transcript) error {
	if transcript == nil {
		return errors.New("transcript cannot be nil")
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "meeting_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"status", "raw_content", "normalized_text", "speaker_segments",
				"word_count", "source_name", "fetch_attempts", "last_fetch_error",
				"archive_object", "updated_at",
			}),
		}).
		Create(transcript).Error
}

// FindByMeetingID retrieves the transcript for a meeting
func (r *TranscriptRepository) FindByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	var transcript entities.Transcript
	err := r.db.WithContext(ctx).Where("meeting_id = ?", meetingID).First(&transcript).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &transcript, nil
}

// RecordFetchFailure bumps the attempt counter and stores the last error for
// a meeting's transcript row, creating a placeholder row when none exists.
func (r *TranscriptRepository) RecordFetchFailure(ctx context.Context, meetingID uuid.UUID, fetchErr string, failed bool) error {
	status := entities.TranscriptStatusPending
	if failed {
		status = entities.TranscriptStatusFailed
	}

	existing, err := r.FindByMeetingID(ctx, meetingID)
	if err != nil {
		return err
	}
	if existing == nil {
		t := entities.NewTranscript(meetingID)
		t.Status = status
		t.FetchAttempts = 1
		t.LastFetchError = fetchErr
		return r.db.WithContext(ctx).Create(t).Error
	}

	return r.db.WithContext(ctx).
		Model(&entities.Transcript{}).
		Where("meeting_id = ?", meetingID).
		Updates(map[string]interface{}{
			"status":           status,
			"fetch_attempts":   gorm.Expr("fetch_attempts + 1"),
			"last_fetch_error": fetchErr,
		}).Error
}
