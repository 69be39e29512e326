package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// JobRepository handles processing job data operations
type JobRepository struct {
	db *gorm.DB
}

// NewJobRepository creates a new job repository
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Create persists a new waiting job
func (r *JobRepository) Create(ctx context.Context, job *entities.ProcessingJob) error {
	if job == nil {
		return errors.New("job cannot be nil")
	}
	return r.db.WithContext(ctx).Create(job).Error
}

// FindByID retrieves a job by ID
func (r *JobRepository) FindByID(ctx context.Context, id uuid.UUID) (*entities.ProcessingJob, error) {
	var job entities.ProcessingJob
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// FindNonTerminalByMeetingID retrieves the in-flight job for a meeting, if any
func (r *JobRepository) FindNonTerminalByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.ProcessingJob, error) {
	var job entities.ProcessingJob
	err := r.db.WithContext(ctx).
		Where("meeting_id = ? AND state IN ?", meetingID,
			[]entities.JobState{entities.JobStateWaiting, entities.JobStateDelayed, entities.JobStateActive}).
		First(&job).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &job, nil
}

// Claim atomically moves up to limit due jobs into the active state. Rows are
// locked with FOR UPDATE SKIP LOCKED so concurrent claimers never receive the
// same job. Active jobs whose claim deadline passed are picked up again.
func (r *JobRepository) Claim(ctx context.Context, limit int, visibilityTimeout time.Duration) ([]*entities.ProcessingJob, error) {
	now := time.Now().UTC()
	deadline := now.Add(visibilityTimeout)

	var jobs []*entities.ProcessingJob
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []uuid.UUID
		err := tx.Raw(`
			SELECT id FROM processing_jobs
			WHERE (state IN ('waiting', 'delayed') AND available_at <= ?)
			   OR (state = 'active' AND claim_expires_at <= ?)
			ORDER BY available_at ASC
			LIMIT ?
			FOR UPDATE SKIP LOCKED`, now, now, limit).
			Scan(&ids).Error
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		err = tx.Model(&entities.ProcessingJob{}).
			Where("id IN ?", ids).
			Updates(map[string]interface{}{
				"state":            entities.JobStateActive,
				"claim_expires_at": deadline,
				"started_at":       gorm.Expr("COALESCE(started_at, ?)", now),
			}).Error
		if err != nil {
			return err
		}

		return tx.Where("id IN ?", ids).
			Order("available_at ASC").
			Find(&jobs).Error
	})
	if err != nil {
		return nil, err
	}
	return jobs, nil
}

// MarkCompleted transitions a job to completed
func (r *JobRepository) MarkCompleted(ctx context.Context, jobID uuid.UUID) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&entities.ProcessingJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"state":            entities.JobStateCompleted,
			"completed_at":     now,
			"claim_expires_at": nil,
			"last_error":       "",
		}).Error
}

// Reschedule puts a claimed job back into the delayed state with a new
// availability time. consumeAttempt is false for content-not-ready deferrals.
func (r *JobRepository) Reschedule(ctx context.Context, jobID uuid.UUID, availableAt time.Time, lastError string, consumeAttempt bool) error {
	updates := map[string]interface{}{
		"state":            entities.JobStateDelayed,
		"available_at":     availableAt,
		"claim_expires_at": nil,
		"last_error":       lastError,
	}
	if consumeAttempt {
		updates["attempts_made"] = gorm.Expr("attempts_made + 1")
	}
	return r.db.WithContext(ctx).
		Model(&entities.ProcessingJob{}).
		Where("id = ?", jobID).
		Updates(updates).Error
}

// MarkFailed transitions a job to failed with its final error
func (r *JobRepository) MarkFailed(ctx context.Context, jobID uuid.UUID, lastError string) error {
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&entities.ProcessingJob{}).
		Where("id = ?", jobID).
		Updates(map[string]interface{}{
			"state":            entities.JobStateFailed,
			"attempts_made":    gorm.Expr("attempts_made + 1"),
			"completed_at":     now,
			"claim_expires_at": nil,
			"last_error":       lastError,
		}).Error
}
