package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// JobRepository defines the interface for processing job data access
type JobRepository interface {
	// Create persists a new waiting job
	Create(ctx context.Context, job *entities.ProcessingJob) error

	// FindByID retrieves a job by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*entities.ProcessingJob, error)

	// FindNonTerminalByMeetingID retrieves the in-flight job for a meeting,
	// if any. Used to enforce at most one non-terminal job per meeting.
	FindNonTerminalByMeetingID(ctx context.Context, meetingID uuid.UUID) (*entities.ProcessingJob, error)

	// Claim atomically moves up to limit due jobs into the active state and
	// returns them, FIFO by availability time. Two concurrent claims never
	// receive the same job. Claimed jobs carry a claim deadline; active jobs
	// whose deadline passed count as due again.
	Claim(ctx context.Context, limit int, visibilityTimeout time.Duration) ([]*entities.ProcessingJob, error)

	// MarkCompleted transitions a job to completed
	MarkCompleted(ctx context.Context, jobID uuid.UUID) error

	// Reschedule puts a claimed job back into delayed with a new availability
	// time. When consumeAttempt is false the attempt counter is untouched
	// (content-not-ready deferral).
	Reschedule(ctx context.Context, jobID uuid.UUID, availableAt time.Time, lastError string, consumeAttempt bool) error

	// MarkFailed transitions a job to failed with its final error
	MarkFailed(ctx context.Context, jobID uuid.UUID, lastError string) error
}
