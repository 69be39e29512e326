package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/domain/repositories"
	"github.com/johnquangdev/meeting-followup/pkg/config"
)

// RetryDelay returns the backoff delay before retry number attempt. The
// schedule doubles from base: attempts 0, 1, 2 wait base, 2*base, 4*base.
func RetryDelay(attempt int, base time.Duration) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	return base << uint(attempt)
}

// JobProcessor executes one claimed job and reports permanent failures back
// into the owning meeting.
type JobProcessor interface {
	// Process runs the full acquisition and draft pipeline for one job
	Process(ctx context.Context, job *entities.ProcessingJob) error

	// OnPermanentFailure propagates a terminal job failure into the owning
	// meeting and transcript records
	OnPermanentFailure(ctx context.Context, job *entities.ProcessingJob, cause error)
}

// JobOutcome is the per-job result of one queue run
type JobOutcome string

const (
	OutcomeCompleted    JobOutcome = "completed"
	OutcomeRescheduled  JobOutcome = "rescheduled"
	OutcomeDeferred     JobOutcome = "deferred"
	OutcomeFailed       JobOutcome = "failed"
	OutcomeQuotaBlocked JobOutcome = "quota_blocked"
)

// JobResult describes what happened to one claimed job
type JobResult struct {
	JobID     uuid.UUID  `json:"job_id"`
	MeetingID uuid.UUID  `json:"meeting_id"`
	Outcome   JobOutcome `json:"outcome"`
	Attempts  int        `json:"attempts"`
	Error     string     `json:"error,omitempty"`
}

// RunResult summarizes one queue run
type RunResult struct {
	ProcessedCount int         `json:"processed_count"`
	SucceededCount int         `json:"succeeded_count"`
	FailedCount    int         `json:"failed_count"`
	Results        []JobResult `json:"results"`
}

// Queue is the pull-based retry queue. No worker process is assumed: an
// external trigger calls Run, which claims due jobs and processes them
// sequentially within the invocation.
type Queue struct {
	jobs   repositories.JobRepository
	cfg    *config.PipelineConfig
	logger *zap.Logger
}

// NewQueue constructs a queue over the job store
func NewQueue(jobs repositories.JobRepository, cfg *config.PipelineConfig, logger *zap.Logger) *Queue {
	return &Queue{jobs: jobs, cfg: cfg, logger: logger}
}

// Enqueue creates a waiting job for a meeting unless one is already in
// flight. Returns the job and whether it was newly created.
func (q *Queue) Enqueue(ctx context.Context, meetingID, rawEventID uuid.UUID) (*entities.ProcessingJob, bool, error) {
	existing, err := q.jobs.FindNonTerminalByMeetingID(ctx, meetingID)
	if err != nil {
		return nil, false, apperrors.ErrDBQuery(err)
	}
	if existing != nil {
		return existing, false, nil
	}

	job := entities.NewProcessingJob(meetingID, rawEventID, q.cfg.MaxRetries)
	if err := q.jobs.Create(ctx, job); err != nil {
		return nil, false, apperrors.ErrDBQuery(err)
	}
	return job, true, nil
}

// Run claims up to maxJobs due jobs and processes them sequentially. One
// job's failure never aborts the rest of the batch.
func (q *Queue) Run(ctx context.Context, proc JobProcessor, maxJobs int) (*RunResult, error) {
	if maxJobs <= 0 {
		maxJobs = q.cfg.MaxJobsPerRun
	}

	claimed, err := q.jobs.Claim(ctx, maxJobs, q.cfg.VisibilityTimeout)
	if err != nil {
		return nil, apperrors.ErrDBQuery(err)
	}

	result := &RunResult{Results: make([]JobResult, 0, len(claimed))}
	for _, job := range claimed {
		outcome := q.runOne(ctx, proc, job)
		result.ProcessedCount++
		switch outcome.Outcome {
		case OutcomeCompleted, OutcomeQuotaBlocked:
			result.SucceededCount++
		case OutcomeFailed:
			result.FailedCount++
		}
		result.Results = append(result.Results, outcome)
	}
	return result, nil
}

func (q *Queue) runOne(ctx context.Context, proc JobProcessor, job *entities.ProcessingJob) JobResult {
	res := JobResult{JobID: job.ID, MeetingID: job.MeetingID, Attempts: job.AttemptsMade}

	procErr := proc.Process(ctx, job)
	if procErr == nil {
		if err := q.jobs.MarkCompleted(ctx, job.ID); err != nil {
			q.logger.Error("failed to mark job completed", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		res.Outcome = OutcomeCompleted
		return res
	}

	res.Error = procErr.Error()

	switch {
	case apperrors.IsQuotaExceeded(procErr):
		// A quota block is not a failure. The job completes; generation
		// is retried by a later ingestion cycle once the quota resets.
		if err := q.jobs.MarkCompleted(ctx, job.ID); err != nil {
			q.logger.Error("failed to complete quota-blocked job", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		res.Outcome = OutcomeQuotaBlocked
		return res

	case apperrors.IsNotReady(procErr):
		// Upstream has not produced content yet. Defer without consuming
		// a retry attempt.
		delay := RetryDelay(job.AttemptsMade, q.cfg.BackoffBase)
		if err := q.jobs.Reschedule(ctx, job.ID, time.Now().UTC().Add(delay), procErr.Error(), false); err != nil {
			q.logger.Error("failed to defer job", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		res.Outcome = OutcomeDeferred
		return res

	case apperrors.IsTransient(procErr) && job.AttemptsMade < job.MaxRetries:
		delay := RetryDelay(job.AttemptsMade, q.cfg.BackoffBase)
		if err := q.jobs.Reschedule(ctx, job.ID, time.Now().UTC().Add(delay), procErr.Error(), true); err != nil {
			q.logger.Error("failed to reschedule job", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		q.logger.Info("job rescheduled",
			zap.String("job_id", job.ID.String()),
			zap.Int("attempt", job.AttemptsMade),
			zap.Duration("delay", delay))
		res.Outcome = OutcomeRescheduled
		return res

	default:
		if err := q.jobs.MarkFailed(ctx, job.ID, procErr.Error()); err != nil {
			q.logger.Error("failed to mark job failed", zap.String("job_id", job.ID.String()), zap.Error(err))
		}
		proc.OnPermanentFailure(ctx, job, procErr)
		res.Outcome = OutcomeFailed
		return res
	}
}
