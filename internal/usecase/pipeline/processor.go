package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/domain/repositories"
)

// TranscriptAcquirer downloads, parses and stores transcript content for a
// meeting. The progress callback reports intermediate pipeline steps.
type TranscriptAcquirer interface {
	Acquire(ctx context.Context, meeting *entities.Meeting, progress func(step entities.ProcessingStep, message string, durationMs int64)) (*entities.Transcript, error)
}

// DraftOrchestrator generates and persists the follow-up draft for a
// meeting with a ready transcript.
type DraftOrchestrator interface {
	GenerateForMeeting(ctx context.Context, meeting *entities.Meeting, transcript *entities.Transcript) (*entities.Draft, error)
}

// Processor executes one claimed job end to end: transcript acquisition,
// draft generation, terminal state transition.
type Processor struct {
	meetings    repositories.MeetingRepository
	events      repositories.EventRepository
	transcripts repositories.TranscriptRepository
	sm          *StateMachine
	acquirer    TranscriptAcquirer
	drafts      DraftOrchestrator
	logger      *zap.Logger
}

// NewProcessor constructs a job processor
func NewProcessor(
	meetings repositories.MeetingRepository,
	events repositories.EventRepository,
	transcripts repositories.TranscriptRepository,
	sm *StateMachine,
	acquirer TranscriptAcquirer,
	drafts DraftOrchestrator,
	logger *zap.Logger,
) *Processor {
	return &Processor{
		meetings:    meetings,
		events:      events,
		transcripts: transcripts,
		sm:          sm,
		acquirer:    acquirer,
		drafts:      drafts,
		logger:      logger,
	}
}

// Process runs the acquisition and draft pipeline for one claimed job.
// Errors are returned unhandled; the queue classifies them into reschedule,
// deferral or permanent failure.
func (p *Processor) Process(ctx context.Context, job *entities.ProcessingJob) error {
	started := time.Now()

	meeting, err := p.meetings.FindByID(ctx, job.MeetingID)
	if err != nil {
		return apperrors.ErrDBQuery(err)
	}
	if meeting == nil {
		return apperrors.ErrNotFound("meeting")
	}
	if meeting.Status == entities.MeetingStatusReady {
		// A replayed job for an already-processed meeting is a no-op.
		return nil
	}
	if meeting.Status == entities.MeetingStatusPending {
		if err := p.sm.Start(ctx, meeting.ID); err != nil {
			return err
		}
		if err := p.sm.Advance(ctx, meeting.ID, entities.StepMeetingCreated, "meeting record resolved", 0); err != nil {
			return err
		}
		meeting.Processing.ProgressPct = entities.StepProgress[entities.StepMeetingCreated]
	}

	// A retried attempt resumes from the furthest step the previous
	// attempt recorded; steps behind that point are skipped so the
	// monotonic-progress invariant never rejects a resume.
	reached := meeting.Processing.ProgressPct
	advance := func(step entities.ProcessingStep, message string, durationMs int64) error {
		if entities.StepProgress[step] < reached {
			return nil
		}
		return p.sm.Advance(ctx, meeting.ID, step, message, durationMs)
	}

	transcript, err := p.transcripts.FindByMeetingID(ctx, meeting.ID)
	if err != nil {
		return apperrors.ErrDBQuery(err)
	}
	if transcript == nil || transcript.Status != entities.TranscriptStatusReady {
		if err := advance(entities.StepTranscriptDownload, "downloading transcript content", 0); err != nil {
			return err
		}

		progress := func(step entities.ProcessingStep, message string, durationMs int64) {
			if err := advance(step, message, durationMs); err != nil {
				p.logger.Warn("progress advance rejected",
					zap.String("meeting_id", meeting.ID.String()),
					zap.String("step", string(step)),
					zap.Error(err))
			}
		}

		transcript, err = p.acquirer.Acquire(ctx, meeting, progress)
		if err != nil {
			return err
		}
	}

	if err := advance(entities.StepDraftGeneration, "generating follow-up draft", 0); err != nil {
		return err
	}

	if _, err := p.drafts.GenerateForMeeting(ctx, meeting, transcript); err != nil {
		if apperrors.IsQuotaExceeded(err) {
			// Park the meeting. The transcript stays ready so generation
			// alone can run once the quota resets. Reload first so the
			// state recorded by Advance is not overwritten.
			parked, ferr := p.meetings.FindByID(ctx, meeting.ID)
			if ferr != nil || parked == nil {
				p.logger.Error("failed to reload meeting for quota park",
					zap.String("meeting_id", meeting.ID.String()), zap.Error(ferr))
				return err
			}
			parked.Status = entities.MeetingStatusPending
			if uerr := p.meetings.Update(ctx, parked); uerr != nil {
				p.logger.Error("failed to park quota-blocked meeting",
					zap.String("meeting_id", meeting.ID.String()), zap.Error(uerr))
			}
		}
		return err
	}

	if err := p.sm.Complete(ctx, meeting.ID, time.Since(started).Milliseconds()); err != nil {
		return err
	}
	p.markEvent(ctx, job, true)
	return nil
}

// OnPermanentFailure propagates a terminal job failure into the owning
// meeting, transcript and raw event. A draft-stage failure leaves an
// already-ready transcript intact.
func (p *Processor) OnPermanentFailure(ctx context.Context, job *entities.ProcessingJob, cause error) {
	if err := p.sm.Fail(ctx, job.MeetingID, cause); err != nil {
		p.logger.Error("failed to record meeting failure",
			zap.String("meeting_id", job.MeetingID.String()), zap.Error(err))
	}

	transcript, err := p.transcripts.FindByMeetingID(ctx, job.MeetingID)
	if err != nil {
		p.logger.Error("failed to load transcript on job failure",
			zap.String("meeting_id", job.MeetingID.String()), zap.Error(err))
	} else if transcript != nil && transcript.Status != entities.TranscriptStatusReady {
		transcript.Status = entities.TranscriptStatusFailed
		transcript.LastFetchError = cause.Error()
		if err := p.transcripts.Upsert(ctx, transcript); err != nil {
			p.logger.Error("failed to mark transcript failed",
				zap.String("meeting_id", job.MeetingID.String()), zap.Error(err))
		}
	}

	p.markEvent(ctx, job, false)
}

func (p *Processor) markEvent(ctx context.Context, job *entities.ProcessingJob, processed bool) {
	event, err := p.events.FindByID(ctx, job.RawEventID)
	if err != nil || event == nil {
		return
	}
	if processed {
		event.MarkProcessed(job.MeetingID)
	} else {
		event.MarkFailed()
	}
	if err := p.events.Update(ctx, event); err != nil {
		p.logger.Error("failed to update raw event status",
			zap.String("event_id", event.ID.String()), zap.Error(err))
	}
}
