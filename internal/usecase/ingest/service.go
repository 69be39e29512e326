package ingest

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/domain/repositories"
	"github.com/johnquangdev/meeting-followup/internal/usecase/pipeline"
)

// Result describes what one ingestion did.
type Result struct {
	Event      *entities.RawEvent      `json:"event"`
	Meeting    *entities.Meeting       `json:"meeting,omitempty"`
	Job        *entities.ProcessingJob `json:"job,omitempty"`
	Duplicate  bool                    `json:"duplicate"`
	NewMeeting bool                    `json:"new_meeting"`
	JobCreated bool                    `json:"job_created"`
}

// Service is the single ingestion chokepoint. Every signal source, push
// webhook or poll, funnels through Ingest so deduplication and the
// one-pipeline-per-meeting guarantee hold regardless of origin.
type Service struct {
	events   repositories.EventRepository
	meetings repositories.MeetingRepository
	queue    *pipeline.Queue
	sm       *pipeline.StateMachine
	logger   *zap.Logger
}

// NewService constructs an ingestion service
func NewService(
	events repositories.EventRepository,
	meetings repositories.MeetingRepository,
	queue *pipeline.Queue,
	sm *pipeline.StateMachine,
	logger *zap.Logger,
) *Service {
	return &Service{
		events:   events,
		meetings: meetings,
		queue:    queue,
		sm:       sm,
		logger:   logger,
	}
}

// Ingest stores the event, resolves it to a meeting, and enqueues a
// processing job. A replayed (source, externalEventID) pair is a no-op
// returning the original event flagged duplicate.
func (s *Service) Ingest(ctx context.Context, ev entities.MeetingEvent, payload map[string]interface{}) (*Result, error) {
	if ev.ExternalEventID == "" || ev.PlatformExternalID == "" {
		return nil, apperrors.ErrInvalidArgument("event missing external identifiers")
	}

	raw := entities.NewRawEvent(ev.Source, ev.ExternalEventID, string(ev.Type), payload)
	stored, inserted, err := s.events.Insert(ctx, raw)
	if err != nil {
		return nil, apperrors.ErrDBQuery(err)
	}
	if !inserted {
		s.logger.Debug("duplicate event ignored",
			zap.String("source", string(ev.Source)),
			zap.String("external_event_id", ev.ExternalEventID))
		return &Result{Event: stored, Duplicate: true}, nil
	}

	meeting, created, err := s.resolveMeeting(ctx, ev)
	if err != nil {
		return nil, err
	}

	if created {
		if err := s.sm.Start(ctx, meeting.ID); err != nil {
			return nil, err
		}
		if err := s.sm.Advance(ctx, meeting.ID, entities.StepMeetingFetched, "platform metadata resolved", 0); err != nil {
			return nil, err
		}
		if err := s.sm.Advance(ctx, meeting.ID, entities.StepMeetingCreated, "meeting record created", 0); err != nil {
			return nil, err
		}
	} else if s.enrich(meeting, ev) {
		if err := s.meetings.Update(ctx, meeting); err != nil {
			return nil, apperrors.ErrDBQuery(err)
		}
	}

	if meeting.Status == entities.MeetingStatusReady {
		// Late signal for an already-processed meeting: audit it, do not
		// reprocess.
		stored.MarkProcessed(meeting.ID)
		if err := s.events.Update(ctx, stored); err != nil {
			s.logger.Error("failed to mark late event processed", zap.Error(err))
		}
		return &Result{Event: stored, Meeting: meeting}, nil
	}

	if meeting.Status == entities.MeetingStatusFailed {
		// A fresh signal reopens a failed meeting for a new attempt.
		meeting.Status = entities.MeetingStatusPending
		if err := s.meetings.Update(ctx, meeting); err != nil {
			return nil, apperrors.ErrDBQuery(err)
		}
	}

	job, jobCreated, err := s.queue.Enqueue(ctx, meeting.ID, stored.ID)
	if err != nil {
		return nil, err
	}
	if !jobCreated {
		s.logger.Debug("job already in flight for meeting",
			zap.String("meeting_id", meeting.ID.String()))
	}

	return &Result{
		Event:      stored,
		Meeting:    meeting,
		Job:        job,
		NewMeeting: created,
		JobCreated: jobCreated,
	}, nil
}

func (s *Service) resolveMeeting(ctx context.Context, ev entities.MeetingEvent) (*entities.Meeting, bool, error) {
	existing, err := s.meetings.FindByPlatformExternalID(ctx, ev.Platform, ev.PlatformExternalID)
	if err != nil {
		return nil, false, apperrors.ErrDBQuery(err)
	}
	if existing != nil {
		return existing, false, nil
	}

	meeting, created, err := s.meetings.Create(ctx, entities.NewMeeting(ev))
	if err != nil {
		return nil, false, apperrors.ErrDBQuery(err)
	}
	return meeting, created, nil
}

// enrich copies fields a later event knows that the stored meeting does
// not, a recording URL most importantly. Reports whether anything changed.
func (s *Service) enrich(meeting *entities.Meeting, ev entities.MeetingEvent) bool {
	changed := false
	if meeting.RecordingURL == "" && ev.RecordingURL != "" {
		meeting.RecordingURL = ev.RecordingURL
		changed = true
	}
	if meeting.Topic == "" && ev.Topic != "" {
		meeting.Topic = ev.Topic
		changed = true
	}
	if meeting.HostIdentity == "" && ev.HostIdentity != "" {
		meeting.HostIdentity = ev.HostIdentity
		changed = true
	}
	return changed
}
