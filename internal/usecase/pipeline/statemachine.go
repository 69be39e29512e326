package pipeline

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/domain/repositories"
)

// defaultStepDuration seeds the remaining-time projection for steps the
// current meeting has not produced a measured duration for yet.
var defaultStepDuration = map[entities.ProcessingStep]time.Duration{
	entities.StepWebhookReceived:    200 * time.Millisecond,
	entities.StepMeetingFetched:     1 * time.Second,
	entities.StepMeetingCreated:     200 * time.Millisecond,
	entities.StepTranscriptDownload: 8 * time.Second,
	entities.StepTranscriptParse:    500 * time.Millisecond,
	entities.StepTranscriptStored:   300 * time.Millisecond,
	entities.StepDraftGeneration:    12 * time.Second,
	entities.StepCompleted:          0,
}

// StateMachine drives the per-meeting processing lifecycle. Step order is
// fixed; progress is table-driven and never regresses within one attempt
// except on the terminal failed transition.
type StateMachine struct {
	meetings repositories.MeetingRepository
	logger   *zap.Logger
}

// NewStateMachine constructs a state machine over the meeting store
func NewStateMachine(meetings repositories.MeetingRepository, logger *zap.Logger) *StateMachine {
	return &StateMachine{meetings: meetings, logger: logger}
}

// Start resets progress and logs and moves the meeting into processing.
func (sm *StateMachine) Start(ctx context.Context, meetingID uuid.UUID) error {
	meeting, err := sm.load(ctx, meetingID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	meeting.Status = entities.MeetingStatusProcessing
	meeting.Processing = entities.ProcessingState{
		Step:        entities.StepWebhookReceived,
		ProgressPct: entities.StepProgress[entities.StepWebhookReceived],
		Logs: []entities.ProcessingLogEntry{{
			Timestamp: now,
			Step:      entities.StepWebhookReceived,
			Message:   "processing started",
		}},
		StartedAt: &now,
	}
	return sm.meetings.Update(ctx, meeting)
}

// Advance appends a log entry and moves the meeting to the given step.
// Regressing to a step with lower progress is rejected.
func (sm *StateMachine) Advance(ctx context.Context, meetingID uuid.UUID, step entities.ProcessingStep, message string, durationMs int64) error {
	target, ok := entities.StepProgress[step]
	if !ok || step == entities.StepFailed {
		return apperrors.ErrInvalidArgument("unknown processing step: " + string(step))
	}

	meeting, err := sm.load(ctx, meetingID)
	if err != nil {
		return err
	}
	if meeting.IsTerminal() {
		return apperrors.ErrInvalidArgument("meeting already terminal")
	}
	if target < meeting.Processing.ProgressPct {
		return apperrors.ErrInvalidArgument("step " + string(step) + " would regress progress")
	}

	meeting.Processing.Step = step
	meeting.Processing.ProgressPct = target
	meeting.Processing.Logs = append(meeting.Processing.Logs, entities.ProcessingLogEntry{
		Timestamp:  time.Now().UTC(),
		Step:       step,
		Message:    message,
		DurationMs: durationMs,
	})
	if step == entities.StepCompleted {
		now := time.Now().UTC()
		meeting.Processing.CompletedAt = &now
		meeting.Status = entities.MeetingStatusReady
	}
	return sm.meetings.Update(ctx, meeting)
}

// Complete moves the meeting to the completed step and marks it ready.
func (sm *StateMachine) Complete(ctx context.Context, meetingID uuid.UUID, durationMs int64) error {
	return sm.Advance(ctx, meetingID, entities.StepCompleted, "processing completed", durationMs)
}

// Fail terminally fails the meeting; progress resets to the failed value
// regardless of how far processing had advanced.
func (sm *StateMachine) Fail(ctx context.Context, meetingID uuid.UUID, failErr error) error {
	meeting, err := sm.load(ctx, meetingID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	msg := "unknown error"
	if failErr != nil {
		msg = failErr.Error()
	}
	meeting.Status = entities.MeetingStatusFailed
	meeting.Processing.Step = entities.StepFailed
	meeting.Processing.ProgressPct = entities.StepProgress[entities.StepFailed]
	meeting.Processing.LastError = msg
	meeting.Processing.CompletedAt = &now
	meeting.Processing.Logs = append(meeting.Processing.Logs, entities.ProcessingLogEntry{
		Timestamp: now,
		Step:      entities.StepFailed,
		Message:   msg,
	})

	sm.logger.Warn("meeting processing failed",
		zap.String("meeting_id", meetingID.String()),
		zap.String("error", msg))
	return sm.meetings.Update(ctx, meeting)
}

// EstimateRemaining projects time left for a meeting from the measured
// durations in its own log, falling back to fixed defaults per step. Best
// effort only, for display.
func EstimateRemaining(meeting *entities.Meeting) time.Duration {
	if meeting == nil || meeting.IsTerminal() {
		return 0
	}

	measured := map[entities.ProcessingStep]time.Duration{}
	for _, entry := range meeting.Processing.Logs {
		if entry.DurationMs > 0 {
			measured[entry.Step] = time.Duration(entry.DurationMs) * time.Millisecond
		}
	}

	var remaining time.Duration
	passed := false
	for _, step := range entities.StepOrder {
		if !passed {
			if step == meeting.Processing.Step {
				passed = true
			}
			continue
		}
		if d, ok := measured[step]; ok {
			remaining += d
		} else {
			remaining += defaultStepDuration[step]
		}
	}
	return remaining
}

func (sm *StateMachine) load(ctx context.Context, meetingID uuid.UUID) (*entities.Meeting, error) {
	meeting, err := sm.meetings.FindByID(ctx, meetingID)
	if err != nil {
		return nil, apperrors.ErrDBQuery(err)
	}
	if meeting == nil {
		return nil, apperrors.ErrNotFound("meeting")
	}
	return meeting, nil
}
