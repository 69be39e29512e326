package pipeline

import (
	"context"
	"testing"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

type stubAcquirer struct {
	err error
}

func (s *stubAcquirer) Acquire(_ context.Context, meeting *entities.Meeting, progress func(entities.ProcessingStep, string, int64)) (*entities.Transcript, error) {
	if s.err != nil {
		return nil, s.err
	}
	progress(entities.StepTranscriptParse, "parsed captions", 12)
	progress(entities.StepTranscriptStored, "transcript stored", 3)
	t := entities.NewTranscript(meeting.ID)
	t.Status = entities.TranscriptStatusReady
	t.NormalizedText = "hello world"
	t.WordCount = 2
	return t, nil
}

type stubOrchestrator struct {
	err    error
	drafts []*entities.Draft
}

func (s *stubOrchestrator) GenerateForMeeting(_ context.Context, meeting *entities.Meeting, _ *entities.Transcript) (*entities.Draft, error) {
	if s.err != nil {
		return nil, s.err
	}
	d := entities.NewDraft(meeting.ID, "Follow-up: "+meeting.Topic, "Thanks everyone.")
	s.drafts = append(s.drafts, d)
	return d, nil
}

type processorHarness struct {
	meetings    *fakeMeetingRepo
	events      *fakeEventRepo
	transcripts *fakeTranscriptRepo
	proc        *Processor
	meeting     *entities.Meeting
	job         *entities.ProcessingJob
}

func newProcessorHarness(t *testing.T, acq *stubAcquirer, orch *stubOrchestrator) *processorHarness {
	t.Helper()
	meetings := newFakeMeetingRepo()
	events := newFakeEventRepo()
	transcripts := newFakeTranscriptRepo()
	sm := NewStateMachine(meetings, zap.NewNop())

	ctx := context.Background()
	meeting := testMeeting()
	meetings.Create(ctx, meeting)

	event := entities.NewRawEvent(entities.EventSourceZoomWebhook, "evt-1", string(entities.MeetingEventEnded), nil)
	events.Insert(ctx, event)

	job := entities.NewProcessingJob(meeting.ID, event.ID, 3)

	return &processorHarness{
		meetings:    meetings,
		events:      events,
		transcripts: transcripts,
		proc:        NewProcessor(meetings, events, transcripts, sm, acq, orch, zap.NewNop()),
		meeting:     meeting,
		job:         job,
	}
}

func TestProcessorHappyPath(t *testing.T) {
	orch := &stubOrchestrator{}
	h := newProcessorHarness(t, &stubAcquirer{}, orch)
	ctx := context.Background()

	if err := h.proc.Process(ctx, h.job); err != nil {
		t.Fatalf("process: %v", err)
	}

	meeting, _ := h.meetings.FindByID(ctx, h.meeting.ID)
	if meeting.Status != entities.MeetingStatusReady {
		t.Fatalf("status = %s, want ready", meeting.Status)
	}
	if meeting.Processing.ProgressPct != 100 {
		t.Fatalf("progress = %d, want 100", meeting.Processing.ProgressPct)
	}
	if len(orch.drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(orch.drafts))
	}
	if orch.drafts[0].Subject == "" || orch.drafts[0].Body == "" {
		t.Fatal("draft has empty subject or body")
	}

	event, _ := h.events.FindByID(ctx, h.job.RawEventID)
	if event.Status != entities.RawEventStatusProcessed {
		t.Fatalf("event status = %s, want processed", event.Status)
	}
	if event.ResolvedMeetingID == nil || *event.ResolvedMeetingID != h.meeting.ID {
		t.Fatal("event not resolved to meeting")
	}
}

func TestProcessorReadyMeetingIsNoOp(t *testing.T) {
	orch := &stubOrchestrator{}
	h := newProcessorHarness(t, &stubAcquirer{}, orch)
	ctx := context.Background()

	h.meeting.Status = entities.MeetingStatusReady
	h.meetings.Update(ctx, h.meeting)

	if err := h.proc.Process(ctx, h.job); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(orch.drafts) != 0 {
		t.Fatal("replayed job generated a duplicate draft")
	}
}

func TestProcessorPropagatesAcquireError(t *testing.T) {
	h := newProcessorHarness(t, &stubAcquirer{err: apperrors.ErrTranscriptFetch(context.DeadlineExceeded)}, &stubOrchestrator{})
	ctx := context.Background()

	err := h.proc.Process(ctx, h.job)
	if err == nil {
		t.Fatal("expected error")
	}
	if !apperrors.IsTransient(err) {
		t.Fatalf("error lost its transient class: %v", err)
	}
}

func TestProcessorRetriesAfterTransientDraftFailure(t *testing.T) {
	orch := &stubOrchestrator{err: apperrors.ErrExternalAPI("llm", context.DeadlineExceeded)}
	h := newProcessorHarness(t, &stubAcquirer{}, orch)
	ctx := context.Background()

	err := h.proc.Process(ctx, h.job)
	if !apperrors.IsTransient(err) {
		t.Fatalf("first attempt error = %v, want transient", err)
	}

	meeting, _ := h.meetings.FindByID(ctx, h.meeting.ID)
	if meeting.Processing.Step != entities.StepDraftGeneration {
		t.Fatalf("step after first attempt = %s, want draft_generation", meeting.Processing.Step)
	}

	orch.err = nil
	if err := h.proc.Process(ctx, h.job); err != nil {
		t.Fatalf("retry attempt: %v", err)
	}

	meeting, _ = h.meetings.FindByID(ctx, h.meeting.ID)
	if meeting.Status != entities.MeetingStatusReady {
		t.Fatalf("status after retry = %s, want ready", meeting.Status)
	}
	if meeting.Processing.ProgressPct != 100 {
		t.Fatalf("progress after retry = %d, want 100", meeting.Processing.ProgressPct)
	}
	if len(orch.drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(orch.drafts))
	}
}

func TestProcessorSkipsAcquisitionWhenTranscriptReady(t *testing.T) {
	orch := &stubOrchestrator{}
	h := newProcessorHarness(t, &stubAcquirer{err: apperrors.ErrTranscriptAbsent()}, orch)
	ctx := context.Background()

	tr := entities.NewTranscript(h.meeting.ID)
	tr.Status = entities.TranscriptStatusReady
	tr.NormalizedText = "stored on an earlier attempt"
	h.transcripts.Upsert(ctx, tr)

	if err := h.proc.Process(ctx, h.job); err != nil {
		t.Fatalf("process: %v", err)
	}

	meeting, _ := h.meetings.FindByID(ctx, h.meeting.ID)
	if meeting.Status != entities.MeetingStatusReady {
		t.Fatalf("status = %s, want ready", meeting.Status)
	}
	if len(orch.drafts) != 1 {
		t.Fatalf("drafts = %d, want 1", len(orch.drafts))
	}
}

func TestProcessorQuotaBlockParksMeeting(t *testing.T) {
	h := newProcessorHarness(t, &stubAcquirer{}, &stubOrchestrator{err: apperrors.ErrQuotaExceeded(10, 10)})
	ctx := context.Background()

	err := h.proc.Process(ctx, h.job)
	if !apperrors.IsQuotaExceeded(err) {
		t.Fatalf("expected quota error, got %v", err)
	}

	meeting, _ := h.meetings.FindByID(ctx, h.meeting.ID)
	if meeting.Status != entities.MeetingStatusPending {
		t.Fatalf("status = %s, want pending (parked)", meeting.Status)
	}
	if meeting.Status == entities.MeetingStatusFailed {
		t.Fatal("quota block must not fail the meeting")
	}
}

func TestProcessorPermanentFailurePropagation(t *testing.T) {
	h := newProcessorHarness(t, &stubAcquirer{}, &stubOrchestrator{})
	ctx := context.Background()

	h.transcripts.Upsert(ctx, entities.NewTranscript(h.meeting.ID))

	h.proc.OnPermanentFailure(ctx, h.job, apperrors.ErrTranscriptAbsent())

	meeting, _ := h.meetings.FindByID(ctx, h.meeting.ID)
	if meeting.Status != entities.MeetingStatusFailed {
		t.Fatalf("status = %s, want failed", meeting.Status)
	}
	if meeting.Processing.LastError == "" {
		t.Fatal("lastError not captured")
	}

	transcript, _ := h.transcripts.FindByMeetingID(ctx, h.meeting.ID)
	if transcript.Status != entities.TranscriptStatusFailed {
		t.Fatalf("transcript status = %s, want failed", transcript.Status)
	}

	event, _ := h.events.FindByID(ctx, h.job.RawEventID)
	if event.Status != entities.RawEventStatusFailed {
		t.Fatalf("event status = %s, want failed", event.Status)
	}
}

func TestProcessorDraftFailureLeavesReadyTranscriptIntact(t *testing.T) {
	h := newProcessorHarness(t, &stubAcquirer{}, &stubOrchestrator{})
	ctx := context.Background()

	tr := entities.NewTranscript(h.meeting.ID)
	tr.Status = entities.TranscriptStatusReady
	tr.NormalizedText = "kept"
	h.transcripts.Upsert(ctx, tr)

	h.proc.OnPermanentFailure(ctx, h.job, apperrors.ErrDraftParse(context.Canceled))

	transcript, _ := h.transcripts.FindByMeetingID(ctx, h.meeting.ID)
	if transcript.Status != entities.TranscriptStatusReady {
		t.Fatalf("ready transcript was invalidated: %s", transcript.Status)
	}
	if transcript.NormalizedText != "kept" {
		t.Fatal("transcript content was modified")
	}
}
