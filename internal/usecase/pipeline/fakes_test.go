package pipeline

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

type fakeMeetingRepo struct {
	meetings map[uuid.UUID]*entities.Meeting
}

func newFakeMeetingRepo() *fakeMeetingRepo {
	return &fakeMeetingRepo{meetings: make(map[uuid.UUID]*entities.Meeting)}
}

func (f *fakeMeetingRepo) Create(_ context.Context, m *entities.Meeting) (*entities.Meeting, bool, error) {
	for _, existing := range f.meetings {
		if existing.Platform == m.Platform && existing.PlatformExternalID == m.PlatformExternalID {
			return existing, false, nil
		}
	}
	cp := *m
	f.meetings[m.ID] = &cp
	return m, true, nil
}

func (f *fakeMeetingRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	m, ok := f.meetings[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *fakeMeetingRepo) FindByPlatformExternalID(_ context.Context, platform entities.Platform, externalID string) (*entities.Meeting, error) {
	for _, m := range f.meetings {
		if m.Platform == platform && m.PlatformExternalID == externalID {
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeMeetingRepo) Update(_ context.Context, m *entities.Meeting) error {
	cp := *m
	f.meetings[m.ID] = &cp
	return nil
}

func (f *fakeMeetingRepo) List(_ context.Context, accountID string, limit, offset int) ([]*entities.Meeting, int64, error) {
	var out []*entities.Meeting
	for _, m := range f.meetings {
		if accountID == "" || m.AccountID == accountID {
			cp := *m
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

type fakeJobRepo struct {
	jobs map[uuid.UUID]*entities.ProcessingJob
}

func newFakeJobRepo() *fakeJobRepo {
	return &fakeJobRepo{jobs: make(map[uuid.UUID]*entities.ProcessingJob)}
}

func (f *fakeJobRepo) Create(_ context.Context, j *entities.ProcessingJob) error {
	cp := *j
	f.jobs[j.ID] = &cp
	return nil
}

func (f *fakeJobRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.ProcessingJob, error) {
	j, ok := f.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (f *fakeJobRepo) FindNonTerminalByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.ProcessingJob, error) {
	for _, j := range f.jobs {
		if j.MeetingID == meetingID && !j.IsTerminal() {
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeJobRepo) Claim(_ context.Context, limit int, visibilityTimeout time.Duration) ([]*entities.ProcessingJob, error) {
	now := time.Now().UTC()
	var due []*entities.ProcessingJob
	for _, j := range f.jobs {
		waiting := (j.State == entities.JobStateWaiting || j.State == entities.JobStateDelayed) && !j.AvailableAt.After(now)
		expired := j.State == entities.JobStateActive && j.ClaimExpiresAt != nil && !j.ClaimExpiresAt.After(now)
		if waiting || expired {
			due = append(due, j)
		}
	}
	sort.Slice(due, func(a, b int) bool { return due[a].AvailableAt.Before(due[b].AvailableAt) })
	if len(due) > limit {
		due = due[:limit]
	}

	deadline := now.Add(visibilityTimeout)
	out := make([]*entities.ProcessingJob, 0, len(due))
	for _, j := range due {
		j.State = entities.JobStateActive
		j.ClaimExpiresAt = &deadline
		if j.StartedAt == nil {
			j.StartedAt = &now
		}
		cp := *j
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeJobRepo) MarkCompleted(_ context.Context, jobID uuid.UUID) error {
	j := f.jobs[jobID]
	now := time.Now().UTC()
	j.State = entities.JobStateCompleted
	j.CompletedAt = &now
	j.ClaimExpiresAt = nil
	j.LastError = ""
	return nil
}

func (f *fakeJobRepo) Reschedule(_ context.Context, jobID uuid.UUID, availableAt time.Time, lastError string, consumeAttempt bool) error {
	j := f.jobs[jobID]
	j.State = entities.JobStateDelayed
	j.AvailableAt = availableAt
	j.ClaimExpiresAt = nil
	j.LastError = lastError
	if consumeAttempt {
		j.AttemptsMade++
	}
	return nil
}

func (f *fakeJobRepo) MarkFailed(_ context.Context, jobID uuid.UUID, lastError string) error {
	j := f.jobs[jobID]
	now := time.Now().UTC()
	j.State = entities.JobStateFailed
	j.AttemptsMade++
	j.CompletedAt = &now
	j.ClaimExpiresAt = nil
	j.LastError = lastError
	return nil
}

type fakeEventRepo struct {
	events map[uuid.UUID]*entities.RawEvent
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uuid.UUID]*entities.RawEvent)}
}

func (f *fakeEventRepo) Insert(_ context.Context, e *entities.RawEvent) (*entities.RawEvent, bool, error) {
	for _, existing := range f.events {
		if existing.Source == e.Source && existing.ExternalEventID == e.ExternalEventID {
			return existing, false, nil
		}
	}
	cp := *e
	f.events[e.ID] = &cp
	return e, true, nil
}

func (f *fakeEventRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.RawEvent, error) {
	e, ok := f.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) Update(_ context.Context, e *entities.RawEvent) error {
	cp := *e
	f.events[e.ID] = &cp
	return nil
}

func (f *fakeEventRepo) ListByMeetingID(_ context.Context, meetingID uuid.UUID) ([]entities.RawEvent, error) {
	var out []entities.RawEvent
	for _, e := range f.events {
		if e.ResolvedMeetingID != nil && *e.ResolvedMeetingID == meetingID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type fakeTranscriptRepo struct {
	transcripts map[uuid.UUID]*entities.Transcript
}

func newFakeTranscriptRepo() *fakeTranscriptRepo {
	return &fakeTranscriptRepo{transcripts: make(map[uuid.UUID]*entities.Transcript)}
}

func (f *fakeTranscriptRepo) Upsert(_ context.Context, t *entities.Transcript) error {
	cp := *t
	f.transcripts[t.MeetingID] = &cp
	return nil
}

func (f *fakeTranscriptRepo) FindByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.Transcript, error) {
	t, ok := f.transcripts[meetingID]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTranscriptRepo) RecordFetchFailure(_ context.Context, meetingID uuid.UUID, fetchErr string, failed bool) error {
	t, ok := f.transcripts[meetingID]
	if !ok {
		nt := entities.NewTranscript(meetingID)
		nt.FetchAttempts = 1
		nt.LastFetchError = fetchErr
		if failed {
			nt.Status = entities.TranscriptStatusFailed
		}
		f.transcripts[meetingID] = nt
		return nil
	}
	t.FetchAttempts++
	t.LastFetchError = fetchErr
	if failed {
		t.Status = entities.TranscriptStatusFailed
	}
	return nil
}

func testMeeting() *entities.Meeting {
	return entities.NewMeeting(entities.MeetingEvent{
		Source:             entities.EventSourceZoomWebhook,
		ExternalEventID:    "evt-" + uuid.NewString(),
		Type:               entities.MeetingEventEnded,
		Platform:           entities.PlatformZoom,
		PlatformExternalID: "zoom-" + uuid.NewString(),
		AccountID:          "acct-1",
		HostIdentity:       "host@example.com",
		Topic:              "Weekly sync",
		StartTime:          time.Now().Add(-time.Hour),
		EndTime:            time.Now(),
	})
}
