package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/usecase/pipeline"
	"github.com/johnquangdev/meeting-followup/pkg/config"
)

type memEventRepo struct {
	events map[uuid.UUID]*entities.RawEvent
}

func newMemEventRepo() *memEventRepo {
	return &memEventRepo{events: make(map[uuid.UUID]*entities.RawEvent)}
}

func (m *memEventRepo) Insert(_ context.Context, e *entities.RawEvent) (*entities.RawEvent, bool, error) {
	for _, existing := range m.events {
		if existing.Source == e.Source && existing.ExternalEventID == e.ExternalEventID {
			return existing, false, nil
		}
	}
	cp := *e
	m.events[e.ID] = &cp
	return e, true, nil
}

func (m *memEventRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.RawEvent, error) {
	e, ok := m.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (m *memEventRepo) Update(_ context.Context, e *entities.RawEvent) error {
	cp := *e
	m.events[e.ID] = &cp
	return nil
}

func (m *memEventRepo) ListByMeetingID(_ context.Context, meetingID uuid.UUID) ([]entities.RawEvent, error) {
	var out []entities.RawEvent
	for _, e := range m.events {
		if e.ResolvedMeetingID != nil && *e.ResolvedMeetingID == meetingID {
			out = append(out, *e)
		}
	}
	return out, nil
}

type memMeetingRepo struct {
	meetings map[uuid.UUID]*entities.Meeting
}

func newMemMeetingRepo() *memMeetingRepo {
	return &memMeetingRepo{meetings: make(map[uuid.UUID]*entities.Meeting)}
}

func (m *memMeetingRepo) Create(_ context.Context, meeting *entities.Meeting) (*entities.Meeting, bool, error) {
	for _, existing := range m.meetings {
		if existing.Platform == meeting.Platform && existing.PlatformExternalID == meeting.PlatformExternalID {
			return existing, false, nil
		}
	}
	cp := *meeting
	m.meetings[meeting.ID] = &cp
	return meeting, true, nil
}

func (m *memMeetingRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.Meeting, error) {
	meeting, ok := m.meetings[id]
	if !ok {
		return nil, nil
	}
	cp := *meeting
	return &cp, nil
}

func (m *memMeetingRepo) FindByPlatformExternalID(_ context.Context, platform entities.Platform, externalID string) (*entities.Meeting, error) {
	for _, meeting := range m.meetings {
		if meeting.Platform == platform && meeting.PlatformExternalID == externalID {
			cp := *meeting
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memMeetingRepo) Update(_ context.Context, meeting *entities.Meeting) error {
	cp := *meeting
	m.meetings[meeting.ID] = &cp
	return nil
}

func (m *memMeetingRepo) List(_ context.Context, accountID string, limit, offset int) ([]*entities.Meeting, int64, error) {
	var out []*entities.Meeting
	for _, meeting := range m.meetings {
		if accountID == "" || meeting.AccountID == accountID {
			cp := *meeting
			out = append(out, &cp)
		}
	}
	return out, int64(len(out)), nil
}

type memJobRepo struct {
	jobs map[uuid.UUID]*entities.ProcessingJob
}

func newMemJobRepo() *memJobRepo {
	return &memJobRepo{jobs: make(map[uuid.UUID]*entities.ProcessingJob)}
}

func (m *memJobRepo) Create(_ context.Context, j *entities.ProcessingJob) error {
	cp := *j
	m.jobs[j.ID] = &cp
	return nil
}

func (m *memJobRepo) FindByID(_ context.Context, id uuid.UUID) (*entities.ProcessingJob, error) {
	j, ok := m.jobs[id]
	if !ok {
		return nil, nil
	}
	cp := *j
	return &cp, nil
}

func (m *memJobRepo) FindNonTerminalByMeetingID(_ context.Context, meetingID uuid.UUID) (*entities.ProcessingJob, error) {
	for _, j := range m.jobs {
		if j.MeetingID == meetingID && !j.IsTerminal() {
			cp := *j
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memJobRepo) Claim(context.Context, int, time.Duration) ([]*entities.ProcessingJob, error) {
	return nil, nil
}

func (m *memJobRepo) MarkCompleted(_ context.Context, jobID uuid.UUID) error {
	m.jobs[jobID].State = entities.JobStateCompleted
	return nil
}

func (m *memJobRepo) Reschedule(_ context.Context, jobID uuid.UUID, availableAt time.Time, lastError string, consumeAttempt bool) error {
	j := m.jobs[jobID]
	j.State = entities.JobStateDelayed
	j.AvailableAt = availableAt
	return nil
}

func (m *memJobRepo) MarkFailed(_ context.Context, jobID uuid.UUID, lastError string) error {
	m.jobs[jobID].State = entities.JobStateFailed
	return nil
}

type memAccountRepo struct {
	accounts map[string]*entities.Account
}

func (m *memAccountRepo) FindByID(_ context.Context, id string) (*entities.Account, error) {
	return m.accounts[id], nil
}

func (m *memAccountRepo) FindByEmail(_ context.Context, email string) (*entities.Account, error) {
	for _, a := range m.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return nil, nil
}

func (m *memAccountRepo) Update(_ context.Context, account *entities.Account) error {
	m.accounts[account.ID] = account
	return nil
}

func (m *memAccountRepo) ListCalendarConnected(context.Context) ([]entities.Account, error) {
	var out []entities.Account
	for _, a := range m.accounts {
		if a.CalendarConnected {
			out = append(out, *a)
		}
	}
	return out, nil
}

type fixture struct {
	events   *memEventRepo
	meetings *memMeetingRepo
	jobs     *memJobRepo
	svc      *Service
	cfg      *config.PipelineConfig
}

func newFixture() *fixture {
	events := newMemEventRepo()
	meetings := newMemMeetingRepo()
	jobs := newMemJobRepo()
	cfg := &config.PipelineConfig{
		MaxRetries:        3,
		BackoffBase:       time.Second,
		VisibilityTimeout: 5 * time.Minute,
		MatchTolerance:    5 * time.Minute,
		PollLookback:      15 * time.Minute,
		MaxJobsPerRun:     10,
	}
	queue := pipeline.NewQueue(jobs, cfg, zap.NewNop())
	sm := pipeline.NewStateMachine(meetings, zap.NewNop())
	return &fixture{
		events:   events,
		meetings: meetings,
		jobs:     jobs,
		svc:      NewService(events, meetings, queue, sm, zap.NewNop()),
		cfg:      cfg,
	}
}

func endedEvent(externalEventID, platformExternalID string) entities.MeetingEvent {
	return entities.MeetingEvent{
		Source:             entities.EventSourceZoomWebhook,
		ExternalEventID:    externalEventID,
		Type:               entities.MeetingEventEnded,
		Platform:           entities.PlatformZoom,
		PlatformExternalID: platformExternalID,
		AccountID:          "acct-1",
		HostIdentity:       "host@example.com",
		Topic:              "Roadmap review",
		StartTime:          time.Now().Add(-time.Hour),
		EndTime:            time.Now().Add(-5 * time.Minute),
	}
}
