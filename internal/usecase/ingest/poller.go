package ingest

import (
	"context"
	"regexp"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/domain/repositories"
	"github.com/johnquangdev/meeting-followup/internal/usecase/transcript"
	"github.com/johnquangdev/meeting-followup/pkg/config"
)

// CalendarEvent is one scheduled event from the calendar provider.
type CalendarEvent struct {
	ID             string
	Summary        string
	Start          time.Time
	End            time.Time
	JoinURL        string
	ConferenceURIs []string
}

// CalendarClient lists recently ended calendar events for an account.
type CalendarClient interface {
	ListEndedEvents(ctx context.Context, accountID string, since time.Time) ([]CalendarEvent, error)
}

// ConferenceRecord is the conferencing platform's own session object,
// distinct from the calendar's scheduled event.
type ConferenceRecord struct {
	ExternalID   string
	Code         string
	Platform     entities.Platform
	Topic        string
	HostIdentity string
	StartTime    time.Time
	EndTime      time.Time
	RecordingURL string
}

// ConferenceClient looks up session records by meeting code.
type ConferenceClient interface {
	FindRecordsByCode(ctx context.Context, code string) ([]ConferenceRecord, error)
}

// PollCursor remembers each account's last successful poll so overlapping
// invocations do not re-scan the full lookback window. The pipeline stays
// idempotent without it; the cursor only saves API calls.
type PollCursor interface {
	GetLastPoll(ctx context.Context, accountID string) (time.Time, error)
	SetLastPoll(ctx context.Context, accountID string, t time.Time) error
}

// PollResult summarizes one reconciliation run.
type PollResult struct {
	AccountsPolled    int `json:"accounts_polled"`
	CandidatesSeen    int `json:"candidates_seen"`
	EventsSynthesized int `json:"events_synthesized"`
	NotYetReady       int `json:"not_yet_ready"`
	AlreadyKnown      int `json:"already_known"`
}

// Poller reconciles calendar events with conference records for platforms
// without reliable push notifications. It is purely a source adapter: once
// content is ready it synthesizes a RawEvent through the ingestion
// chokepoint and owns no downstream logic.
type Poller struct {
	accounts   repositories.AccountRepository
	meetings   repositories.MeetingRepository
	calendar   CalendarClient
	conference ConferenceClient
	sources    []transcript.Source
	ingest     *Service
	cursor     PollCursor
	cfg        *config.PipelineConfig
	logger     *zap.Logger
	now        func() time.Time
}

// NewPoller constructs a reconciliation poller. The readiness cascade uses
// the same source chain, in the same priority order, as the transcript
// acquirer. cursor may be nil.
func NewPoller(
	accounts repositories.AccountRepository,
	meetings repositories.MeetingRepository,
	calendar CalendarClient,
	conference ConferenceClient,
	sources []transcript.Source,
	ingest *Service,
	cursor PollCursor,
	cfg *config.PipelineConfig,
	logger *zap.Logger,
) *Poller {
	return &Poller{
		accounts:   accounts,
		meetings:   meetings,
		calendar:   calendar,
		conference: conference,
		sources:    sources,
		ingest:     ingest,
		cursor:     cursor,
		cfg:        cfg,
		logger:     logger,
		now:        time.Now,
	}
}

// Run executes one reconciliation pass over every calendar-connected
// account. Each invocation is self-contained and idempotent.
func (p *Poller) Run(ctx context.Context) (*PollResult, error) {
	accounts, err := p.accounts.ListCalendarConnected(ctx)
	if err != nil {
		return nil, err
	}

	result := &PollResult{}
	for i := range accounts {
		p.pollAccount(ctx, &accounts[i], result)
		result.AccountsPolled++
	}
	return result, nil
}

func (p *Poller) pollAccount(ctx context.Context, account *entities.Account, result *PollResult) {
	now := p.now().UTC()
	since := now.Add(-p.cfg.PollLookback)
	if p.cursor != nil {
		if last, err := p.cursor.GetLastPoll(ctx, account.ID); err == nil && last.After(since) {
			since = last
		}
	}

	events, err := p.calendar.ListEndedEvents(ctx, account.ID, since)
	if err != nil {
		p.logger.Warn("calendar listing failed",
			zap.String("account_id", account.ID), zap.Error(err))
		return
	}

	for _, ev := range events {
		result.CandidatesSeen++
		p.reconcile(ctx, account, ev, result)
	}

	if p.cursor != nil {
		// Leave a one-tolerance overlap so boundary events are seen twice
		// rather than never. Dedup makes the overlap harmless.
		if err := p.cursor.SetLastPoll(ctx, account.ID, now.Add(-p.cfg.MatchTolerance)); err != nil {
			p.logger.Warn("failed to store poll cursor",
				zap.String("account_id", account.ID), zap.Error(err))
		}
	}
}

func (p *Poller) reconcile(ctx context.Context, account *entities.Account, ev CalendarEvent, result *PollResult) {
	code := ExtractMeetingCode(ev)
	if code == "" {
		return
	}

	records, err := p.conference.FindRecordsByCode(ctx, code)
	if err != nil {
		p.logger.Warn("conference record lookup failed",
			zap.String("code", code), zap.Error(err))
		return
	}
	record := MatchConferenceRecord(records, ev.Start, ev.End, p.cfg.MatchTolerance)
	if record == nil {
		return
	}

	existing, err := p.meetings.FindByPlatformExternalID(ctx, record.Platform, record.ExternalID)
	if err != nil {
		p.logger.Warn("meeting lookup failed", zap.Error(err))
		return
	}
	if existing != nil {
		result.AlreadyKnown++
		return
	}

	if !p.contentReady(ctx, record, account) {
		result.NotYetReady++
		return
	}

	_, err = p.ingest.Ingest(ctx, entities.MeetingEvent{
		Source:             entities.EventSourceCalendarPoll,
		ExternalEventID:    "conference-record:" + record.ExternalID,
		Type:               entities.MeetingEventTranscriptReady,
		Platform:           record.Platform,
		PlatformExternalID: record.ExternalID,
		AccountID:          account.ID,
		HostIdentity:       record.HostIdentity,
		Topic:              pickTopic(record.Topic, ev.Summary),
		StartTime:          record.StartTime,
		EndTime:            record.EndTime,
		RecordingURL:       record.RecordingURL,
	}, map[string]interface{}{
		"calendar_event_id": ev.ID,
		"meeting_code":      code,
	})
	if err != nil {
		p.logger.Error("failed to ingest synthesized event",
			zap.String("record_id", record.ExternalID), zap.Error(err))
		return
	}
	result.EventsSynthesized++
}

// contentReady probes the source chain against a candidate meeting built
// from the conference record. The chain order matches the acquirer, so the
// poller never admits a meeting the acquirer could not serve.
func (p *Poller) contentReady(ctx context.Context, record *ConferenceRecord, account *entities.Account) bool {
	candidate := &entities.Meeting{
		Platform:           record.Platform,
		PlatformExternalID: record.ExternalID,
		AccountID:          account.ID,
		Topic:              record.Topic,
		StartTime:          record.StartTime,
		EndTime:            record.EndTime,
		RecordingURL:       record.RecordingURL,
	}
	for _, source := range p.sources {
		res, err := source.TryFetch(ctx, candidate)
		if err != nil {
			p.logger.Debug("readiness probe error",
				zap.String("source", source.Name()), zap.Error(err))
			continue
		}
		if res.Outcome == transcript.FetchReady {
			return true
		}
	}
	return false
}

var (
	meetStyleCode = regexp.MustCompile(`\b[a-z]{3}-[a-z]{4}-[a-z]{3}\b`)
	zoomJoinCode  = regexp.MustCompile(`zoom\.us/j/(\d{9,11})`)
)

// ExtractMeetingCode pulls a meeting-join code out of a calendar event,
// checking the primary join link first, then nested conference-entry URIs.
func ExtractMeetingCode(ev CalendarEvent) string {
	candidates := append([]string{ev.JoinURL}, ev.ConferenceURIs...)
	for _, uri := range candidates {
		if uri == "" {
			continue
		}
		if m := zoomJoinCode.FindStringSubmatch(uri); m != nil {
			return m[1]
		}
		if m := meetStyleCode.FindString(uri); m != "" {
			return m
		}
	}
	return ""
}

// MatchConferenceRecord selects the record whose actual timing lines up
// with the calendar event. Start and end boundaries are checked
// independently: scheduled and actual times are recorded by different
// systems and drift, so one aligned boundary is enough.
func MatchConferenceRecord(records []ConferenceRecord, calStart, calEnd time.Time, tolerance time.Duration) *ConferenceRecord {
	for i := range records {
		startDiff := absDuration(records[i].StartTime.Sub(calStart))
		endDiff := absDuration(records[i].EndTime.Sub(calEnd))
		if startDiff <= tolerance || endDiff <= tolerance {
			return &records[i]
		}
	}
	return nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

func pickTopic(recordTopic, calendarSummary string) string {
	if recordTopic != "" {
		return recordTopic
	}
	return calendarSummary
}
