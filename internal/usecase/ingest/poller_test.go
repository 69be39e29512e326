package ingest

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/usecase/transcript"
)

func TestExtractMeetingCode(t *testing.T) {
	cases := []struct {
		name string
		ev   CalendarEvent
		want string
	}{
		{
			"zoom join url",
			CalendarEvent{JoinURL: "https://zoom.us/j/9876543210?pwd=abc"},
			"9876543210",
		},
		{
			"meet style code in conference uri",
			CalendarEvent{ConferenceURIs: []string{"https://meet.example.com/abc-defg-hij"}},
			"abc-defg-hij",
		},
		{
			"primary link wins over nested uris",
			CalendarEvent{
				JoinURL:        "https://zoom.us/j/111222333",
				ConferenceURIs: []string{"https://meet.example.com/abc-defg-hij"},
			},
			"111222333",
		},
		{
			"no recognizable code",
			CalendarEvent{JoinURL: "https://example.com/some-doc", ConferenceURIs: []string{"tel:+15551234567"}},
			"",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ExtractMeetingCode(tc.ev); got != tc.want {
				t.Fatalf("got %q, want %q", got, tc.want)
			}
		})
	}
}

func TestMatchConferenceRecordIndependentBoundaries(t *testing.T) {
	calStart := time.Date(2026, 8, 30, 10, 0, 0, 0, time.UTC)
	calEnd := calStart.Add(time.Hour)
	tolerance := 5 * time.Minute

	// Start within tolerance, end drifted well past it: must match.
	matched := MatchConferenceRecord([]ConferenceRecord{{
		ExternalID: "rec-1",
		StartTime:  calStart.Add(4 * time.Minute),
		EndTime:    calEnd.Add(10 * time.Minute),
	}}, calStart, calEnd, tolerance)
	if matched == nil {
		t.Fatal("record with one aligned boundary did not match")
	}

	// End within tolerance, start drifted: must also match.
	matched = MatchConferenceRecord([]ConferenceRecord{{
		ExternalID: "rec-2",
		StartTime:  calStart.Add(-20 * time.Minute),
		EndTime:    calEnd.Add(-3 * time.Minute),
	}}, calStart, calEnd, tolerance)
	if matched == nil {
		t.Fatal("record with aligned end boundary did not match")
	}

	// Both boundaries beyond tolerance: must not match.
	matched = MatchConferenceRecord([]ConferenceRecord{{
		ExternalID: "rec-3",
		StartTime:  calStart.Add(6 * time.Minute),
		EndTime:    calEnd.Add(7 * time.Minute),
	}}, calStart, calEnd, tolerance)
	if matched != nil {
		t.Fatalf("record with both boundaries drifted matched: %s", matched.ExternalID)
	}
}

type stubCalendar struct {
	events []CalendarEvent
}

func (s *stubCalendar) ListEndedEvents(context.Context, string, time.Time) ([]CalendarEvent, error) {
	return s.events, nil
}

type stubConference struct {
	records map[string][]ConferenceRecord
}

func (s *stubConference) FindRecordsByCode(_ context.Context, code string) ([]ConferenceRecord, error) {
	return s.records[code], nil
}

type readinessSource struct {
	ready bool
}

func (s *readinessSource) Name() string { return "probe" }

func (s *readinessSource) TryFetch(context.Context, *entities.Meeting) (*transcript.FetchResult, error) {
	if s.ready {
		return &transcript.FetchResult{Outcome: transcript.FetchReady, Content: "text"}, nil
	}
	return &transcript.FetchResult{Outcome: transcript.FetchNotReady}, nil
}

func pollerFixture(f *fixture, cal *stubCalendar, conf *stubConference, ready bool) *Poller {
	accounts := &memAccountRepo{accounts: map[string]*entities.Account{
		"acct-1": {ID: "acct-1", Plan: entities.PlanTierFree, CalendarConnected: true},
	}}
	return NewPoller(
		accounts, f.meetings, cal, conf,
		[]transcript.Source{&readinessSource{ready: ready}},
		f.svc, nil, f.cfg, zap.NewNop(),
	)
}

func TestPollerSynthesizesEventWhenContentReady(t *testing.T) {
	f := newFixture()
	end := time.Now().Add(-10 * time.Minute)
	cal := &stubCalendar{events: []CalendarEvent{{
		ID:      "cal-1",
		Summary: "Design review",
		Start:   end.Add(-time.Hour),
		End:     end,
		JoinURL: "https://meet.example.com/abc-defg-hij",
	}}}
	conf := &stubConference{records: map[string][]ConferenceRecord{
		"abc-defg-hij": {{
			ExternalID: "room-uuid-1",
			Code:       "abc-defg-hij",
			Platform:   entities.PlatformLiveKit,
			StartTime:  end.Add(-time.Hour).Add(2 * time.Minute),
			EndTime:    end.Add(time.Minute),
		}},
	}}

	p := pollerFixture(f, cal, conf, true)
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.EventsSynthesized != 1 {
		t.Fatalf("synthesized = %d, want 1: %+v", res.EventsSynthesized, res)
	}

	meeting, _ := f.meetings.FindByPlatformExternalID(context.Background(), entities.PlatformLiveKit, "room-uuid-1")
	if meeting == nil {
		t.Fatal("synthesized event did not create a meeting")
	}
	if len(f.jobs.jobs) != 1 {
		t.Fatalf("jobs = %d, want 1", len(f.jobs.jobs))
	}

	// Second pass over the same window: the meeting exists, nothing new.
	res, err = p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.EventsSynthesized != 0 || res.AlreadyKnown != 1 {
		t.Fatalf("repeat run not idempotent: %+v", res)
	}
	if len(f.meetings.meetings) != 1 || len(f.jobs.jobs) != 1 {
		t.Fatal("repeat run duplicated state")
	}
}

func TestPollerDefersWhenContentNotReady(t *testing.T) {
	f := newFixture()
	end := time.Now().Add(-10 * time.Minute)
	cal := &stubCalendar{events: []CalendarEvent{{
		ID:      "cal-1",
		Start:   end.Add(-time.Hour),
		End:     end,
		JoinURL: "https://meet.example.com/abc-defg-hij",
	}}}
	conf := &stubConference{records: map[string][]ConferenceRecord{
		"abc-defg-hij": {{
			ExternalID: "room-uuid-1",
			Platform:   entities.PlatformLiveKit,
			StartTime:  end.Add(-time.Hour),
			EndTime:    end,
		}},
	}}

	p := pollerFixture(f, cal, conf, false)
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.NotYetReady != 1 || res.EventsSynthesized != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(f.meetings.meetings) != 0 {
		t.Fatal("not-ready candidate created a meeting")
	}
}

func TestPollerSkipsEventsWithoutCode(t *testing.T) {
	f := newFixture()
	cal := &stubCalendar{events: []CalendarEvent{{
		ID:      "cal-1",
		JoinURL: "https://example.com/not-a-meeting",
	}}}
	conf := &stubConference{}

	p := pollerFixture(f, cal, conf, true)
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if res.CandidatesSeen != 1 || res.EventsSynthesized != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
}
