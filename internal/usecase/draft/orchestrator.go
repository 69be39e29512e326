package draft

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/domain/repositories"
)

// maxTranscriptChars bounds the transcript text sent to the model.
const maxTranscriptChars = 24000

const systemPrompt = `You write follow-up emails for meetings. Given a meeting transcript and metadata, respond with a single JSON object using exactly these fields:
{"summary": string, "topics": [string], "decisions": [string], "subject": string, "body": string, "action_items": [{"title": string, "owner": string, "due_hint": string, "priority": string}], "detected_type": string, "tone": string}
The body is the complete email text. Match the requested tone. Respond with JSON only, no surrounding prose.`

// Generator is the external AI collaborator. Only the request/response
// contract matters here.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Orchestrator turns a ready transcript into a persisted email draft:
// quota gate, generation request, schema (or degraded) parse, persistence.
type Orchestrator struct {
	drafts   repositories.DraftRepository
	accounts repositories.AccountRepository
	quota    *QuotaService
	llm      Generator
	logger   *zap.Logger
}

// NewOrchestrator constructs a draft orchestrator
func NewOrchestrator(
	drafts repositories.DraftRepository,
	accounts repositories.AccountRepository,
	quota *QuotaService,
	llm Generator,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		drafts:   drafts,
		accounts: accounts,
		quota:    quota,
		llm:      llm,
		logger:   logger,
	}
}

// GenerateForMeeting generates and persists a follow-up draft. A quota
// block returns ErrQuotaExceeded without touching the external service.
func (o *Orchestrator) GenerateForMeeting(ctx context.Context, meeting *entities.Meeting, transcript *entities.Transcript) (*entities.Draft, error) {
	if transcript == nil || transcript.Status != entities.TranscriptStatusReady {
		return nil, apperrors.ErrInvalidArgument("transcript is not ready")
	}

	account, err := o.accounts.FindByID(ctx, meeting.AccountID)
	if err != nil {
		return nil, apperrors.ErrDBQuery(err)
	}

	status, err := o.quota.Check(ctx, account)
	if err != nil {
		return nil, err
	}
	if !status.Allowed {
		o.logger.Info("draft generation blocked by quota",
			zap.String("account_id", meeting.AccountID),
			zap.Int("used", status.Used),
			zap.Int("limit", status.Limit))
		return nil, apperrors.ErrQuotaExceeded(status.Used, status.Limit)
	}

	response, err := o.llm.Generate(ctx, systemPrompt, buildUserPrompt(meeting, transcript, account))
	if err != nil {
		return nil, apperrors.ErrDraftGeneration(err)
	}

	parsed, degraded, err := ParseResponse(response)
	if err != nil {
		return nil, err
	}
	if degraded {
		o.logger.Warn("generation response degraded to subject/body parse",
			zap.String("meeting_id", meeting.ID.String()))
	}

	d := entities.NewDraft(meeting.ID, parsed.Subject, parsed.Body)
	d.Summary = parsed.Summary
	d.Topics = parsed.Topics
	d.Decisions = parsed.Decisions
	d.ActionItems = parsed.ActionItems
	d.DetectedType = parsed.DetectedType
	d.Tone = parsed.Tone
	d.Degraded = degraded
	d.RawResponse = datatypes.NewJSONType(map[string]interface{}{"response": response})

	if err := o.drafts.Create(ctx, d); err != nil {
		return nil, apperrors.ErrDBQuery(err)
	}
	o.quota.Consume(ctx, account)
	return d, nil
}

func buildUserPrompt(meeting *entities.Meeting, transcript *entities.Transcript, account *entities.Account) string {
	tone := "professional"
	if account != nil && account.TonePreference != "" {
		tone = account.TonePreference
	}

	text := truncateOnRuneBoundary(transcript.NormalizedText, maxTranscriptChars)

	var b strings.Builder
	fmt.Fprintf(&b, "Meeting: %s\n", meeting.Topic)
	fmt.Fprintf(&b, "Host: %s\n", meeting.HostIdentity)
	fmt.Fprintf(&b, "Start: %s\nEnd: %s\n", meeting.StartTime.Format("2006-01-02 15:04 MST"), meeting.EndTime.Format("2006-01-02 15:04 MST"))
	fmt.Fprintf(&b, "Requested tone: %s\n", tone)
	if hint := detectMeetingType(meeting.Topic); hint != "" {
		fmt.Fprintf(&b, "Meeting type hint: %s\n", hint)
	}
	fmt.Fprintf(&b, "\nTranscript:\n%s\n", text)
	return b.String()
}

// detectMeetingType guesses a meeting type from its topic to steer the
// email structure. Best effort; the model reports its own detected_type.
// truncateOnRuneBoundary cuts text to at most max bytes without splitting
// a multi-byte rune.
func truncateOnRuneBoundary(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

func detectMeetingType(topic string) string {
	lower := strings.ToLower(topic)
	switch {
	case strings.Contains(lower, "standup") || strings.Contains(lower, "stand-up") || strings.Contains(lower, "daily"):
		return "standup"
	case strings.Contains(lower, "1:1") || strings.Contains(lower, "1on1") || strings.Contains(lower, "one-on-one"):
		return "one_on_one"
	case strings.Contains(lower, "retro"):
		return "retrospective"
	case strings.Contains(lower, "planning") || strings.Contains(lower, "sprint"):
		return "planning"
	case strings.Contains(lower, "interview"):
		return "interview"
	case strings.Contains(lower, "sales") || strings.Contains(lower, "demo"):
		return "sales_call"
	default:
		return ""
	}
}
