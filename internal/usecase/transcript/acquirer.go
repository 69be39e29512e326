package transcript

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/domain/repositories"
)

// Archiver stores the raw caption track for audit and reprocessing.
type Archiver interface {
	StoreCaptionTrack(ctx context.Context, meetingID string, content []byte) (string, error)
}

// Acquirer downloads transcript content through an ordered fallback chain,
// parses it, and upserts the result keyed by meeting id.
type Acquirer struct {
	sources     []Source
	transcripts repositories.TranscriptRepository
	archiver    Archiver
	logger      *zap.Logger
}

// NewAcquirer constructs an acquirer over the given source chain. The
// archiver may be nil; archiving is best effort.
func NewAcquirer(sources []Source, transcripts repositories.TranscriptRepository, archiver Archiver, logger *zap.Logger) *Acquirer {
	return &Acquirer{
		sources:     sources,
		transcripts: transcripts,
		archiver:    archiver,
		logger:      logger,
	}
}

// Acquire walks the source chain in priority order. The first ready source
// wins. If every source reports not-ready the acquisition defers; if every
// source reports absent it fails permanently. Transient fetch errors are
// recorded against the transcript row and propagated for retry.
func (a *Acquirer) Acquire(ctx context.Context, meeting *entities.Meeting, progress func(step entities.ProcessingStep, message string, durationMs int64)) (*entities.Transcript, error) {
	var content, sourceName string
	sawNotReady := false

	for _, source := range a.sources {
		res, err := source.TryFetch(ctx, meeting)
		if err != nil {
			if rerr := a.transcripts.RecordFetchFailure(ctx, meeting.ID, err.Error(), false); rerr != nil {
				a.logger.Error("failed to record fetch failure",
					zap.String("meeting_id", meeting.ID.String()), zap.Error(rerr))
			}
			return nil, err
		}
		switch res.Outcome {
		case FetchReady:
			content = res.Content
			sourceName = source.Name()
		case FetchNotReady:
			sawNotReady = true
		}
		if content != "" {
			break
		}
	}

	if content == "" {
		if sawNotReady {
			return nil, apperrors.ErrTranscriptNotReady("all sources")
		}
		err := apperrors.ErrTranscriptAbsent()
		if rerr := a.transcripts.RecordFetchFailure(ctx, meeting.ID, err.Error(), false); rerr != nil {
			a.logger.Error("failed to record fetch failure",
				zap.String("meeting_id", meeting.ID.String()), zap.Error(rerr))
		}
		return nil, err
	}

	parseStart := time.Now()
	if progress != nil {
		progress(entities.StepTranscriptParse, fmt.Sprintf("parsing content from %s", sourceName), 0)
	}

	result, parseErr := Parse(content)
	degraded := false
	if parseErr != nil {
		// Not every source produces cue-structured captions. Fall back to
		// the raw text so a readable transcript survives.
		if strings.TrimSpace(content) == "" {
			if rerr := a.transcripts.RecordFetchFailure(ctx, meeting.ID, parseErr.Error(), false); rerr != nil {
				a.logger.Error("failed to record parse failure",
					zap.String("meeting_id", meeting.ID.String()), zap.Error(rerr))
			}
			return nil, parseErr
		}
		result = &ParseResult{
			FullText:  strings.TrimSpace(content),
			WordCount: len(strings.Fields(content)),
		}
		degraded = true
		a.logger.Warn("caption parse failed, storing plain text",
			zap.String("meeting_id", meeting.ID.String()),
			zap.String("source", sourceName),
			zap.Error(parseErr))
	}

	transcript, err := a.transcripts.FindByMeetingID(ctx, meeting.ID)
	if err != nil {
		return nil, apperrors.ErrDBQuery(err)
	}
	if transcript == nil {
		transcript = entities.NewTranscript(meeting.ID)
	}
	transcript.RawContent = content
	transcript.NormalizedText = result.FullText
	transcript.SpeakerSegments = result.Segments
	transcript.WordCount = result.WordCount
	transcript.SourceName = sourceName
	transcript.Status = entities.TranscriptStatusReady
	transcript.LastFetchError = ""
	if degraded {
		transcript.LastFetchError = "caption structure not recognized, stored as plain text"
	}

	if a.archiver != nil {
		object, aerr := a.archiver.StoreCaptionTrack(ctx, meeting.ID.String(), []byte(content))
		if aerr != nil {
			a.logger.Warn("caption archive failed",
				zap.String("meeting_id", meeting.ID.String()), zap.Error(aerr))
		} else {
			transcript.ArchiveObject = object
		}
	}

	if err := a.transcripts.Upsert(ctx, transcript); err != nil {
		return nil, apperrors.ErrDBQuery(err)
	}
	if progress != nil {
		progress(entities.StepTranscriptStored,
			fmt.Sprintf("stored %d words from %s", result.WordCount, sourceName),
			time.Since(parseStart).Milliseconds())
	}
	return transcript, nil
}
