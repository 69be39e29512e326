package transcript

import (
	"context"
	"errors"
	"time"

	apperrors "github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
)

// FetchOutcome is the tri-state result of probing one content source.
type FetchOutcome int

const (
	// FetchReady means the source returned usable content.
	FetchReady FetchOutcome = iota
	// FetchNotReady means the source will have content later.
	FetchNotReady
	// FetchAbsent means the source will never have content for this meeting.
	FetchAbsent
)

// FetchResult is what one source produced for a meeting.
type FetchResult struct {
	Outcome FetchOutcome
	Content string
}

// Source is one place transcript content can come from. Sources are tried
// in priority order; reordering the chain is a wiring change, not a code
// change. Transient transport failures are returned as errors and retried
// by the job queue.
type Source interface {
	Name() string
	TryFetch(ctx context.Context, meeting *entities.Meeting) (*FetchResult, error)
}

// CaptionClient downloads the platform's own caption track for a meeting.
type CaptionClient interface {
	DownloadCaptions(ctx context.Context, meeting *entities.Meeting) (string, error)
}

// CaptionSource is the primary source: the conferencing platform's caption
// or transcript download endpoint.
type CaptionSource struct {
	name   string
	client CaptionClient
}

// NewCaptionSource wraps a platform caption client as a chain source
func NewCaptionSource(name string, client CaptionClient) *CaptionSource {
	return &CaptionSource{name: name, client: client}
}

func (s *CaptionSource) Name() string { return s.name }

func (s *CaptionSource) TryFetch(ctx context.Context, meeting *entities.Meeting) (*FetchResult, error) {
	content, err := s.client.DownloadCaptions(ctx, meeting)
	if err != nil {
		return outcomeFromError(err)
	}
	if content == "" {
		return &FetchResult{Outcome: FetchAbsent}, nil
	}
	return &FetchResult{Outcome: FetchReady, Content: content}, nil
}

// TranscriptionClient produces a transcript from a meeting recording via a
// speech-to-text service. Transcription is asynchronous: a submitted
// recording reports not-ready until the service finishes.
type TranscriptionClient interface {
	TranscribeRecording(ctx context.Context, recordingURL string) (string, error)
}

// RecordingSource transcribes the meeting recording when no caption track
// exists.
type RecordingSource struct {
	client TranscriptionClient
}

// NewRecordingSource wraps a speech-to-text client as a chain source
func NewRecordingSource(client TranscriptionClient) *RecordingSource {
	return &RecordingSource{client: client}
}

func (s *RecordingSource) Name() string { return "recording_transcription" }

func (s *RecordingSource) TryFetch(ctx context.Context, meeting *entities.Meeting) (*FetchResult, error) {
	if meeting.RecordingURL == "" {
		return &FetchResult{Outcome: FetchAbsent}, nil
	}
	content, err := s.client.TranscribeRecording(ctx, meeting.RecordingURL)
	if err != nil {
		return outcomeFromError(err)
	}
	if content == "" {
		return &FetchResult{Outcome: FetchNotReady}, nil
	}
	return &FetchResult{Outcome: FetchReady, Content: content}, nil
}

// DocumentSearchClient searches a document store for meeting notes created
// near a point in time.
type DocumentSearchClient interface {
	SearchNearTime(ctx context.Context, query string, around time.Time, window time.Duration) (string, error)
}

// DocSearchSource is the last-resort source: a generic document search
// scoped to the meeting's end time plus or minus a tolerance window.
type DocSearchSource struct {
	client DocumentSearchClient
	window time.Duration
}

// NewDocSearchSource wraps a document search client as a chain source
func NewDocSearchSource(client DocumentSearchClient, window time.Duration) *DocSearchSource {
	return &DocSearchSource{client: client, window: window}
}

func (s *DocSearchSource) Name() string { return "document_search" }

func (s *DocSearchSource) TryFetch(ctx context.Context, meeting *entities.Meeting) (*FetchResult, error) {
	content, err := s.client.SearchNearTime(ctx, meeting.Topic, meeting.EndTime, s.window)
	if err != nil {
		return outcomeFromError(err)
	}
	if content == "" {
		return &FetchResult{Outcome: FetchAbsent}, nil
	}
	return &FetchResult{Outcome: FetchReady, Content: content}, nil
}

// outcomeFromError maps a client error into the tri-state model. Not-ready
// and not-found conditions are outcomes, not errors; everything else
// propagates for the retry queue to classify.
func outcomeFromError(err error) (*FetchResult, error) {
	if apperrors.IsNotReady(err) {
		return &FetchResult{Outcome: FetchNotReady}, nil
	}
	var appErr apperrors.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case apperrors.ErrorCode_TRANSCRIPT_ABSENT, apperrors.ErrorCode_NOT_FOUND:
			return &FetchResult{Outcome: FetchAbsent}, nil
		}
	}
	return nil, err
}
