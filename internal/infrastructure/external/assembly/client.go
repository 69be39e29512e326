package assembly

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	aai "github.com/AssemblyAI/assemblyai-go-sdk"

	"github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/pkg/config"
)

// TranscriptIDStore remembers the AssemblyAI transcript id submitted for a
// recording URL, so a later retry polls the existing job instead of paying
// for a second transcription.
type TranscriptIDStore interface {
	Get(key string) (string, bool)
	Set(key, value string, ttl time.Duration)
	Delete(key string)
}

// submissionTTL bounds how long a submitted job is tracked. AssemblyAI jobs
// finish or fail well inside this window.
const submissionTTL = 24 * time.Hour

// Client transcribes meeting recordings through AssemblyAI. Transcription
// is asynchronous: the first call submits the recording and reports
// not-ready, later calls poll until the text is available.
type Client struct {
	sdk   *aai.Client
	store TranscriptIDStore
}

// NewClient creates an AssemblyAI client
func NewClient(cfg *config.AssemblyConfig, store TranscriptIDStore) *Client {
	return &Client{
		sdk:   aai.NewClient(cfg.APIKey),
		store: store,
	}
}

func submissionKey(recordingURL string) string {
	sum := sha256.Sum256([]byte(recordingURL))
	return "assembly:" + hex.EncodeToString(sum[:8])
}

// TranscribeRecording returns the transcript text for a recording. An empty
// string with a nil error means the job is still running.
func (c *Client) TranscribeRecording(ctx context.Context, recordingURL string) (string, error) {
	key := submissionKey(recordingURL)

	transcriptID, ok := c.store.Get(key)
	if !ok {
		return "", c.submit(ctx, key, recordingURL)
	}

	transcript, err := c.sdk.Transcripts.Get(ctx, transcriptID)
	if err != nil {
		return "", errors.ErrExternalAPI("assemblyai", err)
	}

	switch transcript.Status {
	case aai.TranscriptStatusCompleted:
		c.store.Delete(key)
		if transcript.Text == nil {
			return "", nil
		}
		return *transcript.Text, nil
	case aai.TranscriptStatusError:
		c.store.Delete(key)
		msg := "transcription failed"
		if transcript.Error != nil {
			msg = *transcript.Error
		}
		return "", errors.ErrTranscriptFetch(fmt.Errorf("assemblyai: %s", msg))
	default:
		// queued or processing
		return "", nil
	}
}

func (c *Client) submit(ctx context.Context, key, recordingURL string) error {
	params := &aai.TranscriptOptionalParams{
		SpeakerLabels:     aai.Bool(true),
		LanguageDetection: aai.Bool(true),
	}

	transcript, err := c.sdk.Transcripts.SubmitFromURL(ctx, recordingURL, params)
	if err != nil {
		return errors.ErrExternalAPI("assemblyai", err)
	}
	if transcript.ID != nil {
		c.store.Set(key, *transcript.ID, submissionTTL)
	}
	return nil
}
