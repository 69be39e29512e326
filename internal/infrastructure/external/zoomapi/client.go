package zoomapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/domain/entities"
	"github.com/johnquangdev/meeting-followup/internal/usecase/ingest"
	"github.com/johnquangdev/meeting-followup/pkg/config"
)

// Client calls the Zoom REST API for caption tracks, meeting summaries, and
// past-meeting lookups.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a Zoom API client
func NewClient(cfg *config.ZoomConfig, timeout time.Duration) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.zoom.us/v2"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     base,
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

// doJSON performs a GET with bounded retry on 5xx and transport errors.
// 4xx responses are returned immediately; retrying them cannot help.
func (c *Client) doJSON(ctx context.Context, path string, out interface{}) (int, error) {
	var status int
	var body []byte

	operation := func() error {
		req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		status = resp.StatusCode
		if status >= 500 {
			return fmt.Errorf("zoom returned status %d", status)
		}
		body, err = io.ReadAll(resp.Body)
		if err != nil {
			return err
		}
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(backoff.NewExponentialBackOff(), 2), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return 0, errors.ErrExternalAPI("zoom", err)
	}

	if status >= 200 && status < 300 && out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return status, errors.ErrExternalAPI("zoom", err)
		}
	}
	return status, nil
}

// download fetches a file URL (e.g. a recording transcript) with auth.
func (c *Client) download(ctx context.Context, fileURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", fileURL, nil)
	if err != nil {
		return "", errors.ErrExternalAPI("zoom", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.ErrExternalAPI("zoom", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", errors.ErrExternalAPI("zoom", fmt.Errorf("download returned status %d", resp.StatusCode))
	}
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", errors.ErrExternalAPI("zoom", err)
	}
	return string(content), nil
}

type recordingFile struct {
	FileType    string `json:"file_type"`
	DownloadURL string `json:"download_url"`
	Status      string `json:"status"`
}

type recordingsResponse struct {
	RecordingFiles []recordingFile `json:"recording_files"`
}

// DownloadCaptions fetches the meeting's transcript file from its cloud
// recording. No recording or no transcript file means the platform never
// produced captions; a transcript still marked processing means try later.
func (c *Client) DownloadCaptions(ctx context.Context, meeting *entities.Meeting) (string, error) {
	path := fmt.Sprintf("/meetings/%s/recordings", url.PathEscape(meeting.PlatformExternalID))

	var recordings recordingsResponse
	status, err := c.doJSON(ctx, path, &recordings)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", nil
	}
	if status >= 400 {
		return "", errors.ErrExternalAPI("zoom", fmt.Errorf("recordings returned status %d", status))
	}

	for _, f := range recordings.RecordingFiles {
		if f.FileType != "TRANSCRIPT" && f.FileType != "CC" {
			continue
		}
		if f.Status == "processing" {
			return "", errors.ErrTranscriptNotReady("zoom_captions")
		}
		return c.download(ctx, f.DownloadURL)
	}
	return "", nil
}

// SummaryClient exposes Zoom's AI meeting summary as a caption-style source.
type SummaryClient struct {
	client *Client
}

// NewSummaryClient wraps a Zoom client for summary downloads
func NewSummaryClient(client *Client) *SummaryClient {
	return &SummaryClient{client: client}
}

type meetingSummaryResponse struct {
	SummaryOverview string `json:"summary_overview"`
	SummaryDetails  []struct {
		Label   string `json:"label"`
		Summary string `json:"summary"`
	} `json:"summary_details"`
}

// DownloadCaptions fetches the meeting summary text. Summaries are plain
// prose, not caption cues; the parser degrades them to an unstructured
// transcript.
func (s *SummaryClient) DownloadCaptions(ctx context.Context, meeting *entities.Meeting) (string, error) {
	path := fmt.Sprintf("/meetings/%s/meeting_summary", url.PathEscape(meeting.PlatformExternalID))

	var summary meetingSummaryResponse
	status, err := s.client.doJSON(ctx, path, &summary)
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", nil
	}
	if status >= 400 {
		return "", errors.ErrExternalAPI("zoom", fmt.Errorf("meeting_summary returned status %d", status))
	}

	text := summary.SummaryOverview
	for _, d := range summary.SummaryDetails {
		text += "\n\n" + d.Label + "\n" + d.Summary
	}
	return text, nil
}

type pastInstancesResponse struct {
	Meetings []struct {
		UUID      string    `json:"uuid"`
		StartTime time.Time `json:"start_time"`
	} `json:"meetings"`
}

type pastMeetingResponse struct {
	UUID      string    `json:"uuid"`
	Topic     string    `json:"topic"`
	HostEmail string    `json:"host_email"`
	StartTime time.Time `json:"start_time"`
	EndTime   time.Time `json:"end_time"`
}

// FindRecordsByCode resolves a numeric join code to the past-meeting
// instances Zoom has on record for it.
func (c *Client) FindRecordsByCode(ctx context.Context, code string) ([]ingest.ConferenceRecord, error) {
	path := fmt.Sprintf("/past_meetings/%s/instances", url.PathEscape(code))

	var instances pastInstancesResponse
	status, err := c.doJSON(ctx, path, &instances)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status >= 400 {
		return nil, errors.ErrExternalAPI("zoom", fmt.Errorf("past_meetings returned status %d", status))
	}

	records := make([]ingest.ConferenceRecord, 0, len(instances.Meetings))
	for _, inst := range instances.Meetings {
		detail, err := c.pastMeetingDetail(ctx, inst.UUID)
		if err != nil {
			return nil, err
		}
		if detail == nil {
			continue
		}
		records = append(records, ingest.ConferenceRecord{
			ExternalID:   detail.UUID,
			Code:         code,
			Platform:     entities.PlatformZoom,
			Topic:        detail.Topic,
			HostIdentity: detail.HostEmail,
			StartTime:    detail.StartTime,
			EndTime:      detail.EndTime,
		})
	}
	return records, nil
}

func (c *Client) pastMeetingDetail(ctx context.Context, uuid string) (*pastMeetingResponse, error) {
	path := fmt.Sprintf("/past_meetings/%s", url.PathEscape(uuid))

	var detail pastMeetingResponse
	status, err := c.doJSON(ctx, path, &detail)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, nil
	}
	if status >= 400 {
		return nil, errors.ErrExternalAPI("zoom", fmt.Errorf("past_meeting detail returned status %d", status))
	}
	return &detail, nil
}
