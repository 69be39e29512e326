package calendar

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2"

	"github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/internal/usecase/ingest"
	"github.com/johnquangdev/meeting-followup/pkg/config"
)

// Client lists calendar events through a Google-Calendar-shaped REST API.
// The reconciliation poller uses it to find ended meetings whose webhook
// never arrived.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a calendar client. The access token is wrapped in an
// oauth2 token source so the transport handles the Authorization header.
func NewClient(cfg *config.CalendarConfig, timeout time.Duration) *Client {
	base := cfg.BaseURL
	if base == "" {
		base = "https://www.googleapis.com/calendar/v3"
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = timeout

	return &Client{
		baseURL:    base,
		httpClient: httpClient,
	}
}

type eventTime struct {
	DateTime time.Time `json:"dateTime"`
}

type eventItem struct {
	ID             string    `json:"id"`
	Summary        string    `json:"summary"`
	Status         string    `json:"status"`
	Start          eventTime `json:"start"`
	End            eventTime `json:"end"`
	HangoutLink    string    `json:"hangoutLink"`
	Location       string    `json:"location"`
	ConferenceData struct {
		EntryPoints []struct {
			URI string `json:"uri"`
		} `json:"entryPoints"`
	} `json:"conferenceData"`
}

type eventsResponse struct {
	Items []eventItem `json:"items"`
}

// ListEndedEvents returns events on the account's primary calendar that
// started after since and have already ended.
func (c *Client) ListEndedEvents(ctx context.Context, accountID string, since time.Time) ([]ingest.CalendarEvent, error) {
	now := time.Now().UTC()

	params := url.Values{}
	params.Set("timeMin", since.UTC().Format(time.RFC3339))
	params.Set("timeMax", now.Format(time.RFC3339))
	params.Set("singleEvents", "true")
	params.Set("orderBy", "startTime")

	endpoint := fmt.Sprintf("%s/calendars/%s/events?%s", c.baseURL, url.PathEscape(accountID), params.Encode())
	req, err := http.NewRequestWithContext(ctx, "GET", endpoint, nil)
	if err != nil {
		return nil, errors.ErrExternalAPI("calendar", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.ErrExternalAPI("calendar", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, errors.ErrExternalAPI("calendar", fmt.Errorf("events returned status %d", resp.StatusCode))
	}

	var events eventsResponse
	if err := json.NewDecoder(resp.Body).Decode(&events); err != nil {
		return nil, errors.ErrExternalAPI("calendar", err)
	}

	var out []ingest.CalendarEvent
	for _, item := range events.Items {
		if item.Status == "cancelled" {
			continue
		}
		if item.End.DateTime.IsZero() || item.End.DateTime.After(now) {
			continue
		}

		uris := make([]string, 0, len(item.ConferenceData.EntryPoints)+1)
		for _, ep := range item.ConferenceData.EntryPoints {
			if ep.URI != "" {
				uris = append(uris, ep.URI)
			}
		}
		if item.Location != "" {
			uris = append(uris, item.Location)
		}

		out = append(out, ingest.CalendarEvent{
			ID:             item.ID,
			Summary:        item.Summary,
			Start:          item.Start.DateTime,
			End:            item.End.DateTime,
			JoinURL:        item.HangoutLink,
			ConferenceURIs: uris,
		})
	}
	return out, nil
}
