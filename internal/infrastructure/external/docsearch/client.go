package docsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/johnquangdev/meeting-followup/errors"
	"github.com/johnquangdev/meeting-followup/pkg/config"
)

// Client searches a shared document store for meeting notes. It is the
// last transcript source in the fallback chain: when neither captions nor
// a recording exist, notes written around the meeting time still let a
// draft get generated.
type Client struct {
	baseURL     string
	accessToken string
	httpClient  *http.Client
}

// NewClient creates a document search client
func NewClient(cfg *config.SearchConfig, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:     cfg.BaseURL,
		accessToken: cfg.AccessToken,
		httpClient:  &http.Client{Timeout: timeout},
	}
}

type searchRequest struct {
	Query         string    `json:"query"`
	CreatedAfter  time.Time `json:"created_after"`
	CreatedBefore time.Time `json:"created_before"`
	Limit         int       `json:"limit"`
}

type searchResponse struct {
	Results []struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	} `json:"results"`
}

// SearchNearTime returns the content of the best-matching document created
// within the window around the given time, or "" when nothing matches.
func (c *Client) SearchNearTime(ctx context.Context, query string, around time.Time, window time.Duration) (string, error) {
	body, err := json.Marshal(searchRequest{
		Query:         query,
		CreatedAfter:  around.Add(-window).UTC(),
		CreatedBefore: around.Add(window).UTC(),
		Limit:         1,
	})
	if err != nil {
		return "", errors.ErrExternalAPI("docsearch", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/v1/search", bytes.NewReader(body))
	if err != nil {
		return "", errors.ErrExternalAPI("docsearch", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.accessToken)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", errors.ErrExternalAPI("docsearch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return "", nil
	}
	if resp.StatusCode >= 400 {
		return "", errors.ErrExternalAPI("docsearch", fmt.Errorf("search returned status %d", resp.StatusCode))
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return "", errors.ErrExternalAPI("docsearch", err)
	}
	if len(sr.Results) == 0 {
		return "", nil
	}
	return sr.Results[0].Content, nil
}
