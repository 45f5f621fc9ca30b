// pkg/client/client.go
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	commonhttp "yutenji-concierge/internal/common/http"
)

var ErrTooManyRequests = errors.New("too many requests, please try again later")

// APIError is a non-429 failure returned by the concierge server.
type APIError struct {
	Status  int
	Message string
	Code    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("concierge api error: status %d: %s (%s)", e.Status, e.Message, e.Code)
}

type Config struct {
	BaseURL        string
	// MaxRetries is the number of 429 retries; 0 means 3, negative disables.
	MaxRetries     int
	InitialBackoff time.Duration
	Timeout        time.Duration
}

// Client calls the concierge HTTP API. Rejections by the admission gate are
// retried with exponential backoff.
type Client struct {
	config Config
	http   *commonhttp.Client
	sleep  func(ctx context.Context, d time.Duration) error
}

func New(cfg Config) *Client {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	} else if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = time.Second
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 3 * time.Minute
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{
		config: cfg,
		http:   commonhttp.NewClient(cfg.Timeout, "yutenji-concierge-client"),
		sleep:  sleepContext,
	}
}

// WithHTTPClient swaps the transport. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http.WithHTTPClient(hc)
	return c
}

// Preferences are the dining preferences chosen when a session opens.
type Preferences struct {
	Budget    string `json:"budget,omitempty"`
	Location  string `json:"location,omitempty"`
	Cuisine   string `json:"cuisine,omitempty"`
	Situation string `json:"situation,omitempty"`
}

// Reply is a successful /recommend result.
type Reply struct {
	Recommendation string `json:"recommendation,omitempty"`
	Response       string `json:"response,omitempty"`
	SessionID      string `json:"sessionId,omitempty"`
}

type structuredRequest struct {
	Preferences
	SessionID string `json:"sessionId,omitempty"`
}

type freeTextRequest struct {
	Text      string `json:"text"`
	Location  string `json:"location,omitempty"`
	Situation string `json:"situation,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// Recommend opens a session with structured preferences.
func (c *Client) Recommend(ctx context.Context, sessionID string, prefs Preferences) (*Reply, error) {
	return c.postRecommend(ctx, structuredRequest{Preferences: prefs, SessionID: sessionID})
}

// Ask sends a follow-up message. location and situation are carried over
// from the opening preferences.
func (c *Client) Ask(ctx context.Context, sessionID, text, location, situation string) (*Reply, error) {
	return c.postRecommend(ctx, freeTextRequest{
		Text:      text,
		Location:  location,
		Situation: situation,
		SessionID: sessionID,
	})
}

// Restaurants returns the full catalog.
func (c *Client) Restaurants(ctx context.Context) ([]json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+"/restaurants", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}
	var rows []json.RawMessage
	if err := json.NewDecoder(resp.Body).Decode(&rows); err != nil {
		return nil, fmt.Errorf("decode restaurants: %w", err)
	}
	return rows, nil
}

func (c *Client) postRecommend(ctx context.Context, body interface{}) (*Reply, error) {
	delay := c.config.InitialBackoff
	url := c.config.BaseURL + "/recommend"

	for attempt := 0; ; attempt++ {
		resp, err := c.http.PostJSON(ctx, url, nil, body)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			resp.Body.Close()
			if attempt >= c.config.MaxRetries {
				return nil, ErrTooManyRequests
			}
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			delay *= 2
			continue
		}

		reply, err := decodeReply(resp)
		resp.Body.Close()
		return reply, err
	}
}

func decodeReply(resp *http.Response) (*Reply, error) {
	if resp.StatusCode != http.StatusOK {
		return nil, readAPIError(resp)
	}
	var reply Reply
	if err := json.NewDecoder(resp.Body).Decode(&reply); err != nil {
		return nil, fmt.Errorf("decode reply: %w", err)
	}
	return &reply, nil
}

func readAPIError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	apiErr := &APIError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
		Code  string `json:"code"`
	}
	if json.Unmarshal(raw, &body) == nil && body.Error != "" {
		apiErr.Message, apiErr.Code = body.Error, body.Code
	} else {
		apiErr.Message = strings.TrimSpace(string(raw))
	}
	return apiErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
