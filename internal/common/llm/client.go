// internal/common/llm/client.go
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"

	commonhttp "yutenji-concierge/internal/common/http"
	"yutenji-concierge/internal/common/metrics"
)

const completionsPath = "/v1/chat/completions"

var (
	ErrProviderFailed  = errors.New("PROVIDER_FAILED")
	ErrProviderTimeout = errors.New("PROVIDER_TIMEOUT")
	// ErrEmptyCompletion is returned when the provider answers without content.
	ErrEmptyCompletion = errors.New("EMPTY_COMPLETION")
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

type purposeKey struct{}

// WithPurpose tags calls made with ctx for metrics and logs.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, purposeKey{}, purpose)
}

// PurposeFrom returns the purpose set by WithPurpose, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if p, ok := ctx.Value(purposeKey{}).(string); ok && p != "" {
		return p
	}
	return "unknown"
}

// Client talks to an OpenAI-compatible chat completion endpoint.
type Client struct {
	config  Config
	http    *commonhttp.Client
	breaker *gobreaker.CircuitBreaker[string]
	logger  Logger
}

func NewClient(cfg *Config, log Logger) *Client {
	conf := cfg.withDefaults()
	c := &Client{
		config: conf,
		http:   commonhttp.NewClient(conf.Timeout, "yutenji-concierge"),
		logger: log.With(map[string]interface{}{
			"component": "completion-client",
			"model":     conf.Model,
		}),
	}

	c.breaker = gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "completion-provider",
		MaxRequests: conf.BreakerMaxRequests,
		Interval:    conf.BreakerInterval,
		Timeout:     conf.BreakerOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= conf.BreakerFailureThreshold
		},
		// Empty completions are a content problem, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrEmptyCompletion)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("circuit breaker state changed", map[string]interface{}{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			})
		},
	})
	return c
}

// WithHTTPClient swaps the transport. Used by tests.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.http.WithHTTPClient(hc)
	return c
}

// BreakerState reports the circuit breaker state for readiness output.
func (c *Client) BreakerState() string {
	return c.breaker.State().String()
}

// Complete submits a system instruction and user content and returns the
// generated text. The call is never retried.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	purpose := PurposeFrom(ctx)
	start := time.Now()

	text, err := c.breaker.Execute(func() (string, error) {
		return c.execute(ctx, system, user)
	})

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	status := "success"
	switch {
	case errors.Is(err, ErrProviderTimeout):
		status = "timeout"
	case errors.Is(err, ErrEmptyCompletion):
		status = "empty"
	case err != nil:
		status = "error"
	}
	metrics.CompletionDuration.WithLabelValues(purpose, status).Observe(time.Since(start).Seconds())

	if err != nil {
		c.logger.Error("completion failed", map[string]interface{}{
			"purpose":    purpose,
			"error":      err.Error(),
			"durationMs": time.Since(start).Milliseconds(),
		})
		return "", err
	}

	c.logger.Info("completion succeeded", map[string]interface{}{
		"purpose":    purpose,
		"chars":      len(text),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return text, nil
}

func (c *Client) execute(ctx context.Context, system, user string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	body := chatRequest{
		Model: c.config.Model,
		Messages: []Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	}
	headers := map[string]string{"Authorization": "Bearer " + c.config.APIKey}

	resp, err := c.http.PostJSON(ctx, strings.TrimRight(c.config.BaseURL, "/")+completionsPath, headers, body)
	if err != nil {
		var netErr net.Error
		if ctx.Err() == context.DeadlineExceeded || (errors.As(err, &netErr) && netErr.Timeout()) {
			return "", fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}
		return "", fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%w: status %d: %s", ErrProviderFailed, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var parsed chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return "", fmt.Errorf("%w: %v", ErrProviderTimeout, err)
		}
		return "", fmt.Errorf("%w: decode error: %v", ErrProviderFailed, err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("%w: %s", ErrProviderFailed, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message == nil ||
		strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}

	return parsed.Choices[0].Message.Content, nil
}
