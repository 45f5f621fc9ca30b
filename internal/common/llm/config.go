// internal/common/llm/config.go
package llm

import "time"

type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration

	BreakerMaxRequests      uint32
	BreakerInterval         time.Duration
	BreakerOpenTimeout      time.Duration
	BreakerFailureThreshold uint32
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.Model == "" {
		out.Model = "gpt-4o-mini"
	}
	if out.Timeout <= 0 {
		out.Timeout = 60 * time.Second
	}
	if out.BreakerMaxRequests == 0 {
		out.BreakerMaxRequests = 1
	}
	if out.BreakerOpenTimeout <= 0 {
		out.BreakerOpenTimeout = 30 * time.Second
	}
	if out.BreakerFailureThreshold == 0 {
		out.BreakerFailureThreshold = 5
	}
	return out
}
