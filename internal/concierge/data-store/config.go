// internal/concierge/data-store/config.go
package datastore

import "time"

type Config struct {
	CatalogTable string
	LogTable     string
	CacheTTL     time.Duration
	QueryTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.CatalogTable == "" {
		out.CatalogTable = "restaurants"
	}
	if out.LogTable == "" {
		out.LogTable = "user_logs"
	}
	if out.QueryTimeout <= 0 {
		out.QueryTimeout = 10 * time.Second
	}
	return out
}
