// internal/concierge/recommend-turn/config.go
package recommendturn

import "time"

type Config struct {
	// TrustClientCatalog lets a free-text turn use the catalog the client
	// already holds instead of reading the store.
	TrustClientCatalog bool

	// TurnTimeout bounds a whole turn, including every provider call.
	TurnTimeout time.Duration
}

func (c *Config) withDefaults() Config {
	out := *c
	if out.TurnTimeout <= 0 {
		out.TurnTimeout = 3 * time.Minute
	}
	return out
}
