// internal/concierge/compose-prompt/models.go
package composeprompt

import "yutenji-concierge/internal/models"

// Prompt is one system + user message pair for the completion provider.
type Prompt struct {
	System string
	User   string
}

// RecommendationContext is everything a recommendation prompt embeds.
// Location and Situation are already resolved; empty values are rendered
// as the unspecified label.
type RecommendationContext struct {
	Description string
	Location    string
	Situation   string
	Catalog     models.Catalog
}
