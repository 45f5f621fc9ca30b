// internal/concierge/recommend-turn/models.go
package recommendturn

import "yutenji-concierge/internal/models"

type TurnKind string

const (
	KindStructured TurnKind = "structured"
	KindFreeText   TurnKind = "free_text"
)

// Turn is either a StructuredTurn or a FreeTextTurn.
type Turn interface {
	Kind() TurnKind
}

// StructuredTurn opens a session with explicit preferences.
type StructuredTurn struct {
	Preferences models.Preference
}

func (StructuredTurn) Kind() TurnKind { return KindStructured }

// FreeTextTurn is a follow-up message. The carried fields come from the
// session's opening preferences when the client sends them along.
type FreeTextTurn struct {
	Text             string
	CarriedLocation  string
	CarriedSituation string
}

func (FreeTextTurn) Kind() TurnKind { return KindFreeText }

// Request is the decoded /recommend payload before it is split into a Turn.
type Request struct {
	Text         *string        `json:"text,omitempty"`
	Input        *string        `json:"input,omitempty"`
	Budget       string         `json:"budget,omitempty"`
	Location     string         `json:"location,omitempty"`
	Cuisine      string         `json:"cuisine,omitempty"`
	Situation    string         `json:"situation,omitempty"`
	SessionID    string         `json:"sessionId,omitempty"`
	Restaurants  models.Catalog `json:"restaurants,omitempty"`
	ForceRefresh bool           `json:"forceRefresh,omitempty"`
}

// ParsedTurn is the outcome of the upfront parse step.
type ParsedTurn struct {
	Turn          Turn
	SessionID     string
	ClientCatalog models.Catalog
	ForceRefresh  bool
}

// Output is a successful turn result. Exactly one of Recommendation and
// Response is set.
type Output struct {
	Recommendation string `json:"recommendation,omitempty"`
	Response       string `json:"response,omitempty"`
	SessionID      string `json:"sessionId"`
}
