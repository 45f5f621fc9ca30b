// internal/models/interaction.go
package models

import "time"

// InteractionLog is one append-only row of the conversation/preference log.
// Empty strings are stored as NULL.
type InteractionLog struct {
	SessionID string    `json:"sessionId" db:"session_id"`
	FreeText  string    `json:"freeText,omitempty" db:"input_text"`
	Budget    string    `json:"budget,omitempty" db:"budget"`
	Location  string    `json:"location,omitempty" db:"location"`
	Cuisine   string    `json:"cuisine,omitempty" db:"genre"`
	Situation string    `json:"situation,omitempty" db:"situation"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// InteractionLogFromPreference builds the log row for a structured turn.
func InteractionLogFromPreference(sessionID string, p Preference) InteractionLog {
	return InteractionLog{
		SessionID: sessionID,
		Budget:    p.Budget,
		Location:  p.Location,
		Cuisine:   p.Cuisine,
		Situation: p.Situation,
	}
}
