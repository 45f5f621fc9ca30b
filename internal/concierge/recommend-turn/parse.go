// internal/concierge/recommend-turn/parse.go
package recommendturn

import (
	"encoding/json"
	"strings"

	apperrors "yutenji-concierge/internal/common/errors"
	"yutenji-concierge/internal/common/validation"
	"yutenji-concierge/internal/models"
)

const requestSchema = `{
  "type": "object",
  "properties": {
    "text":         {"type": ["string", "null"], "maxLength": 2000},
    "input":        {"type": ["string", "null"], "maxLength": 2000},
    "budget":       {"type": ["string", "null"], "maxLength": 100},
    "location":     {"type": ["string", "null"], "maxLength": 100},
    "cuisine":      {"type": ["string", "null"], "maxLength": 100},
    "situation":    {"type": ["string", "null"], "maxLength": 100},
    "sessionId":    {"type": ["string", "null"], "maxLength": 128},
    "restaurants":  {"type": ["array", "null"], "items": {"type": "object"}},
    "forceRefresh": {"type": ["boolean", "null"]}
  }
}`

var requestValidator = validation.MustCompile(requestSchema)

// ParseRequest validates raw and decides which turn variant it carries.
// Payloads that mix both shapes are rejected rather than guessed.
func ParseRequest(raw []byte) (*ParsedTurn, error) {
	if res := requestValidator.ValidateBytes(raw); !res.Valid {
		return nil, apperrors.NewInvalidRequestError(res.Error())
	}

	var req Request
	if err := json.Unmarshal(raw, &req); err != nil {
		return nil, apperrors.NewInvalidRequestError(err.Error())
	}

	parsed := &ParsedTurn{
		SessionID:     strings.TrimSpace(req.SessionID),
		ClientCatalog: req.Restaurants,
		ForceRefresh:  req.ForceRefresh,
	}

	text, hasText, err := freeText(req)
	if err != nil {
		return nil, err
	}

	if hasText {
		if req.Budget != "" || req.Cuisine != "" {
			return nil, apperrors.NewInvalidRequestError("text cannot be combined with budget or cuisine")
		}
		parsed.Turn = FreeTextTurn{
			Text:             text,
			CarriedLocation:  strings.TrimSpace(req.Location),
			CarriedSituation: strings.TrimSpace(req.Situation),
		}
		return parsed, nil
	}

	parsed.Turn = StructuredTurn{Preferences: models.Preference{
		Budget:    strings.TrimSpace(req.Budget),
		Location:  strings.TrimSpace(req.Location),
		Cuisine:   strings.TrimSpace(req.Cuisine),
		Situation: strings.TrimSpace(req.Situation),
	}}
	return parsed, nil
}

// freeText resolves the text field and its legacy "input" alias.
func freeText(req Request) (string, bool, error) {
	if req.Text != nil && req.Input != nil {
		return "", false, apperrors.NewInvalidRequestError("text and input are mutually exclusive")
	}
	field := req.Text
	if field == nil {
		field = req.Input
	}
	if field == nil {
		return "", false, nil
	}
	text := strings.TrimSpace(*field)
	if text == "" {
		return "", false, apperrors.NewInvalidRequestError("text must not be blank")
	}
	return text, true, nil
}
