// internal/concierge/compose-prompt/handler.go
package composeprompt

import (
	"fmt"
	"strings"

	formatresponse "yutenji-concierge/internal/concierge/format-response"
	"yutenji-concierge/internal/models"
	"yutenji-concierge/pkg/persona"
)

// Composer builds provider prompts from a persona.
type Composer struct {
	persona *persona.Persona
}

func NewComposer(p *persona.Persona) *Composer {
	return &Composer{persona: p}
}

// Unspecified returns the sentinel written for absent preference values.
func (c *Composer) Unspecified() string {
	return c.persona.UnspecifiedLabel
}

// IntentInstruction is the system message for intent classification.
func (c *Composer) IntentInstruction() string {
	return c.persona.IntentInstruction
}

// StructuredDescription renders a preference as the one-line description
// used for structured turns, e.g. "予算: 3000円, 場所: 祐天寺, ...".
func (c *Composer) StructuredDescription(p models.Preference) string {
	l := c.persona.Labels
	return fmt.Sprintf("%s: %s, %s: %s, %s: %s, %s: %s",
		l.Budget, c.orUnspecified(p.Budget),
		l.Location, c.orUnspecified(p.Location),
		l.Cuisine, c.orUnspecified(p.Cuisine),
		l.Situation, c.orUnspecified(p.Situation),
	)
}

// EnumerationInstruction tells the model how to label multiple candidates so
// the formatter can find the blocks.
func EnumerationInstruction() string {
	return fmt.Sprintf(
		"複数のお店を推薦する場合は、各お店の先頭に「%s」「%s」のように半角の番号付き見出しを1行で付けてください。1軒だけの場合は見出しは不要です。",
		formatresponse.Marker(1), formatresponse.Marker(2),
	)
}

// ComposeRecommendationPrompt builds the restaurant recommendation prompt.
func (c *Composer) ComposeRecommendationPrompt(rc RecommendationContext) (Prompt, error) {
	catalogJSON, err := rc.Catalog.MarshalIndented()
	if err != nil {
		return Prompt{}, fmt.Errorf("serialize catalog: %w", err)
	}
	l := c.persona.Labels

	var b strings.Builder
	b.WriteString(rc.Description)
	b.WriteString("\n\n")
	fmt.Fprintf(&b, "%s: %s\n", l.Location, c.orUnspecified(rc.Location))
	fmt.Fprintf(&b, "%s: %s\n\n", l.Situation, c.orUnspecified(rc.Situation))
	b.WriteString("以下のレストランリストから、上記の条件に最も適したレストランを選び、その理由と共に推薦してください：\n\n")
	b.WriteString(catalogJSON)
	b.WriteString("\n\n回答形式：\n")
	b.WriteString(c.persona.OutputTemplate)
	b.WriteString("\n\n")
	b.WriteString(EnumerationInstruction())
	b.WriteString("\n\n")
	b.WriteString(c.persona.Directive)

	return Prompt{
		System: c.persona.RecommendationInstruction,
		User:   b.String(),
	}, nil
}

// ComposeConversationalPrompt builds a free conversation prompt. It carries
// only the text and the persona directive.
func (c *Composer) ComposeConversationalPrompt(text string) Prompt {
	return Prompt{
		System: c.persona.ConversationInstruction + "\n\n" + c.persona.Directive,
		User:   text,
	}
}

func (c *Composer) orUnspecified(v string) string {
	if strings.TrimSpace(v) == "" {
		return c.persona.UnspecifiedLabel
	}
	return v
}
