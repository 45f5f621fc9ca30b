// pkg/persona/persona.go
package persona

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

//go:embed default.json
var defaultPersona []byte

// Default returns the built-in persona.
func Default() *Persona {
	p, err := Parse(defaultPersona)
	if err != nil {
		panic(fmt.Sprintf("persona: built-in default is invalid: %v", err))
	}
	return p
}

// Load reads a persona file. An empty path returns the built-in persona.
func Load(path string) (*Persona, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes and validates a persona document.
func Parse(data []byte) (*Persona, error) {
	var p Persona
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse persona: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every text the prompts depend on is present.
func (p *Persona) Validate() error {
	required := map[string]string{
		"version":                   p.Version,
		"directive":                 p.Directive,
		"intentInstruction":         p.IntentInstruction,
		"recommendationInstruction": p.RecommendationInstruction,
		"conversationInstruction":   p.ConversationInstruction,
		"outputTemplate":            p.OutputTemplate,
		"unspecifiedLabel":          p.UnspecifiedLabel,
		"linkLabel":                 p.LinkLabel,
		"labels.budget":             p.Labels.Budget,
		"labels.location":           p.Labels.Location,
		"labels.cuisine":            p.Labels.Cuisine,
		"labels.situation":          p.Labels.Situation,
	}

	var missing []string
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return fmt.Errorf("persona %q missing fields: %s", p.Name, strings.Join(missing, ", "))
	}
	return nil
}

// Bump sets a new version and stamps LastUpdated.
func (p *Persona) Bump(version string, now time.Time) {
	p.Version = version
	p.LastUpdated = now.UTC().Format(time.RFC3339)
}

// Save validates p and writes it as indented JSON, creating parent
// directories as needed.
func Save(p *Persona, path string) error {
	if err := p.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal persona: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create persona directory: %w", err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write persona file: %w", err)
	}
	return nil
}
