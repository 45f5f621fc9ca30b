// pkg/persona/persona_test.go
package persona

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	p := Default()
	require.NotNil(t, p)
	assert.NoError(t, p.Validate())
	assert.Equal(t, "指定なし", p.UnspecifiedLabel)
	assert.Equal(t, "予算", p.Labels.Budget)
	assert.Contains(t, p.IntentInstruction, "true")
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	p, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default().Version, p.Version)
}

func TestLoad_FromFile(t *testing.T) {
	custom := *Default()
	custom.Version = "2.0.0"
	custom.Directive = "Speak like a polite Tokyo concierge."

	data := []byte(`{
  "version": "2.0.0",
  "name": "concierge",
  "directive": "Speak like a polite Tokyo concierge.",
  "intentInstruction": "Answer true or false.",
  "recommendationInstruction": "Recommend from the list.",
  "conversationInstruction": "Answer follow-up questions.",
  "outputTemplate": "Name:\nReason:",
  "unspecifiedLabel": "unspecified",
  "linkLabel": "Open",
  "labels": {"budget": "Budget", "location": "Area", "cuisine": "Cuisine", "situation": "Occasion"}
}`)
	path := filepath.Join(t.TempDir(), "persona.json")
	require.NoError(t, os.WriteFile(path, data, 0o600))

	p, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, custom.Version, p.Version)
	assert.Equal(t, custom.Directive, p.Directive)
	assert.Equal(t, "Area", p.Labels.Location)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestParse_ReportsMissingFields(t *testing.T) {
	_, err := Parse([]byte(`{"version": "1.0.0", "name": "broken", "directive": "x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "intentInstruction")
	assert.Contains(t, err.Error(), "labels.budget")
	assert.NotContains(t, err.Error(), "directive,")
}

func TestParse_InvalidJSON(t *testing.T) {
	_, err := Parse([]byte(`{`))
	assert.Error(t, err)
}

func TestSave_RoundTripsAndStampsBump(t *testing.T) {
	p := Default()
	p.Bump("1.1.0", time.Date(2026, 3, 1, 9, 0, 0, 0, time.FixedZone("JST", 9*3600)))

	path := filepath.Join(t.TempDir(), "nested", "persona.json")
	require.NoError(t, Save(p, path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", loaded.Version)
	assert.Equal(t, "2026-03-01T00:00:00Z", loaded.LastUpdated)
	assert.Equal(t, p.Directive, loaded.Directive)
}

func TestSave_RejectsInvalidPersona(t *testing.T) {
	p := Default()
	p.LinkLabel = " "

	path := filepath.Join(t.TempDir(), "persona.json")
	err := Save(p, path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "linkLabel")

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr))
}
