// internal/common/config/loader_test.go
package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const minimalConfig = `
database:
  postgres:
    host: localhost
    database: concierge
    user: concierge
completion:
  api_key: sk-test
`

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	cfg, err := LoadFromFile(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Address)
	assert.Equal(t, 180000, cfg.Server.TurnTimeout)
	assert.Greater(t, cfg.Server.WriteTimeout, cfg.Server.TurnTimeout)
	assert.Equal(t, 5432, cfg.Database.Postgres.Port)
	assert.Equal(t, "disable", cfg.Database.Postgres.SSLMode)
	assert.Equal(t, "restaurants", cfg.Catalog.Table)
	assert.Equal(t, "user_logs", cfg.Catalog.LogTable)
	assert.Equal(t, "gpt-4o-mini", cfg.Completion.Model)
	assert.Equal(t, "https://api.openai.com", cfg.Completion.BaseURL)
	assert.Equal(t, uint32(5), cfg.Completion.Breaker.FailureThreshold)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.False(t, cfg.Database.Redis.Enabled)
}

func TestLoadFromFile_ExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("TEST_DB_HOST", "db.internal")
	t.Setenv("TEST_COMPLETION_KEY", "sk-from-env")

	cfg, err := LoadFromFile(writeConfig(t, `
database:
  postgres:
    host: ${TEST_DB_HOST}
    database: concierge
    user: concierge
completion:
  api_key: ${TEST_COMPLETION_KEY}
  model: gpt-4o
`))
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Postgres.Host)
	assert.Equal(t, "sk-from-env", cfg.Completion.APIKey)
	assert.Equal(t, "gpt-4o", cfg.Completion.Model)
}

func TestLoadFromFile_APIKeyFromEnvironment(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg, err := LoadFromFile(writeConfig(t, `
database:
  postgres:
    host: localhost
    database: concierge
    user: concierge
`))
	require.NoError(t, err)
	assert.Equal(t, "sk-openai", cfg.Completion.APIKey)
}

func TestLoadFromFile_Validation(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("DB_USER", "")

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{
			name: "missing postgres host",
			body: `
database:
  postgres:
    database: concierge
    user: concierge
completion:
  api_key: sk-test
`,
			wantErr: "database.postgres.host is required",
		},
		{
			name: "missing api key",
			body: `
database:
  postgres:
    host: localhost
    database: concierge
    user: concierge
`,
			wantErr: "completion.api_key is required",
		},
		{
			name: "redis enabled without address",
			body: `
database:
  postgres:
    host: localhost
    database: concierge
    user: concierge
  redis:
    enabled: true
completion:
  api_key: sk-test
`,
			wantErr: "database.redis.address is required",
		},
		{
			name: "same table names",
			body: minimalConfig + `
catalog:
  table: logs
  log_table: logs
`,
			wantErr: "must differ",
		},
		{
			name: "write deadline shorter than turn",
			body: minimalConfig + `
server:
  write_timeout: 120000
  turn_timeout: 180000
`,
			wantErr: "server.write_timeout (120000ms) must exceed server.turn_timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestGetDuration(t *testing.T) {
	assert.Equal(t, 1500*time.Millisecond, GetDuration(1500))
	assert.Equal(t, time.Duration(0), GetDuration(0))
}
