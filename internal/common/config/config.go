// internal/common/config/config.go
package config

import "fmt"

// Config is the main application configuration struct.
type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Catalog    CatalogConfig    `mapstructure:"catalog"`
	Completion CompletionConfig `mapstructure:"completion"`
	Persona    PersonaConfig    `mapstructure:"persona"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig holds the inbound HTTP listener settings.
type ServerConfig struct {
	Address            string   `mapstructure:"address"`
	ReadTimeout        int      `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout       int      `mapstructure:"write_timeout"`    // milliseconds
	ShutdownTimeout    int      `mapstructure:"shutdown_timeout"` // milliseconds
	TurnTimeout        int      `mapstructure:"turn_timeout"`     // milliseconds, below WriteTimeout
	CORSAllowedOrigins []string `mapstructure:"cors_allowed_origins"`
	// RateLimitPerMinute caps turn submissions per client IP. 0 disables.
	RateLimitPerMinute int      `mapstructure:"rate_limit_per_minute"`
}

type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type PostgresConfig struct {
	Host           string `mapstructure:"host"`
	Port           int    `mapstructure:"port"`
	Database       string `mapstructure:"database"`
	User           string `mapstructure:"user"`
	Password       string `mapstructure:"password"`
	MaxConnections int    `mapstructure:"max_connections"`
	MaxIdle        int    `mapstructure:"max_idle"`
	SSLMode        string `mapstructure:"sslmode"`
}

// GetDSN returns the PostgreSQL connection string
func (p PostgresConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.Database, p.SSLMode,
	)
}

// RedisConfig configures the optional catalog cache. Disabled means every
// catalog read goes to Postgres.
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// CatalogConfig names the two tables and sets the catalog source policy.
type CatalogConfig struct {
	Table              string `mapstructure:"table"`
	LogTable           string `mapstructure:"log_table"`
	CacheTTL           int    `mapstructure:"cache_ttl"`     // milliseconds
	QueryTimeout       int    `mapstructure:"query_timeout"` // milliseconds
	TrustClientCatalog bool   `mapstructure:"trust_client_catalog"`
	AutoMigrate        bool   `mapstructure:"auto_migrate"`
}

// CompletionConfig holds the chat-completion provider settings.
type CompletionConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Timeout int           `mapstructure:"timeout"` // milliseconds
	Breaker BreakerConfig `mapstructure:"breaker"`
}

// BreakerConfig tunes the circuit breaker in front of the provider.
type BreakerConfig struct {
	MaxRequests      uint32 `mapstructure:"max_requests"`
	Interval         int    `mapstructure:"interval"` // milliseconds
	OpenTimeout      int    `mapstructure:"open_timeout"` // milliseconds
	FailureThreshold uint32 `mapstructure:"failure_threshold"`
}

// PersonaConfig points at the persona/prompt directive file. An empty path
// selects the built-in persona.
type PersonaConfig struct {
	Path string `mapstructure:"path"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}
