// Package config provides application configuration management with multi-source priority.
//
// Configuration sources (highest to lowest priority):
//  1. Environment variables (runtime override)
//  2. Config file (~/.ragchat/config.yaml)
//  3. Default values
//
// Main configuration categories:
//   - Vector: similarity index backend (base URL, request timeout)
//   - Completion: LLM backend (base URL, model, temperature, max tokens)
//   - Retrieval: top-k and prompt context budget
//   - Storage: PostgreSQL connection (see storage.go)
//   - Server: CORS, proxy trust, rate limiting
//   - Tracing: optional OTLP trace export (endpoint, service name, environment)
//
// Security: secrets (PostgreSQL password, completion API key) come from the
// environment only and are masked in MarshalJSON/String.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

var (
	// ErrConfigNil indicates the configuration is nil.
	ErrConfigNil = errors.New("configuration is nil")

	// ErrInvalidVectorBaseURL indicates the similarity backend URL is invalid.
	ErrInvalidVectorBaseURL = errors.New("invalid vector base URL")

	// ErrInvalidCompletionBaseURL indicates the completion backend URL is invalid.
	ErrInvalidCompletionBaseURL = errors.New("invalid completion base URL")

	// ErrInvalidModelName indicates the completion model name is invalid.
	ErrInvalidModelName = errors.New("invalid model name")

	// ErrInvalidTemperature indicates the temperature value is out of range.
	ErrInvalidTemperature = errors.New("invalid temperature")

	// ErrInvalidMaxTokens indicates the max tokens value is out of range.
	ErrInvalidMaxTokens = errors.New("invalid max tokens")

	// ErrInvalidTopK indicates the retrieval top-k value is out of range.
	ErrInvalidTopK = errors.New("invalid retrieval top_k")

	// ErrInvalidContextBudget indicates the context character budget is out of range.
	ErrInvalidContextBudget = errors.New("invalid context char budget")

	// ErrInvalidPostgresHost indicates the PostgreSQL host is invalid.
	ErrInvalidPostgresHost = errors.New("invalid PostgreSQL host")

	// ErrInvalidPostgresPort indicates the PostgreSQL port is out of range.
	ErrInvalidPostgresPort = errors.New("invalid PostgreSQL port")

	// ErrInvalidPostgresDBName indicates the PostgreSQL database name is invalid.
	ErrInvalidPostgresDBName = errors.New("invalid PostgreSQL database name")

	// ErrInvalidPostgresSSLMode indicates the PostgreSQL SSL mode is invalid.
	ErrInvalidPostgresSSLMode = errors.New("invalid PostgreSQL SSL mode")
)

// Retrieval defaults. TopK matches the similarity backend's default page
// size; the context budget bounds how many passage characters reach the
// prompt (the backends have no limit of their own).
const (
	DefaultTopK              = 5
	DefaultContextCharBudget = 4000
)

// Completion defaults, chosen to balance response variability against
// latency and cost. Callers may override per turn.
const (
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 500
)

// Config stores application configuration.
// SECURITY: sensitive fields are explicitly masked in MarshalJSON().
type Config struct {
	// Similarity index backend
	VectorBaseURL     string `mapstructure:"vector_base_url" json:"vector_base_url"`
	VectorTimeoutSecs int    `mapstructure:"vector_timeout_secs" json:"vector_timeout_secs"`

	// Completion backend
	CompletionBaseURL     string  `mapstructure:"completion_base_url" json:"completion_base_url"`
	CompletionAPIKey      string  `mapstructure:"completion_api_key" json:"completion_api_key"` // SENSITIVE: masked in MarshalJSON
	ModelName             string  `mapstructure:"model_name" json:"model_name"`
	Temperature           float64 `mapstructure:"temperature" json:"temperature"`
	MaxTokens             int     `mapstructure:"max_tokens" json:"max_tokens"`
	CompletionTimeoutSecs int     `mapstructure:"completion_timeout_secs" json:"completion_timeout_secs"`

	// Retrieval
	TopK              int `mapstructure:"top_k" json:"top_k"`
	ContextCharBudget int `mapstructure:"context_char_budget" json:"context_char_budget"`

	// Storage configuration (see storage.go)
	PostgresHost     string `mapstructure:"postgres_host" json:"postgres_host"`
	PostgresPort     int    `mapstructure:"postgres_port" json:"postgres_port"`
	PostgresUser     string `mapstructure:"postgres_user" json:"postgres_user"`
	PostgresPassword string `mapstructure:"postgres_password" json:"postgres_password"` // SENSITIVE: masked in MarshalJSON
	PostgresDBName   string `mapstructure:"postgres_db_name" json:"postgres_db_name"`
	PostgresSSLMode  string `mapstructure:"postgres_ssl_mode" json:"postgres_ssl_mode"`

	// Server configuration (serve mode only)
	CORSOrigins []string `mapstructure:"cors_origins" json:"cors_origins"`
	TrustProxy  bool     `mapstructure:"trust_proxy" json:"trust_proxy"`
	RateBurst   int      `mapstructure:"rate_burst" json:"rate_burst"`

	// Tracing (optional, serve mode only)
	TracingEnabled     bool   `mapstructure:"tracing_enabled" json:"tracing_enabled"`
	TracingEndpoint    string `mapstructure:"tracing_endpoint" json:"tracing_endpoint"`
	TracingServiceName string `mapstructure:"tracing_service_name" json:"tracing_service_name"`
	TracingEnvironment string `mapstructure:"tracing_environment" json:"tracing_environment"`
}

// Load loads configuration.
// Priority: environment variables > configuration file > default values.
func Load() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("getting user home directory: %w", err)
	}

	configDir := filepath.Join(home, ".ragchat")
	if err := os.MkdirAll(configDir, 0o750); err != nil {
		return nil, fmt.Errorf("creating config directory: %w", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(configDir)
	viper.AddConfigPath(".") // Also support current directory

	setDefaults()
	bindEnvVariables()

	if err := viper.ReadInConfig(); err != nil {
		// A missing config file is not an error, defaults apply
		var configNotFound viper.ConfigFileNotFoundError
		if !errors.As(err, &configNotFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		slog.Debug("configuration file not found, using default values",
			"search_paths", []string{configDir, "."})
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parsing configuration: %w", err)
	}

	// DATABASE_URL has highest priority for PostgreSQL settings
	if err := cfg.parseDatabaseURL(); err != nil {
		return nil, fmt.Errorf("parsing DATABASE_URL: %w", err)
	}

	// Fail fast on invalid values
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating configuration: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets all default configuration values.
func setDefaults() {
	// Similarity backend defaults (matching the vector service dev port)
	viper.SetDefault("vector_base_url", "http://localhost:5000")
	viper.SetDefault("vector_timeout_secs", 10)

	// Completion backend defaults
	viper.SetDefault("completion_base_url", "https://api.openai.com/v1")
	viper.SetDefault("model_name", "gpt-4")
	viper.SetDefault("temperature", DefaultTemperature)
	viper.SetDefault("max_tokens", DefaultMaxTokens)
	viper.SetDefault("completion_timeout_secs", 60)

	// Retrieval defaults
	viper.SetDefault("top_k", DefaultTopK)
	viper.SetDefault("context_char_budget", DefaultContextCharBudget)

	// PostgreSQL defaults (matching docker-compose.yml)
	viper.SetDefault("postgres_host", "localhost")
	viper.SetDefault("postgres_port", 5432)
	viper.SetDefault("postgres_user", "ragchat")
	viper.SetDefault("postgres_password", "ragchat_dev_password")
	viper.SetDefault("postgres_db_name", "ragchat")
	viper.SetDefault("postgres_ssl_mode", "disable")

	// Server defaults
	viper.SetDefault("cors_origins", []string{"http://localhost:4200"})
	viper.SetDefault("trust_proxy", false)
	viper.SetDefault("rate_burst", 60)

	// Tracing defaults (off by default; needs a local OTLP collector)
	viper.SetDefault("tracing_enabled", false)
	viper.SetDefault("tracing_endpoint", "localhost:4318")
	viper.SetDefault("tracing_service_name", "ragchat")
	viper.SetDefault("tracing_environment", "dev")
}

// bindEnvVariables binds environment variables explicitly.
// Secrets are env-only: COMPLETION_API_KEY and DATABASE_URL (or
// RAGCHAT_POSTGRES_PASSWORD) never belong in config.yaml for production.
func bindEnvVariables() {
	// Hardcoded keys cannot fail to bind; a panic here is a bug
	mustBind := func(key, envVar string) {
		if err := viper.BindEnv(key, envVar); err != nil {
			panic(fmt.Sprintf("BUG: failed to bind %q to %q: %v", key, envVar, err))
		}
	}

	mustBind("completion_api_key", "COMPLETION_API_KEY")
	mustBind("completion_base_url", "RAGCHAT_COMPLETION_BASE_URL")
	mustBind("model_name", "RAGCHAT_MODEL_NAME")
	mustBind("vector_base_url", "RAGCHAT_VECTOR_BASE_URL")
	mustBind("postgres_password", "RAGCHAT_POSTGRES_PASSWORD")
	mustBind("cors_origins", "RAGCHAT_CORS_ORIGINS")
	mustBind("trust_proxy", "RAGCHAT_TRUST_PROXY")
	mustBind("rate_burst", "RAGCHAT_RATE_BURST")
	mustBind("tracing_enabled", "RAGCHAT_TRACING_ENABLED")
	mustBind("tracing_endpoint", "RAGCHAT_TRACING_ENDPOINT")
}

// maskedValue is the placeholder for masked sensitive data.
// Full-width blocks (U+2588) avoid accidental substring matches against
// real secret material.
const maskedValue = "████████"

// maskSecret masks a secret string for safe logging.
// Secrets of 8 characters or fewer are fully masked; longer secrets keep
// the first and last 2 characters for debug utility.
func maskSecret(s string) string {
	if s == "" {
		return ""
	}
	if len(s) <= 8 {
		return maskedValue
	}
	return s[:2] + "<" + maskedValue + ">" + s[len(s)-2:]
}

// MarshalJSON implements json.Marshaler with explicit sensitive field masking.
// When adding new sensitive fields, update this method.
func (c Config) MarshalJSON() ([]byte, error) {
	type alias Config
	a := alias(c)
	a.PostgresPassword = maskSecret(a.PostgresPassword)
	a.CompletionAPIKey = maskSecret(a.CompletionAPIKey)
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("marshal config: %w", err)
	}
	return data, nil
}

// String implements Stringer to prevent accidental printing of secrets.
func (c Config) String() string {
	data, err := c.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("Config{error: %v}", err)
	}
	return string(data)
}
