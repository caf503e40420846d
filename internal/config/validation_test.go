package config

import (
	"errors"
	"testing"
)

// validConfig returns a Config that passes Validate(). Tests mutate single
// fields to exercise individual checks.
func validConfig() *Config {
	return &Config{
		VectorBaseURL:     "http://localhost:5000",
		CompletionBaseURL: "https://api.openai.com/v1",
		ModelName:         "gpt-4",
		Temperature:       0.7,
		MaxTokens:         500,
		TopK:              5,
		ContextCharBudget: 4000,
		PostgresHost:      "localhost",
		PostgresPort:      5432,
		PostgresUser:      "ragchat",
		PostgresPassword:  "secret_password_123",
		PostgresDBName:    "ragchat",
		PostgresSSLMode:   "disable",
	}
}

func TestValidate_Valid(t *testing.T) {
	t.Parallel()
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("Validate() on valid config: %v", err)
	}
}

func TestValidate_NilConfig(t *testing.T) {
	t.Parallel()
	var c *Config
	if err := c.Validate(); !errors.Is(err, ErrConfigNil) {
		t.Errorf("Validate() on nil config = %v, want ErrConfigNil", err)
	}
}

func TestValidate_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "empty vector URL",
			mutate:  func(c *Config) { c.VectorBaseURL = "" },
			wantErr: ErrInvalidVectorBaseURL,
		},
		{
			name:    "vector URL wrong scheme",
			mutate:  func(c *Config) { c.VectorBaseURL = "ftp://example.com" },
			wantErr: ErrInvalidVectorBaseURL,
		},
		{
			name:    "completion URL missing host",
			mutate:  func(c *Config) { c.CompletionBaseURL = "http://" },
			wantErr: ErrInvalidCompletionBaseURL,
		},
		{
			name:    "empty model name",
			mutate:  func(c *Config) { c.ModelName = "" },
			wantErr: ErrInvalidModelName,
		},
		{
			name:    "temperature too high",
			mutate:  func(c *Config) { c.Temperature = 2.5 },
			wantErr: ErrInvalidTemperature,
		},
		{
			name:    "temperature negative",
			mutate:  func(c *Config) { c.Temperature = -0.1 },
			wantErr: ErrInvalidTemperature,
		},
		{
			name:    "max tokens zero",
			mutate:  func(c *Config) { c.MaxTokens = 0 },
			wantErr: ErrInvalidMaxTokens,
		},
		{
			name:    "top_k zero",
			mutate:  func(c *Config) { c.TopK = 0 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "top_k too large",
			mutate:  func(c *Config) { c.TopK = 100 },
			wantErr: ErrInvalidTopK,
		},
		{
			name:    "context budget too small",
			mutate:  func(c *Config) { c.ContextCharBudget = 10 },
			wantErr: ErrInvalidContextBudget,
		},
		{
			name:    "empty postgres host",
			mutate:  func(c *Config) { c.PostgresHost = "" },
			wantErr: ErrInvalidPostgresHost,
		},
		{
			name:    "postgres port out of range",
			mutate:  func(c *Config) { c.PostgresPort = 70000 },
			wantErr: ErrInvalidPostgresPort,
		},
		{
			name:    "empty postgres db name",
			mutate:  func(c *Config) { c.PostgresDBName = "" },
			wantErr: ErrInvalidPostgresDBName,
		},
		{
			name:    "deprecated ssl mode",
			mutate:  func(c *Config) { c.PostgresSSLMode = "prefer" },
			wantErr: ErrInvalidPostgresSSLMode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}
