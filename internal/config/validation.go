package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"slices"
)

// Validate validates configuration values.
// Returns sentinel errors that can be checked with errors.Is().
func (c *Config) Validate() error {
	if c == nil {
		return ErrConfigNil
	}

	// 1. Backend endpoints
	if err := validateHTTPURL(c.VectorBaseURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidVectorBaseURL, err)
	}
	if err := validateHTTPURL(c.CompletionBaseURL); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCompletionBaseURL, err)
	}

	// 2. Completion configuration
	if c.ModelName == "" {
		return fmt.Errorf("%w: model_name cannot be empty", ErrInvalidModelName)
	}

	// Temperature range: 0.0 (deterministic) to 2.0 (maximum creativity)
	if c.Temperature < 0.0 || c.Temperature > 2.0 {
		return fmt.Errorf("%w: must be between 0.0 and 2.0, got %.2f", ErrInvalidTemperature, c.Temperature)
	}

	if c.MaxTokens < 1 || c.MaxTokens > 131072 {
		return fmt.Errorf("%w: must be between 1 and 131,072, got %d", ErrInvalidMaxTokens, c.MaxTokens)
	}

	// 3. Retrieval configuration
	if c.TopK <= 0 || c.TopK > 50 {
		return fmt.Errorf("%w: must be between 1 and 50, got %d", ErrInvalidTopK, c.TopK)
	}
	if c.ContextCharBudget < 100 {
		return fmt.Errorf("%w: must be at least 100, got %d", ErrInvalidContextBudget, c.ContextCharBudget)
	}

	// 4. PostgreSQL configuration
	if c.PostgresHost == "" {
		return fmt.Errorf("%w: host cannot be empty", ErrInvalidPostgresHost)
	}
	if c.PostgresPort < 1 || c.PostgresPort > 65535 {
		return fmt.Errorf("%w: must be between 1 and 65535, got %d", ErrInvalidPostgresPort, c.PostgresPort)
	}
	if c.PostgresDBName == "" {
		return fmt.Errorf("%w: database name cannot be empty", ErrInvalidPostgresDBName)
	}

	if c.PostgresPassword == "ragchat_dev_password" {
		slog.Warn("using default development password for PostgreSQL",
			"warning", "set RAGCHAT_POSTGRES_PASSWORD or DATABASE_URL for production deployments")
	}

	// Modern SSL modes only — 'allow' and 'prefer' are MITM vulnerable
	validSSLModes := []string{"disable", "require", "verify-ca", "verify-full"}
	if !slices.Contains(validSSLModes, c.PostgresSSLMode) {
		return fmt.Errorf("%w: %q is not valid, must be one of: %v",
			ErrInvalidPostgresSSLMode, c.PostgresSSLMode, validSSLModes)
	}

	return nil
}

// validateHTTPURL checks that s is an absolute http(s) URL with a host.
func validateHTTPURL(s string) error {
	if s == "" {
		return fmt.Errorf("URL cannot be empty")
	}
	u, err := url.Parse(s)
	if err != nil {
		return fmt.Errorf("parsing %q: %w", s, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%q must use http or https", s)
	}
	if u.Host == "" {
		return fmt.Errorf("%q is missing a host", s)
	}
	return nil
}
