package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/koopa0/ragchat/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	AppVersion = "development"
	BuildTime  = "unknown"
	GitCommit  = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runVersion(cmd)
	},
}

func runVersion(cmd *cobra.Command) error {
	cmd.Printf("ragchat %s\n", AppVersion)
	cmd.Printf("Build Time: %s\n", BuildTime)
	cmd.Printf("Git Commit: %s\n", GitCommit)
	cmd.Println()

	cfg, err := config.Load()
	if err != nil {
		// Version must work even with a broken config file.
		cmd.Println("Configuration: unavailable")
		return nil
	}

	cmd.Println("Configuration:")
	cmd.Printf("  Model: %s\n", cfg.ModelName)
	cmd.Printf("  Temperature: %.2f\n", cfg.Temperature)
	cmd.Printf("  Max tokens: %d\n", cfg.MaxTokens)
	cmd.Printf("  Vector backend: %s\n", cfg.VectorBaseURL)
	cmd.Printf("  Completion backend: %s\n", cfg.CompletionBaseURL)
	cmd.Printf("  Database: %s:%d/%s\n", cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDBName)

	if key := os.Getenv("COMPLETION_API_KEY"); key != "" {
		cmd.Println("  COMPLETION_API_KEY: configured")
	} else {
		cmd.Println("  COMPLETION_API_KEY: not set")
	}

	return nil
}
