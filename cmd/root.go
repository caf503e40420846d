// Package cmd provides the CLI commands.
//
// Commands:
//   - serve: HTTP JSON API server
//   - chat: one-shot conversational turn from the terminal
//   - history: print a user's conversation history
//   - version: version and configuration summary
//
// Signal handling and graceful shutdown are implemented via context
// cancellation.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/koopa0/ragchat/internal/log"
)

var rootCmd = &cobra.Command{
	Use:           "ragchat",
	Short:         "ragchat - retrieval-augmented conversational API",
	Long:          "ragchat serves conversational turns backed by a similarity index,\na completion backend, and PostgreSQL conversation history.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(*cobra.Command, []string) {
		level := slog.LevelInfo
		if os.Getenv("DEBUG") != "" {
			level = slog.LevelDebug
		}
		slog.SetDefault(log.New(log.Config{Level: level}))
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(chatCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}
