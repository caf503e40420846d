package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/koopa0/ragchat/internal/app"
	"github.com/koopa0/ragchat/internal/config"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history <userId>",
	Short: "Print a user's conversation history, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runHistory(cmd, args[0])
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "maximum turns to print (0 = all)")
}

func runHistory(cmd *cobra.Command, userID string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	a, err := app.Setup(ctx, cfg, slog.Default())
	if err != nil {
		return fmt.Errorf("initializing application: %w", err)
	}
	defer func() {
		if closeErr := a.Close(); closeErr != nil {
			slog.Warn("shutdown error", "error", closeErr)
		}
	}()

	turns, err := a.Chat.History(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetching history: %w", err)
	}

	if len(turns) == 0 {
		cmd.Printf("no history for user %s\n", userID)
		return nil
	}

	if historyLimit > 0 && len(turns) > historyLimit {
		turns = turns[:historyLimit]
	}

	for _, turn := range turns {
		cmd.Printf("[%s]\n", turn.CreatedAt.Local().Format(time.RFC3339))
		cmd.Printf("User: %s\n", turn.Message)
		cmd.Printf("Assistant: %s\n\n", turn.Response)
	}
	return nil
}
