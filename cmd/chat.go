package cmd

import (
	"fmt"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/koopa0/ragchat/internal/app"
	"github.com/koopa0/ragchat/internal/config"
)

var chatCmd = &cobra.Command{
	Use:   "chat <userId> <message...>",
	Short: "Run one conversational turn from the terminal",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runChat(cmd, args[0], strings.Join(args[1:], " "))
	},
}

func runChat(cmd *cobra.Command, userID, message string) error {
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

	turn, err := a.Chat.HandleTurn(ctx, userID, message)
	if err != nil {
		return fmt.Errorf("handling turn: %w", err)
	}

	cmd.Println(turn.Response)
	return nil
}
