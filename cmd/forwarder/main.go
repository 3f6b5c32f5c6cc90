package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/lueurxax/telegram-webhook-forwarder/internal/app"
	coreerrors "github.com/lueurxax/telegram-webhook-forwarder/internal/core/errors"
	"github.com/lueurxax/telegram-webhook-forwarder/internal/platform/config"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "forwarder",
		Short:         "Forward Telegram group activity to a webhook",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newRunCommand(), newVerifyCommand())

	return cmd
}

func newRunCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Log in and forward group messages until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger := newLogger(cfg.AppEnv, cfg.LogLevel)

			if err := app.New(cfg, &logger).Run(cmd.Context()); err != nil {
				if coreerrors.Is(err, coreerrors.ErrAuthFailed) {
					logger.Error().Err(err).Str("session", cfg.Telegram.SessionPath).Msg("telegram login failed, check credentials or remove the session file")
				} else {
					logger.Error().Err(err).Msg("application error")
				}

				return err
			}

			logger.Info().Msg("application stopped")

			return nil
		},
	}
}

func newVerifyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Check the Telegram API credentials and session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.LoadTelegram()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			logger := newLogger(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"))

			status, err := app.Verify(cmd.Context(), *cfg, &logger)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "API ID and API hash are valid")

			if status.Authorized {
				fmt.Fprintf(out, "Session authorized as %s (ID: %d)\n", status.Name, status.UserID)
			} else {
				fmt.Fprintln(out, "Session not authorized yet; run the forwarder once to log in")
			}

			return nil
		},
	}
}

func newLogger(appEnv, level string) zerolog.Logger {
	var logger zerolog.Logger

	if appEnv == "" || appEnv == "local" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}

	return logger.Level(lvl)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := newRootCommand().ExecuteContext(ctx)

	stop()

	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
