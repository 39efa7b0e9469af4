package main

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/CineDeck/internal/frontend/telegram"
)

// newBotCmd returns the "bot" subcommand for running the Telegram bot.
func newBotCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "bot",
		Short: "Start the Telegram bot",
		Long:  "Start the CineDeck Telegram bot: /feed, /search, /details and numbered replies.",
		RunE: func(_ *cobra.Command, _ []string) error {
			return runBot(metricsAddr)
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics.addr)")
	return cmd
}

// runBot initializes services and starts the Telegram bot with an optional metrics server.
func runBot(metricsAddr string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	if cfg.Telegram == nil {
		return errors.New(
			"telegram configuration is required: set telegram.bot_token in config or CINEDECK_TELEGRAM_BOT_TOKEN env var",
		)
	}

	logger, closeLog, err := cliLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	svc := newServices(cfg, metricsAddrFor(cfg, metricsAddr), logger)
	bot, err := telegram.New(
		cfg.Telegram.BotToken,
		cfg.Telegram.AllowedUserIDs,
		telegram.Deps{Catalog: svc.catalog, Feed: svc.feed},
		logger,
	)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	metricsErrCh := svc.startMetrics(ctx, logger)

	logger.Info("telegram bot starting")
	botErr := bot.Start(ctx)
	cancel() // Unblock the metrics server waiting on ctx.

	// Surface the metrics error if the bot exited cleanly.
	if metricsErr := <-metricsErrCh; metricsErr != nil {
		if botErr == nil {
			return metricsErr
		}
		logger.Error("metrics server error", slog.String("error", metricsErr.Error()))
	}
	return botErr
}
