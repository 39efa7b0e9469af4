package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/details"
)

func newDetailsCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "details <movie|tv> <id>",
		Short: "Show details, cast, crew and the trailer of one title",
		Example: `  cinedeck details movie 438631
  cinedeck details tv 1399 --json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := parseItemArgs(args[0], args[1])
			if err != nil {
				return err
			}
			return runDetails(cmd.OutOrStdout(), item, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the details as JSON")
	return cmd
}

// parseItemArgs turns "<kind> <id>" into an item reference.
func parseItemArgs(kind, id string) (core.MediaItem, error) {
	k, err := core.ParseMediaKind(kind)
	if err != nil {
		return core.MediaItem{}, err
	}
	n, err := strconv.Atoi(id)
	if err != nil || n <= 0 {
		return core.MediaItem{}, fmt.Errorf("invalid id %q", id)
	}
	return core.MediaItem{Kind: k, ID: n}, nil
}

func runDetails(w io.Writer, item core.MediaItem, asJSON bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	logger, closeLog, err := cliLogger(cfg)
	if err != nil {
		return err
	}
	defer closeLog()
	svc := newServices(cfg, "", logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	load := func(ctx context.Context) (*details.View, error) {
		view, err := details.Load(ctx, svc.catalog, item)
		if err != nil {
			logger.Error("details load failed",
				slog.String("item", item.Key()),
				slog.String("error", err.Error()),
			)
			return nil, fmt.Errorf("%s (%w)", details.UserMessage, err)
		}
		return view, nil
	}

	if asJSON {
		view, err := load(ctx)
		if err != nil {
			return err
		}
		return writeJSON(w, view)
	}
	return runTask(ctx, "Loading details...", func(ctx context.Context) (string, error) {
		view, err := load(ctx)
		if err != nil {
			return "", err
		}
		return renderDetails(view, cfg.Player.InlineFrames, 0), nil
	})
}
