package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/feed"
	"github.com/vadimtrunov/CineDeck/internal/format"
)

func newFeedCmd() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Fetch the home feed once",
		Long:  "Fetch every home row concurrently and print the rows and the featured items.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runFeed(cmd.OutOrStdout(), asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the feed as JSON")
	return cmd
}

func runFeed(w io.Writer, asJSON bool) error {
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

	fetch := func(ctx context.Context) (*feed.Feed, error) {
		f, err := svc.feed.Fetch(ctx)
		if err != nil {
			logger.Error("feed fetch failed", slog.String("error", err.Error()))
			return nil, fmt.Errorf("%s (%w)", loadFailedMsg, err)
		}
		return f, nil
	}

	if asJSON {
		f, err := fetch(ctx)
		if err != nil {
			return err
		}
		return writeJSON(w, f)
	}
	return runTask(ctx, "Loading movies...", func(ctx context.Context) (string, error) {
		f, err := fetch(ctx)
		if err != nil {
			return "", err
		}
		return renderFeed(f), nil
	})
}

// renderFeed prints the featured items, then every row.
func renderFeed(f *feed.Feed) string {
	var sb strings.Builder
	if len(f.Featured) > 0 {
		sb.WriteString(styleHeader.Render("Featured"))
		sb.WriteString("\n")
		sb.WriteString(renderItems(f.Featured))
		sb.WriteString("\n")
	}
	for _, row := range f.Rows {
		title := row.Title
		if title == "" {
			title = row.Category.Label()
		}
		sb.WriteString(styleHeader.Render(title))
		sb.WriteString("\n")
		sb.WriteString(renderItems(row.Items))
		sb.WriteString("\n")
	}
	return sb.String()
}

// renderItems prints one line per item: kind, id, title, year and rating.
func renderItems(items []core.MediaItem) string {
	if len(items) == 0 {
		return styleDim.Render("  (none)") + "\n"
	}
	var sb strings.Builder
	for _, item := range items {
		line := fmt.Sprintf("  %-5s %-8d %s", item.Kind, item.ID, itemTitle(item))
		if item.VoteAverage > 0 {
			line += styleDim.Render("  ★ " + format.Rating(item.VoteAverage))
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return sb.String()
}
