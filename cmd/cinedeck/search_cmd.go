package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

func newSearchCmd() *cobra.Command {
	var (
		page   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "search <query...>",
		Short: "Search movies and TV shows",
		Example: `  cinedeck search dune
  cinedeck search the office --page 2`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd.OutOrStdout(), strings.Join(args, " "), page, asJSON)
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the results as JSON")
	return cmd
}

func runSearch(w io.Writer, query string, page int, asJSON bool) error {
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

	if asJSON {
		res, err := svc.catalog.Search(ctx, query, page)
		if err != nil {
			return fmt.Errorf("search: %w", err)
		}
		return writeJSON(w, res)
	}
	return runTask(ctx, "Searching...", func(ctx context.Context) (string, error) {
		res, err := svc.catalog.Search(ctx, query, page)
		if err != nil {
			return "", fmt.Errorf("search: %w", err)
		}
		header := styleHeader.Render(fmt.Sprintf("Results for %q", query)) +
			styleDim.Render(fmt.Sprintf("  page %d of %d, %d total", res.Page, res.TotalPages, res.TotalResults))
		return header + "\n" + renderItems(res.Results), nil
	})
}
