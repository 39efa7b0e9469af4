package main

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/CineDeck/internal/config"
	mcpserver "github.com/vadimtrunov/CineDeck/internal/mcp"
)

// newMCPServeCmd returns the "mcp-serve" subcommand. It exposes the catalog
// as MCP tools over stdin/stdout; logs go to stderr.
func newMCPServeCmd() *cobra.Command {
	var metricsAddr string
	cmd := &cobra.Command{
		Use:   "mcp-serve",
		Short: "Start the MCP tool server over stdio",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			// stdout carries the protocol.
			w, closeLog, err := config.LogWriter(cfg.App, os.Stderr)
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()
			logger := config.SetupLogger(cfg.App.LogLevel, w)

			svc := newServices(cfg, metricsAddrFor(cfg, metricsAddr), logger)
			deps := mcpserver.Deps{
				Catalog:      svc.catalog,
				Feed:         svc.feed,
				InlineFrames: cfg.Player.InlineFrames,
				Version:      version,
			}
			if svc.metrics != nil {
				deps.OnToolCall = svc.metrics.ToolCall
			}

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			metricsErrCh := svc.startMetrics(ctx, logger)

			srv := mcpserver.NewServer(deps, logger)
			serveErr := srv.ServeStdio(ctx)
			cancel()
			if metricsErr := <-metricsErrCh; metricsErr != nil && serveErr == nil {
				return metricsErr
			}
			return serveErr
		},
	}
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address (overrides metrics.addr)")
	return cmd
}
