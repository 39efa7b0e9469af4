package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vadimtrunov/CineDeck/internal/feed"
)

// newConfigCmd returns the "config" subcommand group for configuration management.
func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}

	cmd.AddCommand(newConfigValidateCmd())
	return cmd
}

// newConfigValidateCmd returns the "config validate" subcommand that checks config file validity.
func newConfigValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Validate the configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, styleSuccess.Render("✓ Configuration is valid"))

			layout := cfg.FeedOptions().Rows
			if len(layout) == 0 {
				layout = feed.DefaultRows
			}
			rows := make([]string, len(layout))
			for i, c := range layout {
				rows[i] = string(c)
			}
			fmt.Fprintln(out, styleDim.Render("  feed rows: "+strings.Join(rows, ", ")))
			if cfg.Telegram != nil {
				fmt.Fprintln(out, styleDim.Render("  telegram: configured"))
			}
			if cfg.Metrics.Addr != "" {
				fmt.Fprintln(out, styleDim.Render("  metrics: "+cfg.Metrics.Addr))
			}
			return nil
		},
	}
}
