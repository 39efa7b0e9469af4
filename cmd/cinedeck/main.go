package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

const version = "0.1.0"

var configPath string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, styleError.Render(err.Error()))
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "cinedeck",
		Short: "Movie and TV browser backed by TMDB",
		Long: "CineDeck browses movies and TV shows from The Movie Database.\n" +
			"Use it as a terminal app, a one-shot CLI, a Telegram bot or an MCP tool server.",
	}

	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", defaultConfigPath, "path to configuration file")

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true

	rootCmd.AddCommand(
		newVersionCmd(),
		newBrowseCmd(),
		newFeedCmd(),
		newDetailsCmd(),
		newSearchCmd(),
		newBotCmd(),
		newMCPServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("CineDeck v%s\n", version)
		},
	}
}
