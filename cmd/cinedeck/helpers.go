package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"os/exec"
	"runtime"

	"github.com/charmbracelet/lipgloss"

	"github.com/vadimtrunov/CineDeck/internal/config"
	"github.com/vadimtrunov/CineDeck/internal/feed"
	"github.com/vadimtrunov/CineDeck/internal/metadata/tmdb"
	"github.com/vadimtrunov/CineDeck/internal/metrics"
	"github.com/vadimtrunov/CineDeck/internal/screen"
)

// defaultConfigPath is used when present; otherwise the config comes from
// the environment alone.
const defaultConfigPath = "configs/cinedeck.yaml"

// Lipgloss styles used across commands.
var (
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))  // red
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
	styleInfo    = lipgloss.NewStyle().Foreground(lipgloss.Color("12")) // blue
	styleDim     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray

	styleHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("5"))
)

// loadConfig loads and validates the configuration file.
func loadConfig(path string) (*config.Config, error) {
	if path == defaultConfigPath {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	return cfg, nil
}

// cliLogger logs to app.log_file, or stderr so stdout stays clean for output.
func cliLogger(cfg *config.Config) (*slog.Logger, func(), error) {
	w, closeLog, err := config.LogWriter(cfg.App, os.Stderr)
	if err != nil {
		return nil, nil, err
	}
	return config.SetupLogger(cfg.App.LogLevel, w), func() { _ = closeLog() }, nil
}

// services are the long-lived objects every command builds on.
type services struct {
	catalog     *tmdb.Client
	feed        *feed.Aggregator
	metrics     *metrics.Metrics // nil when metrics are off
	metricsAddr string
}

// metricsAddrFor returns the flag value when set, else metrics.addr.
func metricsAddrFor(cfg *config.Config, flag string) string {
	if flag != "" {
		return flag
	}
	return cfg.Metrics.Addr
}

// newServices builds the TMDB client and feed aggregator. With a metrics
// address, outbound requests and feed fetches are instrumented.
func newServices(cfg *config.Config, metricsAddr string, logger *slog.Logger) *services {
	svc := &services{metricsAddr: metricsAddr}
	opts := tmdb.Options{
		APIKey:      cfg.TMDB.APIKey,
		AccessToken: cfg.TMDB.AccessToken,
		BaseURL:     cfg.TMDB.BaseURL,
		HTTP:        cfg.HTTP,
	}
	if metricsAddr != "" {
		svc.metrics = metrics.New()
		opts.Transport = svc.metrics.InstrumentTransport(nil)
	}
	svc.catalog = tmdb.New(opts, logger)
	if cfg.TMDB.BaseURL != "" {
		logger.Info("TMDB client initialized", slog.String("base_url", sanitizeURL(cfg.TMDB.BaseURL)))
	}

	svc.feed = feed.New(svc.catalog, cfg.FeedOptions(), logger)
	if svc.metrics != nil {
		svc.feed.SetObserver(svc.metrics.ObserveFeed)
	}
	return svc
}

// startMetrics serves /metrics in the background when enabled. The returned
// channel yields the server error once ctx is canceled, or is closed
// immediately when metrics are off.
func (s *services) startMetrics(ctx context.Context, logger *slog.Logger) <-chan error {
	errCh := make(chan error, 1)
	if s.metrics == nil {
		close(errCh)
		return errCh
	}
	srv := metrics.NewServer(s.metricsAddr, s.metrics, logger)
	go func() {
		err := srv.Start(ctx)
		if err != nil {
			logger.Error("metrics server stopped", slog.String("error", err.Error()))
		}
		errCh <- err
	}()
	return errCh
}

// onRotate counts carousel rotations when metrics are on.
func (s *services) onRotate() func() {
	if s.metrics == nil {
		return nil
	}
	return s.metrics.Rotated
}

// onTransition logs every screen change and counts it when metrics are on.
func (s *services) onTransition(logger *slog.Logger) screen.TransitionFunc {
	return func(from, to screen.State, ev screen.Event) {
		logger.Debug("screen transition",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
			slog.String("event", ev.String()),
		)
		if s.metrics != nil {
			s.metrics.Transition(from, to)
		}
	}
}

// openBrowser opens target with the platform's default handler.
func openBrowser(target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", target)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.Command("xdg-open", target)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", target, err)
	}
	go func() { _ = cmd.Wait() }()
	return nil
}

// sanitizeURL strips credentials, query params, and fragment from a URL for safe logging.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || u.Scheme == "" {
		return "<redacted>"
	}
	u.User = nil
	u.RawQuery = ""
	u.Fragment = ""
	return u.String()
}
