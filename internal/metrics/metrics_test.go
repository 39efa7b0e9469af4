package metrics

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type named string

func (n named) String() string { return string(n) }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler(testLogger()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestInstrumentTransport(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(upstream.Close)

	m := New()
	client := &http.Client{Transport: m.InstrumentTransport(nil)}
	for _, path := range []string{"/ok", "/ok", "/missing"} {
		resp, err := client.Get(upstream.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	out := scrape(t, m)
	require.Contains(t, out, `cinedeck_tmdb_requests_total{code="200",method="get"} 2`)
	require.Contains(t, out, `cinedeck_tmdb_requests_total{code="404",method="get"} 1`)
	require.Contains(t, out, `cinedeck_tmdb_request_duration_seconds_count{code="200"} 2`)
	require.Contains(t, out, "cinedeck_tmdb_in_flight_requests 0")
}

func TestDomainCounters(t *testing.T) {
	m := New()
	m.ObserveFeed(120*time.Millisecond, nil)
	m.ObserveFeed(10*time.Millisecond, errors.New("boom"))
	m.Rotated()
	m.Rotated()
	m.Transition(named("login"), named("home"))
	m.ToolCall("get_feed", nil)

	out := scrape(t, m)
	require.Contains(t, out, `cinedeck_feed_fetches_total{outcome="success"} 1`)
	require.Contains(t, out, `cinedeck_feed_fetches_total{outcome="error"} 1`)
	require.Contains(t, out, "cinedeck_feed_fetch_duration_seconds_count 2")
	require.Contains(t, out, "cinedeck_home_featured_rotations_total 2")
	require.Contains(t, out, `cinedeck_screen_transitions_total{from="login",to="home"} 1`)
	require.Contains(t, out, `cinedeck_mcp_tool_calls_total{outcome="success",tool="get_feed"} 1`)
}

func TestServer_MetricsAndHealth(t *testing.T) {
	m := New()
	m.Rotated()
	srv := NewServer("127.0.0.1:0", m, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Start(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-done:
		t.Fatalf("server failed to start: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("server not ready")
	}

	base := "http://" + srv.Addr()
	resp, err := http.Get(base + "/health")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, "ok\n", string(body))

	resp, err = http.Get(base + "/metrics")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	require.True(t, strings.Contains(string(body), "cinedeck_home_featured_rotations_total 1"))

	require.Error(t, srv.Start(ctx), "second start must fail")

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestServer_AddrBeforeStart(t *testing.T) {
	srv := NewServer(":0", New(), nil)
	require.Empty(t, srv.Addr())
}
