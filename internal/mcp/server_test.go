package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/feed"
	"github.com/vadimtrunov/CineDeck/internal/metadata/tmdb"
)

// mockCatalog implements core.Catalog for testing.
type mockCatalog struct {
	mu         sync.Mutex
	page       *core.Page
	err        error
	lastCat    core.Category
	lastQuery  string
	lastParams core.DiscoverParams
	lastKind   core.MediaKind
	lastID     int
	genres     []core.Genre
	videos     []core.Video
}

func (m *mockCatalog) ListCategory(_ context.Context, c core.Category, _ int) (*core.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCat = c
	return m.page, m.err
}

func (m *mockCatalog) Details(_ context.Context, kind core.MediaKind, id int) (*core.Details, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &core.Details{Item: core.MediaItem{Kind: kind, ID: id, Title: "Fight Club", PosterPath: "/p.jpg"}, Runtime: 139}, nil
}

func (m *mockCatalog) Credits(_ context.Context, _ core.MediaKind, id int) (*core.Credits, error) {
	return &core.Credits{ID: id, Cast: []core.CastMember{{Name: "Brad Pitt", Character: "Tyler Durden"}}}, nil
}

func (m *mockCatalog) Videos(_ context.Context, _ core.MediaKind, _ int) ([]core.Video, error) {
	return m.videos, nil
}

func (m *mockCatalog) Similar(_ context.Context, kind core.MediaKind, id, _ int) (*core.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastKind, m.lastID = kind, id
	return m.page, m.err
}

func (m *mockCatalog) Search(_ context.Context, query string, _ int) (*core.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = query
	return m.page, m.err
}

func (m *mockCatalog) Genres(_ context.Context, kind core.MediaKind) ([]core.Genre, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastKind = kind
	return m.genres, m.err
}

func (m *mockCatalog) Discover(_ context.Context, kind core.MediaKind, p core.DiscoverParams) (*core.Page, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastKind, m.lastParams = kind, p
	return m.page, m.err
}

type mockFeed struct {
	feed *feed.Feed
	err  error
}

func (m *mockFeed) Fetch(context.Context) (*feed.Feed, error) { return m.feed, m.err }

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func onePage() *core.Page {
	return &core.Page{Page: 1, Results: []core.MediaItem{{Kind: core.KindMovie, ID: 27205, Title: "Inception"}}}
}

func callTool(t *testing.T, srv *Server, toolName string, args map[string]any) *mcpsdk.CallToolResult {
	t.Helper()
	ctx := context.Background()

	clientTransport, serverTransport := mcpsdk.NewInMemoryTransports()

	_, err := srv.MCPServer().Connect(ctx, serverTransport, nil)
	if err != nil {
		t.Fatalf("server connect: %v", err)
	}

	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "test-client"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	if err != nil {
		t.Fatalf("client connect: %v", err)
	}
	t.Cleanup(func() { session.Close() })

	result, err := session.CallTool(ctx, &mcpsdk.CallToolParams{
		Name:      toolName,
		Arguments: args,
	})
	if err != nil {
		t.Fatalf("call tool %s: %v", toolName, err)
	}
	return result
}

func textOf(t *testing.T, result *mcpsdk.CallToolResult) string {
	t.Helper()
	if len(result.Content) != 1 {
		t.Fatalf("expected 1 content block, got %d", len(result.Content))
	}
	text, ok := result.Content[0].(*mcpsdk.TextContent)
	if !ok {
		t.Fatalf("expected TextContent, got %T", result.Content[0])
	}
	return text.Text
}

func TestGetFeed(t *testing.T) {
	t.Parallel()
	f := &feed.Feed{
		Rows:     []feed.Row{{Category: core.CategoryTrendingMovies, Title: "Trending Now", Items: onePage().Results}},
		Featured: onePage().Results,
	}
	srv := NewServer(Deps{Feed: &mockFeed{feed: f}}, discardLogger)

	result := callTool(t, srv, "get_feed", map[string]any{})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", textOf(t, result))
	}

	var got feed.Feed
	if err := json.Unmarshal([]byte(textOf(t, result)), &got); err != nil {
		t.Fatalf("unmarshal result: %v", err)
	}
	if len(got.Rows) != 1 || got.Rows[0].Title != "Trending Now" {
		t.Errorf("unexpected rows: %+v", got.Rows)
	}
	if len(got.Featured) != 1 || got.Featured[0].Kind != core.KindMovie {
		t.Errorf("unexpected featured: %+v", got.Featured)
	}
}

func TestGetFeed_Error(t *testing.T) {
	t.Parallel()
	srv := NewServer(Deps{Feed: &mockFeed{err: errors.New("tmdb down")}}, discardLogger)

	result := callTool(t, srv, "get_feed", map[string]any{})
	if !result.IsError {
		t.Fatal("expected error result")
	}
	if !strings.Contains(textOf(t, result), "tmdb down") {
		t.Errorf("unexpected error text: %s", textOf(t, result))
	}
}

func TestListCategory(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{page: onePage()}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "list_category", map[string]any{"category": "upcoming"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", textOf(t, result))
	}
	if cat.lastCat != core.CategoryUpcoming {
		t.Errorf("expected upcoming, got %s", cat.lastCat)
	}

	result = callTool(t, srv, "list_category", map[string]any{"category": "classics"})
	if !result.IsError {
		t.Fatal("expected error for unknown category")
	}
}

func TestGetDetails(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{videos: []core.Video{{Key: "SUXWAEX2jlg", Site: "YouTube", Type: "Trailer"}}}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "get_details", map[string]any{"media_type": "movie", "id": 550})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", textOf(t, result))
	}

	var got map[string]any
	if err := json.Unmarshal([]byte(textOf(t, result)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["poster_url"] != "https://image.tmdb.org/t/p/w500/p.jpg" {
		t.Errorf("unexpected poster_url: %v", got["poster_url"])
	}
	if !strings.HasPrefix(got["backdrop_url"].(string), "https://via.placeholder.com/1280x720") {
		t.Errorf("expected backdrop placeholder, got %v", got["backdrop_url"])
	}
	playback, ok := got["playback"].(map[string]any)
	if !ok {
		t.Fatalf("expected playback, got %v", got["playback"])
	}
	if playback["url"] != "https://www.youtube.com/watch?v=SUXWAEX2jlg" {
		t.Errorf("unexpected playback url: %v", playback["url"])
	}
}

func TestGetDetails_NoTrailerOmitsPlayback(t *testing.T) {
	t.Parallel()
	srv := NewServer(Deps{Catalog: &mockCatalog{}}, discardLogger)

	result := callTool(t, srv, "get_details", map[string]any{"media_type": "tv", "id": 1399})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", textOf(t, result))
	}
	if strings.Contains(textOf(t, result), `"playback"`) {
		t.Error("expected no playback without a trailer")
	}
}

func TestGetDetails_BadArgs(t *testing.T) {
	t.Parallel()
	srv := NewServer(Deps{Catalog: &mockCatalog{}}, discardLogger)

	tests := []map[string]any{
		{"id": 550},
		{"media_type": "person", "id": 1},
		{"media_type": "movie"},
		{"media_type": "movie", "id": -3},
	}
	for _, args := range tests {
		if result := callTool(t, srv, "get_details", args); !result.IsError {
			t.Errorf("expected error for %v", args)
		}
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{page: onePage()}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	result := callTool(t, srv, "search", map[string]any{"query": "inception"})
	if result.IsError {
		t.Fatalf("expected success, got error: %s", textOf(t, result))
	}
	if cat.lastQuery != "inception" {
		t.Errorf("expected query inception, got %q", cat.lastQuery)
	}

	var got core.Page
	if err := json.Unmarshal([]byte(textOf(t, result)), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(got.Results) != 1 || got.Results[0].Title != "Inception" {
		t.Errorf("unexpected results: %+v", got.Results)
	}
}

func TestSimilarAndGenresAndDiscover(t *testing.T) {
	t.Parallel()
	cat := &mockCatalog{page: onePage(), genres: []core.Genre{{ID: 18, Name: "Drama"}}}
	srv := NewServer(Deps{Catalog: cat}, discardLogger)

	if r := callTool(t, srv, "similar", map[string]any{"media_type": "series", "id": 1399}); r.IsError {
		t.Fatalf("similar failed: %s", textOf(t, r))
	}
	if cat.lastKind != core.KindSeries || cat.lastID != 1399 {
		t.Errorf("unexpected similar args: %s %d", cat.lastKind, cat.lastID)
	}

	r := callTool(t, srv, "list_genres", map[string]any{"media_type": "movie"})
	if r.IsError || !strings.Contains(textOf(t, r), "Drama") {
		t.Fatalf("unexpected list_genres result: %s", textOf(t, r))
	}

	r = callTool(t, srv, "discover", map[string]any{
		"media_type": "movie", "genre": 18, "year": 1999, "sort_by": "vote_average.desc",
	})
	if r.IsError {
		t.Fatalf("discover failed: %s", textOf(t, r))
	}
	want := core.DiscoverParams{Genre: 18, Year: 1999, SortBy: "vote_average.desc"}
	if cat.lastParams != want {
		t.Errorf("unexpected discover params: %+v", cat.lastParams)
	}
}

func TestNotConfigured(t *testing.T) {
	t.Parallel()
	srv := NewServer(Deps{}, discardLogger)

	for _, tool := range []string{"get_feed", "search", "list_genres"} {
		r := callTool(t, srv, tool, map[string]any{"query": "x", "media_type": "movie"})
		if !r.IsError {
			t.Errorf("%s: expected error without deps", tool)
		}
	}
}

func TestOnToolCall(t *testing.T) {
	t.Parallel()
	var mu sync.Mutex
	calls := map[string]error{}
	srv := NewServer(Deps{
		Catalog: &mockCatalog{page: onePage()},
		OnToolCall: func(tool string, err error) {
			mu.Lock()
			calls[tool] = err
			mu.Unlock()
		},
	}, discardLogger)

	callTool(t, srv, "search", map[string]any{"query": "x"})
	callTool(t, srv, "get_feed", map[string]any{})

	mu.Lock()
	defer mu.Unlock()
	if err, ok := calls["search"]; !ok || err != nil {
		t.Errorf("expected successful search call, got %v %v", err, ok)
	}
	if err := calls["get_feed"]; err == nil || !strings.Contains(err.Error(), "feed not configured") {
		t.Errorf("expected get_feed error, got %v", err)
	}
}

func TestWithTMDBClient(t *testing.T) {
	t.Parallel()
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/genre/tv/list" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"genres":[{"id":10765,"name":"Sci-Fi & Fantasy"}]}`)
	}))
	t.Cleanup(api.Close)

	srv := NewServer(Deps{Catalog: tmdb.NewForTest(api.URL, discardLogger)}, discardLogger)
	r := callTool(t, srv, "list_genres", map[string]any{"media_type": "tv"})
	if r.IsError {
		t.Fatalf("unexpected error: %s", textOf(t, r))
	}

	var genres []core.Genre
	if err := json.Unmarshal([]byte(textOf(t, r)), &genres); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(genres) != 1 || genres[0].ID != 10765 {
		t.Errorf("unexpected genres: %+v", genres)
	}
}

func TestExtractIntFromArgs(t *testing.T) {
	t.Parallel()
	tests := []struct {
		raw     string
		want    int
		wantErr bool
	}{
		{`{"id": 42}`, 42, false},
		{`{"id": "42"}`, 42, false},
		{`{"id": "x"}`, 0, true},
		{`{"id": true}`, 0, true},
		{`{}`, 0, true},
		{`not json`, 0, true},
	}
	for _, tt := range tests {
		got, err := extractIntFromArgs(json.RawMessage(tt.raw), "id")
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.raw, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("%s: got %d, want %d", tt.raw, got, tt.want)
		}
	}
}
