package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/details"
	"github.com/vadimtrunov/CineDeck/internal/feed"
	"github.com/vadimtrunov/CineDeck/internal/metadata/tmdb"
)

// FeedFetcher produces the home feed. *feed.Aggregator satisfies it.
type FeedFetcher interface {
	Fetch(ctx context.Context) (*feed.Feed, error)
}

// Deps holds dependencies for MCP tool handlers.
type Deps struct {
	Catalog core.Catalog
	Feed    FeedFetcher
	// InlineFrames selects embedded trailer URLs in get_details.
	InlineFrames bool
	// OnToolCall observes every call (metrics).
	OnToolCall func(tool string, err error)
	Version    string
}

// Server wraps an MCP SDK server with CineDeck tool handlers.
type Server struct {
	server *mcpsdk.Server
	deps   Deps
	logger *slog.Logger
}

type toolHandler func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error)

// NewServer creates an MCP server with all CineDeck tools registered.
func NewServer(deps Deps, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if deps.Version == "" {
		deps.Version = "dev"
	}

	s := mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "cinedeck",
			Version: deps.Version,
		},
		&mcpsdk.ServerOptions{Logger: logger},
	)

	srv := &Server{server: s, deps: deps, logger: logger}
	srv.registerTools()
	return srv
}

// ServeStdio runs the MCP server over stdin/stdout.
func (s *Server) ServeStdio(ctx context.Context) error {
	return s.server.Run(ctx, &mcpsdk.StdioTransport{})
}

// MCPServer returns the underlying MCP SDK server (for testing).
func (s *Server) MCPServer() *mcpsdk.Server {
	return s.server
}

func (s *Server) registerTools() {
	s.add(getFeedTool(), s.handleGetFeed)
	s.add(listCategoryTool(), s.handleListCategory)
	s.add(getDetailsTool(), s.handleGetDetails)
	s.add(searchTool(), s.handleSearch)
	s.add(similarTool(), s.handleSimilar)
	s.add(listGenresTool(), s.handleListGenres)
	s.add(discoverTool(), s.handleDiscover)
}

// add registers a tool and reports each call to OnToolCall.
func (s *Server) add(tool *mcpsdk.Tool, h toolHandler) {
	name := tool.Name
	s.server.AddTool(tool, func(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
		res, err := h(ctx, req)
		if s.deps.OnToolCall != nil {
			callErr := err
			if callErr == nil && res != nil && res.IsError {
				callErr = errors.New(resultText(res))
			}
			s.deps.OnToolCall(name, callErr)
		}
		return res, err
	})
}

// Tool definitions.

func getFeedTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_feed",
		Description: "Get the home feed: every category row (trending, popular, top rated, now playing, coming soon, TV) plus the featured carousel items.",
		InputSchema: map[string]any{
			"type":       "object",
			"properties": map[string]any{},
		},
	}
}

func listCategoryTool() *mcpsdk.Tool {
	categories := make([]any, 0, len(core.AllCategories))
	for _, c := range core.AllCategories {
		categories = append(categories, string(c))
	}
	return &mcpsdk.Tool{
		Name:        "list_category",
		Description: "List one page of a movie or TV category.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"category": map[string]any{
					"type":        "string",
					"enum":        categories,
					"description": "Category name",
				},
				"page": pageProperty(),
			},
			"required": []any{"category"},
		},
	}
}

func getDetailsTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "get_details",
		Description: "Get full details of a movie or TV series: genres, runtime, top cast and crew, videos and the trailer link.",
		InputSchema: kindIDSchema(),
	}
}

func searchTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "search",
		Description: "Search movies and TV series by title. People are excluded.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"query": map[string]any{
					"type":        "string",
					"description": "Title to search for",
				},
				"page": pageProperty(),
			},
			"required": []any{"query"},
		},
	}
}

func similarTool() *mcpsdk.Tool {
	schema := kindIDSchema()
	schema["properties"].(map[string]any)["page"] = pageProperty()
	return &mcpsdk.Tool{
		Name:        "similar",
		Description: "List movies or series similar to the given one.",
		InputSchema: schema,
	}
}

func listGenresTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "list_genres",
		Description: "List the genre ids and names for movies or TV.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"media_type": mediaTypeProperty(),
			},
			"required": []any{"media_type"},
		},
	}
}

func discoverTool() *mcpsdk.Tool {
	return &mcpsdk.Tool{
		Name:        "discover",
		Description: "Discover movies or series filtered by genre and year, sorted by a TMDB sort key such as popularity.desc.",
		InputSchema: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"media_type": mediaTypeProperty(),
				"genre": map[string]any{
					"type":        "integer",
					"description": "Genre id from list_genres",
				},
				"year": map[string]any{
					"type":        "integer",
					"description": "Release or first air year",
				},
				"sort_by": map[string]any{
					"type":        "string",
					"description": "Sort key, e.g. popularity.desc or vote_average.desc",
				},
				"page": pageProperty(),
			},
			"required": []any{"media_type"},
		},
	}
}

func kindIDSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"media_type": mediaTypeProperty(),
			"id": map[string]any{
				"type":        "integer",
				"description": "TMDB id",
			},
		},
		"required": []any{"media_type", "id"},
	}
}

func mediaTypeProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"enum":        []any{"movie", "tv"},
		"description": "movie or tv",
	}
}

func pageProperty() map[string]any {
	return map[string]any{
		"type":        "integer",
		"description": "Page number, starting at 1",
	}
}

// Tool handlers: each parses arguments, calls the catalog, returns JSON text content.

func (s *Server) handleGetFeed(ctx context.Context, _ *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Feed == nil {
		return toolError("feed not configured"), nil
	}
	f, err := s.deps.Feed.Fetch(ctx)
	if err != nil {
		return toolError(fmt.Sprintf("load feed failed: %v", err)), nil
	}
	return toolJSON(f)
}

func (s *Server) handleListCategory(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("TMDB client not configured"), nil
	}
	name, err := extractStringFromArgs(req.Params.Arguments, "category")
	if err != nil {
		return toolError(err.Error()), nil
	}
	category, err := core.ParseCategory(name)
	if err != nil {
		return toolError(err.Error()), nil
	}

	page, err := s.deps.Catalog.ListCategory(ctx, category, optionalInt(req.Params.Arguments, "page"))
	if err != nil {
		return toolError(fmt.Sprintf("list %s failed: %v", category, err)), nil
	}
	return toolJSON(page)
}

// detailsResult is get_details' payload: the view plus resolved image and trailer URLs.
type detailsResult struct {
	*details.View
	PosterURL   string            `json:"poster_url"`
	BackdropURL string            `json:"backdrop_url"`
	Playback    *details.Playback `json:"playback,omitempty"`
}

func (s *Server) handleGetDetails(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("TMDB client not configured"), nil
	}
	kind, id, err := extractKindID(req.Params.Arguments)
	if err != nil {
		return toolError(err.Error()), nil
	}

	view, err := details.Load(ctx, s.deps.Catalog, core.MediaItem{Kind: kind, ID: id})
	if err != nil {
		return toolError(fmt.Sprintf("load details failed: %v", err)), nil
	}

	out := detailsResult{
		View:        view,
		PosterURL:   tmdb.PosterURL(view.Details.Item.PosterPath, tmdb.SizeLarge),
		BackdropURL: tmdb.BackdropURL(view.Details.Item.BackdropPath, tmdb.SizeLarge),
	}
	if pb, err := details.ResolvePlayback(view.Trailer, s.deps.InlineFrames); err == nil {
		out.Playback = &pb
	}
	return toolJSON(out)
}

func (s *Server) handleSearch(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("TMDB client not configured"), nil
	}
	query, err := extractStringFromArgs(req.Params.Arguments, "query")
	if err != nil {
		return toolError(err.Error()), nil
	}

	page, err := s.deps.Catalog.Search(ctx, query, optionalInt(req.Params.Arguments, "page"))
	if err != nil {
		return toolError(fmt.Sprintf("search failed: %v", err)), nil
	}
	return toolJSON(page)
}

func (s *Server) handleSimilar(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("TMDB client not configured"), nil
	}
	kind, id, err := extractKindID(req.Params.Arguments)
	if err != nil {
		return toolError(err.Error()), nil
	}

	page, err := s.deps.Catalog.Similar(ctx, kind, id, optionalInt(req.Params.Arguments, "page"))
	if err != nil {
		return toolError(fmt.Sprintf("similar failed: %v", err)), nil
	}
	return toolJSON(page)
}

func (s *Server) handleListGenres(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("TMDB client not configured"), nil
	}
	kind, err := extractKind(req.Params.Arguments)
	if err != nil {
		return toolError(err.Error()), nil
	}

	genres, err := s.deps.Catalog.Genres(ctx, kind)
	if err != nil {
		return toolError(fmt.Sprintf("list genres failed: %v", err)), nil
	}
	return toolJSON(genres)
}

func (s *Server) handleDiscover(ctx context.Context, req *mcpsdk.CallToolRequest) (*mcpsdk.CallToolResult, error) {
	if s.deps.Catalog == nil {
		return toolError("TMDB client not configured"), nil
	}
	kind, err := extractKind(req.Params.Arguments)
	if err != nil {
		return toolError(err.Error()), nil
	}

	var args struct {
		SortBy string `json:"sort_by"`
	}
	if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
		return toolError(fmt.Sprintf("invalid arguments: %v", err)), nil
	}

	page, err := s.deps.Catalog.Discover(ctx, kind, core.DiscoverParams{
		Page:   optionalInt(req.Params.Arguments, "page"),
		Genre:  optionalInt(req.Params.Arguments, "genre"),
		Year:   optionalInt(req.Params.Arguments, "year"),
		SortBy: args.SortBy,
	})
	if err != nil {
		return toolError(fmt.Sprintf("discover failed: %v", err)), nil
	}
	return toolJSON(page)
}

// Helper functions.

// toolJSON marshals v to JSON and returns it as text content.
func toolJSON(v any) (*mcpsdk.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return toolError(fmt.Sprintf("marshal result: %v", err)), nil
	}
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: string(data)}},
	}, nil
}

// toolError returns a tool result indicating an error.
func toolError(msg string) *mcpsdk.CallToolResult {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: msg}},
		IsError: true,
	}
}

func resultText(res *mcpsdk.CallToolResult) string {
	for _, c := range res.Content {
		if t, ok := c.(*mcpsdk.TextContent); ok {
			return t.Text
		}
	}
	return "tool error"
}

func extractKindID(raw json.RawMessage) (core.MediaKind, int, error) {
	kind, err := extractKind(raw)
	if err != nil {
		return "", 0, err
	}
	id, err := extractIntFromArgs(raw, "id")
	if err != nil {
		return "", 0, err
	}
	if id <= 0 {
		return "", 0, fmt.Errorf("id must be positive")
	}
	return kind, id, nil
}

func extractKind(raw json.RawMessage) (core.MediaKind, error) {
	s, err := extractStringFromArgs(raw, "media_type")
	if err != nil {
		return "", err
	}
	return core.ParseMediaKind(s)
}

// optionalInt returns the integer argument, or 0 when absent or malformed.
func optionalInt(raw json.RawMessage, key string) int {
	n, err := extractIntFromArgs(raw, key)
	if err != nil {
		return 0
	}
	return n
}

// extractIntFromArgs extracts an integer argument from raw JSON arguments.
func extractIntFromArgs(raw json.RawMessage, key string) (int, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return 0, fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return 0, fmt.Errorf("%s is required", key)
	}

	switch v := val.(type) {
	case float64:
		return int(v), nil
	case string:
		n, err := strconv.Atoi(v)
		if err != nil {
			return 0, fmt.Errorf("%s must be a number: %w", key, err)
		}
		return n, nil
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, val)
	}
}

// extractStringFromArgs extracts a string argument from raw JSON arguments.
func extractStringFromArgs(raw json.RawMessage, key string) (string, error) {
	var args map[string]any
	if err := json.Unmarshal(raw, &args); err != nil {
		return "", fmt.Errorf("invalid arguments: %w", err)
	}

	val, ok := args[key]
	if !ok {
		return "", fmt.Errorf("%s is required", key)
	}

	s, ok := val.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%s must be a non-empty string", key)
	}
	return s, nil
}
