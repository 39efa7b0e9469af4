package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/httpclient"
)

const (
	// DefaultBaseURL is the TMDB v3 API root.
	DefaultBaseURL = "https://api.themoviedb.org/3"
	genreCacheTTL  = 6 * time.Hour
	maxErrorBody   = 4 << 10
)

// categoryPaths maps each feed category to its list endpoint.
var categoryPaths = map[core.Category]string{
	core.CategoryTrendingMovies: "/trending/movie/week",
	core.CategoryPopularMovies:  "/movie/popular",
	core.CategoryTopRatedMovies: "/movie/top_rated",
	core.CategoryNowPlaying:     "/movie/now_playing",
	core.CategoryUpcoming:       "/movie/upcoming",
	core.CategoryTrendingTV:     "/trending/tv/week",
	core.CategoryPopularTV:      "/tv/popular",
	core.CategoryTopRatedTV:     "/tv/top_rated",
}

// APIError is returned for any non-200 response.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("tmdb API error %d", e.StatusCode)
	}
	return fmt.Sprintf("tmdb API error %d: %s", e.StatusCode, e.Message)
}

// Options configures a Client.
type Options struct {
	APIKey      string
	AccessToken string
	BaseURL     string
	HTTP        httpclient.Config
	// Transport overrides the default round tripper (metrics instrumentation).
	Transport http.RoundTripper
}

// Client is a TMDB API v3 client.
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	http        *httpclient.Client
	genres      *ttlCache[[]core.Genre]
	logger      *slog.Logger
}

var _ core.Catalog = (*Client)(nil)

// New creates a new TMDB client.
func New(opts Options, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	hc := &http.Client{Timeout: opts.HTTP.Timeout, Transport: opts.Transport}
	return &Client{
		baseURL:     opts.BaseURL,
		apiKey:      opts.APIKey,
		accessToken: opts.AccessToken,
		http:        httpclient.NewWithHTTPClient(opts.HTTP, hc, logger),
		genres:      newTTLCache[[]core.Genre](genreCacheTTL),
		logger:      logger,
	}
}

// NewForTest creates a client pointed at a test server.
// Exported because cross-package tests (feed, mcp, cmd) use it.
func NewForTest(baseURL string, logger *slog.Logger) *Client {
	return New(Options{
		APIKey:      "test-key",
		AccessToken: "test-token",
		BaseURL:     baseURL,
		HTTP:        httpclient.DefaultConfig(),
	}, logger)
}

// ListCategory returns one page of a category list.
func (c *Client) ListCategory(ctx context.Context, category core.Category, page int) (*core.Page, error) {
	path, ok := categoryPaths[category]
	if !ok {
		return nil, fmt.Errorf("list %s: unknown category", category)
	}
	params := url.Values{}
	setInt(params, "page", page)

	result, err := c.getPage(ctx, category.Kind(), path, params)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", category, err)
	}
	return result, nil
}

// Details returns the full record for a movie or series.
func (c *Client) Details(ctx context.Context, kind core.MediaKind, id int) (*core.Details, error) {
	path := fmt.Sprintf("/%s/%d", kind, id)

	switch kind {
	case core.KindMovie:
		var d movieDetails
		if err := c.get(ctx, path, nil, &d); err != nil {
			return nil, fmt.Errorf("get movie %d: %w", id, err)
		}
		return &core.Details{
			Item:     d.movieResult.item(),
			Genres:   d.Genres,
			Runtime:  d.Runtime,
			Tagline:  d.Tagline,
			Status:   d.Status,
			Homepage: d.Homepage,
			IMDbID:   d.IMDbID,
		}, nil
	case core.KindSeries:
		var d tvDetails
		if err := c.get(ctx, path, nil, &d); err != nil {
			return nil, fmt.Errorf("get tv %d: %w", id, err)
		}
		details := &core.Details{
			Item:             d.tvResult.item(),
			Genres:           d.Genres,
			Tagline:          d.Tagline,
			Status:           d.Status,
			Homepage:         d.Homepage,
			NumberOfSeasons:  d.NumberOfSeasons,
			NumberOfEpisodes: d.NumberOfEpisodes,
		}
		if len(d.EpisodeRunTime) > 0 {
			details.Runtime = d.EpisodeRunTime[0]
		}
		return details, nil
	}
	return nil, fmt.Errorf("get details: unsupported media type %q", kind)
}

// Credits returns cast and crew.
func (c *Client) Credits(ctx context.Context, kind core.MediaKind, id int) (*core.Credits, error) {
	var resp creditsResponse
	path := fmt.Sprintf("/%s/%d/credits", kind, id)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get credits for %s %d: %w", kind, id, err)
	}

	credits := &core.Credits{
		ID:   resp.ID,
		Cast: make([]core.CastMember, 0, len(resp.Cast)),
		Crew: make([]core.CrewMember, 0, len(resp.Crew)),
	}
	for _, p := range resp.Cast {
		credits.Cast = append(credits.Cast, core.CastMember{
			ID: p.ID, Name: p.Name, Character: p.Character,
			ProfilePath: deref(p.ProfilePath), Order: p.Order,
		})
	}
	for _, p := range resp.Crew {
		credits.Crew = append(credits.Crew, core.CrewMember{
			ID: p.ID, Name: p.Name, Job: p.Job, Department: p.Department,
			ProfilePath: deref(p.ProfilePath),
		})
	}
	return credits, nil
}

// Videos returns trailers, teasers and clips.
func (c *Client) Videos(ctx context.Context, kind core.MediaKind, id int) ([]core.Video, error) {
	var resp videosResponse
	path := fmt.Sprintf("/%s/%d/videos", kind, id)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get videos for %s %d: %w", kind, id, err)
	}
	return resp.Results, nil
}

// Similar returns items similar to the given one.
func (c *Client) Similar(ctx context.Context, kind core.MediaKind, id, page int) (*core.Page, error) {
	params := url.Values{}
	setInt(params, "page", page)
	path := fmt.Sprintf("/%s/%d/similar", kind, id)
	result, err := c.getPage(ctx, kind, path, params)
	if err != nil {
		return nil, fmt.Errorf("get similar for %s %d: %w", kind, id, err)
	}
	return result, nil
}

// Search runs /search/multi and drops person results.
func (c *Client) Search(ctx context.Context, query string, page int) (*core.Page, error) {
	params := url.Values{
		"query":         {query},
		"include_adult": {"false"},
	}
	setInt(params, "page", page)

	var resp pageResponse[multiResult]
	if err := c.get(ctx, "/search/multi", params, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}

	result := &core.Page{
		Page:         resp.Page,
		Results:      make([]core.MediaItem, 0, len(resp.Results)),
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
	}
	for _, r := range resp.Results {
		if item, ok := r.item(); ok {
			result.Results = append(result.Results, item)
		}
	}
	return result, nil
}

// Genres lists the genres of a media kind. Results are cached.
func (c *Client) Genres(ctx context.Context, kind core.MediaKind) ([]core.Genre, error) {
	cacheKey := "genres:" + kind.String()
	if genres, ok := c.genres.Get(cacheKey); ok {
		return genres, nil
	}

	var resp genresResponse
	path := fmt.Sprintf("/genre/%s/list", kind)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("get %s genres: %w", kind, err)
	}

	c.genres.Set(cacheKey, resp.Genres)
	return resp.Genres, nil
}

// Discover lists items matching the given filters.
func (c *Client) Discover(ctx context.Context, kind core.MediaKind, p core.DiscoverParams) (*core.Page, error) {
	params := url.Values{}
	setInt(params, "page", p.Page)
	setInt(params, "with_genres", p.Genre)
	if p.SortBy != "" {
		params.Set("sort_by", p.SortBy)
	}
	if p.Year > 0 {
		if kind == core.KindSeries {
			setInt(params, "first_air_date_year", p.Year)
		} else {
			setInt(params, "primary_release_year", p.Year)
		}
	}

	result, err := c.getPage(ctx, kind, "/discover/"+kind.String(), params)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", kind, err)
	}
	return result, nil
}

// getPage fetches a paginated list whose entries all have the given kind.
func (c *Client) getPage(ctx context.Context, kind core.MediaKind, path string, params url.Values) (*core.Page, error) {
	switch kind {
	case core.KindMovie:
		var resp pageResponse[movieResult]
		if err := c.get(ctx, path, params, &resp); err != nil {
			return nil, err
		}
		return toPage(resp, movieResult.item), nil
	case core.KindSeries:
		var resp pageResponse[tvResult]
		if err := c.get(ctx, path, params, &resp); err != nil {
			return nil, err
		}
		return toPage(resp, tvResult.item), nil
	}
	return nil, fmt.Errorf("unsupported media type %q", kind)
}

func toPage[T any](resp pageResponse[T], convert func(T) core.MediaItem) *core.Page {
	page := &core.Page{
		Page:         resp.Page,
		Results:      make([]core.MediaItem, 0, len(resp.Results)),
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
	}
	for _, r := range resp.Results {
		page.Results = append(page.Results, convert(r))
	}
	return page
}

// get performs an authenticated GET request and decodes the JSON response.
func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	u, err := url.Parse(c.baseURL + path)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	q := u.Query()
	if c.apiKey != "" {
		q.Set("api_key", c.apiKey)
	}
	for k, vs := range params {
		for _, v := range vs {
			q.Set(k, v)
		}
	}
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Debug("tmdb request failed", slog.String("path", path), slog.String("error", err.Error()))
		return err
	}
	defer resp.Body.Close()

	c.logger.Debug("tmdb request",
		slog.String("path", path),
		slog.Int("status", resp.StatusCode),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode != http.StatusOK {
		return readAPIError(resp)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func readAPIError(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var payload errorResponse
	if json.Unmarshal(body, &payload) == nil && payload.StatusMessage != "" {
		apiErr.Message = payload.StatusMessage
	} else {
		apiErr.Message = string(body)
	}
	return apiErr
}

func setInt(params url.Values, key string, v int) {
	if v > 0 {
		params.Set(key, strconv.Itoa(v))
	}
}
