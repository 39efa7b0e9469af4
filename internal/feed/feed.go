// Package feed aggregates the category lists shown on the home screen.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vadimtrunov/CineDeck/internal/core"
)

// Source lists one page of a category. *tmdb.Client satisfies it.
type Source interface {
	ListCategory(ctx context.Context, category core.Category, page int) (*core.Page, error)
}

// FeaturedSlice takes the first Count items of Category into the featured set.
type FeaturedSlice struct {
	Category core.Category `yaml:"category" json:"category"`
	Count    int           `yaml:"count" json:"count"`
}

// Options selects which categories are fetched and how the featured set is built.
type Options struct {
	Rows     []core.Category
	Featured []FeaturedSlice
	Page     int
}

// DefaultRows are the home screen rows, in display order.
var DefaultRows = []core.Category{
	core.CategoryTrendingMovies,
	core.CategoryPopularMovies,
	core.CategoryTopRatedMovies,
	core.CategoryNowPlaying,
	core.CategoryUpcoming,
	core.CategoryTrendingTV,
	core.CategoryPopularTV,
}

// DefaultFeatured is the hero carousel recipe.
var DefaultFeatured = []FeaturedSlice{
	{Category: core.CategoryTrendingMovies, Count: 3},
	{Category: core.CategoryPopularMovies, Count: 2},
	{Category: core.CategoryTopRatedMovies, Count: 2},
	{Category: core.CategoryTrendingTV, Count: 1},
}

// DefaultOptions returns the home screen layout.
func DefaultOptions() Options {
	return Options{
		Rows:     append([]core.Category(nil), DefaultRows...),
		Featured: append([]FeaturedSlice(nil), DefaultFeatured...),
		Page:     1,
	}
}

// Row is one titled category list.
type Row struct {
	Category core.Category    `json:"category"`
	Title    string           `json:"title"`
	Items    []core.MediaItem `json:"items"`
}

// Feed is the result of one successful fetch. It is never modified after
// Fetch returns.
type Feed struct {
	Rows      []Row            `json:"rows"`
	Featured  []core.MediaItem `json:"featured"`
	FetchedAt time.Time        `json:"fetched_at"`
}

// Row returns the row for a category.
func (f *Feed) Row(c core.Category) (Row, bool) {
	for _, r := range f.Rows {
		if r.Category == c {
			return r, true
		}
	}
	return Row{}, false
}

// CategoryError is the failure of one category request.
type CategoryError struct {
	Category core.Category
	Err      error
}

func (e CategoryError) Error() string { return fmt.Sprintf("%s: %v", e.Category, e.Err) }

func (e CategoryError) Unwrap() error { return e.Err }

// BatchError reports every category that failed. When Fetch returns it, no
// Feed is produced even though other categories succeeded.
type BatchError struct {
	Failures []CategoryError
	Total    int
}

func (e *BatchError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("feed: %d of %d categories failed: %s", len(e.Failures), e.Total, strings.Join(parts, "; "))
}

// Unwrap exposes the per-category errors to errors.Is and errors.As.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, 0, len(e.Failures))
	for _, f := range e.Failures {
		errs = append(errs, f)
	}
	return errs
}

// Observer is notified after each Fetch.
type Observer func(elapsed time.Duration, err error)

// Aggregator fetches the feed categories concurrently and assembles a Feed.
type Aggregator struct {
	source     Source
	opts       Options
	categories []core.Category
	logger     *slog.Logger

	mu       sync.RWMutex
	observer Observer
}

// New creates an Aggregator. Zero-valued options fall back to the defaults.
func New(source Source, opts Options, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultOptions()
	if len(opts.Rows) == 0 {
		opts.Rows = def.Rows
	}
	if opts.Featured == nil {
		opts.Featured = def.Featured
	}
	if opts.Page < 1 {
		opts.Page = def.Page
	}
	return &Aggregator{
		source:     source,
		opts:       opts,
		categories: union(opts),
		logger:     logger,
	}
}

// SetObserver installs the post-fetch hook.
func (a *Aggregator) SetObserver(o Observer) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.observer = o
}

// Categories returns the distinct categories one Fetch requests.
func (a *Aggregator) Categories() []core.Category {
	return append([]core.Category(nil), a.categories...)
}

// Fetch requests every category concurrently and waits for all of them.
// A failing request does not cancel the others. If any failed, Fetch
// returns a *BatchError and no Feed.
func (a *Aggregator) Fetch(ctx context.Context) (*Feed, error) {
	start := time.Now()
	f, err := a.fetch(ctx)

	a.mu.RLock()
	obs := a.observer
	a.mu.RUnlock()
	if obs != nil {
		obs(time.Since(start), err)
	}
	return f, err
}

func (a *Aggregator) fetch(ctx context.Context) (*Feed, error) {
	pages := make([]*core.Page, len(a.categories))
	errs := make([]error, len(a.categories))

	var g errgroup.Group
	for i, c := range a.categories {
		g.Go(func() error {
			page, err := a.source.ListCategory(ctx, c, a.opts.Page)
			if err != nil {
				errs[i] = err
				return err
			}
			pages[i] = page
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		batch := &BatchError{Total: len(a.categories)}
		for i, e := range errs {
			if e != nil {
				batch.Failures = append(batch.Failures, CategoryError{Category: a.categories[i], Err: e})
			}
		}
		a.logger.Warn("feed fetch failed",
			slog.Int("failed", len(batch.Failures)),
			slog.Int("total", batch.Total),
			slog.String("error", batch.Error()),
		)
		return nil, batch
	}

	byCategory := make(map[core.Category][]core.MediaItem, len(a.categories))
	for i, c := range a.categories {
		if pages[i] != nil {
			byCategory[c] = pages[i].Results
		}
	}

	feed := &Feed{
		Rows:      make([]Row, 0, len(a.opts.Rows)),
		FetchedAt: time.Now(),
	}
	for _, c := range a.opts.Rows {
		feed.Rows = append(feed.Rows, Row{Category: c, Title: c.Label(), Items: byCategory[c]})
	}
	feed.Featured = featured(byCategory, a.opts.Featured)

	a.logger.Debug("feed fetched",
		slog.Int("rows", len(feed.Rows)),
		slog.Int("featured", len(feed.Featured)),
	)
	return feed, nil
}

// featured concatenates the configured head slices; short categories give
// what they have.
func featured(byCategory map[core.Category][]core.MediaItem, slices []FeaturedSlice) []core.MediaItem {
	var out []core.MediaItem
	for _, s := range slices {
		items := byCategory[s.Category]
		n := min(max(s.Count, 0), len(items))
		out = append(out, items[:n]...)
	}
	return out
}

func union(opts Options) []core.Category {
	seen := make(map[core.Category]bool)
	var out []core.Category
	add := func(c core.Category) {
		if !seen[c] {
			seen[c] = true
			out = append(out, c)
		}
	}
	for _, c := range opts.Rows {
		add(c)
	}
	for _, s := range opts.Featured {
		add(s.Category)
	}
	return out
}

// IsBatchError reports whether err came from a partially failed fetch.
func IsBatchError(err error) bool {
	var be *BatchError
	return errors.As(err, &be)
}
