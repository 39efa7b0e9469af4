// Package home holds the home screen state: the current feed, the loading
// flags and the featured carousel cursor.
package home

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vadimtrunov/CineDeck/internal/core"
	"github.com/vadimtrunov/CineDeck/internal/feed"
)

// DefaultRotationInterval is how often the featured cursor advances.
const DefaultRotationInterval = 5 * time.Second

// ErrClosed is returned by Load and Refresh after Close.
var ErrClosed = errors.New("home state closed")

// ErrReset is returned by a Load or Refresh whose result was discarded
// because Reset ran while it was in flight.
var ErrReset = errors.New("home state reset")

// Fetcher produces a feed. *feed.Aggregator satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context) (*feed.Feed, error)
}

// Options configures a State.
type Options struct {
	RotationInterval time.Duration
	// OnChange receives new snapshots in order; one overtaken by a newer
	// change is dropped. It is called without the state lock held and must
	// not call Close.
	OnChange func(Snapshot)
	// OnRotate is called each time the timer advances the cursor.
	OnRotate func()
}

// Snapshot is a consistent copy of the state.
type Snapshot struct {
	Feed          *feed.Feed
	Loading       bool
	Refreshing    bool
	FeaturedIndex int
	Err           error
}

// CurrentFeatured returns the item under the carousel cursor.
func (s Snapshot) CurrentFeatured() (core.MediaItem, bool) {
	if s.Feed == nil || len(s.Feed.Featured) == 0 {
		return core.MediaItem{}, false
	}
	return s.Feed.Featured[s.FeaturedIndex%len(s.Feed.Featured)], true
}

// State owns the home feed and the rotation timer.
type State struct {
	fetcher  Fetcher
	interval time.Duration
	onChange func(Snapshot)
	onRotate func()
	logger   *slog.Logger

	mu         sync.Mutex
	feed       *feed.Feed
	loading    bool
	refreshing bool
	index      int
	err        error
	gen        uint64
	epoch      uint64
	seq        uint64
	stop       chan struct{}

	closed    atomic.Bool
	notifyMu  sync.Mutex
	delivered uint64 // guarded by notifyMu
}

// New creates a State. No fetch happens until Load.
func New(fetcher Fetcher, opts Options, logger *slog.Logger) *State {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.RotationInterval <= 0 {
		opts.RotationInterval = DefaultRotationInterval
	}
	return &State{
		fetcher:  fetcher,
		interval: opts.RotationInterval,
		onChange: opts.OnChange,
		onRotate: opts.OnRotate,
		logger:   logger,
	}
}

// Load fetches the feed with the loading flag set. On failure the previous
// feed is kept and the error is recorded and returned.
func (s *State) Load(ctx context.Context) error {
	return s.fetch(ctx, false)
}

// Refresh is Load with the refreshing flag set instead.
func (s *State) Refresh(ctx context.Context) error {
	return s.fetch(ctx, true)
}

func (s *State) fetch(ctx context.Context, refresh bool) error {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return ErrClosed
	}
	epoch := s.epoch
	if refresh {
		s.refreshing = true
	} else {
		s.loading = true
	}
	snap, seq := s.changedLocked()
	s.mu.Unlock()
	s.notify(snap, seq)

	f, err := s.fetcher.Fetch(ctx)

	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.epoch != epoch {
		s.mu.Unlock()
		return ErrReset
	}
	if refresh {
		s.refreshing = false
	} else {
		s.loading = false
	}
	if err != nil {
		s.err = err
		s.logger.Warn("home feed load failed", slog.Bool("refresh", refresh), slog.String("error", err.Error()))
	} else {
		s.feed = f
		s.index = 0
		s.err = nil
		s.restartTimerLocked()
	}
	snap, seq = s.changedLocked()
	s.mu.Unlock()
	s.notify(snap, seq)

	return err
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Advance moves the featured cursor by one, wrapping. It reports false and
// does nothing when fewer than two items are featured or the state is closed.
func (s *State) Advance() bool {
	s.mu.Lock()
	if !s.advanceLocked() {
		s.mu.Unlock()
		return false
	}
	snap, seq := s.changedLocked()
	s.mu.Unlock()
	s.notify(snap, seq)
	return true
}

// Reset stops the rotation timer and drops the feed, the cursor and the
// last error, as if the state were new. A fetch in flight when Reset runs
// is discarded and returns ErrReset.
func (s *State) Reset() {
	s.mu.Lock()
	if s.closed.Load() {
		s.mu.Unlock()
		return
	}
	s.stopTimerLocked()
	s.gen++
	s.epoch++
	s.feed = nil
	s.index = 0
	s.err = nil
	s.loading = false
	s.refreshing = false
	snap, seq := s.changedLocked()
	s.mu.Unlock()
	s.notify(snap, seq)
}

// Close stops the rotation timer. No OnChange call starts after Close
// returns, and one already running has finished.
func (s *State) Close() {
	s.mu.Lock()
	s.closed.Store(true)
	s.stopTimerLocked()
	s.gen++
	s.mu.Unlock()

	s.notifyMu.Lock()
	s.notifyMu.Unlock() //nolint:staticcheck // waits for an in-flight OnChange
}

func (s *State) advanceLocked() bool {
	if s.closed.Load() || s.feed == nil || len(s.feed.Featured) < 2 {
		return false
	}
	s.index = (s.index + 1) % len(s.feed.Featured)
	return true
}

// restartTimerLocked replaces the rotation goroutine. A timer only runs
// while more than one item is featured.
func (s *State) restartTimerLocked() {
	s.stopTimerLocked()
	s.gen++
	if s.feed == nil || len(s.feed.Featured) < 2 {
		return
	}
	s.stop = make(chan struct{})
	go s.rotate(s.gen, s.stop)
}

func (s *State) stopTimerLocked() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

func (s *State) rotate(gen uint64, stop <-chan struct{}) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.tick(gen)
		}
	}
}

// tick advances the cursor unless the timer has been superseded.
func (s *State) tick(gen uint64) {
	s.mu.Lock()
	if gen != s.gen || !s.advanceLocked() {
		s.mu.Unlock()
		return
	}
	snap, seq := s.changedLocked()
	s.mu.Unlock()

	if s.onRotate != nil {
		s.onRotate()
	}
	s.notify(snap, seq)
}

func (s *State) snapshotLocked() Snapshot {
	return Snapshot{
		Feed:          s.feed,
		Loading:       s.loading,
		Refreshing:    s.refreshing,
		FeaturedIndex: s.index,
		Err:           s.err,
	}
}

// changedLocked numbers a snapshot of a state change so notify can drop
// one that lost the race to a newer change.
func (s *State) changedLocked() (Snapshot, uint64) {
	s.seq++
	return s.snapshotLocked(), s.seq
}

func (s *State) notify(snap Snapshot, seq uint64) {
	if s.onChange == nil {
		return
	}
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()
	if s.closed.Load() || seq <= s.delivered {
		return
	}
	s.delivered = seq
	s.onChange(snap)
}
