// Package details loads everything the details screen shows for one item
// and resolves trailer playback.
package details

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/vadimtrunov/CineDeck/internal/core"
)

// Display limits.
const (
	MaxCast   = 10
	MaxCrew   = 10
	MaxVideos = 5
)

// UserMessage is shown when Load fails.
const UserMessage = "Failed to load movie details."

// ErrNoTrailer means the item has no playable trailer. The play action is
// disabled; it is not a load failure.
var ErrNoTrailer = errors.New("no trailer available")

// Source is the subset of core.Catalog the details screen needs.
type Source interface {
	Details(ctx context.Context, kind core.MediaKind, id int) (*core.Details, error)
	Credits(ctx context.Context, kind core.MediaKind, id int) (*core.Credits, error)
	Videos(ctx context.Context, kind core.MediaKind, id int) ([]core.Video, error)
}

// View is the loaded details screen.
type View struct {
	Details *core.Details     `json:"details"`
	Cast    []core.CastMember `json:"cast"`
	Crew    []core.CrewMember `json:"crew"`
	Videos  []core.Video      `json:"videos"`
	Trailer *core.Video       `json:"trailer,omitempty"`
}

// Load fetches details, credits and videos concurrently. All three must
// succeed; nothing is returned otherwise.
func Load(ctx context.Context, src Source, item core.MediaItem) (*View, error) {
	var (
		d      *core.Details
		c      *core.Credits
		videos []core.Video
	)

	var g errgroup.Group
	g.Go(func() (err error) {
		d, err = src.Details(ctx, item.Kind, item.ID)
		return err
	})
	g.Go(func() (err error) {
		c, err = src.Credits(ctx, item.Kind, item.ID)
		return err
	})
	g.Go(func() (err error) {
		videos, err = src.Videos(ctx, item.Kind, item.ID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("load details for %s: %w", item.Key(), err)
	}

	view := &View{Details: d}
	if c != nil {
		view.Cast = c.Cast[:min(len(c.Cast), MaxCast)]
		view.Crew = c.Crew[:min(len(c.Crew), MaxCrew)]
	}
	view.Trailer = FindTrailer(videos)
	view.Videos = videos[:min(len(videos), MaxVideos)]
	return view, nil
}

// FindTrailer returns the first YouTube trailer or teaser, or nil.
func FindTrailer(videos []core.Video) *core.Video {
	for i := range videos {
		v := videos[i]
		if v.Site == "YouTube" && (v.Type == "Trailer" || v.Type == "Teaser") {
			return &v
		}
	}
	return nil
}
