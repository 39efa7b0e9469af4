package details

import (
	"fmt"
	"net/url"

	"github.com/vadimtrunov/CineDeck/internal/core"
)

// PlaybackMode says where a video plays.
type PlaybackMode string

// Playback modes.
const (
	PlaybackEmbedded PlaybackMode = "embedded"
	PlaybackExternal PlaybackMode = "external"
)

// Playback is a resolved video target.
type Playback struct {
	Mode PlaybackMode `json:"mode"`
	URL  string       `json:"url"`
}

// ResolvePlayback picks the embedded player when the frontend can show
// inline frames, the YouTube watch page otherwise.
func ResolvePlayback(v *core.Video, inlineFrames bool) (Playback, error) {
	if v == nil || v.Key == "" {
		return Playback{}, ErrNoTrailer
	}
	if v.Site != "" && v.Site != "YouTube" {
		return Playback{}, fmt.Errorf("unsupported video site %q", v.Site)
	}
	key := url.PathEscape(v.Key)
	if inlineFrames {
		return Playback{
			Mode: PlaybackEmbedded,
			URL:  "https://www.youtube.com/embed/" + key + "?autoplay=1&rel=0&showinfo=0&modestbranding=1&playsinline=1",
		}, nil
	}
	return Playback{
		Mode: PlaybackExternal,
		URL:  "https://www.youtube.com/watch?v=" + url.QueryEscape(v.Key),
	}, nil
}

// ThumbnailURL is the YouTube preview image for a video key.
func ThumbnailURL(key string) string {
	return "https://img.youtube.com/vi/" + url.PathEscape(key) + "/mqdefault.jpg"
}
