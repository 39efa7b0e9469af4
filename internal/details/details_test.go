package details

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/vadimtrunov/CineDeck/internal/core"
)

type stubSource struct {
	cast, crew int
	videos     []core.Video
	failOn     string
}

func (s *stubSource) Details(_ context.Context, kind core.MediaKind, id int) (*core.Details, error) {
	if s.failOn == "details" {
		return nil, errors.New("details down")
	}
	return &core.Details{Item: core.MediaItem{Kind: kind, ID: id, Title: "Fight Club"}, Runtime: 139}, nil
}

func (s *stubSource) Credits(_ context.Context, _ core.MediaKind, id int) (*core.Credits, error) {
	if s.failOn == "credits" {
		return nil, errors.New("credits down")
	}
	c := &core.Credits{ID: id}
	for i := range s.cast {
		c.Cast = append(c.Cast, core.CastMember{ID: i, Name: fmt.Sprintf("actor %d", i)})
	}
	for i := range s.crew {
		c.Crew = append(c.Crew, core.CrewMember{ID: i, Name: fmt.Sprintf("crew %d", i)})
	}
	return c, nil
}

func (s *stubSource) Videos(_ context.Context, _ core.MediaKind, _ int) ([]core.Video, error) {
	if s.failOn == "videos" {
		return nil, errors.New("videos down")
	}
	return s.videos, nil
}

func TestLoad_CapsLists(t *testing.T) {
	videos := make([]core.Video, 8)
	for i := range videos {
		videos[i] = core.Video{Key: fmt.Sprintf("k%d", i), Site: "YouTube", Type: "Featurette"}
	}
	videos[6].Type = "Trailer"

	view, err := Load(context.Background(), &stubSource{cast: 25, crew: 3, videos: videos},
		core.MediaItem{Kind: core.KindMovie, ID: 550})
	require.NoError(t, err)
	require.Equal(t, 139, view.Details.Runtime)
	require.Len(t, view.Cast, MaxCast)
	require.Len(t, view.Crew, 3)
	require.Len(t, view.Videos, MaxVideos)
	require.NotNil(t, view.Trailer, "trailer is searched in every video, not only the shown ones")
	require.Equal(t, "k6", view.Trailer.Key)
}

func TestLoad_AllOrNothing(t *testing.T) {
	for _, part := range []string{"details", "credits", "videos"} {
		t.Run(part, func(t *testing.T) {
			view, err := Load(context.Background(), &stubSource{failOn: part},
				core.MediaItem{Kind: core.KindSeries, ID: 1399})
			require.Nil(t, view)
			require.ErrorContains(t, err, part+" down")
			require.ErrorContains(t, err, "tv:1399")
		})
	}
}

func TestFindTrailer(t *testing.T) {
	tests := []struct {
		name   string
		videos []core.Video
		want   string
	}{
		{"none", nil, ""},
		{"vimeo trailer ignored", []core.Video{{Key: "v", Site: "Vimeo", Type: "Trailer"}}, ""},
		{"clip ignored", []core.Video{{Key: "c", Site: "YouTube", Type: "Clip"}}, ""},
		{"teaser", []core.Video{{Key: "c", Site: "YouTube", Type: "Clip"}, {Key: "t", Site: "YouTube", Type: "Teaser"}}, "t"},
		{"first wins", []core.Video{{Key: "a", Site: "YouTube", Type: "Trailer"}, {Key: "b", Site: "YouTube", Type: "Trailer"}}, "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindTrailer(tt.videos)
			if tt.want == "" {
				require.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			require.Equal(t, tt.want, got.Key)
		})
	}
}

func TestResolvePlayback(t *testing.T) {
	v := &core.Video{Key: "SUXWAEX2jlg", Site: "YouTube", Type: "Trailer"}

	p, err := ResolvePlayback(v, false)
	require.NoError(t, err)
	require.Equal(t, PlaybackExternal, p.Mode)
	require.Equal(t, "https://www.youtube.com/watch?v=SUXWAEX2jlg", p.URL)

	p, err = ResolvePlayback(v, true)
	require.NoError(t, err)
	require.Equal(t, PlaybackEmbedded, p.Mode)
	require.Equal(t, "https://www.youtube.com/embed/SUXWAEX2jlg?autoplay=1&rel=0&showinfo=0&modestbranding=1&playsinline=1", p.URL)
}

func TestResolvePlayback_NoTrailer(t *testing.T) {
	_, err := ResolvePlayback(nil, false)
	require.ErrorIs(t, err, ErrNoTrailer)

	_, err = ResolvePlayback(&core.Video{Site: "Vimeo", Key: "x"}, false)
	require.Error(t, err)
}

func TestThumbnailURL(t *testing.T) {
	require.Equal(t, "https://img.youtube.com/vi/abc/mqdefault.jpg", ThumbnailURL("abc"))
}
