package core

import "fmt"

// MediaKind discriminates the two variants of a MediaItem.
type MediaKind string

// Media kinds, valued as TMDB path segments.
const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "tv"
)

// ParseMediaKind accepts the TMDB segment ("movie", "tv") and the
// friendlier aliases used on the command line.
func ParseMediaKind(s string) (MediaKind, error) {
	switch s {
	case "movie", "movies", "film":
		return KindMovie, nil
	case "tv", "series", "show":
		return KindSeries, nil
	}
	return "", fmt.Errorf("unknown media type %q (want movie or tv)", s)
}

// String returns the TMDB path segment.
func (k MediaKind) String() string { return string(k) }

// MediaItem is a movie or a series as returned by list endpoints.
// Kind is always set; Title and ReleaseDate carry the series name and first
// air date for KindSeries. Empty image paths mean the API returned null.
type MediaItem struct {
	Kind             MediaKind `json:"media_type"`
	ID               int       `json:"id"`
	Title            string    `json:"title"`
	OriginalTitle    string    `json:"original_title,omitempty"`
	Overview         string    `json:"overview"`
	PosterPath       string    `json:"poster_path,omitempty"`
	BackdropPath     string    `json:"backdrop_path,omitempty"`
	ReleaseDate      string    `json:"release_date,omitempty"`
	VoteAverage      float64   `json:"vote_average"`
	VoteCount        int       `json:"vote_count"`
	Popularity       float64   `json:"popularity"`
	GenreIDs         []int     `json:"genre_ids,omitempty"`
	OriginalLanguage string    `json:"original_language,omitempty"`

	// Movie only.
	Adult bool `json:"adult,omitempty"`
	// Series only.
	OriginCountry []string `json:"origin_country,omitempty"`
}

// IsMovie reports whether the item is the movie variant.
func (m MediaItem) IsMovie() bool { return m.Kind == KindMovie }

// IsSeries reports whether the item is the series variant.
func (m MediaItem) IsSeries() bool { return m.Kind == KindSeries }

// Key identifies an item across both variants (ids overlap between movies and tv).
func (m MediaItem) Key() string { return fmt.Sprintf("%s:%d", m.Kind, m.ID) }

// Page is one page of a paginated list endpoint.
type Page struct {
	Page         int         `json:"page"`
	Results      []MediaItem `json:"results"`
	TotalPages   int         `json:"total_pages"`
	TotalResults int         `json:"total_results"`
}

// Genre is a TMDB genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Details is the full record for one item.
type Details struct {
	Item     MediaItem `json:"item"`
	Genres   []Genre   `json:"genres"`
	Runtime  int       `json:"runtime,omitempty"` // minutes; first episode runtime for series
	Tagline  string    `json:"tagline,omitempty"`
	Status   string    `json:"status,omitempty"`
	Homepage string    `json:"homepage,omitempty"`
	IMDbID   string    `json:"imdb_id,omitempty"`

	NumberOfSeasons  int `json:"number_of_seasons,omitempty"`
	NumberOfEpisodes int `json:"number_of_episodes,omitempty"`
}

// CastMember is one credited actor.
type CastMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Character   string `json:"character"`
	ProfilePath string `json:"profile_path,omitempty"`
	Order       int    `json:"order"`
}

// CrewMember is one credited crew person.
type CrewMember struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Job         string `json:"job"`
	Department  string `json:"department"`
	ProfilePath string `json:"profile_path,omitempty"`
}

// Credits groups cast and crew for an item.
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Video is a trailer, teaser or clip hosted on an external site.
type Video struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Site        string `json:"site"`
	Size        int    `json:"size"`
	Type        string `json:"type"`
	Official    bool   `json:"official"`
	PublishedAt string `json:"published_at"`
}
