package core

import "context"

// Catalog defines the read-only metadata operations every frontend builds on.
// The TMDB client is the production implementation.
type Catalog interface {
	// ListCategory returns one page of a category list.
	ListCategory(ctx context.Context, category Category, page int) (*Page, error)

	// Details returns the full record of a movie or series.
	Details(ctx context.Context, kind MediaKind, id int) (*Details, error)

	// Credits returns cast and crew.
	Credits(ctx context.Context, kind MediaKind, id int) (*Credits, error)

	// Videos returns trailers, teasers and clips.
	Videos(ctx context.Context, kind MediaKind, id int) ([]Video, error)

	// Similar returns items similar to the given one.
	Similar(ctx context.Context, kind MediaKind, id int, page int) (*Page, error)

	// Search runs a multi search over movies and series.
	Search(ctx context.Context, query string, page int) (*Page, error)

	// Genres lists the genres of a media kind.
	Genres(ctx context.Context, kind MediaKind) ([]Genre, error)

	// Discover lists items matching the given filters.
	Discover(ctx context.Context, kind MediaKind, params DiscoverParams) (*Page, error)
}

// DiscoverParams filters a discover query. Zero values are omitted.
type DiscoverParams struct {
	Page   int    `json:"page,omitempty"`
	Genre  int    `json:"genre,omitempty"`
	SortBy string `json:"sort_by,omitempty"`
	Year   int    `json:"year,omitempty"`
}
