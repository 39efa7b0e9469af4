package core

import "fmt"

// Category is a named list of media items fetched from the metadata API.
type Category string

// Known categories.
const (
	CategoryTrendingMovies Category = "trending_movies"
	CategoryPopularMovies  Category = "popular_movies"
	CategoryTopRatedMovies Category = "top_rated_movies"
	CategoryNowPlaying     Category = "now_playing"
	CategoryUpcoming       Category = "upcoming"
	CategoryTrendingTV     Category = "trending_tv"
	CategoryPopularTV      Category = "popular_tv"
	CategoryTopRatedTV     Category = "top_rated_tv"
)

var categoryInfo = map[Category]struct {
	label string
	kind  MediaKind
}{
	CategoryTrendingMovies: {"Trending Now", KindMovie},
	CategoryPopularMovies:  {"Popular Movies", KindMovie},
	CategoryTopRatedMovies: {"Top Rated Movies", KindMovie},
	CategoryNowPlaying:     {"Now Playing", KindMovie},
	CategoryUpcoming:       {"Coming Soon", KindMovie},
	CategoryTrendingTV:     {"Trending TV Shows", KindSeries},
	CategoryPopularTV:      {"Popular TV Shows", KindSeries},
	CategoryTopRatedTV:     {"Top Rated TV Shows", KindSeries},
}

// AllCategories lists every category in display order.
var AllCategories = []Category{
	CategoryTrendingMovies,
	CategoryPopularMovies,
	CategoryTopRatedMovies,
	CategoryNowPlaying,
	CategoryUpcoming,
	CategoryTrendingTV,
	CategoryPopularTV,
	CategoryTopRatedTV,
}

// ParseCategory validates a category name.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if _, ok := categoryInfo[c]; !ok {
		return "", fmt.Errorf("unknown category %q", s)
	}
	return c, nil
}

// Label is the human-readable row title.
func (c Category) Label() string {
	if info, ok := categoryInfo[c]; ok {
		return info.label
	}
	return string(c)
}

// Kind is the media kind every item in the category has.
func (c Category) Kind() MediaKind {
	return categoryInfo[c].kind
}
