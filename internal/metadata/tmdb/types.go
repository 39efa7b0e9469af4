package tmdb

import "github.com/vadimtrunov/CineDeck/internal/core"

// movieResult is a movie as it appears in list responses.
type movieResult struct {
	ID               int     `json:"id"`
	Title            string  `json:"title"`
	OriginalTitle    string  `json:"original_title"`
	Overview         string  `json:"overview"`
	PosterPath       *string `json:"poster_path"`
	BackdropPath     *string `json:"backdrop_path"`
	ReleaseDate      string  `json:"release_date"`
	VoteAverage      float64 `json:"vote_average"`
	VoteCount        int     `json:"vote_count"`
	Popularity       float64 `json:"popularity"`
	Adult            bool    `json:"adult"`
	GenreIDs         []int   `json:"genre_ids"`
	OriginalLanguage string  `json:"original_language"`
}

func (m movieResult) item() core.MediaItem {
	return core.MediaItem{
		Kind:             core.KindMovie,
		ID:               m.ID,
		Title:            m.Title,
		OriginalTitle:    m.OriginalTitle,
		Overview:         m.Overview,
		PosterPath:       deref(m.PosterPath),
		BackdropPath:     deref(m.BackdropPath),
		ReleaseDate:      m.ReleaseDate,
		VoteAverage:      m.VoteAverage,
		VoteCount:        m.VoteCount,
		Popularity:       m.Popularity,
		GenreIDs:         m.GenreIDs,
		OriginalLanguage: m.OriginalLanguage,
		Adult:            m.Adult,
	}
}

// tvResult is a series as it appears in list responses.
type tvResult struct {
	ID               int      `json:"id"`
	Name             string   `json:"name"`
	OriginalName     string   `json:"original_name"`
	Overview         string   `json:"overview"`
	PosterPath       *string  `json:"poster_path"`
	BackdropPath     *string  `json:"backdrop_path"`
	FirstAirDate     string   `json:"first_air_date"`
	VoteAverage      float64  `json:"vote_average"`
	VoteCount        int      `json:"vote_count"`
	Popularity       float64  `json:"popularity"`
	GenreIDs         []int    `json:"genre_ids"`
	OriginalLanguage string   `json:"original_language"`
	OriginCountry    []string `json:"origin_country"`
}

func (t tvResult) item() core.MediaItem {
	return core.MediaItem{
		Kind:             core.KindSeries,
		ID:               t.ID,
		Title:            t.Name,
		OriginalTitle:    t.OriginalName,
		Overview:         t.Overview,
		PosterPath:       deref(t.PosterPath),
		BackdropPath:     deref(t.BackdropPath),
		ReleaseDate:      t.FirstAirDate,
		VoteAverage:      t.VoteAverage,
		VoteCount:        t.VoteCount,
		Popularity:       t.Popularity,
		GenreIDs:         t.GenreIDs,
		OriginalLanguage: t.OriginalLanguage,
		OriginCountry:    t.OriginCountry,
	}
}

// multiResult is an entry of /search/multi; it carries either shape plus media_type.
type multiResult struct {
	MediaType string `json:"media_type"`
	movieResult
	Name          string   `json:"name"`
	OriginalName  string   `json:"original_name"`
	FirstAirDate  string   `json:"first_air_date"`
	OriginCountry []string `json:"origin_country"`
}

// item converts the entry; ok is false for people and unknown types.
func (r multiResult) item() (core.MediaItem, bool) {
	switch r.MediaType {
	case "movie":
		return r.movieResult.item(), true
	case "tv":
		return tvResult{
			ID:               r.ID,
			Name:             r.Name,
			OriginalName:     r.OriginalName,
			Overview:         r.Overview,
			PosterPath:       r.PosterPath,
			BackdropPath:     r.BackdropPath,
			FirstAirDate:     r.FirstAirDate,
			VoteAverage:      r.VoteAverage,
			VoteCount:        r.VoteCount,
			Popularity:       r.Popularity,
			GenreIDs:         r.GenreIDs,
			OriginalLanguage: r.OriginalLanguage,
			OriginCountry:    r.OriginCountry,
		}.item(), true
	}
	return core.MediaItem{}, false
}

// pageResponse is the TMDB paginated envelope.
type pageResponse[T any] struct {
	Page         int `json:"page"`
	Results      []T `json:"results"`
	TotalPages   int `json:"total_pages"`
	TotalResults int `json:"total_results"`
}

// movieDetails is the /movie/{id} response.
type movieDetails struct {
	movieResult
	Genres   []core.Genre `json:"genres"`
	Runtime  int          `json:"runtime"`
	Status   string       `json:"status"`
	Tagline  string       `json:"tagline"`
	Homepage string       `json:"homepage"`
	IMDbID   string       `json:"imdb_id"`
}

// tvDetails is the /tv/{id} response.
type tvDetails struct {
	tvResult
	Genres           []core.Genre `json:"genres"`
	EpisodeRunTime   []int        `json:"episode_run_time"`
	Status           string       `json:"status"`
	Tagline          string       `json:"tagline"`
	Homepage         string       `json:"homepage"`
	NumberOfSeasons  int          `json:"number_of_seasons"`
	NumberOfEpisodes int          `json:"number_of_episodes"`
}

// creditsResponse is the /{kind}/{id}/credits response.
type creditsResponse struct {
	ID   int `json:"id"`
	Cast []struct {
		ID          int     `json:"id"`
		Name        string  `json:"name"`
		Character   string  `json:"character"`
		ProfilePath *string `json:"profile_path"`
		Order       int     `json:"order"`
	} `json:"cast"`
	Crew []struct {
		ID          int     `json:"id"`
		Name        string  `json:"name"`
		Job         string  `json:"job"`
		Department  string  `json:"department"`
		ProfilePath *string `json:"profile_path"`
	} `json:"crew"`
}

// videosResponse is the /{kind}/{id}/videos response.
type videosResponse struct {
	ID      int          `json:"id"`
	Results []core.Video `json:"results"`
}

// genresResponse is the /genre/{kind}/list response.
type genresResponse struct {
	Genres []core.Genre `json:"genres"`
}

// errorResponse is the body TMDB sends with non-2xx statuses.
type errorResponse struct {
	StatusCode    int    `json:"status_code"`
	StatusMessage string `json:"status_message"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
