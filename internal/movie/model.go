package movie

import (
	"context"
	"strconv"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// PosterBaseURL prefixes every relative poster path returned by the catalog.
const PosterBaseURL = "https://image.tmdb.org/t/p/w500"

// Movie is a catalog title. Identity is the externally assigned ID; the service never mutates it.
type Movie struct {
	ID               int64    `json:"id"`
	Title            string   `json:"title"`
	Overview         string   `json:"overview,omitempty"`
	PosterPath       string   `json:"poster_path,omitempty"`
	ReleaseDate      string   `json:"release_date"`
	VoteAverage      *float64 `json:"vote_average,omitempty"`
	VoteCount        int      `json:"vote_count"`
	Popularity       float64  `json:"popularity"`
	OriginalTitle    string   `json:"original_title"`
	OriginalLanguage string   `json:"original_language"`
	Video            bool     `json:"video"`
	GenreIDs         []int    `json:"genre_ids,omitempty"`
}

// Details is the single-title payload of GET /movie/{id}.
type Details struct {
	Movie
	Genres  []Genre `json:"genres"`
	Runtime int     `json:"runtime"`
	Tagline string  `json:"tagline"`
}

// Genre is an entry of the catalog genre list.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Page is one page of a paginated movie listing.
type Page struct {
	Page         int     `json:"page"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
	Results      []Movie `json:"results"`
}

// Source records which retrieval path produced a search result.
type Source string

const (
	SourceTextSearch Source = "text_search"
	SourceDiscover   Source = "discover"
)

// Criteria describes a search request. A non-blank Text selects text search and
// the remaining filters are ignored; otherwise the filters drive discovery.
type Criteria struct {
	Text      string   `json:"text,omitempty"`
	GenreID   int      `json:"genre_id,omitempty" validate:"gte=0"`
	Year      int      `json:"year,omitempty" validate:"omitempty,gte=1870,lte=2200"`
	MinRating *float64 `json:"min_rating,omitempty" validate:"omitempty,gte=0,lte=10"`
	Page      int      `json:"page,omitempty" validate:"gte=0"`
}

// SearchResult is a page of movies together with the path that produced it.
type SearchResult struct {
	Page
	Source Source `json:"source"`
}

// Catalog is the read-only movie database the views browse.
type Catalog interface {
	ListPopular(ctx context.Context, page int) (Page, error)
	ListNowPlaying(ctx context.Context, page int) (Page, error)
	Search(ctx context.Context, criteria Criteria) (SearchResult, error)
	Genres(ctx context.Context) ([]Genre, error)
	Get(ctx context.Context, id int64) (Details, error)
}

// PosterURL resolves a relative poster path; an absent path yields "".
func PosterURL(path string) string {
	if path == "" {
		return ""
	}
	return PosterBaseURL + path
}

// PosterURL resolves the movie's poster.
func (m Movie) PosterURL() string {
	return PosterURL(m.PosterPath)
}

// RatingLabel formats the average vote with one decimal, or "N/A" when absent.
func (m Movie) RatingLabel() string {
	if m.VoteAverage == nil {
		return "N/A"
	}
	return strconv.FormatFloat(*m.VoteAverage, 'f', 1, 64)
}

// LanguageLabel is the upper-cased original language code.
func (m Movie) LanguageLabel() string {
	return cases.Upper(language.Und).String(m.OriginalLanguage)
}

// Key is the document key used for the movie in per-user collections.
func (m Movie) Key() string {
	return strconv.FormatInt(m.ID, 10)
}
