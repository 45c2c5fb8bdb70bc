package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"

	"github.com/JCUYLLE2/FindFilms/internal/movie"
	sharederrors "github.com/JCUYLLE2/FindFilms/internal/shared/errors"
)

var errMinRating = errors.New("min_rating must be a number")

type movieView struct {
	movie.Movie
	PosterURL  string `json:"posterUrl,omitempty"`
	Rating     string `json:"rating"`
	Language   string `json:"language,omitempty"`
	IsFavorite *bool  `json:"isFavorite,omitempty"`
}

type pageView struct {
	Page         int         `json:"page"`
	TotalPages   int         `json:"totalPages"`
	TotalResults int         `json:"totalResults"`
	Results      []movieView `json:"results"`
	Source       string      `json:"source,omitempty"`
	Error        string      `json:"error,omitempty"`
}

// listView is a home-screen list; a failed fetch becomes an empty list with an error code.
type listView struct {
	Results []movieView `json:"results"`
	Error   string      `json:"error,omitempty"`
}

type homeView struct {
	Popular    listView `json:"popular"`
	NowPlaying listView `json:"nowPlaying"`
}

func toMovieView(m movie.Movie, isFavorite func(string) bool) movieView {
	v := movieView{
		Movie:     m,
		PosterURL: m.PosterURL(),
		Rating:    m.RatingLabel(),
		Language:  m.LanguageLabel(),
	}
	if isFavorite != nil {
		fav := isFavorite(m.Key())
		v.IsFavorite = &fav
	}
	return v
}

func toMovieViews(movies []movie.Movie, isFavorite func(string) bool) []movieView {
	out := make([]movieView, 0, len(movies))
	for _, m := range movies {
		out = append(out, toMovieView(m, isFavorite))
	}
	return out
}

func toPageView(p movie.Page, source movie.Source) pageView {
	return pageView{
		Page:         p.Page,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
		Results:      toMovieViews(p.Results, nil),
		Source:       string(source),
	}
}

func (h *handler) listPopular(w http.ResponseWriter, r *http.Request) {
	h.listPage(w, r, h.Catalog.ListPopular)
}

func (h *handler) listNowPlaying(w http.ResponseWriter, r *http.Request) {
	h.listPage(w, r, h.Catalog.ListNowPlaying)
}

func (h *handler) listPage(w http.ResponseWriter, r *http.Request, fetch func(context.Context, int) (movie.Page, error)) {
	page, err := queryInt(r, "page")
	if err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := fetch(ctx, page)
	if err != nil {
		h.writeCatalogError(w, r, err, "")
		return
	}
	writeJSON(w, http.StatusOK, toPageView(result, ""))
}

func (h *handler) search(w http.ResponseWriter, r *http.Request) {
	criteria, err := parseCriteria(r)
	if err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	result, err := h.Catalog.Search(ctx, criteria)
	if err != nil {
		h.writeCatalogError(w, r, err, result.Source)
		return
	}
	writeJSON(w, http.StatusOK, toPageView(result.Page, result.Source))
}

// writeCatalogError reports an unavailable catalog as an empty list carrying
// the error code. Other failures use the regular error envelope.
func (h *handler) writeCatalogError(w http.ResponseWriter, r *http.Request, err error, source movie.Source) {
	if !errors.Is(err, movie.ErrCatalogUnavailable) {
		writeDomainError(w, r, h.Logger, err, "")
		return
	}
	logRequestError(r.Context(), h.Logger, "catalog list unavailable", err, "")
	writeJSON(w, http.StatusOK, pageView{
		Results: []movieView{},
		Source:  string(source),
		Error:   sharederrors.CodeCatalogUnavailable,
	})
}

func parseCriteria(r *http.Request) (movie.Criteria, error) {
	q := r.URL.Query()
	criteria := movie.Criteria{Text: strings.TrimSpace(q.Get("query"))}

	var err error
	if criteria.GenreID, err = queryInt(r, "genre"); err != nil {
		return movie.Criteria{}, err
	}
	if criteria.Year, err = queryInt(r, "year"); err != nil {
		return movie.Criteria{}, err
	}
	if criteria.Page, err = queryInt(r, "page"); err != nil {
		return movie.Criteria{}, err
	}
	if raw := q.Get("min_rating"); raw != "" {
		rating, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return movie.Criteria{}, errMinRating
		}
		criteria.MinRating = &rating
	}
	return criteria, nil
}

func (h *handler) getMovie(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, r, sharederrors.CodeBadRequest, "movie id must be a positive integer")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	details, err := h.Catalog.Get(ctx, id)
	if err != nil {
		writeDomainError(w, r, h.Logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"movie":   toMovieView(details.Movie, nil),
		"genres":  details.Genres,
		"runtime": details.Runtime,
		"tagline": details.Tagline,
	})
}

func (h *handler) listGenres(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	genres, err := h.Catalog.Genres(ctx)
	if err != nil {
		writeDomainError(w, r, h.Logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"genres": genres})
}

func (h *handler) home(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.loadHome(r, nil))
}

// loadHome fetches both home lists in parallel. Each list fails independently.
func (h *handler) loadHome(r *http.Request, isFavorite func(string) bool) homeView {
	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	var popular, nowPlaying movie.Page
	var popularErr, nowPlayingErr error

	var g errgroup.Group
	g.Go(func() error {
		popular, popularErr = h.Catalog.ListPopular(ctx, 1)
		return nil
	})
	g.Go(func() error {
		nowPlaying, nowPlayingErr = h.Catalog.ListNowPlaying(ctx, 1)
		return nil
	})
	_ = g.Wait()

	return homeView{
		Popular:    h.toListView(r, popular, popularErr, isFavorite),
		NowPlaying: h.toListView(r, nowPlaying, nowPlayingErr, isFavorite),
	}
}

func (h *handler) toListView(r *http.Request, p movie.Page, err error, isFavorite func(string) bool) listView {
	if err != nil {
		code, _ := classify(err)
		logRequestError(r.Context(), h.Logger, "home list unavailable", err, "")
		return listView{Results: []movieView{}, Error: code}
	}
	return listView{Results: toMovieViews(p.Results, isFavorite)}
}
