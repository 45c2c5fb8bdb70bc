package httpapi

import (
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/JCUYLLE2/FindFilms/internal/favorites"
	"github.com/JCUYLLE2/FindFilms/internal/identity"
	"github.com/JCUYLLE2/FindFilms/internal/movie"
	"github.com/JCUYLLE2/FindFilms/internal/profile"
	"github.com/JCUYLLE2/FindFilms/internal/session"
	sharedauth "github.com/JCUYLLE2/FindFilms/internal/shared/auth"
)

const serviceTimeout = 15 * time.Second

// Deps are the collaborators the HTTP surface calls into.
type Deps struct {
	Catalog   movie.Catalog
	Identity  identity.Provider
	Profiles  *profile.Service
	Favorites favorites.Repository
	Sessions  *session.Registry
	Verifier  sharedauth.Verifier
	Logger    *slog.Logger
}

type handler struct {
	Deps
}

// RegisterRoutes registers the movie, account, session and user routes.
func RegisterRoutes(r chi.Router, deps Deps) {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	h := &handler{Deps: deps}

	r.Route("/v1/movies", func(r chi.Router) {
		r.Get("/popular", h.listPopular)
		r.Get("/now-playing", h.listNowPlaying)
		r.Get("/search", h.search)
		r.Get("/{id}", h.getMovie)
	})
	r.Get("/v1/genres", h.listGenres)
	r.Get("/v1/home", h.home)

	r.Post("/v1/accounts", h.register)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.closeSession)
			r.Post("/sign-in", h.signIn)
			r.Post("/sign-out", h.signOut)
			r.Post("/focus", h.focus)
			r.Get("/favorites", h.sessionFavorites)
			r.Get("/favorites/{movieID}", h.sessionFavorite)
			r.Post("/favorites/toggle", h.toggleFavorite)
			r.Get("/profile", h.sessionProfile)
			r.Put("/profile", h.saveSessionProfile)
			r.Get("/home", h.sessionHome)
		})
	})

	r.Route("/v1/users/me", func(r chi.Router) {
		r.Use(sharedauth.Middleware(deps.Verifier))

		r.Get("/profile", h.myProfile)
		r.Put("/profile", h.saveMyProfile)
		r.Get("/favorites", h.myFavorites)
	})
}
