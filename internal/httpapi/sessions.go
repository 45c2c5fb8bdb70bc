package httpapi

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/JCUYLLE2/FindFilms/internal/favorites"
	"github.com/JCUYLLE2/FindFilms/internal/identity"
	"github.com/JCUYLLE2/FindFilms/internal/movie"
	"github.com/JCUYLLE2/FindFilms/internal/profile"
	"github.com/JCUYLLE2/FindFilms/internal/session"
	sharederrors "github.com/JCUYLLE2/FindFilms/internal/shared/errors"
)

type sessionView struct {
	Session   session.Info   `json:"session"`
	Favorites favorites.View `json:"favorites"`
	Warning   string         `json:"warning,omitempty"`
}

type signInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	IDToken  string `json:"id_token"`
}

type toggleRequest struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	PosterPath string `json:"poster_path"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Location string `json:"location"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *handler) register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	reg := identity.Registration{
		Credentials: identity.Credentials{Email: req.Email, Password: req.Password},
		Name:        req.Name,
		Location:    req.Location,
	}
	reg.Normalize()
	if err := reg.Validate(); err != nil {
		writeDomainError(w, r, h.Logger, err, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	id, err := h.Identity.SignUp(ctx, reg.Credentials)
	if err != nil {
		writeDomainError(w, r, h.Logger, err, "")
		return
	}
	if err := h.Profiles.CreateOnRegister(ctx, &id, reg.Name, reg.Location); err != nil {
		// The account exists; the profile can be written later from the profile screen.
		logRequestError(r.Context(), h.Logger, "failed to create profile on register", err, id.UID)
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"uid":     id.UID,
		"email":   id.Email,
		"idToken": id.IDToken,
	})
}

func (h *handler) createSession(w http.ResponseWriter, r *http.Request) {
	s := h.Sessions.Create()
	writeJSON(w, http.StatusCreated, sessionView{Session: s.Info(), Favorites: s.Favorites().View()})
}

func (h *handler) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.Sessions.Get(chi.URLParam(r, "sessionID"))
	if err != nil {
		writeDomainError(w, r, h.Logger, err, "")
		return nil, false
	}
	return s, true
}

func (h *handler) getSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionView{Session: s.Info(), Favorites: s.Favorites().View()})
}

func (h *handler) closeSession(w http.ResponseWriter, r *http.Request) {
	if err := h.Sessions.Close(chi.URLParam(r, "sessionID")); err != nil {
		writeDomainError(w, r, h.Logger, err, "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handler) signIn(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req signInRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	var id identity.Identity
	if token := strings.TrimSpace(req.IDToken); token != "" {
		user, err := h.Verifier.Verify(ctx, token)
		if err != nil {
			writeError(w, r, sharederrors.CodeUnauthenticated, "invalid token")
			return
		}
		id = identity.Identity{UID: user.UserID, Email: user.Email, IDToken: token}
	} else {
		creds := identity.Credentials{Email: req.Email, Password: req.Password}
		creds.Normalize()
		if err := creds.Validate(); err != nil {
			writeDomainError(w, r, h.Logger, err, "")
			return
		}
		signedIn, err := h.Identity.SignIn(ctx, creds)
		if err != nil {
			writeDomainError(w, r, h.Logger, err, "")
			return
		}
		id = signedIn
	}

	s.SignIn(id)

	resp := sessionView{}
	if _, err := s.Favorites().Load(ctx); err != nil {
		logRequestError(r.Context(), h.Logger, "initial favorites load failed", err, id.UID)
		resp.Warning, _ = classify(err)
	}
	resp.Session = s.Info()
	resp.Favorites = s.Favorites().View()
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) signOut(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	s.SignOut()
	writeJSON(w, http.StatusOK, sessionView{Session: s.Info(), Favorites: s.Favorites().View()})
}

func (h *handler) focus(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	resp := sessionView{}
	if _, err := s.Favorites().Focus(ctx); err != nil {
		logRequestError(r.Context(), h.Logger, "favorites reload on focus failed", err, userIDOf(s))
		resp.Warning, _ = classify(err)
	}
	resp.Session = s.Info()
	resp.Favorites = s.Favorites().View()
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) sessionFavorites(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	if s.Current() == nil {
		writeDomainError(w, r, h.Logger, favorites.ErrUnauthenticated, "")
		return
	}
	writeJSON(w, http.StatusOK, s.Favorites().View())
}

func (h *handler) sessionFavorite(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	movieID := chi.URLParam(r, "movieID")
	tracker := s.Favorites()
	writeJSON(w, http.StatusOK, map[string]any{
		"movieId":    movieID,
		"isFavorite": tracker.IsFavorite(movieID),
		"status":     tracker.Status(movieID),
	})
}

func (h *handler) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	var req toggleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}
	if req.ID <= 0 {
		writeError(w, r, sharederrors.CodeBadRequest, "id must be a positive integer")
		return
	}
	if s.Current() == nil {
		writeDomainError(w, r, h.Logger, favorites.ErrUnauthenticated, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	m := movie.Movie{ID: req.ID, Title: req.Title, PosterPath: req.PosterPath}
	if m.Title == "" {
		// Fill the stored snapshot from the catalog when the client only sent an id.
		if details, err := h.Catalog.Get(ctx, m.ID); err == nil {
			m.Title, m.PosterPath = details.Title, details.PosterPath
		}
	}

	on, err := s.Favorites().Toggle(ctx, m)
	if err != nil {
		writeDomainError(w, r, h.Logger, err, userIDOf(s))
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"movieId":    strconv.FormatInt(m.ID, 10),
		"isFavorite": on,
		"status":     s.Favorites().Status(m.Key()),
	})
}

func (h *handler) sessionProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	p, err := h.Profiles.Load(ctx, s.Current())
	if err != nil {
		writeDomainError(w, r, h.Logger, err, userIDOf(s))
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) saveSessionProfile(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	h.saveProfile(w, r, s.Current())
}

func (h *handler) saveProfile(w http.ResponseWriter, r *http.Request, id *identity.Identity) {
	if id == nil {
		writeDomainError(w, r, h.Logger, profile.ErrUnauthenticated, "")
		return
	}

	var in profile.Input
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, sharederrors.CodeBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	p, err := h.Profiles.Save(ctx, id, in)
	if err != nil {
		writeDomainError(w, r, h.Logger, err, id.UID)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) sessionHome(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.loadHome(r, s.Favorites().IsFavorite))
}

func userIDOf(s *session.Session) string {
	if id := s.Current(); id != nil {
		return id.UID
	}
	return ""
}
