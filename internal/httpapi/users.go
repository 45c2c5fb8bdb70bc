package httpapi

import (
	"context"
	"fmt"
	"net/http"

	"github.com/JCUYLLE2/FindFilms/internal/favorites"
	"github.com/JCUYLLE2/FindFilms/internal/identity"
	sharedauth "github.com/JCUYLLE2/FindFilms/internal/shared/auth"
)

// bearerIdentity returns the identity verified by the auth middleware.
func bearerIdentity(r *http.Request) *identity.Identity {
	user, ok := sharedauth.UserFromContext(r.Context())
	if !ok || user.UserID == "" {
		return nil
	}
	return &identity.Identity{UID: user.UserID, Email: user.Email, IDToken: user.Token}
}

func (h *handler) myProfile(w http.ResponseWriter, r *http.Request) {
	id := bearerIdentity(r)

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	p, err := h.Profiles.Load(ctx, id)
	if err != nil {
		writeDomainError(w, r, h.Logger, err, "")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handler) saveMyProfile(w http.ResponseWriter, r *http.Request) {
	h.saveProfile(w, r, bearerIdentity(r))
}

func (h *handler) myFavorites(w http.ResponseWriter, r *http.Request) {
	id := bearerIdentity(r)
	if id == nil {
		writeDomainError(w, r, h.Logger, favorites.ErrUnauthenticated, "")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), serviceTimeout)
	defer cancel()

	entries, err := h.Favorites.List(ctx, id.UID)
	if err != nil {
		writeDomainError(w, r, h.Logger, wrapRemote(err), id.UID)
		return
	}

	items := make([]favorites.Item, 0, len(entries))
	for _, e := range entries {
		items = append(items, favorites.Item{Entry: e, PosterURL: e.PosterURL(), Status: favorites.StatusCommitted})
	}
	writeJSON(w, http.StatusOK, map[string]any{"favorites": items})
}

func wrapRemote(err error) error {
	return fmt.Errorf("%w: %w", favorites.ErrRemoteUnavailable, err)
}
