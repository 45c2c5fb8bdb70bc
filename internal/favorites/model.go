// Package favorites keeps a per-session view of a user's favorite movies in
// step with the remote per-user favorites collection.
package favorites

import (
	"context"
	"errors"

	"github.com/JCUYLLE2/FindFilms/internal/identity"
	"github.com/JCUYLLE2/FindFilms/internal/movie"
)

var (
	// ErrUnauthenticated is returned when an operation needs a signed-in identity.
	ErrUnauthenticated = identity.ErrUnauthenticated
	// ErrRemoteUnavailable wraps any read or write failure of the favorites store.
	ErrRemoteUnavailable = errors.New("favorites store unavailable")
	// ErrTogglePending rejects a toggle while an earlier toggle of the same movie is in flight.
	ErrTogglePending = errors.New("favorite toggle already pending")
	// ErrSuperseded reports that the identity changed while the operation was in flight
	// and its result was discarded.
	ErrSuperseded = errors.New("favorites operation superseded by identity change")
)

// Entry is the denormalized snapshot stored at users/<uid>/favorites/<movieId>.
// Title and poster are captured at favorite time and are not refreshed afterwards.
type Entry struct {
	MovieID    string `json:"movieId" firestore:"-"`
	Title      string `json:"title" firestore:"title"`
	PosterPath string `json:"posterPath,omitempty" firestore:"poster_path"`
}

// PosterURL resolves the stored poster path.
func (e Entry) PosterURL() string {
	return movie.PosterURL(e.PosterPath)
}

// EntryFromMovie captures the fields stored for a favorite.
func EntryFromMovie(m movie.Movie) Entry {
	return Entry{MovieID: m.Key(), Title: m.Title, PosterPath: m.PosterPath}
}

// Status is the reconciliation state of a single favorite.
type Status string

const (
	StatusNone      Status = "none"
	StatusPending   Status = "pending"
	StatusCommitted Status = "committed"
	StatusFailed    Status = "failed"
)

// Repository is the remote favorites collection of a user.
type Repository interface {
	List(ctx context.Context, userID string) ([]Entry, error)
	Put(ctx context.Context, userID string, entry Entry) error
	Delete(ctx context.Context, userID, movieID string) error
	// Watch delivers the full collection on every change until ctx is cancelled.
	// It blocks and returns nil once ctx is done.
	Watch(ctx context.Context, userID string, fn func([]Entry)) error
}

// Item is an entry together with its reconciliation status.
type Item struct {
	Entry
	PosterURL string `json:"posterUrl,omitempty"`
	Status    Status `json:"status"`
}

// View is a point-in-time copy of a tracker's state.
type View struct {
	SignedIn  bool   `json:"signedIn"`
	UserID    string `json:"userId,omitempty"`
	Loaded    bool   `json:"loaded"`
	Favorites []Item `json:"favorites"`
}
