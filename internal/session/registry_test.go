package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/JCUYLLE2/FindFilms/internal/favorites"
	"github.com/JCUYLLE2/FindFilms/internal/identity"
	"github.com/JCUYLLE2/FindFilms/internal/movie"
	"github.com/JCUYLLE2/FindFilms/internal/shared/events"
)

func newRegistry(t *testing.T, repo favorites.Repository, opts ...Option) *Registry {
	t.Helper()
	r := NewRegistry(repo, slog.New(slog.NewTextHandler(io.Discard, nil)), opts...)
	t.Cleanup(r.CloseAll)
	return r
}

func TestSession_TransitionsAreRepublished(t *testing.T) {
	r := newRegistry(t, favorites.NewMemoryRepository())
	s := r.Create()

	var mu sync.Mutex
	var got []events.SessionTransition
	cancel := s.Subscribe(func(tr events.SessionTransition, _ *identity.Identity) {
		mu.Lock()
		got = append(got, tr)
		mu.Unlock()
	})

	s.SignIn(identity.Identity{UID: "ann"})
	s.SignIn(identity.Identity{UID: "ann"})
	s.SignIn(identity.Identity{UID: "bob"})
	s.SignOut()
	s.SignOut()
	cancel()
	s.SignIn(identity.Identity{UID: "ann"})

	mu.Lock()
	defer mu.Unlock()
	if len(got) != 3 {
		t.Fatalf("expected 3 transitions, got %d: %+v", len(got), got)
	}
	if got[1].PreviousUser != "ann" || got[1].UserID != "bob" || got[1].From != events.StateSignedIn {
		t.Fatalf("unexpected identity switch %+v", got[1])
	}
	if got[2].To != events.StateSignedOut || got[2].PreviousUser != "bob" {
		t.Fatalf("unexpected sign out %+v", got[2])
	}
}

func TestSession_TrackerFollowsIdentity(t *testing.T) {
	repo := favorites.NewMemoryRepository()
	ctx := context.Background()
	_ = repo.Put(ctx, "ann", favorites.Entry{MovieID: "603", Title: "The Matrix"})

	r := newRegistry(t, repo)
	s := r.Create()

	s.SignIn(identity.Identity{UID: "ann"})
	if _, err := s.Favorites().Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !s.Favorites().IsFavorite("603") {
		t.Fatalf("expected ann's favorite loaded")
	}

	s.SignIn(identity.Identity{UID: "bob"})
	if s.Favorites().IsFavorite("603") {
		t.Fatalf("ann's favorites leaked into bob's session")
	}

	s.SignOut()
	if _, err := s.Favorites().Toggle(ctx, movie.Movie{ID: 1}); !errors.Is(err, favorites.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated after sign out, got %v", err)
	}
}

func TestRegistry_GetAndClose(t *testing.T) {
	r := newRegistry(t, favorites.NewMemoryRepository())
	s := r.Create()

	got, err := r.Get(s.ID)
	if err != nil || got != s {
		t.Fatalf("Get returned %v, %v", got, err)
	}
	if err := r.Close(s.ID); err != nil {
		t.Fatalf("Close returned error: %v", err)
	}
	if _, err := r.Get(s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := r.Close(s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on double close, got %v", err)
	}
	if s.Favorites().SignedIn() {
		t.Fatalf("closed session tracker should be signed out")
	}
}

func TestRegistry_SweepClosesIdleSessions(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	var clockMu sync.Mutex
	clock := func() time.Time {
		clockMu.Lock()
		defer clockMu.Unlock()
		return now
	}
	advance := func(d time.Duration) {
		clockMu.Lock()
		now = now.Add(d)
		clockMu.Unlock()
	}

	r := newRegistry(t, favorites.NewMemoryRepository(), WithClock(clock))
	idle := r.Create()
	active := r.Create()

	advance(20 * time.Minute)
	if _, err := r.Get(active.ID); err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	advance(15 * time.Minute)

	if n := r.Sweep(30 * time.Minute); n != 1 {
		t.Fatalf("expected 1 swept session, got %d", n)
	}
	if _, err := r.Get(idle.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected idle session removed, got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("expected 1 remaining session, got %d", r.Len())
	}
}
