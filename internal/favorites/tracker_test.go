package favorites

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"sync"
	"testing"
	"time"

	"github.com/JCUYLLE2/FindFilms/internal/identity"
	"github.com/JCUYLLE2/FindFilms/internal/movie"
)

type fakeRepo struct {
	listFn   func(context.Context, string) ([]Entry, error)
	putFn    func(context.Context, string, Entry) error
	deleteFn func(context.Context, string, string) error
	watchFn  func(context.Context, string, func([]Entry)) error
}

func (f *fakeRepo) List(ctx context.Context, userID string) ([]Entry, error) {
	if f.listFn != nil {
		return f.listFn(ctx, userID)
	}
	return []Entry{}, nil
}

func (f *fakeRepo) Put(ctx context.Context, userID string, entry Entry) error {
	if f.putFn != nil {
		return f.putFn(ctx, userID, entry)
	}
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, userID, movieID string) error {
	if f.deleteFn != nil {
		return f.deleteFn(ctx, userID, movieID)
	}
	return nil
}

func (f *fakeRepo) Watch(ctx context.Context, userID string, fn func([]Entry)) error {
	if f.watchFn != nil {
		return f.watchFn(ctx, userID, fn)
	}
	<-ctx.Done()
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	ann    = identity.Identity{UID: "ann"}
	bob    = identity.Identity{UID: "bob"}
	matrix = movie.Movie{ID: 603, Title: "The Matrix", PosterPath: "/m.jpg"}
)

func TestToggle_RoundTripRestoresState(t *testing.T) {
	repo := NewMemoryRepository()
	tracker := NewTracker(repo, discardLogger())
	defer tracker.Close()
	tracker.SignIn(ann)

	ctx := context.Background()
	before := tracker.IsFavorite("603")

	on, err := tracker.Toggle(ctx, matrix)
	if err != nil || !on {
		t.Fatalf("first toggle: on=%v err=%v", on, err)
	}
	remote, _ := repo.List(ctx, "ann")
	if len(remote) != 1 || remote[0].Title != "The Matrix" || remote[0].PosterPath != "/m.jpg" {
		t.Fatalf("unexpected remote entries %+v", remote)
	}

	off, err := tracker.Toggle(ctx, matrix)
	if err != nil || off {
		t.Fatalf("second toggle: on=%v err=%v", off, err)
	}
	if tracker.IsFavorite("603") != before {
		t.Fatalf("expected favorite state to return to %v", before)
	}
	if remote, _ := repo.List(ctx, "ann"); len(remote) != 0 {
		t.Fatalf("expected remote entry removed, got %+v", remote)
	}
}

func TestLoad_MatchesRemoteSet(t *testing.T) {
	repo := NewMemoryRepository()
	ctx := context.Background()
	_ = repo.Put(ctx, "ann", Entry{MovieID: "1", Title: "One"})
	_ = repo.Put(ctx, "ann", Entry{MovieID: "2", Title: "Two"})
	_ = repo.Put(ctx, "bob", Entry{MovieID: "3", Title: "Three"})

	tracker := NewTracker(repo, discardLogger())
	defer tracker.Close()
	tracker.SignIn(ann)

	ids, err := tracker.Load(ctx)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !reflect.DeepEqual(ids, []string{"1", "2"}) {
		t.Fatalf("expected [1 2], got %v", ids)
	}
}

func TestSignOut_ClearsEverything(t *testing.T) {
	repo := &fakeRepo{listFn: func(context.Context, string) ([]Entry, error) {
		return []Entry{{MovieID: "603"}, {MovieID: "1"}}, nil
	}}
	tracker := NewTracker(repo, discardLogger())
	tracker.SignIn(ann)
	if _, err := tracker.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	tracker.SignOut()

	for _, id := range []string{"603", "1", "42"} {
		if tracker.IsFavorite(id) {
			t.Fatalf("expected %s not favorite after sign out", id)
		}
	}
	if len(tracker.IDs()) != 0 {
		t.Fatalf("expected empty set, got %v", tracker.IDs())
	}
	if _, err := tracker.Toggle(context.Background(), matrix); !errors.Is(err, ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestLoad_StaleResultDiscardedAfterIdentityChange(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	repo := &fakeRepo{listFn: func(_ context.Context, userID string) ([]Entry, error) {
		if userID == "ann" {
			close(started)
			<-release
			return []Entry{{MovieID: "603"}}, nil
		}
		return []Entry{{MovieID: "7"}}, nil
	}}
	tracker := NewTracker(repo, discardLogger())
	defer tracker.Close()
	tracker.SignIn(ann)

	errCh := make(chan error, 1)
	go func() {
		_, err := tracker.Load(context.Background())
		errCh <- err
	}()

	<-started
	tracker.SignIn(bob)
	if _, err := tracker.Load(context.Background()); err != nil {
		t.Fatalf("Load for bob returned error: %v", err)
	}
	close(release)

	if err := <-errCh; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded for stale load, got %v", err)
	}
	if tracker.IsFavorite("603") {
		t.Fatalf("ann's favorites leaked into bob's session")
	}
	if !reflect.DeepEqual(tracker.IDs(), []string{"7"}) {
		t.Fatalf("expected bob's set [7], got %v", tracker.IDs())
	}
}

func TestLoad_ErrorRetainsPreviousSet(t *testing.T) {
	calls := 0
	repo := &fakeRepo{listFn: func(context.Context, string) ([]Entry, error) {
		calls++
		if calls == 1 {
			return []Entry{{MovieID: "603"}}, nil
		}
		return nil, errors.New("deadline exceeded")
	}}
	tracker := NewTracker(repo, discardLogger())
	defer tracker.Close()
	tracker.SignIn(ann)

	if _, err := tracker.Load(context.Background()); err != nil {
		t.Fatalf("first Load returned error: %v", err)
	}
	if _, err := tracker.Focus(context.Background()); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
	if !tracker.IsFavorite("603") {
		t.Fatalf("expected previous set retained after failed reload")
	}
}

func TestFocus_SignedOutIsNoop(t *testing.T) {
	repo := &fakeRepo{listFn: func(context.Context, string) ([]Entry, error) {
		t.Fatalf("no remote read expected while signed out")
		return nil, nil
	}}
	tracker := NewTracker(repo, discardLogger())

	ids, err := tracker.Focus(context.Background())
	if err != nil || len(ids) != 0 {
		t.Fatalf("expected empty result, got %v %v", ids, err)
	}
}

func TestToggle_FailureRollsBackAndMarksFailed(t *testing.T) {
	repo := &fakeRepo{putFn: func(context.Context, string, Entry) error {
		return errors.New("permission denied")
	}}
	tracker := NewTracker(repo, discardLogger())
	defer tracker.Close()
	tracker.SignIn(ann)

	on, err := tracker.Toggle(context.Background(), matrix)
	if !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}
	if on || tracker.IsFavorite("603") {
		t.Fatalf("expected rollback to not-favorite")
	}
	if got := tracker.Status("603"); got != StatusFailed {
		t.Fatalf("expected failed status, got %s", got)
	}
}

func TestToggle_PendingOverlayAndConflict(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	repo := &fakeRepo{putFn: func(context.Context, string, Entry) error {
		close(started)
		<-release
		return nil
	}}
	tracker := NewTracker(repo, discardLogger())
	defer tracker.Close()
	tracker.SignIn(ann)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if _, err := tracker.Toggle(context.Background(), matrix); err != nil {
			t.Errorf("toggle returned error: %v", err)
		}
	}()

	<-started
	if !tracker.IsFavorite("603") || tracker.Status("603") != StatusPending {
		t.Fatalf("expected pending favorite, got %s", tracker.Status("603"))
	}
	if _, err := tracker.Toggle(context.Background(), matrix); !errors.Is(err, ErrTogglePending) {
		t.Fatalf("expected ErrTogglePending, got %v", err)
	}

	close(release)
	wg.Wait()

	if tracker.Status("603") != StatusCommitted {
		t.Fatalf("expected committed, got %s", tracker.Status("603"))
	}
}

func TestWatch_AppliesRemoteChanges(t *testing.T) {
	repo := NewMemoryRepository()
	tracker := NewTracker(repo, discardLogger())
	defer tracker.Close()
	tracker.SignIn(ann)

	// Another client of the same user adds a favorite.
	if err := repo.Put(context.Background(), "ann", Entry{MovieID: "11", Title: "Star Wars"}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for !tracker.IsFavorite("11") {
		if time.Now().After(deadline) {
			t.Fatalf("snapshot was not applied")
		}
		time.Sleep(5 * time.Millisecond)
	}

	view := tracker.View()
	if !view.SignedIn || !view.Loaded || len(view.Favorites) != 1 || view.Favorites[0].Status != StatusCommitted {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestClose_IgnoresLaterSignIn(t *testing.T) {
	tracker := NewTracker(NewMemoryRepository(), discardLogger())
	tracker.SignIn(ann)
	tracker.Close()

	tracker.SignIn(bob)
	if tracker.SignedIn() {
		t.Fatalf("expected closed tracker to stay signed out")
	}
}

func TestLoad_ClearsFailedStatus(t *testing.T) {
	var remote []Entry
	repo := &fakeRepo{
		putFn: func(context.Context, string, Entry) error {
			return errors.New("permission denied")
		},
		listFn: func(context.Context, string) ([]Entry, error) {
			return remote, nil
		},
	}
	tracker := NewTracker(repo, discardLogger())
	defer tracker.Close()
	tracker.SignIn(ann)

	if _, err := tracker.Toggle(context.Background(), matrix); !errors.Is(err, ErrRemoteUnavailable) {
		t.Fatalf("expected ErrRemoteUnavailable, got %v", err)
	}

	// Another device adds the movie; the reload is authoritative.
	remote = []Entry{{MovieID: "603", Title: "The Matrix"}}
	if _, err := tracker.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !tracker.IsFavorite("603") || tracker.Status("603") != StatusCommitted {
		t.Fatalf("expected committed favorite, got isFavorite=%v status=%s", tracker.IsFavorite("603"), tracker.Status("603"))
	}

	remote = nil
	if _, err := tracker.Load(context.Background()); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if tracker.IsFavorite("603") || tracker.Status("603") != StatusNone {
		t.Fatalf("expected no favorite, got isFavorite=%v status=%s", tracker.IsFavorite("603"), tracker.Status("603"))
	}
}

func TestToggle_StaleWriteDiscardedAfterIdentityChange(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	repo := &fakeRepo{putFn: func(_ context.Context, userID string, _ Entry) error {
		if userID == "ann" {
			close(started)
			<-release
		}
		return nil
	}}
	tracker := NewTracker(repo, discardLogger())
	defer tracker.Close()
	tracker.SignIn(ann)

	errCh := make(chan error, 1)
	go func() {
		_, err := tracker.Toggle(context.Background(), matrix)
		errCh <- err
	}()

	<-started
	tracker.SignIn(bob)
	close(release)

	if err := <-errCh; !errors.Is(err, ErrSuperseded) {
		t.Fatalf("expected ErrSuperseded for stale toggle, got %v", err)
	}
	if tracker.IsFavorite("603") || tracker.Status("603") != StatusNone {
		t.Fatalf("ann's toggle leaked into bob's session: status=%s", tracker.Status("603"))
	}
	if len(tracker.IDs()) != 0 {
		t.Fatalf("expected empty set for bob, got %v", tracker.IDs())
	}
}

func TestWatch_StaleSnapshotDiscardedAfterIdentityChange(t *testing.T) {
	annWatching := make(chan struct{})
	release := make(chan struct{})
	delivered := make(chan struct{})
	repo := &fakeRepo{watchFn: func(ctx context.Context, userID string, fn func([]Entry)) error {
		if userID != "ann" {
			<-ctx.Done()
			return nil
		}
		close(annWatching)
		<-release
		fn([]Entry{{MovieID: "603", Title: "The Matrix"}})
		close(delivered)
		return nil
	}}
	tracker := NewTracker(repo, discardLogger())
	defer tracker.Close()
	tracker.SignIn(ann)

	<-annWatching
	tracker.SignIn(bob)
	close(release)
	<-delivered

	if tracker.IsFavorite("603") {
		t.Fatalf("ann's snapshot leaked into bob's session")
	}
	if view := tracker.View(); view.UserID != "bob" || view.Loaded || len(view.Favorites) != 0 {
		t.Fatalf("unexpected view %+v", view)
	}
}
