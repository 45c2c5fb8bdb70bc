package favorites

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/JCUYLLE2/FindFilms/internal/identity"
	"github.com/JCUYLLE2/FindFilms/internal/metrics"
	"github.com/JCUYLLE2/FindFilms/internal/movie"
)

const defaultTimeout = 10 * time.Second

type pendingToggle struct {
	want  bool
	entry Entry
}

// Tracker holds one session's favorites set.
//
// Every identity transition bumps a generation counter. Reloads, snapshots and
// toggles capture the generation when they start and drop their effect if it
// changed before they complete, so a previous identity's data never leaks.
type Tracker struct {
	repo    Repository
	logger  *slog.Logger
	metrics metrics.Recorder
	timeout time.Duration

	mu        sync.Mutex
	gen       uint64
	closed    bool
	user      *identity.Identity
	loaded    bool
	committed map[string]Entry
	pending   map[string]pendingToggle
	failed    map[string]struct{}
	stopWatch context.CancelFunc
	watchDone chan struct{}
}

// TrackerOption customises a Tracker.
type TrackerOption func(*Tracker)

// WithTimeout bounds each remote read or write.
func WithTimeout(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithMetrics records reload and toggle outcomes.
func WithMetrics(r metrics.Recorder) TrackerOption {
	return func(t *Tracker) {
		if r != nil {
			t.metrics = r
		}
	}
}

// NewTracker creates a signed-out tracker.
func NewTracker(repo Repository, logger *slog.Logger, opts ...TrackerOption) *Tracker {
	if logger == nil {
		logger = slog.Default()
	}
	t := &Tracker{
		repo:      repo,
		logger:    logger,
		metrics:   metrics.Nop{},
		timeout:   defaultTimeout,
		committed: make(map[string]Entry),
		pending:   make(map[string]pendingToggle),
		failed:    make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// SignIn switches the tracker to id, clears any previous state and starts the
// live subscription on the user's collection. Signing in again as the same
// user keeps the current state.
func (t *Tracker) SignIn(id identity.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return
	}
	if t.user != nil && t.user.UID == id.UID {
		t.user = &id
		return
	}

	t.resetLocked()
	t.user = &id

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	t.stopWatch = cancel
	t.watchDone = done
	go t.watch(ctx, done, t.gen, id.UID)
}

// SignOut clears the set and invalidates every in-flight operation.
func (t *Tracker) SignOut() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.resetLocked()
}

// Close stops the subscription. The tracker ignores later sign-ins.
func (t *Tracker) Close() {
	t.mu.Lock()
	t.resetLocked()
	t.closed = true
	done := t.watchDone
	t.watchDone = nil
	t.mu.Unlock()

	if done != nil {
		<-done
	}
}

// resetLocked must be called with mu held.
func (t *Tracker) resetLocked() {
	t.gen++
	t.user = nil
	t.loaded = false
	t.committed = make(map[string]Entry)
	t.pending = make(map[string]pendingToggle)
	t.failed = make(map[string]struct{})
	if t.stopWatch != nil {
		t.stopWatch()
		t.stopWatch = nil
	}
}

func (t *Tracker) watch(ctx context.Context, done chan struct{}, gen uint64, userID string) {
	defer close(done)

	err := t.repo.Watch(ctx, userID, func(entries []Entry) {
		if t.apply(gen, entries) {
			t.metrics.RecordFavoritesReload(metrics.OutcomeApplied)
		} else {
			t.metrics.RecordFavoritesReload(metrics.OutcomeDiscarded)
		}
	})
	if err != nil && ctx.Err() == nil {
		t.metrics.RecordFavoritesReload(metrics.OutcomeFailed)
		t.logger.Warn("favorites subscription stopped", "user_id", userID, "err", err)
	}
}

// Focus reloads the set when signed in and is a no-op otherwise.
func (t *Tracker) Focus(ctx context.Context) ([]string, error) {
	if !t.SignedIn() {
		return []string{}, nil
	}
	return t.Load(ctx)
}

// Load fetches the full remote set and replaces the local one with it.
// On failure the previous set is kept and ErrRemoteUnavailable is returned.
func (t *Tracker) Load(ctx context.Context) ([]string, error) {
	t.mu.Lock()
	if t.user == nil {
		t.mu.Unlock()
		return nil, ErrUnauthenticated
	}
	gen, userID := t.gen, t.user.UID
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	entries, err := t.repo.List(ctx, userID)
	if err != nil {
		t.metrics.RecordFavoritesReload(metrics.OutcomeFailed)
		t.logger.Warn("favorites reload failed", "user_id", userID, "err", err)
		return nil, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	if !t.apply(gen, entries) {
		t.metrics.RecordFavoritesReload(metrics.OutcomeDiscarded)
		t.logger.Debug("discarded stale favorites reload", "user_id", userID)
		return nil, ErrSuperseded
	}
	t.metrics.RecordFavoritesReload(metrics.OutcomeApplied)
	return t.IDs(), nil
}

// apply replaces the committed set when gen is still current. Failed marks
// from earlier toggles are dropped; the fetched set decides the status.
func (t *Tracker) apply(gen uint64, entries []Entry) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		return false
	}
	committed := make(map[string]Entry, len(entries))
	for _, e := range entries {
		committed[e.MovieID] = e
	}
	t.committed = committed
	t.failed = make(map[string]struct{})
	t.loaded = true
	return true
}

// Toggle flips the favorite state of m and returns the new state. The change is
// visible to IsFavorite as pending until the remote write completes; a failed
// write rolls the overlay back and marks the movie as failed.
func (t *Tracker) Toggle(ctx context.Context, m movie.Movie) (bool, error) {
	entry := EntryFromMovie(m)

	t.mu.Lock()
	if t.user == nil {
		t.mu.Unlock()
		t.metrics.RecordFavoriteToggle(metrics.OutcomeRejected)
		return false, ErrUnauthenticated
	}
	if _, busy := t.pending[entry.MovieID]; busy {
		t.mu.Unlock()
		t.metrics.RecordFavoriteToggle(metrics.OutcomeRejected)
		return false, ErrTogglePending
	}
	_, was := t.committed[entry.MovieID]
	want := !was
	if !want {
		entry = t.committed[entry.MovieID]
	}
	t.pending[entry.MovieID] = pendingToggle{want: want, entry: entry}
	delete(t.failed, entry.MovieID)
	gen, userID := t.gen, t.user.UID
	t.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	var err error
	if want {
		err = t.repo.Put(ctx, userID, entry)
	} else {
		err = t.repo.Delete(ctx, userID, entry.MovieID)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if gen != t.gen {
		t.metrics.RecordFavoriteToggle(metrics.OutcomeDiscarded)
		return false, ErrSuperseded
	}
	delete(t.pending, entry.MovieID)

	if err != nil {
		t.failed[entry.MovieID] = struct{}{}
		t.metrics.RecordFavoriteToggle(metrics.OutcomeFailed)
		t.logger.Warn("favorite toggle failed", "user_id", userID, "movie_id", entry.MovieID, "err", err)
		return was, fmt.Errorf("%w: %w", ErrRemoteUnavailable, err)
	}

	if want {
		t.committed[entry.MovieID] = entry
	} else {
		delete(t.committed, entry.MovieID)
	}
	t.metrics.RecordFavoriteToggle(metrics.OutcomeOK)
	return want, nil
}

// IsFavorite reports local membership, including pending toggles. It never
// touches the remote store and is false for every movie while signed out.
func (t *Tracker) IsFavorite(movieID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.isFavoriteLocked(movieID)
}

func (t *Tracker) isFavoriteLocked(movieID string) bool {
	if t.user == nil {
		return false
	}
	if p, ok := t.pending[movieID]; ok {
		return p.want
	}
	_, ok := t.committed[movieID]
	return ok
}

// Status reports the reconciliation state of movieID.
func (t *Tracker) Status(movieID string) Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.statusLocked(movieID)
}

func (t *Tracker) statusLocked(movieID string) Status {
	if t.user == nil {
		return StatusNone
	}
	if _, ok := t.pending[movieID]; ok {
		return StatusPending
	}
	if _, ok := t.failed[movieID]; ok {
		return StatusFailed
	}
	if _, ok := t.committed[movieID]; ok {
		return StatusCommitted
	}
	return StatusNone
}

// SignedIn reports whether an identity is attached.
func (t *Tracker) SignedIn() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.user != nil
}

// IDs returns the sorted set of favorited movie IDs, including pending adds.
func (t *Tracker) IDs() []string {
	entries := t.Entries()
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.MovieID)
	}
	return ids
}

// Entries returns the favorited entries sorted by movie ID, including pending adds.
func (t *Tracker) Entries() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entriesLocked()
}

func (t *Tracker) entriesLocked() []Entry {
	if t.user == nil {
		return []Entry{}
	}
	entries := make([]Entry, 0, len(t.committed)+len(t.pending))
	for id, e := range t.committed {
		if p, ok := t.pending[id]; ok && !p.want {
			continue
		}
		entries = append(entries, e)
	}
	for id, p := range t.pending {
		if _, ok := t.committed[id]; !ok && p.want {
			entries = append(entries, p.entry)
		}
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].MovieID < entries[j].MovieID })
	return entries
}

// View returns a copy of the tracker state with per-entry status.
func (t *Tracker) View() View {
	t.mu.Lock()
	defer t.mu.Unlock()

	view := View{Favorites: []Item{}}
	if t.user == nil {
		return view
	}
	view.SignedIn = true
	view.UserID = t.user.UID
	view.Loaded = t.loaded
	for _, e := range t.entriesLocked() {
		view.Favorites = append(view.Favorites, Item{Entry: e, PosterURL: e.PosterURL(), Status: t.statusLocked(e.MovieID)})
	}
	return view
}
