package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/JCUYLLE2/FindFilms/internal/favorites"
	"github.com/JCUYLLE2/FindFilms/internal/identity"
	"github.com/JCUYLLE2/FindFilms/internal/metrics"
	"github.com/JCUYLLE2/FindFilms/internal/shared/events"
)

// ErrNotFound is returned for unknown or closed session IDs.
var ErrNotFound = errors.New("session not found")

// Close reasons.
const (
	ReasonClosed = "closed"
	ReasonIdle   = "idle"
)

// Registry owns every open session and wires each to its favorites tracker.
type Registry struct {
	repo    favorites.Repository
	logger  *slog.Logger
	metrics metrics.Recorder
	timeout time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// Option customises a Registry.
type Option func(*Registry)

// WithRemoteTimeout bounds each favorites read or write made on behalf of a session.
func WithRemoteTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithMetrics records transitions and the active session count.
func WithMetrics(m metrics.Recorder) Option {
	return func(r *Registry) {
		if m != nil {
			r.metrics = m
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// NewRegistry creates an empty registry backed by repo.
func NewRegistry(repo favorites.Repository, logger *slog.Logger, opts ...Option) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		repo:     repo,
		logger:   logger,
		metrics:  metrics.Nop{},
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Create opens a signed-out session.
func (r *Registry) Create() *Session {
	tracker := favorites.NewTracker(r.repo, r.logger,
		favorites.WithTimeout(r.timeout),
		favorites.WithMetrics(r.metrics),
	)
	s := newSession(uuid.NewString(), tracker, r.now)

	// The tracker follows the session's identity.
	s.Subscribe(func(tr events.SessionTransition, id *identity.Identity) {
		if tr.To == events.StateSignedIn && id != nil {
			tracker.SignIn(*id)
			return
		}
		tracker.SignOut()
	})
	s.Subscribe(r.observe)

	r.mu.Lock()
	r.sessions[s.ID] = s
	n := len(r.sessions)
	r.mu.Unlock()

	r.metrics.SetActiveSessions(n)
	r.logger.Info("session opened", "session_id", s.ID)
	return s
}

// Get returns the session and marks it as recently used.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	s, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	s.touch()
	return s, nil
}

// Close signs the session out and forgets it.
func (r *Registry) Close(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if ok {
		delete(r.sessions, id)
	}
	n := len(r.sessions)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	r.closeSession(s, ReasonClosed)
	r.metrics.SetActiveSessions(n)
	return nil
}

// Sweep closes sessions idle for longer than idleTTL and returns how many it closed.
func (r *Registry) Sweep(idleTTL time.Duration) int {
	cutoff := r.now().Add(-idleTTL)

	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if s.idleSince(cutoff) {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	n := len(r.sessions)
	r.mu.Unlock()

	for _, s := range idle {
		r.closeSession(s, ReasonIdle)
	}
	if len(idle) > 0 {
		r.metrics.SetActiveSessions(n)
	}
	return len(idle)
}

// RunSweeper calls Sweep every interval until ctx is done.
func (r *Registry) RunSweeper(ctx context.Context, interval, idleTTL time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Sweep(idleTTL); n > 0 {
				r.logger.Info("swept idle sessions", "count", n)
			}
		}
	}
}

// CloseAll closes every session; used on shutdown.
func (r *Registry) CloseAll() {
	r.mu.Lock()
	all := make([]*Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		all = append(all, s)
	}
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()

	for _, s := range all {
		r.closeSession(s, ReasonClosed)
	}
	r.metrics.SetActiveSessions(0)
}

// Len returns the number of open sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

func (r *Registry) closeSession(s *Session, reason string) {
	s.close()
	ev := events.SessionClosed{SessionID: s.ID, Reason: reason, ClosedAt: r.now()}
	r.logger.Info("session closed", "session_id", ev.SessionID, "reason", ev.Reason)
}

func (r *Registry) observe(tr events.SessionTransition, _ *identity.Identity) {
	r.metrics.RecordSessionTransition(string(tr.To))
	r.logger.Info("session transition",
		"session_id", tr.SessionID,
		"from", tr.From,
		"to", tr.To,
		"user_id", tr.UserID,
		"previous_user_id", tr.PreviousUser,
	)
}
