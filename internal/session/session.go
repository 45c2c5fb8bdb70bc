// Package session models client sessions and republishes their identity
// transitions to the components that react to them.
package session

import (
	"sort"
	"sync"
	"time"

	"github.com/JCUYLLE2/FindFilms/internal/favorites"
	"github.com/JCUYLLE2/FindFilms/internal/identity"
	"github.com/JCUYLLE2/FindFilms/internal/shared/events"
)

// Listener receives a transition together with the identity now attached (nil when signed out).
type Listener func(events.SessionTransition, *identity.Identity)

// Session is one running client. It starts signed out.
type Session struct {
	ID        string
	CreatedAt time.Time

	// transitionMu keeps listener delivery in transition order.
	transitionMu sync.Mutex

	mu        sync.Mutex
	state     events.SessionState
	identity  *identity.Identity
	lastSeen  time.Time
	listeners map[int]Listener
	nextID    int
	closed    bool

	favorites *favorites.Tracker
	now       func() time.Time
}

// Info is the public view of a session.
type Info struct {
	ID         string              `json:"id"`
	State      events.SessionState `json:"state"`
	UserID     string              `json:"userId,omitempty"`
	Email      string              `json:"email,omitempty"`
	CreatedAt  time.Time           `json:"createdAt"`
	LastSeenAt time.Time           `json:"lastSeenAt"`
}

func newSession(id string, tracker *favorites.Tracker, now func() time.Time) *Session {
	created := now()
	return &Session{
		ID:        id,
		CreatedAt: created,
		state:     events.StateSignedOut,
		lastSeen:  created,
		listeners: make(map[int]Listener),
		favorites: tracker,
		now:       now,
	}
}

// SignIn attaches id. Signing in again as the current user is not a transition.
func (s *Session) SignIn(id identity.Identity) {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	s.mu.Lock()
	if s.closed || (s.identity != nil && s.identity.UID == id.UID) {
		if !s.closed {
			s.identity = &id
		}
		s.mu.Unlock()
		return
	}
	tr := events.SessionTransition{
		SessionID: s.ID,
		From:      s.state,
		To:        events.StateSignedIn,
		UserID:    id.UID,
		At:        s.now(),
	}
	if s.identity != nil {
		tr.PreviousUser = s.identity.UID
	}
	s.state = events.StateSignedIn
	s.identity = &id
	listeners := s.listenersLocked()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(tr, &id)
	}
}

// SignOut detaches the current identity. It is a no-op when already signed out.
func (s *Session) SignOut() {
	s.transitionMu.Lock()
	defer s.transitionMu.Unlock()

	s.mu.Lock()
	if s.identity == nil {
		s.mu.Unlock()
		return
	}
	tr := events.SessionTransition{
		SessionID:    s.ID,
		From:         s.state,
		To:           events.StateSignedOut,
		PreviousUser: s.identity.UID,
		At:           s.now(),
	}
	s.state = events.StateSignedOut
	s.identity = nil
	listeners := s.listenersLocked()
	s.mu.Unlock()

	for _, fn := range listeners {
		fn(tr, nil)
	}
}

// Subscribe registers fn for future transitions and returns its cancel function.
func (s *Session) Subscribe(fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Session) listenersLocked() []Listener {
	ids := make([]int, 0, len(s.listeners))
	for id := range s.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]Listener, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.listeners[id])
	}
	return out
}

// Current returns the attached identity, or nil when signed out.
func (s *Session) Current() *identity.Identity {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.identity == nil {
		return nil
	}
	id := *s.identity
	return &id
}

// State returns the current state.
func (s *Session) State() events.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Favorites is the session's favorites tracker.
func (s *Session) Favorites() *favorites.Tracker {
	return s.favorites
}

// Info returns a snapshot of the session.
func (s *Session) Info() Info {
	s.mu.Lock()
	defer s.mu.Unlock()

	info := Info{ID: s.ID, State: s.state, CreatedAt: s.CreatedAt, LastSeenAt: s.lastSeen}
	if s.identity != nil {
		info.UserID = s.identity.UID
		info.Email = s.identity.Email
	}
	return info
}

func (s *Session) touch() {
	s.mu.Lock()
	s.lastSeen = s.now()
	s.mu.Unlock()
}

func (s *Session) idleSince(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen.Before(cutoff)
}

// close signs out, detaches every listener and stops the tracker.
func (s *Session) close() {
	s.SignOut()

	s.transitionMu.Lock()
	s.mu.Lock()
	s.closed = true
	s.listeners = make(map[int]Listener)
	s.mu.Unlock()
	s.transitionMu.Unlock()

	if s.favorites != nil {
		s.favorites.Close()
	}
}
