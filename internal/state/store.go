// Package state holds the process-wide cache of authenticated user and
// current session that consumers (CLI output, routing decisions) read.
// Each field is written only by its owning component: the auth service
// writes the user and authentication flag, the session controller writes
// the session. The store itself is just a synchronized container with
// change notification; no business logic lives here.
package state

import (
	"sync"

	sessiondomain "focusbuddy/internal/session/domain"
	userdomain "focusbuddy/internal/user/domain"
)

// Snapshot is a point-in-time copy of the cached app state.
type Snapshot struct {
	Authenticated bool
	User          *userdomain.User
	Session       *sessiondomain.StudySession
}

// Store is an explicitly owned state container with a documented
// lifecycle: created at startup, Reset on logout. Tests instantiate their
// own instead of sharing process globals.
type Store struct {
	mu   sync.RWMutex
	snap Snapshot
	subs []func(Snapshot)
}

// New returns an empty Store.
func New() *Store {
	return &Store{}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Authenticated reports whether a user is considered signed in.
func (s *Store) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Authenticated
}

// CurrentUser returns the cached user snapshot, or nil.
func (s *Store) CurrentUser() *userdomain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.User
}

// CurrentSession returns the cached current session, or nil.
func (s *Store) CurrentSession() *sessiondomain.StudySession {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Session
}

// SetAuthenticated flips the signed-in flag.
func (s *Store) SetAuthenticated(v bool) {
	s.mu.Lock()
	s.snap.Authenticated = v
	snap, subs := s.snap, s.subs
	s.mu.Unlock()
	notify(subs, snap)
}

// SetUser replaces the cached user snapshot.
func (s *Store) SetUser(u *userdomain.User) {
	s.mu.Lock()
	s.snap.User = u
	snap, subs := s.snap, s.subs
	s.mu.Unlock()
	notify(subs, snap)
}

// SetSession replaces the cached current session.
func (s *Store) SetSession(sess *sessiondomain.StudySession) {
	s.mu.Lock()
	s.snap.Session = sess
	snap, subs := s.snap, s.subs
	s.mu.Unlock()
	notify(subs, snap)
}

// Reset clears everything; called on logout and forced sign-out.
func (s *Store) Reset() {
	s.mu.Lock()
	s.snap = Snapshot{}
	snap, subs := s.snap, s.subs
	s.mu.Unlock()
	notify(subs, snap)
}

// Subscribe registers fn to run after every state change, with a copy of
// the new state. Subscribers run synchronously on the mutating goroutine
// and must not call back into the store.
func (s *Store) Subscribe(fn func(Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func notify(subs []func(Snapshot), snap Snapshot) {
	for _, fn := range subs {
		fn(snap)
	}
}
