package navigation

import (
	"context"
	"errors"
	"sync"

	"github.com/idelchi/dirdive/internal/dirstat"
)

// ErrSuperseded is returned by a transition that was overtaken by a newer one.
// Its result was discarded and the session state is whatever the newer one produced.
var ErrSuperseded = errors.New("superseded by a newer request")

// ErrNoSession is returned when a transition is requested before Start.
var ErrNoSession = errors.New("no scan session started")

// ErrBusy is returned when a transition is requested while a delete is running.
var ErrBusy = errors.New("a delete is in progress")

// Remover deletes a directory tree.
type Remover interface {
	Delete(path string) error
}

// Session is the single live navigation session of a UI.
//
// At most one scan runs at a time: a new request cancels the one in flight,
// which then returns ErrSuperseded without touching the state. Deletes are
// never cancelled; requests made while one runs are rejected with ErrBusy.
// A failed transition leaves the state unchanged.
type Session struct {
	nav     Navigator
	remover Remover

	mu       sync.Mutex
	state    State
	started  bool
	deleting bool
	seq      uint64
	cancel   context.CancelFunc
}

// NewSession creates an empty session. Call Start before any other transition.
func NewSession(scanner Scanner, remover Remover) *Session {
	return &Session{nav: NewNavigator(scanner), remover: remover}
}

// State returns the current snapshot and whether a session has been started.
func (s *Session) State() (State, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state, s.started
}

// Start begins a new session at root, replacing any previous one.
func (s *Session) Start(ctx context.Context, root string) (State, error) {
	return s.run(ctx, false, func(ctx context.Context, _ State) (State, error) {
		return s.nav.Start(ctx, root)
	})
}

// DrillInto makes entry the current directory.
func (s *Session) DrillInto(ctx context.Context, entry dirstat.Entry) (State, error) {
	return s.run(ctx, true, func(ctx context.Context, cur State) (State, error) {
		return s.nav.DrillInto(ctx, cur, entry)
	})
}

// BackToRoot returns to the scan root.
func (s *Session) BackToRoot(ctx context.Context) (State, error) {
	return s.run(ctx, true, s.nav.BackToRoot)
}

// Up moves to the parent of the current directory.
func (s *Session) Up(ctx context.Context) (State, error) {
	return s.run(ctx, true, s.nav.Up)
}

// Refresh rescans the current directory.
func (s *Session) Refresh(ctx context.Context) (State, error) {
	return s.run(ctx, true, s.nav.Refresh)
}

// Select highlights entry without any I/O.
func (s *Session) Select(entry dirstat.Entry) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return State{}, ErrNoSession
	}

	next, err := s.state.Select(entry)
	if err != nil {
		return s.state, err
	}

	s.state = next

	return next, nil
}

// Delete removes entry from disk and then refreshes the current directory.
//
// A delete cannot be superseded: it cancels any scan in flight, and every
// other transition requested before it finishes fails with ErrBusy. If the
// removal fails the state is left as it was and the remover's error is
// returned; callers may Refresh to pick up a partial deletion.
func (s *Session) Delete(ctx context.Context, entry dirstat.Entry) (State, error) {
	s.mu.Lock()

	switch {
	case !s.started:
		s.mu.Unlock()

		return State{}, ErrNoSession
	case s.deleting:
		current := s.state
		s.mu.Unlock()

		return current, ErrBusy
	case !s.state.Result.Contains(entry):
		current := s.state
		s.mu.Unlock()

		return current, ErrNotInResults
	}

	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}

	s.seq++
	s.deleting = true
	current := s.state

	s.mu.Unlock()

	err := s.remover.Delete(entry.Path)

	var next State
	if err == nil {
		next, err = s.nav.Refresh(ctx, current)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleting = false

	if err != nil {
		return s.state, err
	}

	s.state = next

	return next, nil
}

// run executes transition against the current state, cancelling any
// transition already in flight. Only the newest transition may commit.
func (s *Session) run(ctx context.Context, needStarted bool, transition func(context.Context, State) (State, error)) (State, error) {
	s.mu.Lock()

	if needStarted && !s.started {
		s.mu.Unlock()

		return State{}, ErrNoSession
	}

	if s.deleting {
		current := s.state
		s.mu.Unlock()

		return current, ErrBusy
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithCancel(ctx)
	s.seq++
	id := s.seq
	s.cancel = cancel
	current := s.state

	s.mu.Unlock()

	defer cancel()

	next, err := transition(ctx, current)

	s.mu.Lock()
	defer s.mu.Unlock()

	if id != s.seq {
		return s.state, ErrSuperseded
	}

	s.cancel = nil

	if err != nil {
		return s.state, err
	}

	s.state = next
	s.started = true

	return next, nil
}
