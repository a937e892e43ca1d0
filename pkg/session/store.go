package session

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/particula/pkg/errors"
)

// DefaultMaxSessions bounds concurrently running scenes.
const DefaultMaxSessions = 64

// Store is an in-memory session registry with idle expiry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	max      int
	logger   *log.Logger

	// now is replaced in tests.
	now func() time.Time
}

// NewStore creates a store. Sessions idle for longer than ttl are expired;
// at most maxSessions run at once.
func NewStore(ttl time.Duration, maxSessions int, logger *log.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if logger == nil {
		logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	return &Store{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		max:      maxSessions,
		logger:   logger,
		now:      time.Now,
	}
}

// TTL returns the idle timeout.
func (st *Store) TTL() time.Duration { return st.ttl }

// Create starts a session and registers it. Expired sessions are evicted
// first; if the store is still full, Create fails with SESSION_LIMIT.
func (st *Store) Create(opts Options) (*Session, error) {
	st.Cleanup()

	st.mu.Lock()
	full := len(st.sessions) >= st.max
	st.mu.Unlock()
	if full {
		return nil, errors.New(errors.ErrCodeSessionLimit, "session limit of %d reached", st.max)
	}

	if opts.Logger == nil {
		opts.Logger = st.logger
	}
	s, err := New(opts)
	if err != nil {
		return nil, err
	}

	st.mu.Lock()
	st.sessions[s.ID] = s
	st.mu.Unlock()
	return s, nil
}

// Get returns the session with id and marks it used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	s, ok := st.sessions[id]
	if ok && s.idle(st.now().Add(-st.ttl)) {
		delete(st.sessions, id)
		st.mu.Unlock()
		_ = s.Close()
		return nil, errors.New(errors.ErrCodeSessionExpired, "session %s expired", id)
	}
	st.mu.Unlock()
	if !ok {
		return nil, errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	s.Touch()
	return s, nil
}

// Delete stops and removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	s, ok := st.sessions[id]
	delete(st.sessions, id)
	st.mu.Unlock()
	if !ok {
		return errors.New(errors.ErrCodeSessionNotFound, "session %s not found", id)
	}
	return s.Close()
}

// List returns the status of every session, oldest first.
func (st *Store) List() []Status {
	st.mu.Lock()
	all := make([]*Session, 0, len(st.sessions))
	for _, s := range st.sessions {
		all = append(all, s)
	}
	st.mu.Unlock()

	out := make([]Status, len(all))
	for i, s := range all {
		out[i] = s.Status()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Len returns the number of registered sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Cleanup stops and removes expired sessions and returns how many it
// removed.
func (st *Store) Cleanup() int {
	cutoff := st.now().Add(-st.ttl)
	var expired []*Session

	st.mu.Lock()
	for id, s := range st.sessions {
		if s.idle(cutoff) {
			expired = append(expired, s)
			delete(st.sessions, id)
		}
	}
	st.mu.Unlock()

	for _, s := range expired {
		_ = s.Close()
		st.logger.Info("session expired", "session", s.ID, "idle", st.now().Sub(s.LastSeen()).Round(time.Second))
	}
	return len(expired)
}

// Run expires idle sessions periodically until ctx is done.
func (st *Store) Run(ctx context.Context) error {
	every := max(st.ttl/4, time.Second)
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			st.Cleanup()
		}
	}
}

// Close stops every session.
func (st *Store) Close() error {
	st.mu.Lock()
	all := st.sessions
	st.sessions = make(map[string]*Session)
	st.mu.Unlock()

	var errs []error
	for _, s := range all {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return errors.Wrap(errors.ErrCodeInternal, errs[0], "close %d sessions", len(errs))
	}
	return nil
}
