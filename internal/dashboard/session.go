package dashboard

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Session is the per-browser state of the dashboard. It is process-local and never persisted.
// The embedded mutex is held for the duration of a fetch or upload so a session has at most
// one network operation outstanding.
type Session struct {
	sync.Mutex
	ID string

	visited  bool
	lastSeen time.Time
}

// MarkVisited records a page view and reports whether it was the first. Callers hold the lock.
func (s *Session) MarkVisited() bool {
	first := !s.visited
	s.visited = true
	return first
}

// SessionStore keeps sessions in memory and drops them after ttl of inactivity.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
	ttl      time.Duration
	now      func() time.Time
}

// NewSessionStore creates an empty store. A ttl of zero or less keeps sessions forever.
func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Get returns the session for id, creating a new one when id is unknown or expired.
// The second return value is true when a new session was created.
func (st *SessionStore) Get(id string) (*Session, bool) {
	st.mu.Lock()
	defer st.mu.Unlock()

	now := st.now()
	st.sweep(now)

	if sess, ok := st.sessions[id]; ok && id != "" {
		sess.lastSeen = now
		return sess, false
	}

	sess := &Session{ID: uuid.NewString(), lastSeen: now}
	st.sessions[sess.ID] = sess
	return sess, true
}

// Len returns the number of live sessions.
func (st *SessionStore) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

func (st *SessionStore) sweep(now time.Time) {
	if st.ttl <= 0 {
		return
	}
	for id, sess := range st.sessions {
		if now.Sub(sess.lastSeen) > st.ttl {
			delete(st.sessions, id)
		}
	}
}
