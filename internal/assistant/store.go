package assistant

import (
	"sync"
	"time"
)

// Sessions keeps the conversations of a multi-user front-end in memory.
type Sessions struct {
	svc *Service
	ttl time.Duration

	mu sync.RWMutex
	m  map[string]*Session
}

// NewSessions returns an empty store. Sessions idle for longer than ttl are
// removed by Prune; a zero ttl keeps them forever.
func NewSessions(svc *Service, ttl time.Duration) *Sessions {
	return &Sessions{svc: svc, ttl: ttl, m: make(map[string]*Session)}
}

// Create starts and stores a new session.
func (st *Sessions) Create() *Session {
	sess := st.svc.NewSession()
	st.mu.Lock()
	st.m[sess.ID] = sess
	st.mu.Unlock()
	return sess
}

// Get returns the session with id.
func (st *Sessions) Get(id string) (*Session, bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	sess, ok := st.m[id]
	return sess, ok
}

// Delete forgets a session.
func (st *Sessions) Delete(id string) {
	st.mu.Lock()
	delete(st.m, id)
	st.mu.Unlock()
}

// Len returns the number of stored sessions.
func (st *Sessions) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.m)
}

// Prune removes idle sessions last updated before now-ttl and returns how
// many were removed. Sessions answering a question are kept.
func (st *Sessions) Prune(now time.Time) int {
	if st.ttl <= 0 {
		return 0
	}
	cutoff := now.Add(-st.ttl)
	st.mu.Lock()
	defer st.mu.Unlock()
	n := 0
	for id, sess := range st.m {
		if sess.State() == Idle && sess.UpdatedAt().Before(cutoff) {
			delete(st.m, id)
			n++
		}
	}
	return n
}
