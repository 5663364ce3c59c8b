// Package session keeps in-progress dialogues in memory, one per user.
package session

import (
	"context"
	"log"
	"sync"
	"time"
)

type keyLock struct {
	mu   sync.Mutex
	refs int
}

// Store is a process-lifetime session map. Every read-modify-write on one
// user's entry runs under that user's lock; different users never contend
// beyond the short map lock.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	locks    map[string]*keyLock
	ttl      time.Duration
	now      func() time.Time
}

// NewStore creates a store. ttl <= 0 disables expiry.
func NewStore(ttl time.Duration, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{
		sessions: make(map[string]*Session),
		locks:    make(map[string]*keyLock),
		ttl:      ttl,
		now:      now,
	}
}

func (s *Store) lock(userID string) func() {
	s.mu.Lock()
	kl, ok := s.locks[userID]
	if !ok {
		kl = &keyLock{}
		s.locks[userID] = kl
	}
	kl.refs++
	s.mu.Unlock()

	kl.mu.Lock()
	return func() {
		kl.mu.Unlock()
		s.mu.Lock()
		kl.refs--
		if kl.refs == 0 {
			delete(s.locks, userID)
		}
		s.mu.Unlock()
	}
}

func (s *Store) expired(sess *Session) bool {
	return s.ttl > 0 && s.now().Sub(sess.TouchedAt) > s.ttl
}

// load returns the live session or nil; the caller holds the user lock.
func (s *Store) load(userID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[userID]
	if !ok {
		return nil
	}
	if s.expired(sess) {
		delete(s.sessions, userID)
		return nil
	}
	return sess.Clone()
}

func (s *Store) save(userID string, sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess == nil || sess.Done() {
		delete(s.sessions, userID)
		return
	}
	now := s.now()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	sess.TouchedAt = now
	sess.UserID = userID
	s.sessions[userID] = sess.Clone()
}

// Get returns a copy of the user's session, if one is live.
func (s *Store) Get(userID string) (*Session, bool) {
	unlock := s.lock(userID)
	defer unlock()
	sess := s.load(userID)
	return sess, sess != nil
}

// Put stores sess under its UserID, replacing any previous session.
func (s *Store) Put(sess *Session) {
	unlock := s.lock(sess.UserID)
	defer unlock()
	s.save(sess.UserID, sess)
}

// Delete removes the user's session.
func (s *Store) Delete(userID string) {
	unlock := s.lock(userID)
	defer unlock()
	s.save(userID, nil)
}

// Update runs fn atomically with respect to other operations on userID.
// fn receives a private copy of the current session (nil when none) and
// returns the session to keep: nil or a finished session deletes the entry,
// returning cur unchanged keeps the stored state as it was.
func (s *Store) Update(userID string, fn func(cur *Session) *Session) {
	unlock := s.lock(userID)
	defer unlock()
	cur := s.load(userID)
	next := fn(cur)
	if next == nil && cur == nil {
		return
	}
	s.save(userID, next)
}

// Len returns the number of stored sessions, expired ones included.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep drops expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, sess := range s.sessions {
		if _, busy := s.locks[id]; busy {
			continue
		}
		if s.expired(sess) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// StartJanitor sweeps expired sessions every interval until ctx is done.
func (s *Store) StartJanitor(ctx context.Context, interval time.Duration) {
	if s.ttl <= 0 || interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					log.Printf("🧹 Dropped %d abandoned sessions", n)
				}
			case <-ctx.Done():
				return
			}
		}
	}()
}
