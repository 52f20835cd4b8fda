package auth

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// SessionStore maps opaque session ids to identities. Sessions do not
// expire; they live until Destroy or process exit.
type SessionStore struct {
	nowFunc func() time.Time
	newID   func() string

	mu       sync.RWMutex
	sessions map[string]Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		nowFunc:  time.Now,
		newID:    uuid.NewString,
		sessions: make(map[string]Session),
	}
}

func (s *SessionStore) Create(identity Identity) (string, error) {
	if !identity.Valid() {
		return "", fmt.Errorf("create session: invalid identity for %q", identity.Username)
	}

	sess := Session{
		ID:        s.newID(),
		Identity:  identity,
		CreatedAt: s.nowFunc(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.ID]; exists {
		return "", fmt.Errorf("create session: id collision")
	}
	s.sessions[sess.ID] = sess
	return sess.ID, nil
}

func (s *SessionStore) Lookup(id string) (Identity, bool) {
	if id == "" {
		return Identity{}, false
	}
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return Identity{}, false
	}
	return sess.Identity, true
}

func (s *SessionStore) Destroy(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotLoggedIn
	}
	delete(s.sessions, id)
	return nil
}

// List returns a snapshot ordered by creation time.
func (s *SessionStore) List() []Session {
	s.mu.RLock()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, sess)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
