// Package memory provides in-memory implementations of the wicket
// storage and session ports, for examples and host-application tests.
package memory

import (
	"sync"

	"github.com/google/uuid"

	"github.com/lmarand/wicket/core"
)

// UserStore keeps user records in a mutex-guarded map.
type UserStore struct {
	mu    sync.RWMutex
	users map[string]*core.User // key: user id
}

var _ core.UserStore = (*UserStore)(nil)

func NewUserStore() *UserStore {
	return &UserStore{users: make(map[string]*core.User)}
}

func (s *UserStore) FindByEmail(email string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (s *UserStore) FindByID(id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// Save inserts the record, assigning an id when it has none, or replaces
// the stored record wholesale.
func (s *UserStore) Save(u *core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	copied := *u
	s.users[u.ID] = &copied
	return nil
}

// Len returns the number of stored users.
func (s *UserStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

// Session is an in-memory core.SessionStore with a reissuable identifier.
type Session struct {
	mu     sync.RWMutex
	id     string
	values map[string]string
}

var _ core.SessionStore = (*Session)(nil)

func NewSession() *Session {
	return &Session{
		id:     uuid.NewString(),
		values: make(map[string]string),
	}
}

func (s *Session) ID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.id
}

func (s *Session) Get(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.values[key]
	return v, ok
}

func (s *Session) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

func (s *Session) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}

// Renew reissues the identifier and clears every key.
func (s *Session) Renew() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.id = uuid.NewString()
	s.values = make(map[string]string)
	return nil
}
