package core

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/lmarand/wicket/pkg/crypto"
)

// fakeUserStore implements UserStore over a map and exposes error fields
// for behavior injection.
type fakeUserStore struct {
	mu      sync.RWMutex
	users   map[string]*User
	nextID  int
	findErr error
	saveErr error
	saves   int
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*User)}
}

func (f *fakeUserStore) FindByEmail(email string) (*User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, ErrUserNotFound
}

func (f *fakeUserStore) FindByID(id string) (*User, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.findErr != nil {
		return nil, f.findErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserStore) Save(u *User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	if u.ID == "" {
		f.nextID++
		u.ID = fmt.Sprintf("user-%d", f.nextID)
	}
	copied := *u
	f.users[u.ID] = &copied
	f.saves++
	return nil
}

// stored returns the persisted record, bypassing the copy semantics.
func (f *fakeUserStore) stored(id string) *User {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.users[id]
}

// fakeSession implements SessionStore with a counter-based identifier so
// rotation is observable.
type fakeSession struct {
	id     string
	renews int
	values map[string]string
}

func newFakeSession(id string) *fakeSession {
	return &fakeSession{id: id, values: make(map[string]string)}
}

func (s *fakeSession) ID() string { return s.id }

func (s *fakeSession) Get(key string) (string, bool) {
	v, ok := s.values[key]
	return v, ok
}

func (s *fakeSession) Set(key, value string) { s.values[key] = value }
func (s *fakeSession) Delete(key string)     { delete(s.values, key) }

func (s *fakeSession) Renew() error {
	s.renews++
	s.id = fmt.Sprintf("%s-renewed-%d", s.id, s.renews)
	s.values = make(map[string]string)
	return nil
}

// fakeTransport records denials and redirects.
type fakeTransport struct {
	path      string
	denials   []string
	redirects []string
}

func (t *fakeTransport) Path() string        { return t.path }
func (t *fakeTransport) Deny(message string) { t.denials = append(t.denials, message) }
func (t *fakeTransport) Redirect(url string) { t.redirects = append(t.redirects, url) }

// testHasher keeps argon2 cheap enough for tests.
func testHasher() *crypto.Argon2 {
	return &crypto.Argon2{
		Memory:      8 * 1024,
		Iterations:  1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   32,
	}
}

func newTestCredentials(store *fakeUserStore) *Credentials {
	return NewCredentials(store, testHasher(), 0)
}

// freezeNow pins the package clock for one test.
func freezeNow(t *testing.T, at time.Time) {
	t.Helper()
	prev := nowFunc
	nowFunc = func() time.Time { return at }
	t.Cleanup(func() { nowFunc = prev })
}
