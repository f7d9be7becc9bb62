package core

// Ports define interfaces for external dependencies

// ============================================
// STORAGE PORT (durable user records)
// ============================================

// UserStore is the durable record contract the host must supply.
// Lookups return ErrUserNotFound when no record matches.
type UserStore interface {
	FindByEmail(email string) (*User, error)
	FindByID(id string) (*User, error)
	Save(u *User) error
}

// ============================================
// SESSION PORT (request-scoped key-value store)
// ============================================

// SessionStore is the host's per-request session: a mutable key-value
// mapping with an externally managed identifier. Renew invalidates the
// session and reissues a fresh identifier with all keys cleared.
type SessionStore interface {
	ID() string
	Get(key string) (string, bool)
	Set(key, value string)
	Delete(key string)
	Renew() error
}

// ============================================
// TRANSPORT PORT (response side of one request)
// ============================================

// Transport is the slice of the host's request/response cycle the guard
// needs: the requested path, a 401-style denial, and an HTTP redirect.
type Transport interface {
	Path() string
	Deny(message string)
	Redirect(url string)
}
