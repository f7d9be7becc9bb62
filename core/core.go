package core

import (
	"time"

	"github.com/lmarand/wicket/pkg/crypto"
)

// nowFunc is swapped out by tests that need a fixed clock.
var nowFunc = time.Now

// Config wires one auth domain. Hosts running several independent
// domains (admin and public, say) build one kernel per domain; the auth
// key, location key and user store must never be shared across domains.
type Config struct {
	Users UserStore

	// AuthKey and LocationKey name the session entries holding this
	// domain's authenticated user id and pending redirect target.
	AuthKey     string
	LocationKey string

	// SingleDeviceSessions enforces at most one trusted session per
	// user. Explicit configuration; never inferred from the process
	// environment.
	SingleDeviceSessions bool

	// Issuer is the service name embedded in provisioning URIs. Its
	// absence only surfaces when a URI is requested.
	Issuer string

	// Optional knobs, defaulted when zero.
	Hasher           crypto.PasswordHandler
	SessionIdleLimit time.Duration
	TOTPCookieTTL    time.Duration
	TOTPSecretBytes  int
}

// Wicket is one configured auth domain: a credential store, a TOTP
// manager, and a factory for per-request session guards.
type Wicket struct {
	Credentials *Credentials
	TOTP        *TOTPManager

	cfg Config
}

// New validates the domain bindings and assembles the kernel. Missing
// bindings are configuration errors surfaced here, loudly, never
// defaulted into cross-domain session confusion.
func New(cfg Config) (*Wicket, error) {
	if cfg.Users == nil {
		return nil, ErrUserStoreRequired
	}
	if cfg.AuthKey == "" {
		return nil, ErrAuthKeyRequired
	}
	if cfg.LocationKey == "" {
		return nil, ErrLocationKeyRequired
	}
	if cfg.AuthKey == cfg.LocationKey {
		return nil, ErrKeyCollision
	}

	if cfg.Hasher == nil {
		cfg.Hasher = crypto.NewArgon2()
	}
	if cfg.SessionIdleLimit <= 0 {
		cfg.SessionIdleLimit = DefaultSessionIdleLimit
	}

	creds := NewCredentials(cfg.Users, cfg.Hasher, cfg.TOTPSecretBytes)

	return &Wicket{
		Credentials: creds,
		TOTP:        NewTOTPManager(creds, cfg.Issuer, cfg.TOTPSecretBytes, cfg.TOTPCookieTTL),
		cfg:         cfg,
	}, nil
}

// Guard builds the state machine for one request. The session must be
// present; the transport may be nil only if the caller never triggers a
// denial or redirect.
func (w *Wicket) Guard(session SessionStore, web Transport) (*Guard, error) {
	if session == nil {
		return nil, ErrNoSession
	}
	return NewGuard(GuardConfig{
		AuthKey:             w.cfg.AuthKey,
		LocationKey:         w.cfg.LocationKey,
		SingleDeviceSession: w.cfg.SingleDeviceSessions,
		IdleLimit:           w.cfg.SessionIdleLimit,
	}, w.cfg.Users, w.Credentials, session, web), nil
}
