package core

import (
	"fmt"
	"time"
)

// Session keys managed by the guard. createdAtKey is fixed; the auth and
// location keys are per-domain configuration so independent auth domains
// (say, admin and public) never share session state.
const createdAtKey = "created_at"

// DefaultSessionIdleLimit is how long a session may sit untouched before
// the next operation rotates its identifier.
const DefaultSessionIdleLimit = 60 * time.Minute

// AccessDeniedMessage is the fixed body emitted on denial.
const AccessDeniedMessage = "Access denied. Please log in to continue."

// Resolution is the memoized outcome of resolving the session's user.
type Resolution int

const (
	// NotResolved means resolution has not been attempted this request.
	NotResolved Resolution = iota
	// ResolvedNone means no trusted user: nothing in the session, the
	// record is gone, or the single-device check failed.
	ResolvedNone
	// ResolvedUser means a user was resolved and is trusted here.
	ResolvedUser
)

// GuardConfig binds one auth domain to its session keys and user store.
type GuardConfig struct {
	AuthKey     string
	LocationKey string

	// SingleDeviceSession invalidates every session but the most
	// recently established one per user.
	SingleDeviceSession bool

	IdleLimit time.Duration
}

// Guard is the per-request login/logout state machine for one auth
// domain. Construct one per request via Wicket.Guard; resolution is
// memoized for the guard's lifetime.
type Guard struct {
	cfg     GuardConfig
	users   UserStore
	creds   *Credentials
	session SessionStore
	web     Transport

	// Authorized is the host's authorization hook, consulted by
	// RequireLogin after the login check. Defaults to always-true.
	Authorized func(u *User) bool

	state Resolution
	user  *User
}

func NewGuard(cfg GuardConfig, users UserStore, creds *Credentials, session SessionStore, web Transport) *Guard {
	if cfg.IdleLimit <= 0 {
		cfg.IdleLimit = DefaultSessionIdleLimit
	}
	return &Guard{
		cfg:        cfg,
		users:      users,
		creds:      creds,
		session:    session,
		web:        web,
		Authorized: func(*User) bool { return true },
	}
}

// IsLoggedIn reports whether a trusted user is bound to this session.
func (g *Guard) IsLoggedIn() bool {
	return g.Resolve() == ResolvedUser
}

// CurrentUser returns the resolved user, or nil when the session carries
// none. Use Resolve to distinguish "none" from "not yet resolved".
func (g *Guard) CurrentUser() *User {
	g.Resolve()
	return g.user
}

// Resolve loads the user bound to the session, once per guard. A user
// whose CurrentSessionID does not match this session under the
// single-device policy always resolves to ResolvedNone, on every path:
// the record exists but this device is not the trusted one.
func (g *Guard) Resolve() Resolution {
	if g.state != NotResolved {
		return g.state
	}

	g.state = ResolvedNone

	id, ok := g.session.Get(g.cfg.AuthKey)
	if !ok || id == "" {
		return g.state
	}

	user, err := g.users.FindByID(id)
	if err != nil {
		return g.state
	}

	if g.cfg.SingleDeviceSession {
		if user.CurrentSessionID == nil || *user.CurrentSessionID != g.session.ID() {
			return g.state
		}
	}

	g.state = ResolvedUser
	g.user = user
	return g.state
}

// SetCurrentUser binds a user to the session, or clears the binding for
// nil. Binding a user claims this session as the user's trusted device,
// evicting whichever device held the claim before.
func (g *Guard) SetCurrentUser(u *User) error {
	if err := g.setupSession(); err != nil {
		return err
	}

	if u == nil {
		g.session.Delete(g.cfg.AuthKey)
		g.state = ResolvedNone
		g.user = nil
		return nil
	}

	g.session.Set(g.cfg.AuthKey, u.ID)

	sid := g.session.ID()
	u.CurrentSessionID = &sid
	if err := g.creds.Save(u, false); err != nil {
		return err
	}

	g.state = ResolvedUser
	g.user = u
	return nil
}

// Logout clears the session binding entirely. The host is expected to
// also invalidate the transport-level session after calling this.
func (g *Guard) Logout() error {
	return g.SetCurrentUser(nil)
}

// setupSession rotates an idle session and refreshes its idle clock.
// Rotation reissues the identifier and clears every key except the
// pending redirect target, which survives so a login that straddles the
// idle limit still lands where the user was headed.
func (g *Guard) setupSession() error {
	if stamp, ok := g.session.Get(createdAtKey); ok {
		createdAt, err := time.Parse(time.RFC3339, stamp)
		if err != nil || nowFunc().Sub(createdAt) > g.cfg.IdleLimit {
			location, hadLocation := g.session.Get(g.cfg.LocationKey)
			if err := g.session.Renew(); err != nil {
				return fmt.Errorf("failed to renew session: %w", err)
			}
			if hadLocation {
				g.session.Set(g.cfg.LocationKey, location)
			}
			g.state = NotResolved
			g.user = nil
		}
	}

	g.session.Set(createdAtKey, nowFunc().Format(time.RFC3339))
	return nil
}

// RequireLogin is the pre-action gate: logged in and authorized, or a
// denial is emitted and false returned.
func (g *Guard) RequireLogin() bool {
	if g.IsLoggedIn() && g.Authorized(g.user) {
		return true
	}
	return g.AccessDenied()
}

// AccessDenied emits the denial response. Always returns false so call
// sites can use it as a short-circuit value.
func (g *Guard) AccessDenied() bool {
	g.web.Deny(AccessDeniedMessage)
	return false
}

// StoreLocation remembers url as the post-login redirect target; with an
// empty url the current request path is stored instead.
func (g *Guard) StoreLocation(url string) {
	if url == "" {
		url = g.web.Path()
	}
	g.session.Set(g.cfg.LocationKey, url)
}

// RedirectBackOrDefault redirects to the stored location if one is
// pending, else to defaultURL. The stored location is consumed either
// way; it is used at most once.
func (g *Guard) RedirectBackOrDefault(defaultURL string) {
	target := defaultURL
	if stored, ok := g.session.Get(g.cfg.LocationKey); ok && stored != "" {
		target = stored
	}
	g.session.Delete(g.cfg.LocationKey)
	g.web.Redirect(target)
}
