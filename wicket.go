// Package wicket is an embeddable password + TOTP authentication kernel.
//
// The host application supplies a durable user store, a request-scoped
// session store and a thin transport shim; wicket owns credential
// derivation and verification, the login/logout session state machine
// with single-device enforcement and idle rotation, and second-factor
// enrollment, rotation and verification.
package wicket

import (
	"github.com/lmarand/wicket/core"
	"github.com/lmarand/wicket/pkg/crypto"
)

// interfaces
type (
	UserStore    = core.UserStore
	SessionStore = core.SessionStore
	Transport    = core.Transport

	PasswordHandler = crypto.PasswordHandler
)

// structs
type (
	Wicket      = core.Wicket
	Config      = core.Config
	Guard       = core.Guard
	GuardConfig = core.GuardConfig
	Credentials = core.Credentials
	TOTPManager = core.TOTPManager
)

type (
	User             = core.User
	TOTPMethod       = core.TOTPMethod
	Resolution       = core.Resolution
	FieldError       = core.FieldError
	ValidationErrors = core.ValidationErrors
)

const (
	TOTPMethodNone  = core.TOTPMethodNone
	TOTPMethodApp   = core.TOTPMethodApp
	TOTPMethodEmail = core.TOTPMethodEmail

	NotResolved  = core.NotResolved
	ResolvedNone = core.ResolvedNone
	ResolvedUser = core.ResolvedUser

	MinPasswordLength = core.MinPasswordLength
	MaxPasswordLength = core.MaxPasswordLength
)

// Constructors & helpers (convenience re-exports)
var (
	NewArgon2 = crypto.NewArgon2
	NewGuard  = core.NewGuard
)

var (
	ErrInvalidCredentials = core.ErrInvalidCredentials
	ErrUserNotFound       = core.ErrUserNotFound
)

var (
	ErrNoSession = core.ErrNoSession
)

var (
	ErrUserStoreRequired    = core.ErrUserStoreRequired
	ErrAuthKeyRequired      = core.ErrAuthKeyRequired
	ErrLocationKeyRequired  = core.ErrLocationKeyRequired
	ErrIssuerRequired       = core.ErrIssuerRequired
	ErrKeyCollision         = core.ErrKeyCollision
	ErrSecretNotProvisioned = core.ErrSecretNotProvisioned
)

// New assembles a kernel for one auth domain. See core.Config for the
// required bindings; hosts with several auth domains call New once per
// domain with distinct keys and stores.
func New(config Config) (*Wicket, error) {
	return core.New(config)
}
