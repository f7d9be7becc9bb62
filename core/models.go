package core

import "time"

// User is the durable record the kernel operates on.
//
// The host application owns creation, deletion and storage of users; the
// kernel only reads and mutates the fields below through a UserStore.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`

	// PasswordHash is the encoded argon2id credential. Empty means no
	// password has ever been set.
	PasswordHash string `json:"-"`

	// PasswordPlain and PasswordConfirmation hold a candidate password
	// while it is being validated and hashed. Never persisted.
	PasswordPlain        string `json:"-"`
	PasswordConfirmation string `json:"-"`

	// PasswordResetCode is an opaque nonce; non-nil means a reset
	// request is open.
	PasswordResetCode *string `json:"-"`

	// CurrentSessionID identifies the single device session trusted for
	// this user while the single-device policy is active.
	CurrentSessionID *string `json:"-"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
	LoginCount  int        `json:"loginCount"`

	TOTPMethod       TOTPMethod `json:"totpMethod,omitempty"`
	TOTPSecret       *string    `json:"-"`
	TOTPNewSecret    *string    `json:"-"`
	TOTPCookie       *string    `json:"-"`
	TOTPCookieExpiry *time.Time `json:"-"`
}

// TOTPMethod selects how the second-factor code reaches the user.
type TOTPMethod string

const (
	TOTPMethodNone  TOTPMethod = ""
	TOTPMethodApp   TOTPMethod = "app"
	TOTPMethodEmail TOTPMethod = "email"
)

// Enabled reports whether the method requires a second factor at login.
func (m TOTPMethod) Enabled() bool {
	return m == TOTPMethodApp || m == TOTPMethodEmail
}

// TOTPEnabled reports whether this user must pass a second factor.
func (u *User) TOTPEnabled() bool {
	return u.TOTPMethod.Enabled()
}

// HasOpenPasswordReset reports whether a reset request is pending.
func (u *User) HasOpenPasswordReset() bool {
	return u.PasswordResetCode != nil && *u.PasswordResetCode != ""
}
