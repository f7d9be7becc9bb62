package core

import (
	"errors"
	"fmt"

	"github.com/lmarand/wicket/pkg/crypto"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 40

	resetCodeBytes = 16
	// generatedPasswordBytes encodes to 16 characters, inside the
	// allowed password length window.
	generatedPasswordBytes = 12
)

// Credentials owns password hashing/verification and password-reset
// nonces for user records, and is the single save path for them.
type Credentials struct {
	users       UserStore
	hasher      crypto.PasswordHandler
	secretBytes int

	// dummyHash keeps the cost of rejecting an unknown handle in the
	// same ballpark as rejecting a wrong password.
	dummyHash string
}

func NewCredentials(users UserStore, hasher crypto.PasswordHandler, secretBytes int) *Credentials {
	dummy, _ := hasher.Hash("wicket.dummy")
	return &Credentials{
		users:       users,
		hasher:      hasher,
		secretBytes: secretBytes,
		dummyHash:   dummy,
	}
}

// Authenticate looks a user up by login handle and verifies the candidate
// password. Unknown handle and wrong password both come back as
// ErrInvalidCredentials so callers cannot enumerate accounts. A successful
// login invalidates any open password-reset code, exactly once.
func (c *Credentials) Authenticate(email, candidate string) (*User, error) {
	user, err := c.users.FindByEmail(email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			c.hasher.Verify(candidate, c.dummyHash)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	if user.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}

	valid, err := c.hasher.Verify(candidate, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	// An old reset token must not survive the owner recovering their
	// password on their own.
	if user.HasOpenPasswordReset() {
		if err := c.ClearResetCode(user, true); err != nil {
			return nil, err
		}
	}

	return user, nil
}

// PasswordRequired reports whether password length/confirmation rules
// apply on the next validated save: no credential derived yet, a new
// candidate staged, or a reset in progress.
func (c *Credentials) PasswordRequired(u *User) bool {
	return u.PasswordHash == "" || u.PasswordPlain != "" || u.HasOpenPasswordReset()
}

// RecordLogin stamps the audit fields for one successful authentication.
// Never called on failed attempts.
func (c *Credentials) RecordLogin(u *User) error {
	now := nowFunc()
	u.LastLoginAt = &now
	u.LoginCount++
	return c.Save(u, false)
}

// IssueResetCode stages a fresh unpredictable reset nonce. With persist,
// the record is written immediately, bypassing validation: a reset code
// must be settable even while other fields are invalid.
func (c *Credentials) IssueResetCode(u *User, persist bool) (string, error) {
	code, err := crypto.GenerateToken(resetCodeBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate reset code: %w", err)
	}
	u.PasswordResetCode = &code
	if persist {
		if err := c.Save(u, false); err != nil {
			return "", err
		}
	}
	return code, nil
}

// ClearResetCode removes any open reset nonce. Idempotent.
func (c *Credentials) ClearResetCode(u *User, persist bool) error {
	u.PasswordResetCode = nil
	if persist {
		return c.Save(u, false)
	}
	return nil
}

// Save runs the normalize-then-persist pipeline, an explicit ordering in
// place of implicit lifecycle callbacks:
//
//  1. brand-new records get a generated password staged, so invite-only
//     flows always have something to hash (the owner sets a real one
//     later via the reset flow)
//  2. validation, unless bypassed; a failure aborts before anything is
//     derived or written
//  3. a staged candidate is hashed into PasswordHash
//  4. a disabled TOTP method unconditionally purges all TOTP material;
//     an enabled one is seeded with a secret if none exists
//  5. the record is handed to the store
func (c *Credentials) Save(u *User, validate bool) error {
	if u.PasswordHash == "" && u.PasswordPlain == "" {
		generated, err := crypto.GenerateToken(generatedPasswordBytes)
		if err != nil {
			return fmt.Errorf("failed to generate password: %w", err)
		}
		u.PasswordPlain = generated
		u.PasswordConfirmation = generated
	}

	if validate {
		if errs := c.validateRecord(u); len(errs) > 0 {
			return errs
		}
	}

	if err := c.derive(u); err != nil {
		return err
	}

	if err := c.users.Save(u); err != nil {
		return fmt.Errorf("failed to save user: %w", err)
	}

	// The candidate is transient; once hashed and stored it must not
	// linger on the record.
	u.PasswordPlain = ""
	u.PasswordConfirmation = ""
	return nil
}

func (c *Credentials) derive(u *User) error {
	if u.PasswordPlain != "" {
		hash, err := c.hasher.Hash(u.PasswordPlain)
		if err != nil {
			return fmt.Errorf("failed to hash password: %w", err)
		}
		u.PasswordHash = hash
	}

	if !u.TOTPMethod.Enabled() {
		u.TOTPSecret = nil
		u.TOTPNewSecret = nil
		u.TOTPCookie = nil
		u.TOTPCookieExpiry = nil
		return nil
	}

	if u.TOTPSecret == nil || *u.TOTPSecret == "" {
		secret, err := crypto.GenerateBase32Secret(c.secretBytes)
		if err != nil {
			return fmt.Errorf("failed to generate totp secret: %w", err)
		}
		u.TOTPSecret = &secret
	}
	return nil
}

func (c *Credentials) validateRecord(u *User) ValidationErrors {
	var errs ValidationErrors

	if u.Email == "" {
		errs.add("email", "is required")
	} else if existing, err := c.users.FindByEmail(u.Email); err == nil && existing.ID != u.ID {
		errs.add("email", "is already taken")
	}

	if c.PasswordRequired(u) {
		if len(u.PasswordPlain) < MinPasswordLength {
			errs.add("password", "must be at least %d characters", MinPasswordLength)
		} else if len(u.PasswordPlain) > MaxPasswordLength {
			errs.add("password", "must be at most %d characters", MaxPasswordLength)
		}
		if u.PasswordPlain != u.PasswordConfirmation {
			errs.add("password_confirmation", "does not match")
		}
	}

	return errs
}
