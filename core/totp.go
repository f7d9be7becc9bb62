package core

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"github.com/lmarand/wicket/pkg/crypto"
)

const (
	TOTPPeriod = 30
	TOTPDigits = 6

	// EmailDrift is how far behind the clock an email-delivered code may
	// be and still verify. Delivery latency needs the wider window;
	// app-generated codes get none. Forward drift is never accepted.
	EmailDrift = 120 * time.Second

	// DefaultCookieTTL is the remembered-device trust window.
	DefaultCookieTTL = 30 * 24 * time.Hour
)

// TOTPManager owns second-factor secrets, code verification and the
// remembered-device trust cookie for user records.
type TOTPManager struct {
	creds       *Credentials
	issuer      string
	secretBytes int
	cookieTTL   time.Duration
}

func NewTOTPManager(creds *Credentials, issuer string, secretBytes int, cookieTTL time.Duration) *TOTPManager {
	if secretBytes <= 0 {
		secretBytes = crypto.DefaultSecretBytes
	}
	if cookieTTL <= 0 {
		cookieTTL = DefaultCookieTTL
	}
	return &TOTPManager{
		creds:       creds,
		issuer:      issuer,
		secretBytes: secretBytes,
		cookieTTL:   cookieTTL,
	}
}

// GenerateNewSecret stages a rotation-candidate secret without disturbing
// the active one, so a new device can be verified before committing.
// An already-staged candidate is kept unless force is set. The record is
// persisted immediately, bypassing validation.
func (m *TOTPManager) GenerateNewSecret(u *User, force bool) (string, error) {
	if !force && u.TOTPNewSecret != nil && *u.TOTPNewSecret != "" {
		return *u.TOTPNewSecret, nil
	}

	secret, err := crypto.GenerateBase32Secret(m.secretBytes)
	if err != nil {
		return "", fmt.Errorf("failed to generate totp secret: %w", err)
	}
	u.TOTPNewSecret = &secret

	if err := m.creds.Save(u, false); err != nil {
		return "", err
	}
	return secret, nil
}

// Activate transitions the user's second-factor method. Committing
// promotes the staged candidate secret to active. Leaving second factor
// (TOTPMethodNone) purges every piece of TOTP material; activating a
// method with no secret seeds one (email-delivered codes still need a
// seed). Persists immediately, bypassing validation.
func (m *TOTPManager) Activate(u *User, method TOTPMethod, commitNewSecret bool) error {
	u.TOTPMethod = method

	if commitNewSecret && u.TOTPNewSecret != nil && *u.TOTPNewSecret != "" {
		u.TOTPSecret = u.TOTPNewSecret
		u.TOTPNewSecret = nil
	}

	// The save pipeline purges TOTP fields for a disabled method and
	// seeds a missing secret for an enabled one.
	return m.creds.Save(u, false)
}

// Authenticate verifies a candidate code against the active secret.
// A negative outcome is a plain false, never an error.
func (m *TOTPManager) Authenticate(u *User, code string) bool {
	if u.TOTPSecret == nil || *u.TOTPSecret == "" {
		return false
	}
	return m.verify(*u.TOTPSecret, code, u.TOTPMethod)
}

// AuthenticateNew verifies a candidate code against the staged
// rotation-candidate secret.
func (m *TOTPManager) AuthenticateNew(u *User, code string) bool {
	if u.TOTPNewSecret == nil || *u.TOTPNewSecret == "" {
		return false
	}
	return m.verify(*u.TOTPNewSecret, code, u.TOTPMethod)
}

// verify checks the code at the current step, then walks backward through
// the drift window one step at a time. Only backward steps: a code from a
// future step never validates.
func (m *TOTPManager) verify(secret, code string, method TOTPMethod) bool {
	code = strings.TrimSpace(strings.ReplaceAll(code, " ", ""))

	opts := totp.ValidateOpts{
		Period:    TOTPPeriod,
		Skew:      0,
		Digits:    otp.DigitsSix,
		Algorithm: otp.AlgorithmSHA1,
	}

	drift := time.Duration(0)
	if method == TOTPMethodEmail {
		drift = EmailDrift
	}

	now := nowFunc()
	for back := time.Duration(0); back <= drift; back += TOTPPeriod * time.Second {
		ok, err := totp.ValidateCustom(code, secret, now.Add(-back), opts)
		if err == nil && ok {
			return true
		}
	}
	return false
}

// UpdateCookie issues a fresh remembered-device token valid for the
// configured window, persists it, and returns the value for delivery to
// the client. The token is a one-way digest over the user id, the expiry
// and a random nonce, so nothing recoverable is stored.
func (m *TOTPManager) UpdateCookie(u *User) (string, error) {
	nonce, err := crypto.GenerateToken(0)
	if err != nil {
		return "", fmt.Errorf("failed to generate cookie nonce: %w", err)
	}

	expiry := nowFunc().Add(m.cookieTTL)
	value := crypto.HashToken(u.ID + ":" + expiry.UTC().Format(time.RFC3339) + ":" + nonce)

	u.TOTPCookie = &value
	u.TOTPCookieExpiry = &expiry
	if err := m.creds.Save(u, false); err != nil {
		return "", err
	}
	return value, nil
}

// CookieValid reports whether the presented cookie value matches the
// stored one and has not expired.
func (m *TOTPManager) CookieValid(u *User, value string) bool {
	if m.CookieExpired(u) || value == "" {
		return false
	}
	return crypto.ConstantTimeEqual(value, *u.TOTPCookie)
}

// CookieExpired reports whether the remembered-device trust has lapsed.
// No cookie, or a cookie with no expiry, counts as expired.
func (m *TOTPManager) CookieExpired(u *User) bool {
	if u.TOTPCookie == nil || *u.TOTPCookie == "" {
		return true
	}
	if u.TOTPCookieExpiry == nil {
		return true
	}
	return u.TOTPCookieExpiry.Before(nowFunc())
}

// ProvisioningURI renders the standard otpauth enrollment URI for the
// active secret. The account label defaults to the user's email.
func (m *TOTPManager) ProvisioningURI(u *User, account string) (string, error) {
	return m.provisioningURI(u.TOTPSecret, u, account)
}

// NewProvisioningURI renders the enrollment URI for the staged
// rotation-candidate secret.
func (m *TOTPManager) NewProvisioningURI(u *User, account string) (string, error) {
	return m.provisioningURI(u.TOTPNewSecret, u, account)
}

func (m *TOTPManager) provisioningURI(secret *string, u *User, account string) (string, error) {
	if m.issuer == "" {
		return "", ErrIssuerRequired
	}
	if secret == nil || *secret == "" {
		return "", ErrSecretNotProvisioned
	}
	if account == "" {
		account = u.Email
	}

	label := url.PathEscape(m.issuer + ":" + account)
	values := url.Values{}
	values.Set("secret", *secret)
	values.Set("issuer", m.issuer)
	values.Set("algorithm", otp.AlgorithmSHA1.String())
	values.Set("digits", strconv.Itoa(TOTPDigits))
	values.Set("period", strconv.Itoa(TOTPPeriod))
	return "otpauth://totp/" + label + "?" + values.Encode(), nil
}
