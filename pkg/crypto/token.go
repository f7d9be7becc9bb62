package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base32"
	"encoding/base64"
	"encoding/hex"
	"errors"
)

const (
	DefaultTokenLength = 32 // 256 bits

	// DefaultSecretBytes yields a 16-character base32 string, the usual
	// length authenticator apps expect.
	DefaultSecretBytes = 10
)

var b32 = base32.StdEncoding.WithPadding(base32.NoPadding)

// GenerateToken returns a random URL-safe token of byteLength random
// bytes. Used for password-reset nonces and generated passwords.
func GenerateToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultTokenLength
	}

	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(bytes), nil
}

// GenerateBase32Secret returns a random base32-encoded secret suitable as
// a TOTP seed. byteLength <= 0 falls back to DefaultSecretBytes.
func GenerateBase32Secret(byteLength int) (string, error) {
	if byteLength <= 0 {
		byteLength = DefaultSecretBytes
	}

	bytes := make([]byte, byteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}

	return b32.EncodeToString(bytes), nil
}

// HashToken maps a token to its hex-encoded SHA-256 digest. One-way; used
// to derive stored values from material that never needs recovering.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// VerifyToken compares a candidate token against a stored HashToken value.
func VerifyToken(token, storedHash string) (bool, error) {
	if token == "" || storedHash == "" {
		return false, errors.New("token and hash cannot be empty")
	}

	tokenHash := HashToken(token)

	// Constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(tokenHash), []byte(storedHash)) == 1, nil
}

// ConstantTimeEqual compares two strings without leaking a length- or
// prefix-dependent timing signal.
func ConstantTimeEqual(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
