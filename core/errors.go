package core

import "errors"

// Authentication errors
var (
	// ErrInvalidCredentials covers both "unknown handle" and "wrong
	// password" so callers cannot tell the two apart. 401 Unauthorized
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found") // 404 Not Found
)

// Session errors
var (
	ErrNoSession = errors.New("session store is required") // 500
)

// Config errors (server-side configuration, fatal by design)
var (
	ErrUserStoreRequired   = errors.New("user store is required")            // 500
	ErrAuthKeyRequired     = errors.New("session auth key is required")      // 500
	ErrLocationKeyRequired = errors.New("session location key is required")  // 500
	ErrIssuerRequired      = errors.New("totp issuer name is required")      // 500
	ErrKeyCollision        = errors.New("auth key and location key collide") // 500
)

// TOTP errors
var (
	ErrSecretNotProvisioned = errors.New("totp secret not provisioned") // 409
)
