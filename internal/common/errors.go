package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden")

	// Input validation.
	ErrorValidation      = errors.New("validation error")
	ErrorInvalidPassword = errors.New("invalid password")

	// Credential errors. Unknown email and wrong password share ErrorBadCredentials.
	ErrorBadCredentials = errors.New("bad credentials")
	ErrorInactiveUser   = errors.New("inactive user")
	ErrorNotVerified    = errors.New("user not verified")

	// Verification flow.
	ErrorAlreadyVerified = errors.New("already verified")

	// Any token verification failure (signature, expiry, audience, stale state).
	ErrInvalidToken = errors.New("invalid token")
)
