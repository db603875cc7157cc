package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrConfiguration marks startup configuration that is unsafe to run with.
	ErrConfiguration = errors.New("configuration error")

	// ErrInvalidArgument is returned for empty or oversized inputs.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrInvalidToken matches every token validation failure below.
	ErrInvalidToken = errors.New("invalid token")

	ErrInvalidSignature error = &tokenError{"invalid token signature"}
	ErrIssuerMismatch   error = &tokenError{"token issuer mismatch"}
	ErrAudienceMismatch error = &tokenError{"token audience mismatch"}
	ErrTokenNotYetValid error = &tokenError{"token not yet valid"}
	ErrTokenExpired     error = &tokenError{"token expired"}
)

type tokenError struct {
	msg string
}

func (e *tokenError) Error() string { return e.msg }

// Is lets callers match any validation failure with errors.Is(err, ErrInvalidToken).
func (e *tokenError) Is(target error) bool { return target == ErrInvalidToken }
