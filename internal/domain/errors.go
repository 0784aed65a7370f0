package domain

import "errors"

// Sentinel errors for domain-level error discrimination.
// Services wrap these so handlers can map to HTTP status codes without leaking infrastructure details.
var (
	ErrNotFound           = errors.New("not found")
	ErrConflict           = errors.New("conflict")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrBadRequest         = errors.New("bad request")
	ErrVerificationFailed = errors.New("verification failed")
)

// PublicError pairs a sentinel kind with a message that is safe to show to
// the caller. Anything not wrapped in a PublicError is reported generically.
type PublicError struct {
	Kind    error
	Message string
}

func (e *PublicError) Error() string { return e.Message + ": " + e.Kind.Error() }

func (e *PublicError) Unwrap() error { return e.Kind }

// Public builds a PublicError of the given kind.
func Public(kind error, msg string) error {
	return &PublicError{Kind: kind, Message: msg}
}
