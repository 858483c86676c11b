package masks

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthorized = errors.New("operation is not authorized")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvariant    = errors.New("invariant violation")

	ErrOriginRequired    = fmt.Errorf("%w: origin is required", ErrInvalidInput)
	ErrSelfLink          = fmt.Errorf("%w: origin cannot link to itself", ErrInvalidInput)
	ErrIndexOutOfRange   = fmt.Errorf("%w: identity index out of range", ErrInvalidInput)
	ErrNoIdentities      = fmt.Errorf("%w: origin has no identities", ErrInvariant)
	ErrLoginNotPermitted = fmt.Errorf("%w: derivation origin has not granted access", ErrUnauthorized)
	ErrNotAuthenticated  = fmt.Errorf("%w: no active session", ErrUnauthorized)
)
