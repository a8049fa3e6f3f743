package services

import (
	"errors"
	"fmt"
)

// ValidationError rejects malformed client input before any side effect.
// Surfaced as a 400; never logged at error level.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// AuthErrorKind distinguishes an expired credential (client should
// re-authenticate) from an invalid one (client should present different
// credentials).
type AuthErrorKind string

const (
	AuthExpired AuthErrorKind = "expired"
	AuthInvalid AuthErrorKind = "invalid"
)

// AuthError is an identity-provider rejection. Surfaced as a 401 with the
// kind as a hint.
type AuthError struct {
	Kind AuthErrorKind
}

func (e *AuthError) Error() string {
	if e.Kind == AuthExpired {
		return "credential expired"
	}
	return "invalid credential"
}

// StoreError wraps a persistence failure. Writes are not retried here;
// the submission fails visibly so the client knows the score was not
// recorded.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s failed: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ErrChannelNotFound is returned by the registry when a disconnect arrives
// for an address it never recorded. Callers log it and move on; the
// transport-level close already happened regardless.
var ErrChannelNotFound = errors.New("channel address not found")

// TransportError is a single-channel delivery failure inside fan-out. It is
// aggregated into the delivery report and never propagates past it.
type TransportError struct {
	ChannelAddress string
	Err            error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("delivery to channel %s failed: %v", e.ChannelAddress, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
