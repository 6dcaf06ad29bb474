// Package aegiserr defines the sentinel errors aegis returns, so callers can
// branch on failure kind with errors.Is instead of parsing message strings.
package aegiserr

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized names an operation on a store that is not open. No
	// aegis function returns it; it is listed so callers can match on it.
	ErrNotInitialized = errors.New("aegis: not initialized")
	// ErrAlreadyInitialized names a second initialization of the same store. No
	// aegis function returns it; it is listed so callers can match on it.
	ErrAlreadyInitialized = errors.New("aegis: already initialized")
	// ErrAlreadyBootstrapped is returned by Bootstrap on a store that already has a root entity.
	ErrAlreadyBootstrapped = errors.New("aegis: already bootstrapped")
	// ErrInsufficientPermission is returned when an actor lacks the required capability bits.
	// gate.Require returns it wrapped in *InsufficientPermissionError; unwrap with errors.Is.
	ErrInsufficientPermission = errors.New("aegis: insufficient permission")
	// ErrCircularReference is returned when an inheritance edge would close a cycle.
	ErrCircularReference = errors.New("aegis: circular inheritance reference")
	// ErrSelfReference is returned when an inheritance edge's child and parent are the same entity.
	ErrSelfReference = errors.New("aegis: entity cannot inherit from itself")
	// ErrEntityIDMalformed is returned when an entity id fails "type:id" validation.
	ErrEntityIDMalformed = errors.New("aegis: malformed entity id")
	// ErrEntityNotFound is returned when a referenced entity has no registry record.
	ErrEntityNotFound = errors.New("aegis: entity not found")
	// ErrCorruptedRecord is returned when a stored record fails to decode.
	ErrCorruptedRecord = errors.New("aegis: corrupted record")
	// ErrTokenInvalid is returned when a session token has no matching record.
	ErrTokenInvalid = errors.New("aegis: invalid token")
	// ErrTokenExpired is returned when a session token's TTL has elapsed.
	ErrTokenExpired = errors.New("aegis: token expired")
	// ErrStorageFailure wraps an underlying bbolt error.
	ErrStorageFailure = errors.New("aegis: storage failure")
	// ErrPlannerClosed is returned by Submit after the planner's writer loop has shut down.
	ErrPlannerClosed = errors.New("aegis: planner closed")
)

// InsufficientPermissionError carries the actor, scope, and missing bits
// behind an ErrInsufficientPermission failure, for audit logging and
// structured error responses. It unwraps to ErrInsufficientPermission.
type InsufficientPermissionError struct {
	Actor    string
	Scope    string
	Required uint64
	Have     uint64
}

func (e *InsufficientPermissionError) Error() string {
	return fmt.Sprintf("aegis: %s lacks permission on %s: required %#x, have %#x",
		e.Actor, e.Scope, e.Required, e.Have)
}

func (e *InsufficientPermissionError) Unwrap() error {
	return ErrInsufficientPermission
}

// Missing returns the capability bits required but not held.
func (e *InsufficientPermissionError) Missing() uint64 {
	return e.Required &^ e.Have
}

// Wrap wraps err with additional context, preserving errors.Is/As behavior.
func Wrap(context string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", context, err)
}

// sentinels lists every error a caller might already check for with
// errors.Is. WrapStorage leaves errors that unwrap to one of these alone.
var sentinels = []error{
	ErrNotInitialized,
	ErrAlreadyInitialized,
	ErrAlreadyBootstrapped,
	ErrInsufficientPermission,
	ErrCircularReference,
	ErrSelfReference,
	ErrEntityIDMalformed,
	ErrEntityNotFound,
	ErrCorruptedRecord,
	ErrTokenInvalid,
	ErrTokenExpired,
	ErrPlannerClosed,
}

// WrapStorage wraps err as ErrStorageFailure unless it already unwraps to one
// of aegis's own sentinels, so a raw bbolt error crossing out of a
// db.Update/db.View call surfaces through errors.Is(err, ErrStorageFailure)
// the same way every other failure kind surfaces through its own sentinel.
func WrapStorage(err error) error {
	if err == nil {
		return nil
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return err
		}
	}
	return fmt.Errorf("%w: %w", ErrStorageFailure, err)
}
