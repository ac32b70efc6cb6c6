package store

import "errors"

// Sentinel errors translated by the HTTP layer into the caller-facing
// status taxonomy. Anything else is an internal error: logged in full,
// surfaced opaque.
var (
	// ErrNotFound indicates a referenced group, role, user, or client is absent.
	ErrNotFound = errors.New("store: not found")
	// ErrConflict indicates a uniqueness violation on create.
	ErrConflict = errors.New("store: conflict")
	// ErrForbidden indicates an authenticated caller is not entitled.
	ErrForbidden = errors.New("store: forbidden")
)
