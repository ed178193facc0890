// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// services and handlers to distinguish between different failure
// scenarios without parsing error text. For example, ErrOverRequested
// tells the caller their reservation asked for more than the listing
// holds, while ErrConflict signals that a mutation would violate state
// another record depends on (e.g. shrinking a listing below what active
// reservations have claimed).
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation
// on a resource they do not own. Handlers should translate this
// into an HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when a mutation cannot proceed because of
// conflicting state, such as deleting a listing that still has active
// reservations or re-applying a reservation's current status. Handlers
// should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")

// ErrListingNotFound is returned when no listing exists with the
// requested ID, or when it exists but does not belong to the caller
// for owner-scoped operations.
var ErrListingNotFound = errors.New("listing not found")

// ErrReservationNotFound is returned when no reservation exists with
// the requested ID.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrNotAvailable is returned when a reservation targets a listing
// that is not in the available state (already fully reserved, expired
// or never existed).
var ErrNotAvailable = errors.New("listing not available")

// ErrOverRequested is returned when a reservation asks for more
// quantity than the listing currently holds.
var ErrOverRequested = errors.New("requested quantity not available")

// ErrInvalidAddress is returned when a listing references an address
// that does not exist or belongs to a different user.
var ErrInvalidAddress = errors.New("invalid address")
