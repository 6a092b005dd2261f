package domain

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist in the database.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. fewer than two route points, end_ts before start_ts).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrConflict is returned when a write would create a duplicate of an existing
// record. Callers that need the conflicting record use errors.As with *ConflictError.
// Handlers should map this to HTTP 409.
var ErrConflict = errors.New("conflict")

// ErrUpstream is returned when an external geocoding or routing service is
// unreachable, times out, or answers with a non-success status.
// Handlers should map this to HTTP 502 (504 on timeout).
var ErrUpstream = errors.New("upstream failure")

// ConflictError identifies the existing POI that blocked a new one.
type ConflictError struct {
	POIID   uuid.UUID
	POIName string
	Reason  string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s: %s (existing poi %q)", ErrConflict, e.Reason, e.POIName)
}

// Is makes errors.Is(err, ErrConflict) true for any *ConflictError.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// UpstreamError carries the upstream service name and whatever status it returned.
// Status is 0 when no HTTP response was received (DNS failure, timeout, reset).
type UpstreamError struct {
	Service string
	Status  int
	Message string
	Timeout bool
}

func (e *UpstreamError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s: HTTP %d: %s", ErrUpstream, e.Service, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", ErrUpstream, e.Service, e.Message)
}

// Is makes errors.Is(err, ErrUpstream) true for any *UpstreamError.
func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstream
}
