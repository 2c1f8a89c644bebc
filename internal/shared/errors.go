package shared

import (
	"fmt"

	"github.com/warelog/warelog/internal/platform/httpx"
)

// ValidationError reports malformed or missing input, naming the offending
// field. Detected before any mutation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", httpx.ErrValidation, e.Reason)
	}
	return fmt.Sprintf("%v: field %q %s", httpx.ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return httpx.ErrValidation }

// NewValidationError builds a ValidationError for a single field.
func NewValidationError(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// ReferenceNotFoundError reports a referenced entity that does not exist.
// Raised during write validation, so it maps to a client error rather than 404.
type ReferenceNotFoundError struct {
	Entity string
	ID     int64
}

func (e *ReferenceNotFoundError) Error() string {
	return fmt.Sprintf("%v: %s %d does not exist", httpx.ErrValidation, e.Entity, e.ID)
}

func (e *ReferenceNotFoundError) Unwrap() error { return httpx.ErrValidation }

// InsufficientStockError reports an issue line requesting more than available.
// Available is carried for user-facing messaging.
type InsufficientStockError struct {
	ProductID  int64
	LocationID int64
	Requested  float64
	Available  float64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("%v: insufficient stock for product %d at location %d: requested %.3f, available %.3f",
		httpx.ErrConflict, e.ProductID, e.LocationID, e.Requested, e.Available)
}

func (e *InsufficientStockError) Unwrap() error { return httpx.ErrConflict }

// InvalidTransitionError reports a gate event that the vehicle state machine
// cannot accept.
type InvalidTransitionError struct {
	VehicleID int64
	Reason    string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%v: vehicle %d: %s", httpx.ErrConflict, e.VehicleID, e.Reason)
}

func (e *InvalidTransitionError) Unwrap() error { return httpx.ErrConflict }

// ErrReentryNotConfirmed is returned when an "in" event arrives for a vehicle
// already recorded as parked and the caller has not acknowledged the anomaly.
var ErrReentryNotConfirmed = fmt.Errorf("%w: vehicle already recorded as parked; re-entry requires confirmation", httpx.ErrConflict)
