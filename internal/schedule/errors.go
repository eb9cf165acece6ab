package schedule

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrCapacityExhausted means no resource of the requested type is free
	// for the requested span.
	ErrCapacityExhausted = errors.New("no resource of the requested type is available")
	// ErrInvalidSpan means the requested interval is empty or inverted.
	ErrInvalidSpan = errors.New("reservation span must have start before end")
	// ErrLockTimeout means the operation timed out waiting for a resource
	// lock. Nothing was applied; the request is safe to retry.
	ErrLockTimeout = errors.New("timed out waiting for resource lock")
)

// ConflictError reports that the requested interval overlaps existing
// reservations on the target resource. ConflictingIDs lets the caller offer
// alternatives; it may be empty when the overlap was detected by the
// storage layer rather than the index.
type ConflictError struct {
	ResourceID     uuid.UUID
	ConflictingIDs []uuid.UUID
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("resource %s already reserved for the requested span (%d conflicts)",
		e.ResourceID, len(e.ConflictingIDs))
}

// PolicyViolationError reports an operation attempted outside its allowed
// notice window or on a reservation whose status forbids it. Deadline, when
// set, is the moment before which the operation would have been allowed.
type PolicyViolationError struct {
	Reason   string
	Deadline time.Time
}

func (e *PolicyViolationError) Error() string {
	if e.Deadline.IsZero() {
		return "policy violation: " + e.Reason
	}
	return fmt.Sprintf("policy violation: %s (allowed until %s)", e.Reason, e.Deadline.Format(time.RFC3339))
}
