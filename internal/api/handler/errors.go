package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/pawsuite/reserve/internal/api/response"
	"github.com/pawsuite/reserve/internal/schedule"
	"github.com/pawsuite/reserve/internal/store"
)

// writeError maps domain errors onto HTTP statuses. Cross-tenant references
// arrive here already collapsed into ErrNotFound, so nothing below leaks
// existence across tenants.
func writeError(w http.ResponseWriter, err error) {
	var conflict *schedule.ConflictError
	var policy *schedule.PolicyViolationError

	switch {
	case errors.Is(err, store.ErrNotFound):
		response.Error(w, http.StatusNotFound,
			"NOT_FOUND", "Referenced entity does not exist", nil)

	case errors.As(err, &conflict):
		response.Error(w, http.StatusConflict,
			"RESERVATION_CONFLICT", "The requested span overlaps existing reservations",
			map[string]any{
				"resource_id":     conflict.ResourceID,
				"conflicting_ids": conflict.ConflictingIDs,
			})

	case errors.Is(err, schedule.ErrCapacityExhausted):
		response.Error(w, http.StatusConflict,
			"CAPACITY_EXHAUSTED", "No resource of the requested type is free for the span", nil)

	case errors.As(err, &policy):
		details := map[string]any{"reason": policy.Reason}
		if !policy.Deadline.IsZero() {
			details["deadline"] = policy.Deadline.UTC().Format(time.RFC3339)
		}
		response.Error(w, http.StatusUnprocessableEntity,
			"POLICY_VIOLATION", policy.Reason, details)

	case errors.Is(err, schedule.ErrInvalidSpan):
		response.Error(w, http.StatusBadRequest,
			"INVALID_REQUEST", "start_at must be before end_at", nil)

	case errors.Is(err, store.ErrDuplicateKey):
		response.Error(w, http.StatusConflict,
			"DUPLICATE", "An entity with the same identity already exists", nil)

	case errors.Is(err, schedule.ErrLockTimeout):
		response.Error(w, http.StatusServiceUnavailable,
			"BUSY", "The resource is busy, retry shortly", nil)

	default:
		response.Error(w, http.StatusInternalServerError,
			"INTERNAL_ERROR", "An unexpected error occurred", nil)
	}
}
