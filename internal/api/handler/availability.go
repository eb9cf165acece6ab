package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	mw "github.com/pawsuite/reserve/internal/api/middleware"
	"github.com/pawsuite/reserve/internal/api/response"
)

// OverlapQuerier answers availability questions against the interval index.
type OverlapQuerier interface {
	QueryOverlap(ctx context.Context, tenantID uuid.UUID, resourceID uuid.UUID, start, end time.Time) ([]uuid.UUID, error)
}

// NewAvailabilityHandler returns the handler for GET /api/v1/availability.
// Query params: resource_id, start, end. The response reports whether the
// span is free and which reservations hold it when it is not.
func NewAvailabilityHandler(svc OverlapQuerier) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNKNOWN_TENANT", "Missing tenant", nil)
			return
		}

		q := r.URL.Query()
		resourceID, err := uuid.Parse(q.Get("resource_id"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "resource_id must be a valid UUID", nil)
			return
		}
		start, end, ok := parseSpan(w, q.Get("start"), q.Get("end"))
		if !ok {
			return
		}

		ids, err := svc.QueryOverlap(r.Context(), tenantID, resourceID, start, end)
		if err != nil {
			writeError(w, err)
			return
		}
		if ids == nil {
			ids = []uuid.UUID{}
		}
		response.JSON(w, map[string]any{
			"resource_id":     resourceID,
			"available":       len(ids) == 0,
			"conflicting_ids": ids,
		})
	}
}
