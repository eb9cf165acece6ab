package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	mw "github.com/pawsuite/reserve/internal/api/middleware"
	"github.com/pawsuite/reserve/internal/api/response"
	"github.com/pawsuite/reserve/internal/schedule"
	"github.com/pawsuite/reserve/internal/store"
	"github.com/pawsuite/reserve/pkg/models"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// Scheduler is the engine surface the reservation handlers drive.
type Scheduler interface {
	CreateReservation(ctx context.Context, tenantID uuid.UUID, p schedule.CreateParams) (*models.Reservation, error)
	ModifyReservation(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, p schedule.ModifyParams) (*schedule.ModifyResult, error)
	CancelReservation(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, reason, actor string) (*schedule.CancelResult, error)
	CheckIn(ctx context.Context, tenantID uuid.UUID, id uuid.UUID, staffOverride bool) (*models.Reservation, error)
	CheckOut(ctx context.Context, tenantID uuid.UUID, id uuid.UUID) (*models.Reservation, error)
}

// ReservationStore is the read-only store surface for reservation lookups.
type ReservationStore interface {
	GetReservation(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Reservation, error)
	ListReservations(ctx context.Context, filter store.ReservationFilter) ([]*models.Reservation, int, error)
	ListModificationRecords(ctx context.Context, reservationID uuid.UUID, tenantID uuid.UUID) ([]*models.ModificationRecord, error)
}

// NewCreateReservationHandler returns the handler for POST /api/v1/reservations.
// Either resource_id (a specific unit) or resource_type ("any available")
// must be given.
func NewCreateReservationHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNKNOWN_TENANT", "Missing tenant", nil)
			return
		}

		var req struct {
			PetID        string `json:"pet_id"`
			CustomerID   string `json:"customer_id"`
			ResourceID   string `json:"resource_id"`
			ResourceType string `json:"resource_type"`
			StartAt      string `json:"start_at"`
			EndAt        string `json:"end_at"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		petID, err := uuid.Parse(req.PetID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "pet_id must be a valid UUID", nil)
			return
		}
		customerID, err := uuid.Parse(req.CustomerID)
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "customer_id must be a valid UUID", nil)
			return
		}

		var resourceID uuid.UUID
		if req.ResourceID != "" {
			resourceID, err = uuid.Parse(req.ResourceID)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "resource_id must be a valid UUID", nil)
				return
			}
		}
		if resourceID == uuid.Nil && req.ResourceType == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
				"one of resource_id or resource_type is required", nil)
			return
		}
		if req.ResourceType != "" && !models.ValidResourceType(req.ResourceType) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown resource_type", nil)
			return
		}

		startAt, endAt, ok := parseSpan(w, req.StartAt, req.EndAt)
		if !ok {
			return
		}

		created, err := svc.CreateReservation(r.Context(), tenantID, schedule.CreateParams{
			PetID:        petID,
			CustomerID:   customerID,
			StartAt:      startAt,
			EndAt:        endAt,
			ResourceID:   resourceID,
			ResourceType: req.ResourceType,
			Actor:        models.ActorCustomer,
		})
		if err != nil {
			writeError(w, err)
			return
		}
		response.Created(w, created)
	}
}

// NewGetReservationHandler returns the handler for GET /api/v1/reservations/{reservationID}.
func NewGetReservationHandler(st ReservationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, id, ok := tenantAndID(w, r)
		if !ok {
			return
		}
		reservation, err := st.GetReservation(r.Context(), id, tenantID)
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, reservation)
	}
}

// NewListReservationsHandler returns the handler for GET /api/v1/reservations.
// Filters: resource_id, status, from, to; paginated with page/limit.
func NewListReservationsHandler(st ReservationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNKNOWN_TENANT", "Missing tenant", nil)
			return
		}

		q := r.URL.Query()
		filter := store.ReservationFilter{TenantID: tenantID, Page: 1, Limit: defaultPageLimit}

		if raw := q.Get("resource_id"); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "resource_id must be a valid UUID", nil)
				return
			}
			filter.ResourceID = id
		}
		if status := q.Get("status"); status != "" {
			if !models.ValidReservationStatus(status) {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown status", nil)
				return
			}
			filter.Status = status
		}
		for _, bound := range []struct {
			name string
			dst  *time.Time
		}{{"from", &filter.From}, {"to", &filter.To}} {
			if raw := q.Get(bound.name); raw != "" {
				ts, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					response.Error(w, http.StatusBadRequest, "INVALID_REQUEST",
						bound.name+" must be a valid RFC3339 timestamp", nil)
					return
				}
				*bound.dst = ts
			}
		}
		if page := intParam(q.Get("page")); page > 0 {
			filter.Page = page
		}
		if limit := intParam(q.Get("limit")); limit > 0 {
			if limit > maxPageLimit {
				limit = maxPageLimit
			}
			filter.Limit = limit
		}

		reservations, total, err := st.ListReservations(r.Context(), filter)
		if err != nil {
			writeError(w, err)
			return
		}
		response.Collection(w, reservations, response.PaginationMeta{
			Page:    filter.Page,
			Limit:   filter.Limit,
			Total:   total,
			HasNext: filter.Page*filter.Limit < total,
		})
	}
}

// NewModifyReservationHandler returns the handler for PATCH /api/v1/reservations/{reservationID}.
// Omitted fields keep their current values; the response carries the price
// delta the change produced.
func NewModifyReservationHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, id, ok := tenantAndID(w, r)
		if !ok {
			return
		}

		var req struct {
			StartAt    string `json:"start_at"`
			EndAt      string `json:"end_at"`
			ResourceID string `json:"resource_id"`
			Actor      string `json:"actor"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}

		var params schedule.ModifyParams
		if req.StartAt != "" {
			ts, err := time.Parse(time.RFC3339, req.StartAt)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "start_at must be a valid RFC3339 timestamp", nil)
				return
			}
			params.NewStartAt = &ts
		}
		if req.EndAt != "" {
			ts, err := time.Parse(time.RFC3339, req.EndAt)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "end_at must be a valid RFC3339 timestamp", nil)
				return
			}
			params.NewEndAt = &ts
		}
		if req.ResourceID != "" {
			resID, err := uuid.Parse(req.ResourceID)
			if err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "resource_id must be a valid UUID", nil)
				return
			}
			params.NewResourceID = resID
		}
		if params.NewStartAt == nil && params.NewEndAt == nil && params.NewResourceID == uuid.Nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "nothing to modify", nil)
			return
		}
		if req.Actor != "" && !models.ValidActor(req.Actor) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown actor", nil)
			return
		}
		params.Actor = req.Actor

		result, err := svc.ModifyReservation(r.Context(), tenantID, id, params)
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, map[string]any{
			"reservation":       result.Reservation,
			"price_delta_cents": result.PriceDeltaCents,
		})
	}
}

// NewCancelReservationHandler returns the handler for POST /api/v1/reservations/{reservationID}/cancel.
func NewCancelReservationHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, id, ok := tenantAndID(w, r)
		if !ok {
			return
		}

		var req struct {
			Reason string `json:"reason"`
			Actor  string `json:"actor"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
				return
			}
		}
		if req.Actor != "" && !models.ValidActor(req.Actor) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown actor", nil)
			return
		}

		result, err := svc.CancelReservation(r.Context(), tenantID, id, req.Reason, req.Actor)
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, map[string]any{
			"reservation":         result.Reservation,
			"refund_percent":      result.RefundPercent,
			"refund_amount_cents": result.RefundAmountCents,
		})
	}
}

// NewCheckInHandler returns the handler for POST /api/v1/reservations/{reservationID}/check-in.
func NewCheckInHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, id, ok := tenantAndID(w, r)
		if !ok {
			return
		}

		var req struct {
			StaffOverride bool `json:"staff_override"`
		}
		if r.ContentLength > 0 {
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
				return
			}
		}

		reservation, err := svc.CheckIn(r.Context(), tenantID, id, req.StaffOverride)
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, reservation)
	}
}

// NewCheckOutHandler returns the handler for POST /api/v1/reservations/{reservationID}/check-out.
func NewCheckOutHandler(svc Scheduler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, id, ok := tenantAndID(w, r)
		if !ok {
			return
		}
		reservation, err := svc.CheckOut(r.Context(), tenantID, id)
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, reservation)
	}
}

// NewReservationHistoryHandler returns the handler for
// GET /api/v1/reservations/{reservationID}/history — the audit trail.
func NewReservationHistoryHandler(st ReservationStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, id, ok := tenantAndID(w, r)
		if !ok {
			return
		}
		if _, err := st.GetReservation(r.Context(), id, tenantID); err != nil {
			writeError(w, err)
			return
		}
		records, err := st.ListModificationRecords(r.Context(), id, tenantID)
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, records)
	}
}

// tenantAndID pulls the tenant from the context and the reservation id from
// the path, writing the error response itself on failure.
func tenantAndID(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	tenantID, ok := mw.GetTenantID(r)
	if !ok {
		response.Error(w, http.StatusUnauthorized, "UNKNOWN_TENANT", "Missing tenant", nil)
		return uuid.Nil, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "reservationID"))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "reservation id must be a valid UUID", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return tenantID, id, true
}

func parseSpan(w http.ResponseWriter, rawStart, rawEnd string) (time.Time, time.Time, bool) {
	if rawStart == "" || rawEnd == "" {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "start_at and end_at are required", nil)
		return time.Time{}, time.Time{}, false
	}
	startAt, err := time.Parse(time.RFC3339, rawStart)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "start_at must be a valid RFC3339 timestamp", nil)
		return time.Time{}, time.Time{}, false
	}
	endAt, err := time.Parse(time.RFC3339, rawEnd)
	if err != nil {
		response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "end_at must be a valid RFC3339 timestamp", nil)
		return time.Time{}, time.Time{}, false
	}
	return startAt, endAt, true
}

func intParam(raw string) int {
	if raw == "" {
		return 0
	}
	n := 0
	for _, r := range raw {
		if r < '0' || r > '9' {
			return 0
		}
		n = n*10 + int(r-'0')
		if n > 1_000_000 {
			return 0
		}
	}
	return n
}
