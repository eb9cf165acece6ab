package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/pawsuite/reserve/internal/api/response"
	"github.com/pawsuite/reserve/internal/store"
	"github.com/pawsuite/reserve/pkg/models"
)

// TenantAdmin mutates tenant lifecycle state through the resolver so cache
// entries are invalidated along with the store update.
type TenantAdmin interface {
	SetStatus(ctx context.Context, id uuid.UUID, status string) (*models.Tenant, error)
}

// NewTenantStatusHandler returns the handler for
// PUT /api/v1/admin/tenants/{tenantID}/status.
func NewTenantStatusHandler(admin TenantAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "tenantID"))
		if err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "tenant id must be a valid UUID", nil)
			return
		}

		var req struct {
			Status string `json:"status"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if !models.ValidTenantStatus(req.Status) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown tenant status", nil)
			return
		}

		updated, err := admin.SetStatus(r.Context(), id, req.Status)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				response.Error(w, http.StatusNotFound, "NOT_FOUND", "Tenant does not exist", nil)
				return
			}
			writeError(w, err)
			return
		}
		response.JSON(w, updated)
	}
}
