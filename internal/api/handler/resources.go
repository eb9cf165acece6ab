package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	mw "github.com/pawsuite/reserve/internal/api/middleware"
	"github.com/pawsuite/reserve/internal/api/response"
	"github.com/pawsuite/reserve/pkg/models"
)

// ResourceStore is the catalog surface the resource handlers need.
type ResourceStore interface {
	ListResources(ctx context.Context, tenantID uuid.UUID) ([]*models.Resource, error)
	ListActiveResources(ctx context.Context, tenantID uuid.UUID, resourceType string) ([]*models.Resource, error)
	CreateResource(ctx context.Context, r *models.Resource) error
}

// NewListResourcesHandler returns the handler for GET /api/v1/resources.
// ?active=true narrows to active resources, optionally filtered by type.
func NewListResourcesHandler(st ResourceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNKNOWN_TENANT", "Missing tenant", nil)
			return
		}

		q := r.URL.Query()
		resourceType := q.Get("type")
		if resourceType != "" && !models.ValidResourceType(resourceType) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown resource type", nil)
			return
		}

		var resources []*models.Resource
		var err error
		if q.Get("active") == "true" || resourceType != "" {
			resources, err = st.ListActiveResources(r.Context(), tenantID, resourceType)
		} else {
			resources, err = st.ListResources(r.Context(), tenantID)
		}
		if err != nil {
			writeError(w, err)
			return
		}
		response.JSON(w, resources)
	}
}

// NewCreateResourceHandler returns the handler for POST /api/v1/resources —
// staff adding a unit to the catalog.
func NewCreateResourceHandler(st ResourceStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNKNOWN_TENANT", "Missing tenant", nil)
			return
		}

		var req struct {
			Name          string `json:"name"`
			Type          string `json:"type"`
			Capacity      int    `json:"capacity"`
			BaseRateCents int64  `json:"base_rate_cents"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if req.Name == "" {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "name is required", nil)
			return
		}
		if !models.ValidResourceType(req.Type) {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown resource type", nil)
			return
		}
		if req.BaseRateCents < 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "base_rate_cents must not be negative", nil)
			return
		}
		capacity := req.Capacity
		if capacity <= 0 {
			capacity = 1
		}

		now := time.Now().UTC()
		res := &models.Resource{
			ID:            uuid.New(),
			TenantID:      tenantID,
			Name:          req.Name,
			Type:          req.Type,
			Capacity:      capacity,
			BaseRateCents: req.BaseRateCents,
			Active:        true,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := st.CreateResource(r.Context(), res); err != nil {
			writeError(w, err)
			return
		}
		response.Created(w, res)
	}
}
