package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	mw "github.com/pawsuite/reserve/internal/api/middleware"
	"github.com/pawsuite/reserve/internal/api/response"
	"github.com/pawsuite/reserve/internal/importer"
)

const maxImportBatch = 1000

// ImportRunner runs a bulk import batch.
type ImportRunner interface {
	Run(ctx context.Context, tenantID uuid.UUID, records []importer.Record) *importer.Report
}

// NewImportHandler returns the handler for POST /api/v1/import. The batch
// always completes; per-record failures are reported, not fatal.
func NewImportHandler(runner ImportRunner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tenantID, ok := mw.GetTenantID(r)
		if !ok {
			response.Error(w, http.StatusUnauthorized, "UNKNOWN_TENANT", "Missing tenant", nil)
			return
		}

		var req struct {
			Records []importer.Record `json:"records"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "Invalid JSON body", nil)
			return
		}
		if len(req.Records) == 0 {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "records must not be empty", nil)
			return
		}
		if len(req.Records) > maxImportBatch {
			response.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "batch exceeds the maximum size", nil)
			return
		}

		report := runner.Run(r.Context(), tenantID, req.Records)
		response.JSON(w, report)
	}
}
