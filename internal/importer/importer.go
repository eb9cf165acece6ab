// Package importer maps reservation records exported from a legacy system
// onto the resource catalog and the scheduling engine. It is the only
// component allowed to create resources as a side effect; everything else
// treats the catalog as read-only.
package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/pawsuite/reserve/internal/schedule"
	"github.com/pawsuite/reserve/internal/store"
	"github.com/pawsuite/reserve/pkg/models"
)

// Per-record outcomes.
const (
	OutcomeImported = "imported"
	OutcomeSkipped  = "skipped"
	OutcomeFailed   = "failed"
)

// Rates assigned to resources the importer has to create. Staff adjust them
// in the catalog afterwards; imported reservations keep the price computed
// at import time.
var defaultRateCents = map[string]int64{
	models.ResourceTypeStandard: 4500,
	models.ResourceTypePlus:     6500,
	models.ResourceTypeVIP:      9500,
}

// Record is one externally-sourced reservation: a free-text resource hint,
// a span, and customer/pet references by the legacy system's ids.
type Record struct {
	ExternalID         string    `json:"external_id"`
	ResourceHint       string    `json:"resource_hint"`
	StartAt            time.Time `json:"start_at"`
	EndAt              time.Time `json:"end_at"`
	CustomerExternalID string    `json:"customer_external_id"`
	PetExternalID      string    `json:"pet_external_id"`
}

// RecordResult reports the outcome of a single record.
type RecordResult struct {
	ExternalID    string    `json:"external_id"`
	Outcome       string    `json:"outcome"`
	ReservationID uuid.UUID `json:"reservation_id,omitempty"`
	ResourceName  string    `json:"resource_name,omitempty"`
	Reason        string    `json:"reason,omitempty"`
}

// Report aggregates a batch run.
type Report struct {
	Imported int            `json:"imported"`
	Skipped  int            `json:"skipped"`
	Failed   int            `json:"failed"`
	Results  []RecordResult `json:"results"`
}

// Store is the subset of the persistent store the importer needs.
type Store interface {
	GetCustomerByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*models.Customer, error)
	GetPetByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*models.Pet, error)
	GetResourceByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Resource, error)
	CreateResource(ctx context.Context, r *models.Resource) error
}

// Scheduler is the slice of the scheduling engine the importer drives.
type Scheduler interface {
	CreateReservation(ctx context.Context, tenantID uuid.UUID, p schedule.CreateParams) (*models.Reservation, error)
}

// Importer runs bulk imports. A failing record never aborts the batch.
type Importer struct {
	store     Store
	scheduler Scheduler
}

// New creates an Importer.
func New(s Store, sched Scheduler) *Importer {
	return &Importer{store: s, scheduler: sched}
}

// Run imports the records in order for one tenant. Each record resolves its
// customer and pet by external id, resolves or creates the hinted resource,
// and books through the scheduling engine with the record's external id
// attached; such reservations start out confirmed. Unresolvable references
// and conflicts fail the record only.
func (im *Importer) Run(ctx context.Context, tenantID uuid.UUID, records []Record) *Report {
	report := &Report{Results: make([]RecordResult, 0, len(records))}

	for _, rec := range records {
		result := im.importOne(ctx, tenantID, rec)
		switch result.Outcome {
		case OutcomeImported:
			report.Imported++
		case OutcomeSkipped:
			report.Skipped++
		default:
			report.Failed++
		}
		report.Results = append(report.Results, result)
	}

	slog.Info("bulk import finished",
		"tenant_id", tenantID,
		"imported", report.Imported,
		"skipped", report.Skipped,
		"failed", report.Failed)
	return report
}

func (im *Importer) importOne(ctx context.Context, tenantID uuid.UUID, rec Record) RecordResult {
	fail := func(reason string) RecordResult {
		slog.Warn("import record failed",
			"tenant_id", tenantID, "external_id", rec.ExternalID, "reason", reason)
		return RecordResult{ExternalID: rec.ExternalID, Outcome: OutcomeFailed, Reason: reason}
	}

	if rec.ExternalID == "" {
		return fail("missing external id")
	}
	if !rec.StartAt.Before(rec.EndAt) {
		return fail("invalid span")
	}

	customer, err := im.store.GetCustomerByExternalID(ctx, tenantID, rec.CustomerExternalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(fmt.Sprintf("unknown customer %q", rec.CustomerExternalID))
		}
		return fail(err.Error())
	}
	pet, err := im.store.GetPetByExternalID(ctx, tenantID, rec.PetExternalID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fail(fmt.Sprintf("unknown pet %q", rec.PetExternalID))
		}
		return fail(err.Error())
	}
	if pet.CustomerID != customer.ID {
		return fail(fmt.Sprintf("pet %q does not belong to customer %q", rec.PetExternalID, rec.CustomerExternalID))
	}

	res, err := im.resolveResource(ctx, tenantID, rec.ResourceHint)
	if err != nil {
		return fail(err.Error())
	}

	externalID := rec.ExternalID
	created, err := im.scheduler.CreateReservation(ctx, tenantID, schedule.CreateParams{
		PetID:      pet.ID,
		CustomerID: customer.ID,
		StartAt:    rec.StartAt,
		EndAt:      rec.EndAt,
		ResourceID: res.ID,
		ExternalID: &externalID,
		Actor:      models.ActorImporter,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			// Already imported in a previous run.
			return RecordResult{ExternalID: rec.ExternalID, Outcome: OutcomeSkipped, ResourceName: res.Name}
		}
		var conflict *schedule.ConflictError
		if errors.As(err, &conflict) {
			return fail(fmt.Sprintf("span conflicts on resource %q", res.Name))
		}
		return fail(err.Error())
	}

	return RecordResult{
		ExternalID:    rec.ExternalID,
		Outcome:       OutcomeImported,
		ReservationID: created.ID,
		ResourceName:  res.Name,
	}
}

// resolveResource finds the resource the hint names, creating it when the
// tenant has none by that canonical name.
func (im *Importer) resolveResource(ctx context.Context, tenantID uuid.UUID, hint string) (*models.Resource, error) {
	name := NormalizeHint(hint)
	if name == "" {
		return nil, fmt.Errorf("unusable resource hint %q", hint)
	}

	res, err := im.store.GetResourceByName(ctx, tenantID, name)
	if err == nil {
		return res, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	resType := InferType(hint)
	now := time.Now().UTC()
	res = &models.Resource{
		ID:            uuid.New(),
		TenantID:      tenantID,
		Name:          name,
		Type:          resType,
		Capacity:      1,
		BaseRateCents: defaultRateCents[resType],
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := im.store.CreateResource(ctx, res); err != nil {
		if errors.Is(err, store.ErrDuplicateKey) {
			// Another record in flight created it first.
			return im.store.GetResourceByName(ctx, tenantID, name)
		}
		return nil, err
	}
	slog.Info("importer created resource",
		"tenant_id", tenantID, "name", name, "type", resType)
	return res, nil
}
