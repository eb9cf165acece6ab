package importer_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pawsuite/reserve/internal/importer"
	"github.com/pawsuite/reserve/internal/schedule"
	"github.com/pawsuite/reserve/internal/store"
	"github.com/pawsuite/reserve/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHint(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"Kennel 7", "007"},
		{"kennel #007", "007"},
		{"Run #12", "012"},
		{"room 3", "003"},
		{"VIP Suite 3", "VIP 003"},
		{"Suite 104", "104"},
		{"1234", "1234"},
		{"  Kennel   9  ", "009"},
		{"Kennel", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.want, importer.NormalizeHint(tt.hint))
		})
	}
}

func TestInferType(t *testing.T) {
	tests := []struct {
		hint string
		want string
	}{
		{"VIP Suite 3", models.ResourceTypeVIP},
		{"Deluxe Run 2", models.ResourceTypeVIP},
		{"Suite 104", models.ResourceTypePlus},
		{"Kennel Plus 9", models.ResourceTypePlus},
		{"Kennel 7", models.ResourceTypeStandard},
		{"", models.ResourceTypeStandard},
	}
	for _, tt := range tests {
		t.Run(tt.hint, func(t *testing.T) {
			assert.Equal(t, tt.want, importer.InferType(tt.hint))
		})
	}
}

// ─── fakes ───────────────────────────────────────────────────────────────────

type fakeStore struct {
	tenantID  uuid.UUID
	customers map[string]*models.Customer // by external id
	pets      map[string]*models.Pet
	resources map[string]*models.Resource // by name
	created   []string                    // names of resources created during the run
}

func newFakeStore(tenantID uuid.UUID) *fakeStore {
	return &fakeStore{
		tenantID:  tenantID,
		customers: make(map[string]*models.Customer),
		pets:      make(map[string]*models.Pet),
		resources: make(map[string]*models.Resource),
	}
}

func (s *fakeStore) addCustomer(externalID string) *models.Customer {
	c := &models.Customer{ID: uuid.New(), TenantID: s.tenantID, Name: "Imported " + externalID, ExternalID: &externalID}
	s.customers[externalID] = c
	return c
}

func (s *fakeStore) addPet(externalID string, customerID uuid.UUID) *models.Pet {
	p := &models.Pet{ID: uuid.New(), TenantID: s.tenantID, CustomerID: customerID, Name: "Pet " + externalID, ExternalID: &externalID}
	s.pets[externalID] = p
	return p
}

func (s *fakeStore) GetCustomerByExternalID(_ context.Context, tenantID uuid.UUID, externalID string) (*models.Customer, error) {
	if c, ok := s.customers[externalID]; ok && tenantID == s.tenantID {
		return c, nil
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) GetPetByExternalID(_ context.Context, tenantID uuid.UUID, externalID string) (*models.Pet, error) {
	if p, ok := s.pets[externalID]; ok && tenantID == s.tenantID {
		return p, nil
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) GetResourceByName(_ context.Context, tenantID uuid.UUID, name string) (*models.Resource, error) {
	if r, ok := s.resources[name]; ok && tenantID == s.tenantID {
		return r, nil
	}
	return nil, store.ErrNotFound
}

func (s *fakeStore) CreateResource(_ context.Context, r *models.Resource) error {
	if _, ok := s.resources[r.Name]; ok {
		return store.ErrDuplicateKey
	}
	s.resources[r.Name] = r
	s.created = append(s.created, r.Name)
	return nil
}

// fakeScheduler records create calls and answers from a scripted error map
// keyed by external id.
type fakeScheduler struct {
	calls []schedule.CreateParams
	fail  map[string]error
	seen  map[string]bool // external ids already booked
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{fail: make(map[string]error), seen: make(map[string]bool)}
}

func (f *fakeScheduler) CreateReservation(_ context.Context, tenantID uuid.UUID, p schedule.CreateParams) (*models.Reservation, error) {
	f.calls = append(f.calls, p)
	if err, ok := f.fail[*p.ExternalID]; ok {
		return nil, err
	}
	if f.seen[*p.ExternalID] {
		return nil, store.ErrDuplicateKey
	}
	f.seen[*p.ExternalID] = true
	return &models.Reservation{
		ID: uuid.New(), TenantID: tenantID, ResourceID: p.ResourceID,
		PetID: p.PetID, CustomerID: p.CustomerID, ExternalID: p.ExternalID,
		StartAt: p.StartAt, EndAt: p.EndAt,
		Status: models.ReservationStatusConfirmed,
	}, nil
}

// ─── Run ─────────────────────────────────────────────────────────────────────

func record(externalID, hint, customer, pet string, start time.Time) importer.Record {
	return importer.Record{
		ExternalID:         externalID,
		ResourceHint:       hint,
		StartAt:            start,
		EndAt:              start.Add(48 * time.Hour),
		CustomerExternalID: customer,
		PetExternalID:      pet,
	}
}

func TestRun_PartialFailure(t *testing.T) {
	tenantID := uuid.New()
	fs := newFakeStore(tenantID)
	c := fs.addCustomer("GC-1")
	fs.addPet("GP-1", c.ID)

	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	records := []importer.Record{
		record("GR-1", "Kennel 1", "GC-1", "GP-1", start),
		record("GR-2", "Kennel 2", "GC-missing", "GP-1", start),
		record("GR-3", "Kennel 3", "GC-1", "GP-missing", start),
		record("GR-4", "Kennel 4", "GC-1", "GP-1", start),
	}

	im := importer.New(fs, newFakeScheduler())
	report := im.Run(context.Background(), tenantID, records)

	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 2, report.Failed)
	assert.Equal(t, 0, report.Skipped)
	require.Len(t, report.Results, 4)

	assert.Equal(t, importer.OutcomeImported, report.Results[0].Outcome)
	assert.Equal(t, importer.OutcomeFailed, report.Results[1].Outcome)
	assert.Contains(t, report.Results[1].Reason, "GC-missing")
	assert.Equal(t, importer.OutcomeFailed, report.Results[2].Outcome)
	assert.Equal(t, importer.OutcomeImported, report.Results[3].Outcome)
}

func TestRun_CreatesMissingResourceWithInferredType(t *testing.T) {
	tenantID := uuid.New()
	fs := newFakeStore(tenantID)
	c := fs.addCustomer("GC-1")
	fs.addPet("GP-1", c.ID)

	sched := newFakeScheduler()
	im := importer.New(fs, sched)

	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	report := im.Run(context.Background(), tenantID, []importer.Record{
		record("GR-1", "VIP Suite 3", "GC-1", "GP-1", start),
	})

	require.Equal(t, 1, report.Imported)
	require.Contains(t, fs.resources, "VIP 003")
	assert.Equal(t, models.ResourceTypeVIP, fs.resources["VIP 003"].Type)
	assert.True(t, fs.resources["VIP 003"].Active)

	require.Len(t, sched.calls, 1)
	assert.Equal(t, fs.resources["VIP 003"].ID, sched.calls[0].ResourceID)
	assert.Equal(t, models.ActorImporter, sched.calls[0].Actor)
	require.NotNil(t, sched.calls[0].ExternalID)
	assert.Equal(t, "GR-1", *sched.calls[0].ExternalID)
}

func TestRun_ReusesExistingResource(t *testing.T) {
	tenantID := uuid.New()
	fs := newFakeStore(tenantID)
	c := fs.addCustomer("GC-1")
	fs.addPet("GP-1", c.ID)
	existing := &models.Resource{
		ID: uuid.New(), TenantID: tenantID, Name: "007",
		Type: models.ResourceTypeStandard, Capacity: 1, BaseRateCents: 5000, Active: true,
	}
	fs.resources["007"] = existing

	sched := newFakeScheduler()
	im := importer.New(fs, sched)

	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	report := im.Run(context.Background(), tenantID, []importer.Record{
		record("GR-1", "Kennel #7", "GC-1", "GP-1", start),
	})

	assert.Equal(t, 1, report.Imported)
	assert.Empty(t, fs.created, "no resource should be created")
	require.Len(t, sched.calls, 1)
	assert.Equal(t, existing.ID, sched.calls[0].ResourceID)
}

func TestRun_ConflictFailsRecordOnly(t *testing.T) {
	tenantID := uuid.New()
	fs := newFakeStore(tenantID)
	c := fs.addCustomer("GC-1")
	fs.addPet("GP-1", c.ID)

	sched := newFakeScheduler()
	sched.fail["GR-1"] = &schedule.ConflictError{ResourceID: uuid.New(), ConflictingIDs: []uuid.UUID{uuid.New()}}
	im := importer.New(fs, sched)

	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	report := im.Run(context.Background(), tenantID, []importer.Record{
		record("GR-1", "Kennel 1", "GC-1", "GP-1", start),
		record("GR-2", "Kennel 2", "GC-1", "GP-1", start),
	})

	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Failed)
	assert.Equal(t, importer.OutcomeFailed, report.Results[0].Outcome)
	assert.Contains(t, report.Results[0].Reason, "conflicts")
}

func TestRun_DuplicateExternalIDSkipped(t *testing.T) {
	tenantID := uuid.New()
	fs := newFakeStore(tenantID)
	c := fs.addCustomer("GC-1")
	fs.addPet("GP-1", c.ID)

	sched := newFakeScheduler()
	im := importer.New(fs, sched)

	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	// The same record twice, as a re-run of a previous import would send it.
	report := im.Run(context.Background(), tenantID, []importer.Record{
		record("GR-1", "Kennel 1", "GC-1", "GP-1", start),
		record("GR-1", "Kennel 1", "GC-1", "GP-1", start.Add(7*24*time.Hour)),
	})

	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Skipped)
	assert.Equal(t, 0, report.Failed)
	assert.Equal(t, importer.OutcomeSkipped, report.Results[1].Outcome)
}

func TestRun_PetOwnerMismatchFails(t *testing.T) {
	tenantID := uuid.New()
	fs := newFakeStore(tenantID)
	fs.addCustomer("GC-1")
	other := fs.addCustomer("GC-2")
	fs.addPet("GP-2", other.ID)

	im := importer.New(fs, newFakeScheduler())
	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	report := im.Run(context.Background(), tenantID, []importer.Record{
		record("GR-1", "Kennel 1", "GC-1", "GP-2", start),
	})

	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Results[0].Reason, "does not belong")
}

func TestRun_UnusableHintFails(t *testing.T) {
	tenantID := uuid.New()
	fs := newFakeStore(tenantID)
	c := fs.addCustomer("GC-1")
	fs.addPet("GP-1", c.ID)

	im := importer.New(fs, newFakeScheduler())
	start := time.Date(2026, 9, 1, 14, 0, 0, 0, time.UTC)
	report := im.Run(context.Background(), tenantID, []importer.Record{
		record("GR-1", "Kennel", "GC-1", "GP-1", start),
	})

	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, report.Results[0].Reason, "hint")
}
