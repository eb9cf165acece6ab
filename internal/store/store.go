package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/pawsuite/reserve/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// ErrOverlap is returned when the storage layer's exclusion constraint
// rejects a reservation write because it would overlap an interval-holding
// reservation on the same resource.
var ErrOverlap = errors.New("reservation interval overlap")

// ErrInvalidTransition is returned for a reservation status change the
// lifecycle does not allow.
var ErrInvalidTransition = errors.New("invalid reservation status transition")

// Span is a reservation's occupied interval, as loaded into the interval
// index. EndAt is exclusive.
type Span struct {
	ReservationID uuid.UUID
	StartAt       time.Time
	EndAt         time.Time
}

// ReservationFilter narrows ListReservations. Zero values are ignored.
type ReservationFilter struct {
	TenantID   uuid.UUID
	ResourceID uuid.UUID
	Status     string
	From       time.Time
	To         time.Time
	Page       int
	Limit      int
}

// Store is the data access interface. All database operations go through
// here. Every read and write is scoped to a tenant id; rows belonging to
// another tenant surface as ErrNotFound.
type Store interface {
	Ping(ctx context.Context) error

	GetTenantByHandle(ctx context.Context, handle string) (*models.Tenant, error)
	GetTenant(ctx context.Context, id uuid.UUID) (*models.Tenant, error)
	UpdateTenantStatus(ctx context.Context, id uuid.UUID, status string) (*models.Tenant, error)

	ListActiveResources(ctx context.Context, tenantID uuid.UUID, resourceType string) ([]*models.Resource, error)
	ListResources(ctx context.Context, tenantID uuid.UUID) ([]*models.Resource, error)
	GetResource(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Resource, error)
	GetResourceByName(ctx context.Context, tenantID uuid.UUID, name string) (*models.Resource, error)
	CreateResource(ctx context.Context, resource *models.Resource) error

	CreateReservation(ctx context.Context, reservation *models.Reservation) error
	GetReservation(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Reservation, error)
	ListReservations(ctx context.Context, filter ReservationFilter) ([]*models.Reservation, int, error)
	ListActiveSpans(ctx context.Context, tenantID uuid.UUID, resourceID uuid.UUID) ([]Span, error)
	MoveReservation(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, move ReservationMove) error
	UpdateReservationStatus(ctx context.Context, id uuid.UUID, tenantID uuid.UUID, status string, actor string) error
	ListModificationRecords(ctx context.Context, reservationID uuid.UUID, tenantID uuid.UUID) ([]*models.ModificationRecord, error)

	GetRefundTiers(ctx context.Context, tenantID uuid.UUID) ([]models.RefundTier, error)
	GetRateRules(ctx context.Context, tenantID uuid.UUID) ([]models.RateRule, error)

	GetCustomer(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Customer, error)
	GetCustomerByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, customer *models.Customer) error
	GetPet(ctx context.Context, id uuid.UUID, tenantID uuid.UUID) (*models.Pet, error)
	GetPetByExternalID(ctx context.Context, tenantID uuid.UUID, externalID string) (*models.Pet, error)
	CreatePet(ctx context.Context, pet *models.Pet) error
}

// ReservationMove is the committed half of a modify operation: the new
// placement plus the recomputed price. The store writes the update and the
// audit records in one transaction.
type ReservationMove struct {
	NewResourceID uuid.UUID
	NewStartAt    time.Time
	NewEndAt      time.Time
	NewPriceCents int64
	Actor         string
}
