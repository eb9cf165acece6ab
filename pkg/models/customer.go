package models

import (
	"time"

	"github.com/google/uuid"
)

// Customer is a pet owner. ExternalID links records migrated from a legacy
// system.
type Customer struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	TenantID   uuid.UUID `db:"tenant_id"   json:"tenant_id"`
	Name       string    `db:"name"        json:"name"`
	Email      string    `db:"email"       json:"email"`
	ExternalID *string   `db:"external_id" json:"external_id,omitempty"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}

// Pet belongs to one customer within one tenant.
type Pet struct {
	ID         uuid.UUID `db:"id"          json:"id"`
	TenantID   uuid.UUID `db:"tenant_id"   json:"tenant_id"`
	CustomerID uuid.UUID `db:"customer_id" json:"customer_id"`
	Name       string    `db:"name"        json:"name"`
	Breed      string    `db:"breed"       json:"breed"`
	ExternalID *string   `db:"external_id" json:"external_id,omitempty"`
	CreatedAt  time.Time `db:"created_at"  json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"  json:"updated_at"`
}
