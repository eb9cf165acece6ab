package models

import (
	"time"

	"github.com/google/uuid"
)

// Tenant lifecycle statuses. Paused and disabled tenants reject every
// scheduling operation at resolution time.
const (
	TenantStatusActive   = "active"
	TenantStatusPaused   = "paused"
	TenantStatusDisabled = "disabled"
)

// Tenant represents one isolated customer organization (a pet resort).
// Every other entity carries a tenant id; no entity is readable or
// writable across tenant boundaries.
type Tenant struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	Handle    string    `db:"handle"     json:"handle"`
	Name      string    `db:"name"       json:"name"`
	Status    string    `db:"status"     json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Active reports whether the tenant may perform scheduling operations.
func (t *Tenant) Active() bool {
	return t.Status == TenantStatusActive
}

// ValidTenantStatus reports whether s is a known lifecycle status.
func ValidTenantStatus(s string) bool {
	switch s {
	case TenantStatusActive, TenantStatusPaused, TenantStatusDisabled:
		return true
	}
	return false
}
