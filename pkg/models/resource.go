package models

import (
	"time"

	"github.com/google/uuid"
)

// Resource types (kennel categories).
const (
	ResourceTypeStandard = "standard"
	ResourceTypePlus     = "plus"
	ResourceTypeVIP      = "vip"
)

// Resource is one physical bookable unit (kennel/suite/room), owned
// exclusively by its tenant. Deactivated resources are excluded from
// availability queries but keep their historical reservations.
type Resource struct {
	ID            uuid.UUID `db:"id"              json:"id"`
	TenantID      uuid.UUID `db:"tenant_id"       json:"tenant_id"`
	Name          string    `db:"name"            json:"name"`
	Type          string    `db:"type"            json:"type"`
	Capacity      int       `db:"capacity"        json:"capacity"`
	BaseRateCents int64     `db:"base_rate_cents" json:"base_rate_cents"`
	Active        bool      `db:"active"          json:"active"`
	CreatedAt     time.Time `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at"      json:"updated_at"`
}

// ValidResourceType reports whether s is a known resource type.
func ValidResourceType(s string) bool {
	switch s {
	case ResourceTypeStandard, ResourceTypePlus, ResourceTypeVIP:
		return true
	}
	return false
}
