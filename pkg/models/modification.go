package models

import (
	"time"

	"github.com/google/uuid"
)

// Actors recorded on modification records.
const (
	ActorCustomer = "customer"
	ActorStaff    = "staff"
	ActorImporter = "importer"
)

// ValidActor reports whether s is a known actor.
func ValidActor(s string) bool {
	switch s {
	case ActorCustomer, ActorStaff, ActorImporter:
		return true
	}
	return false
}

// Fields a modification record can describe.
const (
	ModifiedFieldSpan     = "span"
	ModifiedFieldResource = "resource"
	ModifiedFieldStatus   = "status"
)

// ModificationRecord is an append-only audit log entry for a reservation
// change. Records are never mutated after creation.
type ModificationRecord struct {
	ID            uuid.UUID `db:"id"             json:"id"`
	TenantID      uuid.UUID `db:"tenant_id"      json:"tenant_id"`
	ReservationID uuid.UUID `db:"reservation_id" json:"reservation_id"`
	Field         string    `db:"field"          json:"field"`
	OldValue      string    `db:"old_value"      json:"old_value"`
	NewValue      string    `db:"new_value"      json:"new_value"`
	Actor         string    `db:"actor"          json:"actor"`
	CreatedAt     time.Time `db:"created_at"     json:"created_at"`
}
