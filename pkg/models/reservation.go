package models

import (
	"time"

	"github.com/google/uuid"
)

// Reservation statuses. pending → confirmed → checked_in → checked_out →
// completed is the happy path; cancelled and no_show are reachable from
// pending/confirmed only.
const (
	ReservationStatusPending    = "pending"
	ReservationStatusConfirmed  = "confirmed"
	ReservationStatusCheckedIn  = "checked_in"
	ReservationStatusCheckedOut = "checked_out"
	ReservationStatusCompleted  = "completed"
	ReservationStatusCancelled  = "cancelled"
	ReservationStatusNoShow     = "no_show"
)

// Reservation is a time-bounded claim on one resource for one pet.
// The interval is half-open: [StartAt, EndAt) — a reservation ending
// exactly when another begins does not overlap it.
type Reservation struct {
	ID              uuid.UUID `db:"id"                json:"id"`
	TenantID        uuid.UUID `db:"tenant_id"         json:"tenant_id"`
	ResourceID      uuid.UUID `db:"resource_id"       json:"resource_id"`
	PetID           uuid.UUID `db:"pet_id"            json:"pet_id"`
	CustomerID      uuid.UUID `db:"customer_id"       json:"customer_id"`
	ExternalID      *string   `db:"external_id"       json:"external_id,omitempty"`
	StartAt         time.Time `db:"start_at"          json:"start_at"`
	EndAt           time.Time `db:"end_at"            json:"end_at"`
	Status          string    `db:"status"            json:"status"`
	TotalPriceCents int64     `db:"total_price_cents" json:"total_price_cents"`
	CreatedAt       time.Time `db:"created_at"        json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"        json:"updated_at"`
}

// HoldsInterval reports whether a reservation in the given status occupies
// its resource's interval and therefore participates in overlap checks.
func HoldsInterval(status string) bool {
	switch status {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCheckedIn:
		return true
	}
	return false
}

// ValidReservationStatus reports whether s is a known reservation status.
func ValidReservationStatus(s string) bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCheckedIn,
		ReservationStatusCheckedOut, ReservationStatusCompleted, ReservationStatusCancelled,
		ReservationStatusNoShow:
		return true
	}
	return false
}

var validReservationTransitions = map[string][]string{
	ReservationStatusPending:    {ReservationStatusConfirmed, ReservationStatusCheckedIn, ReservationStatusCancelled, ReservationStatusNoShow},
	ReservationStatusConfirmed:  {ReservationStatusCheckedIn, ReservationStatusCancelled, ReservationStatusNoShow},
	ReservationStatusCheckedIn:  {ReservationStatusCheckedOut},
	ReservationStatusCheckedOut: {ReservationStatusCompleted},
}

// ValidReservationTransition reports whether from → to is an allowed
// status transition. Terminal statuses allow no transitions.
func ValidReservationTransition(from, to string) bool {
	for _, allowed := range validReservationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
