package models

import "github.com/google/uuid"

// RefundTier is one (minimum notice, refund percentage) step of a tenant's
// cancellation policy. Tiers are evaluated most-notice-first; the first
// tier whose minimum is satisfied by the actual notice wins.
type RefundTier struct {
	TenantID      uuid.UUID `db:"tenant_id"       json:"tenant_id"`
	MinNoticeDays int       `db:"min_notice_days" json:"min_notice_days"`
	RefundPercent int       `db:"refund_percent"  json:"refund_percent"`
}

// RateRule is a tenant-configured multi-day discount: reservations of at
// least MinNights get DiscountPercent off. The highest-priority matching
// rule wins; ties break toward the larger discount.
type RateRule struct {
	ID              uuid.UUID `db:"id"               json:"id"`
	TenantID        uuid.UUID `db:"tenant_id"        json:"tenant_id"`
	MinNights       int       `db:"min_nights"       json:"min_nights"`
	DiscountPercent int       `db:"discount_percent" json:"discount_percent"`
	Priority        int       `db:"priority"         json:"priority"`
}
