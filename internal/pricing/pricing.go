// Package pricing evaluates tenant-configured price and refund policy.
// Every function is pure: deterministic, no side effects, which is what
// keeps it testable independently of the scheduling engine.
package pricing

import (
	"sort"
	"time"

	"github.com/pawsuite/reserve/pkg/models"
)

// DefaultRefundTiers applies when a tenant has no cancellation policy
// configured: >=7 days notice refunds 100%, 3-6 days 50%, 1-2 days 25%,
// under a day nothing.
var DefaultRefundTiers = []models.RefundTier{
	{MinNoticeDays: 7, RefundPercent: 100},
	{MinNoticeDays: 3, RefundPercent: 50},
	{MinNoticeDays: 1, RefundPercent: 25},
}

// Nights returns the billable length of the half-open span [start, end):
// whole 24-hour periods with any remainder rounding up, never less than 1.
func Nights(start, end time.Time) int {
	d := end.Sub(start)
	if d <= 0 {
		return 0
	}
	nights := int(d / (24 * time.Hour))
	if d%(24*time.Hour) != 0 {
		nights++
	}
	if nights < 1 {
		nights = 1
	}
	return nights
}

// ComputePrice prices a stay of the given length at baseRateCents per night,
// applying the best matching multi-day discount rule. The highest-priority
// matching rule wins; ties break toward the larger discount.
func ComputePrice(nights int, baseRateCents int64, rules []models.RateRule) int64 {
	total := int64(nights) * baseRateCents

	var best *models.RateRule
	for i := range rules {
		r := &rules[i]
		if nights < r.MinNights {
			continue
		}
		if best == nil ||
			r.Priority > best.Priority ||
			(r.Priority == best.Priority && r.DiscountPercent > best.DiscountPercent) {
			best = r
		}
	}
	if best == nil {
		return total
	}
	return total - total*int64(best.DiscountPercent)/100
}

// ComputeRefund selects the refund percentage for a cancellation given the
// actual notice before the reservation's start. Tiers are evaluated from
// most notice required to least; the first satisfied tier wins. An empty
// tier list falls back to DefaultRefundTiers.
func ComputeRefund(notice time.Duration, tiers []models.RefundTier) int {
	if len(tiers) == 0 {
		tiers = DefaultRefundTiers
	}

	ordered := make([]models.RefundTier, len(tiers))
	copy(ordered, tiers)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].MinNoticeDays > ordered[j].MinNoticeDays
	})

	for _, tier := range ordered {
		if notice >= time.Duration(tier.MinNoticeDays)*24*time.Hour {
			return tier.RefundPercent
		}
	}
	return 0
}

// RefundAmount applies a refund percentage to a total price.
func RefundAmount(totalCents int64, percent int) int64 {
	return totalCents * int64(percent) / 100
}
