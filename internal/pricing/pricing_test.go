package pricing_test

import (
	"testing"
	"time"

	"github.com/pawsuite/reserve/internal/pricing"
	"github.com/pawsuite/reserve/pkg/models"
	"github.com/stretchr/testify/assert"
)

func TestNights(t *testing.T) {
	base := time.Date(2026, 6, 1, 14, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		end  time.Time
		want int
	}{
		{"one full day", base.Add(24 * time.Hour), 1},
		{"three full days", base.Add(72 * time.Hour), 3},
		{"partial day rounds up", base.Add(30 * time.Hour), 2},
		{"under a day is one night", base.Add(6 * time.Hour), 1},
		{"zero span", base, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pricing.Nights(base, tt.end))
		})
	}
}

func TestComputePrice_NoRules(t *testing.T) {
	assert.Equal(t, int64(15000), pricing.ComputePrice(3, 5000, nil))
}

func TestComputePrice_MatchingRuleApplies(t *testing.T) {
	rules := []models.RateRule{
		{MinNights: 5, DiscountPercent: 10, Priority: 1},
	}
	// 5 nights * 5000 = 25000, minus 10% = 22500.
	assert.Equal(t, int64(22500), pricing.ComputePrice(5, 5000, rules))
}

func TestComputePrice_ShortStayIgnoresRule(t *testing.T) {
	rules := []models.RateRule{
		{MinNights: 5, DiscountPercent: 10, Priority: 1},
	}
	assert.Equal(t, int64(10000), pricing.ComputePrice(2, 5000, rules))
}

func TestComputePrice_HighestPriorityWins(t *testing.T) {
	rules := []models.RateRule{
		{MinNights: 3, DiscountPercent: 25, Priority: 1},
		{MinNights: 3, DiscountPercent: 5, Priority: 2},
	}
	// Priority 2 wins despite the smaller discount: 30000 - 5% = 28500.
	assert.Equal(t, int64(28500), pricing.ComputePrice(6, 5000, rules))
}

func TestComputePrice_PriorityTieBreaksToLargerDiscount(t *testing.T) {
	rules := []models.RateRule{
		{MinNights: 3, DiscountPercent: 10, Priority: 1},
		{MinNights: 5, DiscountPercent: 20, Priority: 1},
	}
	// Both match a 6-night stay at the same priority; larger discount wins.
	assert.Equal(t, int64(24000), pricing.ComputePrice(6, 5000, rules))
}

func TestComputeRefund_DefaultTierBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		notice time.Duration
		want   int
	}{
		{"exactly 7 days", 7 * 24 * time.Hour, 100},
		{"just under 7 days", 7*24*time.Hour - time.Minute, 50},
		{"exactly 3 days", 3 * 24 * time.Hour, 50},
		{"exactly 1 day", 24 * time.Hour, 25},
		{"12 hours", 12 * time.Hour, 0},
		{"ten days", 10 * 24 * time.Hour, 100},
		{"no notice", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, pricing.ComputeRefund(tt.notice, nil))
		})
	}
}

func TestComputeRefund_TenantTiersOverrideDefaults(t *testing.T) {
	tiers := []models.RefundTier{
		{MinNoticeDays: 14, RefundPercent: 100},
		{MinNoticeDays: 2, RefundPercent: 40},
	}
	assert.Equal(t, 100, pricing.ComputeRefund(14*24*time.Hour, tiers))
	assert.Equal(t, 40, pricing.ComputeRefund(5*24*time.Hour, tiers))
	assert.Equal(t, 0, pricing.ComputeRefund(24*time.Hour, tiers))
}

func TestComputeRefund_UnorderedTiers(t *testing.T) {
	// Tier order in the slice must not matter.
	tiers := []models.RefundTier{
		{MinNoticeDays: 1, RefundPercent: 25},
		{MinNoticeDays: 7, RefundPercent: 100},
		{MinNoticeDays: 3, RefundPercent: 50},
	}
	assert.Equal(t, 100, pricing.ComputeRefund(8*24*time.Hour, tiers))
	assert.Equal(t, 50, pricing.ComputeRefund(4*24*time.Hour, tiers))
}

func TestRefundAmount(t *testing.T) {
	assert.Equal(t, int64(12500), pricing.RefundAmount(25000, 50))
	assert.Equal(t, int64(0), pricing.RefundAmount(25000, 0))
	assert.Equal(t, int64(25000), pricing.RefundAmount(25000, 100))
}
