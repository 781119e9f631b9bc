package pricing

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeSummary_BulkLineEarnsCouponAndFreeShipping(t *testing.T) {
	sum := ComputeSummary([]CartLine{{ProductID: 1, Quantity: 6, UnitPrice: 100}})

	assert.Equal(t, 600.0, sum.Subtotal)
	assert.Equal(t, 180.0, sum.PerLineDiscount[1])
	assert.Equal(t, 180.0, sum.DiscountTotal)
	assert.True(t, sum.CouponEarned)
	assert.Equal(t, 400.0, sum.RewardCouponValue)
	assert.Equal(t, 0.0, sum.ShippingFee)
	assert.Equal(t, 420.0, sum.Total)
}

func TestComputeSummary_SmallOrderPaysFlatShipping(t *testing.T) {
	sum := ComputeSummary([]CartLine{{ProductID: 2, Quantity: 1, UnitPrice: 50}})

	assert.Equal(t, 50.0, sum.Subtotal)
	assert.Equal(t, 0.0, sum.DiscountTotal)
	assert.False(t, sum.CouponEarned)
	assert.Equal(t, 0.0, sum.RewardCouponValue)
	assert.Equal(t, 9.99, sum.ShippingFee)
	assert.Equal(t, 59.99, sum.Total)
}

func TestComputeSummary_SubtotalOverHundredShipsFree(t *testing.T) {
	sum := ComputeSummary([]CartLine{
		{ProductID: 1, Quantity: 2, UnitPrice: 40},
		{ProductID: 2, Quantity: 1, UnitPrice: 70},
	})

	assert.Equal(t, 150.0, sum.Subtotal)
	assert.False(t, sum.CouponEarned)
	assert.Equal(t, 0.0, sum.ShippingFee)
	assert.Equal(t, 150.0, sum.Total)
}

func TestComputeSummary_EmptyCartStillChargesShipping(t *testing.T) {
	sum := ComputeSummary(nil)

	assert.Equal(t, 0.0, sum.Subtotal)
	assert.Equal(t, 0.0, sum.DiscountTotal)
	assert.False(t, sum.CouponEarned)
	assert.Equal(t, 9.99, sum.ShippingFee)
	assert.Equal(t, 9.99, sum.Total)
}

func TestComputeSummary_DiscountThreshold(t *testing.T) {
	tests := []struct {
		name     string
		quantity int
		price    float64
		want     float64
	}{
		{"quantity below threshold", 4, 10, 0},
		{"quantity at threshold", 5, 10, 0},
		{"one above threshold", 6, 10, 18},     // 0.30 * 60
		{"well above threshold", 10, 19.99, 59.97}, // 0.30 * 199.90
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum := ComputeSummary([]CartLine{{ProductID: 7, Quantity: tt.quantity, UnitPrice: tt.price}})
			assert.Equal(t, tt.want, sum.PerLineDiscount[7])
		})
	}
}

func TestComputeSummary_CouponOverridesSubtotalShippingRule(t *testing.T) {
	// Subtotal is tiny, but one bulk line makes shipping free anyway.
	sum := ComputeSummary([]CartLine{
		{ProductID: 1, Quantity: 6, UnitPrice: 1},
		{ProductID: 2, Quantity: 1, UnitPrice: 2},
	})

	require.True(t, sum.CouponEarned)
	assert.Equal(t, 0.0, sum.ShippingFee)
}

func TestComputeSummary_LenientInputs(t *testing.T) {
	// quantity < 1 counts as 1, negative price counts as 0
	sum := ComputeSummary([]CartLine{
		{ProductID: 1, Quantity: 0, UnitPrice: 25},
		{ProductID: 2, Quantity: 3, UnitPrice: -10},
	})

	assert.Equal(t, 25.0, sum.Subtotal)
	assert.Equal(t, 0.0, sum.DiscountTotal)
}

func TestComputeSummary_TotalNeverNegative(t *testing.T) {
	// Contrived: all lines discounted, shipping free, total clamps at zero
	// rather than going negative even if discounts outweigh the subtotal.
	sum := ComputeSummary([]CartLine{{ProductID: 1, Quantity: 100, UnitPrice: 0.01}})
	assert.GreaterOrEqual(t, sum.Total, 0.0)

	sum = ComputeSummary([]CartLine{})
	assert.GreaterOrEqual(t, sum.Total, 0.0)
}

func TestComputeSummary_Idempotent(t *testing.T) {
	lines := []CartLine{
		{ProductID: 1, Quantity: 6, UnitPrice: 33.33},
		{ProductID: 2, Quantity: 2, UnitPrice: 12.5},
	}

	first := ComputeSummary(lines)
	second := ComputeSummary(lines)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical summaries, got %+v vs %+v", first, second)
	}
}

func TestComputePreviewTotals_ExplicitTotalsWinVerbatim(t *testing.T) {
	explicit := &Totals{Subtotal: 10, Taxes: 1.8, Total: 11.8}
	got := ComputePreviewTotals(explicit, []PreviewLine{{UnitPrice: 999, Quantity: 9}})

	assert.Equal(t, *explicit, got)
}

func TestComputePreviewTotals_DerivesEighteenPercentTax(t *testing.T) {
	got := ComputePreviewTotals(nil, []PreviewLine{
		{UnitPrice: 50, Quantity: 2},
		{UnitPrice: 25, Quantity: 1},
	})

	assert.Equal(t, 125.0, got.Subtotal)
	assert.Equal(t, 22.5, got.Taxes)
	assert.Equal(t, 147.5, got.Total)
}

func TestComputePreviewTotals_EmptyOrder(t *testing.T) {
	got := ComputePreviewTotals(nil, nil)
	assert.Equal(t, Totals{}, got)
}
