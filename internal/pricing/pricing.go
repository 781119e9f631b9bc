// Package pricing computes order summaries from cart lines.
//
// Two distinct totals policies live here on purpose. The checkout flow
// (ComputeSummary) applies no tax, a per-line bulk discount and a flat/free
// shipping fee. The order-preview flow (ComputePreviewTotals) applies an 18%
// tax and no shipping or discount. Do not unify them without product
// sign-off; they are kept as separately named code paths.
package pricing

import "github.com/shopspring/decimal"

const (
	// BulkQuantityThreshold is the per-line quantity above which the bulk
	// discount and reward coupon kick in.
	BulkQuantityThreshold = 5

	// FreeShippingSubtotal is the subtotal above which shipping is free.
	FreeShippingSubtotal = 100.0

	// FlatShippingFee applies when no free-shipping condition holds.
	FlatShippingFee = 9.99

	// RewardCouponValue is the fixed value of the earned coupon, in soles.
	// It is a forward-looking reward and never reduces the current total.
	RewardCouponValue = 400.0

	// PreviewTaxRate is the VAT-style rate used only by the preview path.
	PreviewTaxRate = 0.18
)

var (
	bulkDiscountRate = decimal.NewFromFloat(0.30)
	previewTaxRate   = decimal.NewFromFloat(PreviewTaxRate)
)

// CartLine is one product entry in a cart. Name, ImageURL and Description are
// display-only and ignored by the engine.
type CartLine struct {
	ProductID   int     `json:"productId"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Name        string  `json:"name,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Summary is the derived checkout summary for a set of cart lines.
type Summary struct {
	Subtotal          float64         `json:"subtotal"`
	PerLineDiscount   map[int]float64 `json:"perLineDiscount"`
	DiscountTotal     float64         `json:"discountTotal"`
	CouponEarned      bool            `json:"couponEarned"`
	RewardCouponValue float64         `json:"rewardCouponValue"`
	ShippingFee       float64         `json:"shippingFee"`
	Total             float64         `json:"total"`
}

// ComputeSummary derives a Summary from the given lines. Pure and
// deterministic: identical input yields identical output.
//
// Malformed lines are tolerated rather than rejected: a quantity below 1
// counts as 1 and a negative unit price counts as 0. Callers relying on
// strict validation must do it before reaching the engine.
func ComputeSummary(lines []CartLine) Summary {
	subtotal := decimal.Zero
	discountTotal := decimal.Zero
	perLine := make(map[int]float64, len(lines))
	couponEarned := false

	for _, line := range lines {
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		price := decimal.NewFromFloat(line.UnitPrice)
		if price.IsNegative() {
			price = decimal.Zero
		}

		base := price.Mul(decimal.NewFromInt(int64(qty)))
		subtotal = subtotal.Add(base)

		discount := decimal.Zero
		if qty > BulkQuantityThreshold {
			discount = base.Mul(bulkDiscountRate).Round(2)
			couponEarned = true
		}
		perLine[line.ProductID] = mustFloat(discount)
		discountTotal = discountTotal.Add(discount)
	}

	subtotal = subtotal.Round(2)
	discountTotal = discountTotal.Round(2)

	rewardValue := 0.0
	if couponEarned {
		rewardValue = RewardCouponValue
	}

	shipping := decimal.NewFromFloat(FlatShippingFee)
	if couponEarned || subtotal.GreaterThan(decimal.NewFromFloat(FreeShippingSubtotal)) {
		shipping = decimal.Zero
	}

	total := subtotal.Sub(discountTotal).Add(shipping).Round(2)
	if total.IsNegative() {
		total = decimal.Zero
	}

	return Summary{
		Subtotal:          mustFloat(subtotal),
		PerLineDiscount:   perLine,
		DiscountTotal:     mustFloat(discountTotal),
		CouponEarned:      couponEarned,
		RewardCouponValue: rewardValue,
		ShippingFee:       mustFloat(shipping),
		Total:             mustFloat(total),
	}
}

// Totals is the subtotal/taxes/total triple used by the preview path.
type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Taxes    float64 `json:"taxes"`
	Total    float64 `json:"total"`
}

// PreviewLine is the minimal line shape the preview calculation needs.
type PreviewLine struct {
	UnitPrice float64
	Quantity  int
}

// ComputePreviewTotals estimates totals for an order that has no invoice yet.
// When the source record carried explicit subtotal/taxes/total they are used
// verbatim. Otherwise the subtotal is derived from the lines and an 18% tax
// is applied on top. This is intentionally a different policy from
// ComputeSummary; see the package comment.
func ComputePreviewTotals(explicit *Totals, lines []PreviewLine) Totals {
	if explicit != nil {
		return *explicit
	}

	subtotal := decimal.Zero
	for _, line := range lines {
		qty := line.Quantity
		if qty < 1 {
			qty = 1
		}
		subtotal = subtotal.Add(decimal.NewFromFloat(line.UnitPrice).Mul(decimal.NewFromInt(int64(qty))))
	}

	taxes := subtotal.Mul(previewTaxRate).Round(2)
	total := subtotal.Add(taxes).Round(2)

	return Totals{
		Subtotal: mustFloat(subtotal),
		Taxes:    mustFloat(taxes),
		Total:    mustFloat(total),
	}
}

func mustFloat(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
