// Package pricing holds the money/percentage primitives shared by the cart
// engine and the reports. All amounts are integer cents; intermediate values
// are computed in float64 and rounded once at the end.
package pricing

import "math"

// SubtotalCents returns qty * unitPrice * (1 - discountPct/100), rounded.
// It does not clamp discountPct; callers own the [0,100] range. The result is
// never negative for non-negative inputs.
func SubtotalCents(qty int, unitPriceCents int64, discountPct float64) int64 {
	raw := float64(qty) * float64(unitPriceCents) * (1 - discountPct/100)
	return int64(math.Round(raw))
}

// MaxDiscountBeforeLoss returns the largest discount percentage that keeps a
// line non-loss-making. Selling at or below cost allows no further discount.
// The value is advisory: it is shown to the operator and never enforced.
func MaxDiscountBeforeLoss(unitPriceCents, purchasePriceCents int64) float64 {
	if unitPriceCents <= 0 || purchasePriceCents >= unitPriceCents {
		return 0
	}
	pct := float64(unitPriceCents-purchasePriceCents) / float64(unitPriceCents) * 100
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// ProfitCents returns (unitPrice*(1-discountPct/100) - purchasePrice) * qty,
// rounded. Negative results are valid: they represent a loss-making line, not
// an error.
func ProfitCents(unitPriceCents, purchasePriceCents int64, qty int, discountPct float64) int64 {
	perUnit := float64(unitPriceCents)*(1-discountPct/100) - float64(purchasePriceCents)
	return int64(math.Round(perUnit * float64(qty)))
}

// TaxCents applies a decimal tax rate (0.11 = 11%) to a subtotal.
func TaxCents(subtotalCents int64, rate float64) int64 {
	return int64(math.Round(float64(subtotalCents) * rate))
}

// DiscountAmountCents returns the absolute discount value of a line,
// qty * unitPrice * discountPct/100, rounded.
func DiscountAmountCents(qty int, unitPriceCents int64, discountPct float64) int64 {
	raw := float64(qty) * float64(unitPriceCents) * discountPct / 100
	return int64(math.Round(raw))
}
