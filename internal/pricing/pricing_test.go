package pricing

import (
	"math"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func TestSubtotalCents(t *testing.T) {
	cases := []struct {
		name        string
		qty         int
		priceCents  int64
		discountPct float64
		want        int64
	}{
		{"no discount", 3, 1000, 0, 3000},
		{"twenty percent", 3, 1000, 20, 2400},
		{"full discount", 2, 500, 100, 0},
		{"rounds to nearest", 1, 999, 33.333, 666},
		{"single unit", 1, 250, 0, 250},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := SubtotalCents(tc.qty, tc.priceCents, tc.discountPct)
			if got != tc.want {
				t.Fatalf("SubtotalCents(%d, %d, %v) = %d, want %d", tc.qty, tc.priceCents, tc.discountPct, got, tc.want)
			}
		})
	}
}

func TestSubtotalCentsProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	properties.Property("subtotal matches formula within rounding", prop.ForAll(
		func(qty int, priceCents int64, discountPct float64) bool {
			got := SubtotalCents(qty, priceCents, discountPct)
			exact := float64(qty) * float64(priceCents) * (1 - discountPct/100)
			return math.Abs(float64(got)-exact) <= 0.5
		},
		gen.IntRange(1, 1000),
		gen.Int64Range(1, 10_000_000),
		gen.Float64Range(0, 100),
	))

	properties.Property("subtotal never negative for valid discounts", prop.ForAll(
		func(qty int, priceCents int64, discountPct float64) bool {
			return SubtotalCents(qty, priceCents, discountPct) >= 0
		},
		gen.IntRange(1, 1000),
		gen.Int64Range(1, 10_000_000),
		gen.Float64Range(0, 100),
	))

	properties.Property("higher discount never raises the subtotal", prop.ForAll(
		func(qty int, priceCents int64, d1, d2 float64) bool {
			lo, hi := d1, d2
			if lo > hi {
				lo, hi = hi, lo
			}
			return SubtotalCents(qty, priceCents, hi) <= SubtotalCents(qty, priceCents, lo)
		},
		gen.IntRange(1, 1000),
		gen.Int64Range(1, 10_000_000),
		gen.Float64Range(0, 100),
		gen.Float64Range(0, 100),
	))

	properties.TestingRun(t)
}

func TestMaxDiscountBeforeLoss(t *testing.T) {
	cases := []struct {
		name       string
		priceCents int64
		costCents  int64
		want       float64
	}{
		{"forty percent margin", 1000, 600, 40},
		{"twenty percent margin", 1000, 800, 20},
		{"selling at cost", 1000, 1000, 0},
		{"selling below cost", 1000, 1200, 0},
		{"free cost", 1000, 0, 100},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := MaxDiscountBeforeLoss(tc.priceCents, tc.costCents)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("MaxDiscountBeforeLoss(%d, %d) = %v, want %v", tc.priceCents, tc.costCents, got, tc.want)
			}
		})
	}
}

func TestProfitCents(t *testing.T) {
	cases := []struct {
		name        string
		priceCents  int64
		costCents   int64
		qty         int
		discountPct float64
		want        int64
	}{
		{"no discount", 1000, 600, 3, 0, 1200},
		{"twenty percent discount", 1000, 600, 3, 20, 600},
		{"at loss threshold", 1000, 600, 3, 40, 0},
		{"past loss threshold", 1000, 600, 3, 50, -300},
		{"selling at cost", 1000, 1000, 2, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ProfitCents(tc.priceCents, tc.costCents, tc.qty, tc.discountPct)
			if got != tc.want {
				t.Fatalf("ProfitCents(%d, %d, %d, %v) = %d, want %d", tc.priceCents, tc.costCents, tc.qty, tc.discountPct, got, tc.want)
			}
		})
	}
}

func TestProfitSignTracksDiscountThreshold(t *testing.T) {
	price, cost := int64(1000), int64(600)
	threshold := MaxDiscountBeforeLoss(price, cost)

	if p := ProfitCents(price, cost, 5, threshold-1); p <= 0 {
		t.Fatalf("profit below threshold should be positive, got %d", p)
	}
	if p := ProfitCents(price, cost, 5, threshold+1); p >= 0 {
		t.Fatalf("profit above threshold should be negative, got %d", p)
	}
}

func TestTaxCents(t *testing.T) {
	if got := TaxCents(2400, 0.11); got != 264 {
		t.Fatalf("TaxCents(2400, 0.11) = %d, want 264", got)
	}
	if got := TaxCents(1000, 0); got != 0 {
		t.Fatalf("TaxCents(1000, 0) = %d, want 0", got)
	}
}

func TestDiscountAmountCents(t *testing.T) {
	if got := DiscountAmountCents(3, 1000, 20); got != 600 {
		t.Fatalf("DiscountAmountCents(3, 1000, 20) = %d, want 600", got)
	}
	if got := DiscountAmountCents(3, 1000, 0); got != 0 {
		t.Fatalf("DiscountAmountCents(3, 1000, 0) = %d, want 0", got)
	}
}
