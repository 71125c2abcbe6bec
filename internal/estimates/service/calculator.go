package service

import "math"

// CalculationInput holds the cost components of an estimate total.
type CalculationInput struct {
	LaborCostCents       int64
	PartsCostCents       int64
	AdditionalCostsCents []int64
	TaxPct               float64
	DiscountPct          float64
}

// roundCents rounds a float to the nearest cent (integer)
func roundCents(v float64) int64 {
	return int64(math.Round(v))
}

// CalculateTotal computes an estimate's total in cents. Tax and discount both
// apply to the same base (labor + parts + additional), and rounding happens
// exactly once on the final value:
//
//	total = base * (1 + taxPct/100) * (1 - discountPct/100)
func CalculateTotal(in CalculationInput) int64 {
	base := in.LaborCostCents + in.PartsCostCents
	for _, c := range in.AdditionalCostsCents {
		base += c
	}

	total := float64(base) * (1.0 + in.TaxPct/100.0) * (1.0 - in.DiscountPct/100.0)
	if total < 0 {
		return 0
	}
	return roundCents(total)
}
