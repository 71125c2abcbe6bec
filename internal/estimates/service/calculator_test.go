package service

import "testing"

func TestCalculateTotal_TaxAndDiscountShareBase(t *testing.T) {
	// labor 100.00 + parts 50.00 + additional 10.00 at 10% tax, 5% discount:
	// 160.00 * 1.10 * 0.95 = 167.20
	got := CalculateTotal(CalculationInput{
		LaborCostCents:       10000,
		PartsCostCents:       5000,
		AdditionalCostsCents: []int64{1000},
		TaxPct:               10,
		DiscountPct:          5,
	})

	if got != 16720 {
		t.Fatalf("expected total 16720, got %d", got)
	}
}

func TestCalculateTotal(t *testing.T) {
	tests := []struct {
		name string
		in   CalculationInput
		want int64
	}{
		{
			name: "zero everything",
			in:   CalculationInput{},
			want: 0,
		},
		{
			name: "base only",
			in:   CalculationInput{LaborCostCents: 10000, PartsCostCents: 2500},
			want: 12500,
		},
		{
			name: "tax only",
			in:   CalculationInput{LaborCostCents: 10000, TaxPct: 21},
			want: 12100,
		},
		{
			name: "discount only",
			in:   CalculationInput{LaborCostCents: 10000, DiscountPct: 25},
			want: 7500,
		},
		{
			name: "multiple additional costs",
			in: CalculationInput{
				LaborCostCents:       5000,
				AdditionalCostsCents: []int64{250, 750},
			},
			want: 6000,
		},
		{
			name: "full discount",
			in:   CalculationInput{LaborCostCents: 10000, TaxPct: 10, DiscountPct: 100},
			want: 0,
		},
		{
			name: "rounds once on the final value",
			// 33 * 1.15 * 0.93 = 35.2935 -> 35
			in:   CalculationInput{LaborCostCents: 33, TaxPct: 15, DiscountPct: 7},
			want: 35,
		},
		{
			name: "half cent rounds up",
			// 10 * 1.05 = 10.5 -> 11
			in:   CalculationInput{LaborCostCents: 10, TaxPct: 5},
			want: 11,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := CalculateTotal(tc.in); got != tc.want {
				t.Errorf("CalculateTotal(%+v) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}
