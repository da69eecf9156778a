package calc

import "gonum.org/v1/gonum/floats"

type Depreciation struct {
	DepreciableAmount float64                   `json:"depreciable_amount"`
	Yearly            [len(MACRSSchedule)]float64 `json:"yearly"`
	TaxSavings        [len(MACRSSchedule)]float64 `json:"tax_savings"`
	// Total sums every year's tax savings as if realized at once.
	Total float64 `json:"total"`
}

func Depreciate(cost float64) (Depreciation, error) {
	if !finite(cost) || cost < 0 {
		return Depreciation{}, invalidf("depreciable cost must be a non-negative number, got %v", cost)
	}
	d := Depreciation{DepreciableAmount: cost * DepreciableFraction}
	for i, rate := range MACRSSchedule {
		d.Yearly[i] = d.DepreciableAmount * rate
		d.TaxSavings[i] = d.Yearly[i] * CorporateTaxRate
	}
	d.Total = floats.Sum(d.TaxSavings[:])
	return d, nil
}
