package calc

import "iter"

type YearSavings struct {
	Year        int     `json:"year"`
	UtilityCost float64 `json:"utility_cost"`
	SolarCost   float64 `json:"solar_cost"`
	NetSavings  float64 `json:"net_savings"`
	Cumulative  float64 `json:"cumulative_savings"`
}

type SavingsProjection struct {
	Years        []YearSavings `json:"years"`
	UtilityTotal float64       `json:"utility_total"`
	SolarTotal   float64       `json:"solar_total"`
	TotalSavings float64       `json:"total_savings"`
}

// SavingsInput drives a projection. Upfront is charged to the first year
// only; MonthlyPayment is charged flat every year.
type SavingsInput struct {
	MonthlyBill    float64 `json:"monthly_bill"`
	MonthlyPayment float64 `json:"monthly_payment"`
	Upfront        float64 `json:"upfront"`
	Escalation     float64 `json:"escalation"`
	Years          int     `json:"years"`
}

func (s SavingsInput) Validate() error {
	if !finite(s.MonthlyBill, s.MonthlyPayment, s.Upfront, s.Escalation) {
		return invalidf("savings values must be finite")
	}
	if s.MonthlyBill < 0 {
		return invalidf("monthly bill must not be negative")
	}
	if s.Escalation <= -1 || s.Escalation > MaxEscalation {
		return invalidf("escalation must be greater than -100%% and at most %g, got %g", MaxEscalation, s.Escalation)
	}
	if s.Years < 1 || s.Years > MaxProjectionYears {
		return invalidf("projection must cover 1 to %d years, got %d", MaxProjectionYears, s.Years)
	}
	return nil
}

// YearlySavings yields one row per projected year. The utility bill
// compounds by Escalation each year; the solar cost does not. Call
// Validate first.
func YearlySavings(s SavingsInput) iter.Seq[YearSavings] {
	return func(yield func(YearSavings) bool) {
		bill := s.MonthlyBill
		var cumulative float64
		for year := 1; year <= s.Years; year++ {
			row := YearSavings{
				Year:        year,
				UtilityCost: bill * MonthsPerYear,
				SolarCost:   s.MonthlyPayment * MonthsPerYear,
			}
			if year == 1 {
				row.SolarCost += s.Upfront
			}
			row.NetSavings = row.UtilityCost - row.SolarCost
			cumulative += row.NetSavings
			row.Cumulative = cumulative
			if !yield(row) {
				return
			}
			bill *= 1 + s.Escalation
		}
	}
}

func ProjectSavings(s SavingsInput) (SavingsProjection, error) {
	if err := s.Validate(); err != nil {
		return SavingsProjection{}, err
	}
	p := SavingsProjection{Years: make([]YearSavings, 0, s.Years)}
	for row := range YearlySavings(s) {
		p.Years = append(p.Years, row)
		p.UtilityTotal += row.UtilityCost
		p.SolarTotal += row.SolarCost
	}
	p.TotalSavings = p.UtilityTotal - p.SolarTotal
	if !finite(p.UtilityTotal, p.SolarTotal, p.TotalSavings) {
		return SavingsProjection{}, invalidf("savings projection overflows")
	}
	return p, nil
}

// UtilityCost is the total spent on the utility over a horizon with no
// solar at all.
func UtilityCost(monthlyBill, escalation float64, years int) (float64, error) {
	p, err := ProjectSavings(SavingsInput{MonthlyBill: monthlyBill, Escalation: escalation, Years: years})
	if err != nil {
		return 0, err
	}
	return p.UtilityTotal, nil
}
