package calc

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

type Production struct {
	DailyKWh float64 `json:"daily_kwh"`
	// BaselineAnnualKWh is the flat estimate, DailyKWh for every day of
	// the year.
	BaselineAnnualKWh float64 `json:"baseline_annual_kwh"`
	// Monthly holds whole-kWh seasonal estimates, January first.
	Monthly           [MonthsPerYear]float64 `json:"monthly_kwh"`
	AnnualKWh         float64                `json:"annual_kwh"`
	DailyAverageKWh   float64                `json:"daily_average_kwh"`
	MonthlyAverageKWh float64                `json:"monthly_average_kwh"`
}

func EstimateProduction(systemSizeKW float64) (Production, error) {
	if !finite(systemSizeKW) || systemSizeKW < 0 {
		return Production{}, invalidf("system size must be a non-negative number, got %v", systemSizeKW)
	}
	daily := systemSizeKW * PeakSunHours * SystemEfficiency

	var p Production
	p.DailyKWh = daily
	p.BaselineAnnualKWh = daily * DaysPerYear
	for m, factor := range MonthlyFactors {
		p.Monthly[m] = math.Round(daily * factor * DaysPerMonth)
	}
	p.AnnualKWh = floats.Sum(p.Monthly[:])
	p.DailyAverageKWh = p.AnnualKWh / DaysPerYear
	p.MonthlyAverageKWh = p.AnnualKWh / MonthsPerYear
	if !finite(p.BaselineAnnualKWh, p.AnnualKWh) {
		return Production{}, invalidf("system size %g kW is too large to estimate", systemSizeKW)
	}
	return p, nil
}

// OffsetPercent is the share of annual usage the baseline production
// covers, rounded to a whole percent. It is not capped at 100.
func OffsetPercent(p Production, annualUsageKWh float64) float64 {
	if annualUsageKWh <= 0 {
		return 0
	}
	return math.Round(p.BaselineAnnualKWh / annualUsageKWh * 100)
}

// CarbonOffsetKg is the yearly CO2 avoided by the seasonal production.
func CarbonOffsetKg(p Production) float64 {
	return p.AnnualKWh / 1000 * CarbonOffsetKgPerMWh
}
