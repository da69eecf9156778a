package calc

import "math"

// UsageProfile describes a household's electricity bill.
type UsageProfile struct {
	MonthlyBill     float64 `json:"monthly_bill"`
	ElectricityRate float64 `json:"electricity_rate"`
	BaseCost        float64 `json:"base_cost"`
}

func (u UsageProfile) Validate() error {
	if !finite(u.MonthlyBill, u.ElectricityRate, u.BaseCost) {
		return invalidf("usage values must be finite")
	}
	if u.ElectricityRate <= 0 {
		return invalidf("electricity rate must be greater than zero")
	}
	if u.MonthlyBill < 0 {
		return invalidf("monthly bill must not be negative")
	}
	if u.BaseCost < 0 {
		return invalidf("base cost must not be negative")
	}
	if u.BaseCost > u.MonthlyBill {
		return invalidf("base cost %.2f exceeds monthly bill %.2f", u.BaseCost, u.MonthlyBill)
	}
	return nil
}

// AnnualUsageKWh backs the fixed utility charge out of the bill before
// converting it to energy. Call Validate first.
func (u UsageProfile) AnnualUsageKWh() float64 {
	usageCost := u.MonthlyBill - u.BaseCost
	return usageCost * MonthsPerYear / u.ElectricityRate
}

// SystemConfiguration is the hardware a quote prices.
type SystemConfiguration struct {
	Panels    int `json:"panels"`
	Batteries int `json:"batteries"`
}

func (c SystemConfiguration) Validate() error {
	if c.Panels < 1 {
		return invalidf("panel count must be at least 1, got %d", c.Panels)
	}
	if c.Batteries < 0 {
		return invalidf("battery count must not be negative, got %d", c.Batteries)
	}
	return nil
}

func (c SystemConfiguration) SystemSizeKW() float64 {
	return float64(c.Panels) * PanelWatts / 1000
}

func (c SystemConfiguration) StorageKWh() float64 {
	return float64(c.Batteries) * BatteryCapacityKWh
}

type Sizing struct {
	AnnualUsageKWh  float64 `json:"annual_usage_kwh"`
	MonthlyUsageKWh float64 `json:"monthly_usage_kwh"`
	DailyUsageKWh   float64 `json:"daily_usage_kwh"`
	SystemSizeKW    float64 `json:"system_size_kw"`
	Panels          int     `json:"panels"`
}

// Size computes the array needed to offset all of a household's usage.
// The panel count is never below one.
func Size(u UsageProfile) (Sizing, error) {
	if err := u.Validate(); err != nil {
		return Sizing{}, err
	}
	annual := u.AnnualUsageKWh()
	daily := annual / DaysPerYear
	sizeKW := daily / (PeakSunHours * SystemEfficiency)
	exact := math.Ceil(sizeKW * 1000 / PanelWatts)
	if !finite(annual, sizeKW) || exact > MaxSizedPanels {
		return Sizing{}, invalidf("usage too large to size: %.0f kWh/year", annual)
	}
	panels := max(int(exact), 1)
	return Sizing{
		AnnualUsageKWh:  annual,
		MonthlyUsageKWh: annual / MonthsPerYear,
		DailyUsageKWh:   daily,
		SystemSizeKW:    sizeKW,
		Panels:          panels,
	}, nil
}

// ClampPanels bounds a user-adjusted panel count to [1, MaxPanels].
func ClampPanels(n int) int {
	return max(1, min(MaxPanels, n))
}
