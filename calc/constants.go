package calc

// Hardware and site assumptions.
const (
	PeakSunHours       = 4.5
	SystemEfficiency   = 0.80
	PanelWatts         = 405.0
	BatteryCapacityKWh = 13.5

	// MaxPanels bounds interactive panel adjustments. Sizing itself has no
	// upper bound.
	MaxPanels = 100
)

const (
	DaysPerYear     = 365.0
	DaysPerMonth    = 30.44
	MonthsPerYear   = 12
	ProjectionYears = 25
)

// Input bounds. Larger values are rejected rather than computed.
const (
	MaxProjectionYears = 100
	MaxTermYears       = 50
	// MaxEscalation is a 100% yearly utility price increase.
	MaxEscalation = 1.0
	// MaxSizedPanels bounds the panel count Size will return.
	MaxSizedPanels = 1_000_000
)

// Depreciation assumptions for commercially owned systems.
const (
	DepreciableFraction = 0.85
	CorporateTaxRate    = 0.21
)

// CarbonOffsetKgPerMWh is the grid emission factor used when no
// location-specific factor is known.
const CarbonOffsetKgPerMWh = 400.0

// MonthlyFactors scales average daily production by month, January first.
var MonthlyFactors = [MonthsPerYear]float64{
	0.75, 0.85, 1.00, 1.15, 1.25, 1.30,
	1.30, 1.25, 1.15, 1.00, 0.80, 0.70,
}

// MACRSSchedule is the 5-year MACRS recovery schedule (six tax years
// under the half-year convention).
var MACRSSchedule = [6]float64{0.20, 0.32, 0.192, 0.115, 0.115, 0.058}
