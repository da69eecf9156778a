package calc

type Incentives struct {
	FederalPct float64 `json:"federal_pct"`
	StatePct   float64 `json:"state_pct"`
	UtilityPct float64 `json:"utility_pct"`
	// Depreciation adds the MACRS tax benefit to the incentive total.
	Depreciation bool `json:"depreciation"`
}

// DefaultIncentives is the 30% federal ITC plus depreciation.
func DefaultIncentives() Incentives {
	return Incentives{FederalPct: 30, Depreciation: true}
}

func (in Incentives) Validate() error {
	for _, pct := range []struct {
		name  string
		value float64
	}{
		{"federal", in.FederalPct},
		{"state", in.StatePct},
		{"utility", in.UtilityPct},
	} {
		if !finite(pct.value) || pct.value < 0 || pct.value > 100 {
			return invalidf("%s incentive must be between 0 and 100, got %v", pct.name, pct.value)
		}
	}
	return nil
}

type CostBreakdown struct {
	CostPerWatt        float64 `json:"cost_per_watt"`
	SolarCost          float64 `json:"solar_cost"`
	BatteryCost        float64 `json:"battery_cost"`
	GrossCost          float64 `json:"gross_cost"`
	FederalCredit      float64 `json:"federal_credit"`
	StateCredit        float64 `json:"state_credit"`
	UtilityCredit      float64 `json:"utility_credit"`
	DepreciationCredit float64 `json:"depreciation_credit"`
	// NetCost subtracts the percentage credits only and may go negative.
	NetCost         float64 `json:"net_cost"`
	TotalIncentives float64 `json:"total_incentives"`
	// EffectiveCost subtracts every incentive, depreciation included.
	EffectiveCost  float64 `json:"effective_cost"`
	FinancedAmount float64 `json:"financed_amount"`
	MonthlyPayment float64 `json:"monthly_payment"`
}

// Costs prices a system under a preset. Batteries are added to the gross
// cost before the percentage credits apply, so they earn every credit.
func Costs(sys SystemConfiguration, in Incentives, p Preset) (CostBreakdown, error) {
	if err := sys.Validate(); err != nil {
		return CostBreakdown{}, err
	}
	return costsForSize(sys.SystemSizeKW(), sys.Batteries, in, p)
}

func costsForSize(systemSizeKW float64, batteries int, in Incentives, p Preset) (CostBreakdown, error) {
	if !finite(systemSizeKW) || systemSizeKW < 0 {
		return CostBreakdown{}, invalidf("system size must be a non-negative number, got %v", systemSizeKW)
	}
	if batteries < 0 {
		return CostBreakdown{}, invalidf("battery count must not be negative, got %d", batteries)
	}
	if err := in.Validate(); err != nil {
		return CostBreakdown{}, err
	}
	if err := p.Validate(); err != nil {
		return CostBreakdown{}, err
	}

	c := CostBreakdown{
		CostPerWatt: p.CostPerWatt,
		SolarCost:   systemSizeKW * 1000 * p.CostPerWatt,
		BatteryCost: float64(batteries) * p.BatteryPrice,
	}
	c.GrossCost = c.SolarCost + c.BatteryCost
	c.FederalCredit = c.GrossCost * in.FederalPct / 100
	c.StateCredit = c.GrossCost * in.StatePct / 100
	c.UtilityCredit = c.GrossCost * in.UtilityPct / 100
	c.NetCost = c.GrossCost - c.FederalCredit - c.StateCredit - c.UtilityCredit

	if in.Depreciation {
		d, err := Depreciate(c.GrossCost)
		if err != nil {
			return CostBreakdown{}, err
		}
		c.DepreciationCredit = d.Total
	}
	c.TotalIncentives = c.FederalCredit + c.StateCredit + c.UtilityCredit + c.DepreciationCredit
	c.EffectiveCost = c.GrossCost - c.TotalIncentives

	c.FinancedAmount = c.NetCost
	if p.DepreciationReducesPrincipal {
		c.FinancedAmount = c.EffectiveCost
	}
	c.MonthlyPayment = p.Loan(c.FinancedAmount).MonthlyPayment()
	if !finite(c.GrossCost, c.NetCost, c.EffectiveCost, c.MonthlyPayment) {
		return CostBreakdown{}, invalidf("system cost overflows")
	}
	return c, nil
}
