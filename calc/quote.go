package calc

import "fmt"

// Calculator quotes households against a fixed set of presets. It is safe
// for concurrent use once built.
type Calculator struct {
	presets       map[string]Preset
	defaultPreset string
}

// New builds a calculator from the built-in presets, replaced or extended
// by overrides with the same or new names.
func New(defaultPreset string, overrides ...Preset) (*Calculator, error) {
	c := &Calculator{presets: make(map[string]Preset)}
	for _, p := range DefaultPresets() {
		c.presets[p.Name] = p
	}
	for _, p := range overrides {
		p.Name = normalizePresetName(p.Name)
		if err := p.Validate(); err != nil {
			return nil, err
		}
		c.presets[p.Name] = p
	}
	if defaultPreset == "" {
		defaultPreset = PresetStandard
	}
	c.defaultPreset = normalizePresetName(defaultPreset)
	if _, ok := c.presets[c.defaultPreset]; !ok {
		return nil, fmt.Errorf("%w: default preset %q", ErrUnknownPreset, defaultPreset)
	}
	return c, nil
}

func (c *Calculator) DefaultPreset() string {
	return c.defaultPreset
}

// Preset resolves a name; the empty name selects the default preset.
func (c *Calculator) Preset(name string) (Preset, error) {
	name = normalizePresetName(name)
	if name == "" {
		name = c.defaultPreset
	}
	p, ok := c.presets[name]
	if !ok {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownPreset, name)
	}
	return p, nil
}

func (c *Calculator) Presets() []Preset {
	result := make([]Preset, 0, len(c.presets))
	for _, p := range c.presets {
		result = append(result, p)
	}
	sortPresets(result)
	return result
}

type QuoteRequest struct {
	Usage UsageProfile `json:"usage"`
	// System is sized from Usage when nil.
	System     *SystemConfiguration `json:"system,omitempty"`
	Incentives Incentives           `json:"incentives"`
	Preset     string               `json:"preset,omitempty"`
	// Payment defaults to PaymentFinance.
	Payment PaymentOption `json:"payment,omitempty"`
}

type Quote struct {
	Preset         Preset              `json:"preset"`
	Payment        PaymentOption       `json:"payment"`
	Sizing         Sizing              `json:"sizing"`
	System         SystemConfiguration `json:"system"`
	SystemSizeKW   float64             `json:"system_size_kw"`
	StorageKWh     float64             `json:"storage_kwh"`
	Production     Production          `json:"production"`
	OffsetPercent  float64             `json:"offset_percent"`
	CarbonOffsetKg float64             `json:"carbon_offset_kg"`
	Costs          CostBreakdown       `json:"costs"`
	Depreciation   Depreciation        `json:"depreciation"`
	Loan           LoanTerms           `json:"loan"`
	Savings        SavingsProjection   `json:"savings"`
}

func (c *Calculator) Quote(req QuoteRequest) (Quote, error) {
	preset, err := c.Preset(req.Preset)
	if err != nil {
		return Quote{}, err
	}
	sizing, err := Size(req.Usage)
	if err != nil {
		return Quote{}, err
	}

	system := SystemConfiguration{Panels: sizing.Panels}
	if req.System != nil {
		system = *req.System
	}
	if err := system.Validate(); err != nil {
		return Quote{}, err
	}

	payment := req.Payment
	switch payment {
	case 0:
		payment = PaymentFinance
	case PaymentCash, PaymentFinance:
	default:
		return Quote{}, invalidf("unsupported payment option %d", int(payment))
	}

	production, err := EstimateProduction(system.SystemSizeKW())
	if err != nil {
		return Quote{}, err
	}
	costs, err := Costs(system, req.Incentives, preset)
	if err != nil {
		return Quote{}, err
	}
	depreciation, err := Depreciate(costs.GrossCost)
	if err != nil {
		return Quote{}, err
	}
	loan, err := Amortize(preset.Loan(costs.FinancedAmount))
	if err != nil {
		return Quote{}, err
	}

	savingsInput := SavingsInput{
		MonthlyBill: req.Usage.MonthlyBill,
		Escalation:  preset.Escalation,
		Years:       ProjectionYears,
	}
	if payment == PaymentCash {
		savingsInput.Upfront = costs.EffectiveCost
	} else {
		savingsInput.MonthlyPayment = loan.MonthlyPayment
	}
	savings, err := ProjectSavings(savingsInput)
	if err != nil {
		return Quote{}, err
	}

	return Quote{
		Preset:         preset,
		Payment:        payment,
		Sizing:         sizing,
		System:         system,
		SystemSizeKW:   system.SystemSizeKW(),
		StorageKWh:     system.StorageKWh(),
		Production:     production,
		OffsetPercent:  OffsetPercent(production, sizing.AnnualUsageKWh),
		CarbonOffsetKg: CarbonOffsetKg(production),
		Costs:          costs,
		Depreciation:   depreciation,
		Loan:           loan,
		Savings:        savings,
	}, nil
}
