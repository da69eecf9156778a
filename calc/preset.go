package calc

import (
	"sort"
	"strings"
)

// Built-in preset names.
const (
	PresetProposal = "proposal"
	PresetCash     = "cash"
	PresetFinanced = "financed"
	PresetStandard = "standard"
	PresetEstimate = "estimate"
)

const (
	DefaultAPR       = 3.99
	DefaultTermYears = 25
)

// Preset carries the pricing and financing assumptions of one sales
// scenario.
type Preset struct {
	Name         string  `json:"name" yaml:"name"`
	CostPerWatt  float64 `json:"cost_per_watt" yaml:"cost_per_watt"`
	BatteryPrice float64 `json:"battery_price" yaml:"battery_price"`
	APR          float64 `json:"apr" yaml:"apr"`
	TermYears    int     `json:"term_years" yaml:"term_years"`
	// Escalation is the yearly utility price increase as a fraction.
	Escalation float64 `json:"escalation" yaml:"escalation"`
	// DepreciationReducesPrincipal finances the cost left after every
	// credit, depreciation included, instead of the net cost.
	DepreciationReducesPrincipal bool `json:"depreciation_reduces_principal" yaml:"depreciation_reduces_principal"`
}

func (p Preset) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return invalidf("preset name is required")
	}
	if !finite(p.CostPerWatt, p.BatteryPrice, p.APR, p.Escalation) {
		return invalidf("preset %q has non-finite values", p.Name)
	}
	if p.CostPerWatt <= 0 {
		return invalidf("preset %q: cost per watt must be greater than zero", p.Name)
	}
	if p.BatteryPrice < 0 {
		return invalidf("preset %q: battery price must not be negative", p.Name)
	}
	if p.APR < 0 {
		return invalidf("preset %q: apr must not be negative", p.Name)
	}
	if p.TermYears < 1 || p.TermYears > MaxTermYears {
		return invalidf("preset %q: term must be 1 to %d years", p.Name, MaxTermYears)
	}
	if p.Escalation <= -1 || p.Escalation > MaxEscalation {
		return invalidf("preset %q: escalation must be greater than -100%% and at most %g", p.Name, MaxEscalation)
	}
	return nil
}

func (p Preset) Loan(principal float64) Loan {
	return Loan{Principal: principal, APR: p.APR, TermYears: p.TermYears}
}

func DefaultPresets() []Preset {
	return []Preset{
		{Name: PresetProposal, CostPerWatt: 2.60, BatteryPrice: 10500, APR: DefaultAPR, TermYears: DefaultTermYears, Escalation: 0.03, DepreciationReducesPrincipal: true},
		{Name: PresetCash, CostPerWatt: 2.60, BatteryPrice: 10500, APR: DefaultAPR, TermYears: DefaultTermYears, Escalation: 0.06},
		{Name: PresetFinanced, CostPerWatt: 3.50, BatteryPrice: 10500, APR: DefaultAPR, TermYears: DefaultTermYears, Escalation: 0.06},
		{Name: PresetStandard, CostPerWatt: 3.00, BatteryPrice: 10000, APR: DefaultAPR, TermYears: DefaultTermYears, Escalation: 0.06},
		{Name: PresetEstimate, CostPerWatt: 3.45, BatteryPrice: 10500, APR: DefaultAPR, TermYears: DefaultTermYears, Escalation: 0.06},
	}
}

func normalizePresetName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func sortPresets(presets []Preset) {
	sort.Slice(presets, func(i, j int) bool {
		return presets[i].Name < presets[j].Name
	})
}
