package models

import (
	"time"

	"solarquote/calc"
)

type UtilityRate struct {
	ZipCode         string    `json:"zip_code" yaml:"zip_code"`
	UtilityName     string    `json:"utility_name" yaml:"utility_name"`
	CompanyID       string    `json:"company_id" yaml:"company_id"`
	UtilityType     string    `json:"utility_type" yaml:"utility_type"`
	State           string    `json:"state" yaml:"state"`
	ElectricityRate float64   `json:"electricity_rate" yaml:"electricity_rate"`
	BaseCost        float64   `json:"base_cost" yaml:"base_cost"`
	CreatedAt       time.Time `json:"created_at" yaml:"-"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"-"`
}

// Usage turns a rate table entry and a bill into a calculator input.
func (u UtilityRate) Usage(monthlyBill float64) calc.UsageProfile {
	return calc.UsageProfile{
		MonthlyBill:     monthlyBill,
		ElectricityRate: u.ElectricityRate,
		BaseCost:        u.BaseCost,
	}
}

type StateRate struct {
	State       string  `json:"state"`
	Utilities   int     `json:"utilities"`
	AverageRate float64 `json:"average_rate"`
	AverageBase float64 `json:"average_base_cost"`
}

type UtilityStats struct {
	TotalUtilities  int         `json:"total_utilities"`
	AverageRate     float64     `json:"average_rate"`
	AverageBaseCost float64     `json:"average_base_cost"`
	ByState         []StateRate `json:"by_state"`
}

// LeadSummary is the slice of a quote a lead record carries.
type LeadSummary struct {
	MonthlyBill float64 `json:"monthly_bill"`
	SystemSize  float64 `json:"system_size"`
	PanelCount  int     `json:"panel_count"`
	Utility     string  `json:"utility"`
}

func NewLeadSummary(monthlyBill float64, q calc.Quote, utility string) LeadSummary {
	return LeadSummary{
		MonthlyBill: monthlyBill,
		SystemSize:  q.SystemSizeKW,
		PanelCount:  q.System.Panels,
		Utility:     utility,
	}
}
