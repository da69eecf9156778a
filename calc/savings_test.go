package calc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtilityCostGeometricSeries(t *testing.T) {
	t.Parallel()

	total, err := UtilityCost(150, 0.06, 25)
	require.NoError(t, err)

	want := 150 * 12 * (math.Pow(1.06, 25) - 1) / 0.06
	assert.InDelta(t, want, total, 1e-6)
	assert.InDelta(t, 98756, total, 1)
}

func TestProjectSavingsFlatPayment(t *testing.T) {
	t.Parallel()

	p, err := ProjectSavings(SavingsInput{MonthlyBill: 150, MonthlyPayment: 105, Escalation: 0.06, Years: ProjectionYears})
	require.NoError(t, err)
	require.Len(t, p.Years, ProjectionYears)

	first, last := p.Years[0], p.Years[ProjectionYears-1]
	assert.Equal(t, 1, first.Year)
	assert.InDelta(t, 1800, first.UtilityCost, 1e-9)
	assert.InDelta(t, 1260, first.SolarCost, 1e-9)
	assert.InDelta(t, 540, first.NetSavings, 1e-9)
	assert.Equal(t, ProjectionYears, last.Year)
	assert.InDelta(t, 1800*math.Pow(1.06, 24), last.UtilityCost, 1e-6)
	assert.InDelta(t, 1260, last.SolarCost, 1e-9)

	assert.InDelta(t, 1260*25, p.SolarTotal, 1e-9)
	assert.InDelta(t, p.UtilityTotal-p.SolarTotal, p.TotalSavings, 1e-9)
	assert.InDelta(t, p.TotalSavings, last.Cumulative, 1e-6)
}

func TestProjectSavingsUpfrontInFirstYear(t *testing.T) {
	t.Parallel()

	p, err := ProjectSavings(SavingsInput{MonthlyBill: 100, Upfront: 9000, Escalation: 0.03, Years: 3})
	require.NoError(t, err)

	assert.InDelta(t, 9000, p.Years[0].SolarCost, 1e-9)
	assert.Zero(t, p.Years[1].SolarCost)
	assert.Zero(t, p.Years[2].SolarCost)
	assert.InDelta(t, 1200+1236+1273.08, p.UtilityTotal, 1e-9)
	assert.InDelta(t, p.UtilityTotal-9000, p.TotalSavings, 1e-9)
}

func TestYearlySavingsStopsEarly(t *testing.T) {
	t.Parallel()

	var seen []int
	for row := range YearlySavings(SavingsInput{MonthlyBill: 150, Escalation: 0.06, Years: ProjectionYears}) {
		seen = append(seen, row.Year)
		if row.Year == 3 {
			break
		}
	}
	assert.Equal(t, []int{1, 2, 3}, seen)
}

func TestProjectSavingsRejectsInvalidInput(t *testing.T) {
	t.Parallel()

	for _, in := range []SavingsInput{
		{MonthlyBill: -5, Years: 25},
		{MonthlyBill: 150, Escalation: -1, Years: 25},
		{MonthlyBill: 150},
		{MonthlyBill: math.Inf(1), Years: 25},
		{MonthlyBill: 150, Escalation: 1e300, Years: 25},
		{MonthlyBill: 150, Escalation: 1.5, Years: 25},
		{MonthlyBill: 150, Escalation: 0.06, Years: MaxProjectionYears + 1},
		{MonthlyBill: 150, Escalation: 0.06, Years: math.MaxInt},
		// Within bounds, but the totals overflow.
		{MonthlyBill: 1e307, Escalation: 1, Years: MaxProjectionYears},
	} {
		_, err := ProjectSavings(in)
		require.ErrorIs(t, err, ErrInvalidInput, "%+v", in)
	}

	p, err := ProjectSavings(SavingsInput{MonthlyBill: 150, Escalation: MaxEscalation, Years: MaxProjectionYears})
	require.NoError(t, err)
	assert.Len(t, p.Years, MaxProjectionYears)
}
