package main

import (
	"bytes"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"solarquote/calc"
	"solarquote/models"
	"solarquote/store"
)

func TestQuoteAPIFlow(t *testing.T) {
	t.Parallel()

	_, mux := newTestServer(t)

	created := doJSON[models.UtilityRate](t, mux, http.MethodPost, "/api/utilities", map[string]any{
		"zip_code":         "94103",
		"utility_name":     "Pacific Gas & Electric",
		"state":            "ca",
		"electricity_rate": 0.32,
		"base_cost":        12,
	}, http.StatusCreated)
	assert.Equal(t, "CA", created.State)

	quote := doJSON[calc.Quote](t, mux, http.MethodPost, "/api/quote", map[string]any{
		"monthly_bill": 250,
		"zip_code":     "94103",
	}, http.StatusOK)
	sizing, err := calc.Size(calc.UsageProfile{MonthlyBill: 250, ElectricityRate: 0.32, BaseCost: 12})
	require.NoError(t, err)
	assert.Equal(t, sizing, quote.Sizing)
	assert.Equal(t, sizing.Panels, quote.System.Panels)
	assert.Equal(t, calc.PresetStandard, quote.Preset.Name)
	assert.Equal(t, calc.PaymentFinance, quote.Payment)
	assert.Len(t, quote.Savings.Years, calc.ProjectionYears)

	cash := doJSON[calc.Quote](t, mux, http.MethodPost, "/api/quote", map[string]any{
		"monthly_bill":     250,
		"electricity_rate": 0.25,
		"base_cost":        0,
		"zip_code":         "94103",
		"system":           map[string]any{"panels": 16, "batteries": 1},
		"incentives":       map[string]any{"federal_pct": 30, "state_pct": 10},
		"preset":           "cash",
		"payment":          "cash",
	}, http.StatusOK)
	// Explicit rate and base charge win over the zip lookup.
	assert.InDelta(t, 250*12/0.25, cash.Sizing.AnnualUsageKWh, 1e-9)
	assert.Equal(t, 16, cash.System.Panels)
	assert.Equal(t, calc.PaymentCash, cash.Payment)
	assert.Zero(t, cash.Costs.DepreciationCredit)
	assert.InDelta(t, cash.Costs.GrossCost*0.6, cash.Costs.NetCost, 1e-9)

	lead := doJSON[models.LeadSummary](t, mux, http.MethodPost, "/api/leads/summary", map[string]any{
		"monthly_bill": 250,
		"zip_code":     "94103",
	}, http.StatusOK)
	assert.Equal(t, models.LeadSummary{
		MonthlyBill: 250,
		SystemSize:  quote.SystemSizeKW,
		PanelCount:  quote.System.Panels,
		Utility:     "Pacific Gas & Electric",
	}, lead)

	manual := doJSON[models.LeadSummary](t, mux, http.MethodPost, "/api/leads/summary", map[string]any{
		"monthly_bill":     150,
		"electricity_rate": 0.15,
		"utility":          " Local Co-op ",
	}, http.StatusOK)
	assert.Equal(t, "Local Co-op", manual.Utility)
	assert.Equal(t, 23, manual.PanelCount)

	packages := doJSON[[]calc.PackageQuote](t, mux, http.MethodGet, "/api/packages?monthly_bill=180&zip=94103&payment=cash", nil, http.StatusOK)
	require.Len(t, packages, 3)
	assert.Equal(t, "Essential Solar", packages[0].Package.Name)
	assert.Equal(t, 20, packages[2].Quote.System.Panels)
	assert.Equal(t, calc.PaymentCash, packages[1].Quote.Payment)
}

func TestQuoteAPIErrors(t *testing.T) {
	t.Parallel()

	_, mux := newTestServer(t)

	for _, tc := range []struct {
		name   string
		method string
		path   string
		body   any
		status int
	}{
		{"unknown zip", http.MethodPost, "/api/quote", map[string]any{"monthly_bill": 150, "zip_code": "00000"}, http.StatusNotFound},
		{"unknown preset", http.MethodPost, "/api/quote", map[string]any{"monthly_bill": 150, "electricity_rate": 0.15, "preset": "luxury"}, http.StatusNotFound},
		{"missing rate", http.MethodPost, "/api/quote", map[string]any{"monthly_bill": 150}, http.StatusBadRequest},
		{"base above bill", http.MethodPost, "/api/sizing", map[string]any{"monthly_bill": 5, "electricity_rate": 0.15, "base_cost": 10}, http.StatusBadRequest},
		{"bad payment", http.MethodPost, "/api/quote", map[string]any{"monthly_bill": 150, "electricity_rate": 0.15, "payment": "barter"}, http.StatusBadRequest},
		{"zero panels", http.MethodPost, "/api/costs", map[string]any{"system": map[string]any{"panels": 0}}, http.StatusBadRequest},
		{"negative size", http.MethodPost, "/api/production", map[string]any{"system_size_kw": -1}, http.StatusBadRequest},
		{"bad term", http.MethodPost, "/api/financing", map[string]any{"principal": 1000, "apr": 5, "term_years": -2}, http.StatusBadRequest},
		{"bad query", http.MethodGet, "/api/packages?monthly_bill=lots", nil, http.StatusBadRequest},
		{"overflowing escalation", http.MethodPost, "/api/savings", map[string]any{"monthly_bill": 150, "escalation": 1e300}, http.StatusBadRequest},
		{"too many years", http.MethodPost, "/api/savings", map[string]any{"monthly_bill": 150, "years": 1 << 40}, http.StatusBadRequest},
		{"term too long", http.MethodPost, "/api/financing", map[string]any{"principal": 1000, "term_years": 1 << 40}, http.StatusBadRequest},
		{"usage too large", http.MethodPost, "/api/sizing", map[string]any{"monthly_bill": 1e308, "electricity_rate": 0.15}, http.StatusBadRequest},
		{"size too large", http.MethodPost, "/api/production", map[string]any{"system_size_kw": 1e308}, http.StatusBadRequest},
		{"bad utility", http.MethodPost, "/api/utilities", map[string]any{"zip_code": "123", "utility_name": "x", "electricity_rate": 0.1}, http.StatusBadRequest},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp := doJSON[map[string]string](t, mux, tc.method, tc.path, tc.body, tc.status)
			assert.NotEmpty(t, resp["error"])
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/quote", bytes.NewBufferString("{"))
	recorder := httptest.NewRecorder()
	mux.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "invalid JSON payload")
}

func TestCalculatorEndpoints(t *testing.T) {
	t.Parallel()

	_, mux := newTestServer(t)

	presets := doJSON[presetsResponse](t, mux, http.MethodGet, "/api/presets", nil, http.StatusOK)
	assert.Equal(t, calc.PresetStandard, presets.Default)
	assert.Len(t, presets.Presets, len(calc.DefaultPresets()))

	sizing := doJSON[calc.Sizing](t, mux, http.MethodPost, "/api/sizing", map[string]any{
		"monthly_bill":     150,
		"electricity_rate": 0.15,
	}, http.StatusOK)
	assert.Equal(t, 23, sizing.Panels)
	assert.InDelta(t, 12000, sizing.AnnualUsageKWh, 1e-9)

	production := doJSON[productionResponse](t, mux, http.MethodPost, "/api/production", map[string]any{
		"panels":           23,
		"annual_usage_kwh": 12000,
	}, http.StatusOK)
	want, err := calc.EstimateProduction(23 * calc.PanelWatts / 1000)
	require.NoError(t, err)
	assert.Equal(t, want, production.Production)
	assert.Equal(t, calc.OffsetPercent(want, 12000), production.OffsetPercent)
	assert.Equal(t, calc.CarbonOffsetKg(want), production.CarbonOffsetKg)

	costs := doJSON[calc.CostBreakdown](t, mux, http.MethodPost, "/api/costs", map[string]any{
		"system": map[string]any{"panels": 10},
	}, http.StatusOK)
	assert.InDelta(t, 12150, costs.GrossCost, 1e-9)
	assert.InDelta(t, 3645, costs.FederalCredit, 1e-9)
	assert.InDelta(t, 8505, costs.NetCost, 1e-9)

	financing := doJSON[financingResponse](t, mux, http.MethodPost, "/api/financing", map[string]any{
		"principal": 20000,
		"schedule":  true,
	}, http.StatusOK)
	assert.Equal(t, calc.DefaultAPR, financing.Loan.APR)
	assert.Equal(t, calc.DefaultTermYears, financing.Loan.TermYears)
	assert.InDelta(t, financing.Loan.MonthlyPayment(), financing.Terms.MonthlyPayment, 1e-9)
	require.Len(t, financing.Schedule, calc.DefaultTermYears)
	assert.InDelta(t, 0, financing.Schedule[len(financing.Schedule)-1].Balance, 1e-6)

	savings := doJSON[calc.SavingsProjection](t, mux, http.MethodPost, "/api/savings", map[string]any{
		"monthly_bill": 150,
		"escalation":   0.06,
	}, http.StatusOK)
	require.Len(t, savings.Years, calc.ProjectionYears)
	assert.InDelta(t, 98756, savings.UtilityTotal, 1)
	assert.InDelta(t, savings.UtilityTotal, savings.TotalSavings, 1e-9)
}

func TestFinancingHonorsExplicitZeroRate(t *testing.T) {
	t.Parallel()

	_, mux := newTestServer(t)

	financing := doJSON[financingResponse](t, mux, http.MethodPost, "/api/financing", map[string]any{
		"principal": 12000,
		"apr":       0,
	}, http.StatusOK)
	assert.Zero(t, financing.Loan.APR)
	assert.Equal(t, calc.DefaultTermYears, financing.Loan.TermYears)
	assert.InDelta(t, 12000.0/(calc.DefaultTermYears*12), financing.Terms.MonthlyPayment, 1e-9)
	assert.Zero(t, financing.Terms.TotalInterest)

	short := doJSON[financingResponse](t, mux, http.MethodPost, "/api/financing", map[string]any{
		"principal":  12000,
		"term_years": 10,
		"preset":     "proposal",
	}, http.StatusOK)
	assert.Equal(t, calc.DefaultAPR, short.Loan.APR)
	assert.Equal(t, 10, short.Loan.TermYears)
}

func TestQuotePanelChange(t *testing.T) {
	t.Parallel()

	_, mux := newTestServer(t)

	for _, tc := range []struct {
		change int
		want   int
	}{
		{change: 5, want: 28},
		{change: -3, want: 20},
		{change: 500, want: calc.MaxPanels},
		{change: -500, want: 1},
	} {
		quote := doJSON[calc.Quote](t, mux, http.MethodPost, "/api/quote", map[string]any{
			"monthly_bill":     150,
			"electricity_rate": 0.15,
			"panel_change":     tc.change,
		}, http.StatusOK)
		assert.Equal(t, tc.want, quote.System.Panels, "change %d", tc.change)
		assert.Equal(t, 23, quote.Sizing.Panels)
	}

	given := doJSON[calc.Quote](t, mux, http.MethodPost, "/api/quote", map[string]any{
		"monthly_bill":     150,
		"electricity_rate": 0.15,
		"system":           map[string]any{"panels": 16, "batteries": 1},
		"panel_change":     -2,
	}, http.StatusOK)
	assert.Equal(t, 14, given.System.Panels)
	assert.Equal(t, 1, given.System.Batteries)
}

func TestWriteJSONReportsEncodingFailure(t *testing.T) {
	t.Parallel()

	recorder := httptest.NewRecorder()
	writeJSON(recorder, http.StatusOK, map[string]float64{"total": math.Inf(1)})
	assert.Equal(t, http.StatusInternalServerError, recorder.Code)
	assert.JSONEq(t, `{"error":"failed to encode response"}`, recorder.Body.String())
}

func TestUtilityAPIFlow(t *testing.T) {
	t.Parallel()

	_, mux := newTestServer(t)

	for _, body := range []map[string]any{
		{"zip_code": "94103", "utility_name": "Pacific Gas & Electric", "state": "CA", "electricity_rate": 0.32},
		{"zip_code": "02108", "utility_name": "Eversource", "state": "MA", "electricity_rate": 0.29, "base_cost": 7.5},
	} {
		doJSON[models.UtilityRate](t, mux, http.MethodPost, "/api/utilities", body, http.StatusCreated)
	}
	dup := doJSON[map[string]string](t, mux, http.MethodPost, "/api/utilities", map[string]any{
		"zip_code": "94103", "utility_name": "Again", "electricity_rate": 0.3,
	}, http.StatusConflict)
	assert.Contains(t, dup["error"], "already exists")

	list := doJSON[[]models.UtilityRate](t, mux, http.MethodGet, "/api/utilities", nil, http.StatusOK)
	require.Len(t, list, 2)
	assert.Equal(t, "02108", list[0].ZipCode)
	assert.Equal(t, 7.5, list[0].BaseCost)
	assert.Equal(t, store.DefaultBaseCost, list[1].BaseCost)

	ma := doJSON[[]models.UtilityRate](t, mux, http.MethodGet, "/api/utilities?state=ma", nil, http.StatusOK)
	require.Len(t, ma, 1)

	updated := doJSON[models.UtilityRate](t, mux, http.MethodPut, "/api/utilities/94103", map[string]any{
		"utility_name": "PG&E", "state": "CA", "electricity_rate": 0.34,
	}, http.StatusOK)
	assert.Equal(t, "PG&E", updated.UtilityName)
	assert.Equal(t, "94103", updated.ZipCode)

	got := doJSON[models.UtilityRate](t, mux, http.MethodGet, "/api/utilities/94103", nil, http.StatusOK)
	assert.Equal(t, 0.34, got.ElectricityRate)

	stats := doJSON[models.UtilityStats](t, mux, http.MethodGet, "/api/utilities/stats", nil, http.StatusOK)
	assert.Equal(t, 2, stats.TotalUtilities)
	assert.InDelta(t, (0.34+0.29)/2, stats.AverageRate, 1e-12)
	require.Len(t, stats.ByState, 2)
	assert.Equal(t, "CA", stats.ByState[0].State)

	doRaw(t, mux, http.MethodDelete, "/api/utilities/94103", nil, http.StatusNoContent)
	doRaw(t, mux, http.MethodDelete, "/api/utilities/94103", nil, http.StatusNotFound)
	doRaw(t, mux, http.MethodGet, "/api/utilities/94103", nil, http.StatusNotFound)
	doRaw(t, mux, http.MethodPut, "/api/utilities/94103", map[string]any{
		"utility_name": "PG&E", "electricity_rate": 0.34,
	}, http.StatusNotFound)
}

func TestMiddleware(t *testing.T) {
	t.Parallel()

	_, mux := newTestServer(t)
	handler := loggingMiddleware(withCORS("https://quotes.example.com", mux))

	req := httptest.NewRequest(http.MethodOptions, "/api/quote", nil)
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	assert.Equal(t, http.StatusNoContent, recorder.Code)
	assert.Equal(t, "https://quotes.example.com", recorder.Header().Get("Access-Control-Allow-Origin"))

	presets := doJSON[presetsResponse](t, handler, http.MethodGet, "/api/presets", nil, http.StatusOK)
	assert.NotEmpty(t, presets.Presets)
	doRaw(t, handler, http.MethodGet, "/api/utilities/99999", nil, http.StatusNotFound)
}

func newTestServer(t *testing.T) (*Server, *http.ServeMux) {
	t.Helper()

	st, err := store.New(filepath.Join(t.TempDir(), "utilities.json"))
	require.NoError(t, err)
	calculator, err := calc.New(calc.PresetStandard)
	require.NoError(t, err)

	server := &Server{store: st, calc: calculator}
	return server, server.routes()
}

func doRaw(t *testing.T, handler http.Handler, method, path string, payload any, expectedStatus int) []byte {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload), "encode request")
	}

	req, err := http.NewRequest(method, path, &body)
	require.NoError(t, err, "build request")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, req)
	respBytes, err := io.ReadAll(recorder.Body)
	require.NoError(t, err, "read response")
	require.Equal(t, expectedStatus, recorder.Code, "%s %s: %s", method, path, respBytes)
	return respBytes
}

func doJSON[T any](t *testing.T, handler http.Handler, method, path string, payload any, expectedStatus int) T {
	t.Helper()

	var value T
	respBytes := doRaw(t, handler, method, path, payload, expectedStatus)
	if len(respBytes) == 0 {
		return value
	}
	require.NoError(t, json.Unmarshal(respBytes, &value), "decode response")
	return value
}
