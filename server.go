package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"solarquote/calc"
	"solarquote/models"
	"solarquote/store"
)

var errBadRequest = errors.New("bad request")

type Server struct {
	store *store.Store
	calc  *calc.Calculator
}

// usageRequest is the household part of every quote request. A zip_code
// fills the rate and base charge the request leaves out.
type usageRequest struct {
	MonthlyBill     float64  `json:"monthly_bill"`
	ElectricityRate float64  `json:"electricity_rate"`
	BaseCost        *float64 `json:"base_cost"`
	ZipCode         string   `json:"zip_code"`
}

type quoteRequest struct {
	usageRequest
	System     *calc.SystemConfiguration `json:"system"`
	Incentives *calc.Incentives          `json:"incentives"`
	Preset     string                    `json:"preset"`
	Payment    calc.PaymentOption        `json:"payment"`
	// PanelChange adjusts the sized (or given) panel count, clamped to
	// [1, calc.MaxPanels].
	PanelChange int `json:"panel_change"`
	// Utility names the provider on a lead when no zip_code is given.
	Utility string `json:"utility"`
}

type productionRequest struct {
	SystemSizeKW   float64 `json:"system_size_kw"`
	Panels         int     `json:"panels"`
	AnnualUsageKWh float64 `json:"annual_usage_kwh"`
}

type productionResponse struct {
	Production     calc.Production `json:"production"`
	OffsetPercent  float64         `json:"offset_percent"`
	CarbonOffsetKg float64         `json:"carbon_offset_kg"`
}

type costsRequest struct {
	System     calc.SystemConfiguration `json:"system"`
	Incentives *calc.Incentives         `json:"incentives"`
	Preset     string                   `json:"preset"`
}

type financingRequest struct {
	Principal float64  `json:"principal"`
	APR       *float64 `json:"apr"`
	TermYears *int     `json:"term_years"`
	// Preset supplies apr and term_years when they are omitted.
	Preset   string `json:"preset"`
	Schedule bool   `json:"schedule"`
}

type financingResponse struct {
	Loan     calc.Loan       `json:"loan"`
	Terms    calc.LoanTerms  `json:"terms"`
	Schedule []calc.LoanYear `json:"schedule,omitempty"`
}

type presetsResponse struct {
	Default string        `json:"default"`
	Presets []calc.Preset `json:"presets"`
}

type utilityRequest struct {
	ZipCode         string   `json:"zip_code"`
	UtilityName     string   `json:"utility_name"`
	CompanyID       string   `json:"company_id"`
	UtilityType     string   `json:"utility_type"`
	State           string   `json:"state"`
	ElectricityRate float64  `json:"electricity_rate"`
	BaseCost        *float64 `json:"base_cost"`
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/presets", s.handleListPresets)
	mux.HandleFunc("GET /api/packages", s.handlePackages)
	mux.HandleFunc("POST /api/sizing", s.handleSizing)
	mux.HandleFunc("POST /api/production", s.handleProduction)
	mux.HandleFunc("POST /api/costs", s.handleCosts)
	mux.HandleFunc("POST /api/financing", s.handleFinancing)
	mux.HandleFunc("POST /api/savings", s.handleSavings)
	mux.HandleFunc("POST /api/quote", s.handleQuote)
	mux.HandleFunc("POST /api/leads/summary", s.handleLeadSummary)
	mux.HandleFunc("GET /api/utilities", s.handleListUtilities)
	mux.HandleFunc("POST /api/utilities", s.handleCreateUtility)
	mux.HandleFunc("GET /api/utilities/stats", s.handleUtilityStats)
	mux.HandleFunc("GET /api/utilities/{zip}", s.handleGetUtility)
	mux.HandleFunc("PUT /api/utilities/{zip}", s.handleUpdateUtility)
	mux.HandleFunc("DELETE /api/utilities/{zip}", s.handleDeleteUtility)
	return mux
}

func (s *Server) handleListPresets(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, presetsResponse{
		Default: s.calc.DefaultPreset(),
		Presets: s.calc.Presets(),
	})
}

func (s *Server) handlePackages(w http.ResponseWriter, r *http.Request) {
	req, err := parsePackagesQuery(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	quoteReq, _, err := s.quoteRequest(req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	quotes, err := s.calc.QuotePackages(quoteReq)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quotes)
}

func (s *Server) handleSizing(w http.ResponseWriter, r *http.Request) {
	var req usageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	usage, _, err := s.resolveUsage(req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	sizing, err := calc.Size(usage)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sizing)
}

func (s *Server) handleProduction(w http.ResponseWriter, r *http.Request) {
	var req productionRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	sizeKW := req.SystemSizeKW
	if sizeKW == 0 && req.Panels != 0 {
		system := calc.SystemConfiguration{Panels: req.Panels}
		if err := system.Validate(); err != nil {
			writeFailure(w, err)
			return
		}
		sizeKW = system.SystemSizeKW()
	}
	production, err := calc.EstimateProduction(sizeKW)
	if err != nil {
		writeFailure(w, err)
		return
	}
	resp := productionResponse{
		Production:     production,
		CarbonOffsetKg: calc.CarbonOffsetKg(production),
	}
	if req.AnnualUsageKWh > 0 {
		resp.OffsetPercent = calc.OffsetPercent(production, req.AnnualUsageKWh)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCosts(w http.ResponseWriter, r *http.Request) {
	var req costsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	preset, err := s.calc.Preset(req.Preset)
	if err != nil {
		writeFailure(w, err)
		return
	}
	costs, err := calc.Costs(req.System, incentivesOrDefault(req.Incentives), preset)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, costs)
}

func (s *Server) handleFinancing(w http.ResponseWriter, r *http.Request) {
	var req financingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	loan := calc.Loan{Principal: req.Principal}
	if req.APR == nil || req.TermYears == nil {
		preset, err := s.calc.Preset(req.Preset)
		if err != nil {
			writeFailure(w, err)
			return
		}
		loan = preset.Loan(req.Principal)
	}
	if req.APR != nil {
		loan.APR = *req.APR
	}
	if req.TermYears != nil {
		loan.TermYears = *req.TermYears
	}
	terms, err := calc.Amortize(loan)
	if err != nil {
		writeFailure(w, err)
		return
	}
	resp := financingResponse{Loan: loan, Terms: terms}
	if req.Schedule {
		if resp.Schedule, err = calc.Schedule(loan); err != nil {
			writeFailure(w, err)
			return
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	var req calc.SavingsInput
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	if req.Years == 0 {
		req.Years = calc.ProjectionYears
	}
	projection, err := calc.ProjectSavings(req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, projection)
}

func (s *Server) handleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	quoteReq, _, err := s.quoteRequest(req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	quote, err := s.calc.Quote(quoteReq)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, quote)
}

func (s *Server) handleLeadSummary(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeFailure(w, err)
		return
	}
	quoteReq, utility, err := s.quoteRequest(req)
	if err != nil {
		writeFailure(w, err)
		return
	}
	quote, err := s.calc.Quote(quoteReq)
	if err != nil {
		writeFailure(w, err)
		return
	}
	if utility == "" {
		utility = strings.TrimSpace(req.Utility)
	}
	writeJSON(w, http.StatusOK, models.NewLeadSummary(quoteReq.Usage.MonthlyBill, quote, utility))
}

func (s *Server) handleListUtilities(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	writeJSON(w, http.StatusOK, s.store.List(store.UtilityFilter{
		State:   query.Get("state"),
		Utility: query.Get("utility"),
	}))
}

func (s *Server) handleCreateUtility(w http.ResponseWriter, r *http.Request) {
	input, err := decodeUtilityRequest(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	utility, err := s.store.Create(input)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, utility)
}

func (s *Server) handleUtilityStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.store.Stats())
}

func (s *Server) handleGetUtility(w http.ResponseWriter, r *http.Request) {
	utility, err := s.store.Get(r.PathValue("zip"))
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utility)
}

func (s *Server) handleUpdateUtility(w http.ResponseWriter, r *http.Request) {
	input, err := decodeUtilityRequest(r)
	if err != nil {
		writeFailure(w, err)
		return
	}
	utility, err := s.store.Update(r.PathValue("zip"), input)
	if err != nil {
		writeFailure(w, err)
		return
	}
	writeJSON(w, http.StatusOK, utility)
}

func (s *Server) handleDeleteUtility(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Delete(r.PathValue("zip")); err != nil {
		writeFailure(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// resolveUsage returns the usage profile and, when a ZIP was looked up,
// the utility serving it.
func (s *Server) resolveUsage(req usageRequest) (calc.UsageProfile, string, error) {
	usage := calc.UsageProfile{MonthlyBill: req.MonthlyBill}
	var name string
	if zip := strings.TrimSpace(req.ZipCode); zip != "" {
		utility, err := s.store.Get(zip)
		if err != nil {
			return calc.UsageProfile{}, "", fmt.Errorf("zip %s: %w", zip, err)
		}
		usage = utility.Usage(req.MonthlyBill)
		name = utility.UtilityName
	}
	if req.ElectricityRate != 0 {
		usage.ElectricityRate = req.ElectricityRate
	}
	if req.BaseCost != nil {
		usage.BaseCost = *req.BaseCost
	}
	return usage, name, nil
}

func (s *Server) quoteRequest(req quoteRequest) (calc.QuoteRequest, string, error) {
	usage, utility, err := s.resolveUsage(req.usageRequest)
	if err != nil {
		return calc.QuoteRequest{}, "", err
	}
	system := req.System
	if req.PanelChange != 0 {
		adjusted, err := adjustPanels(usage, req.System, req.PanelChange)
		if err != nil {
			return calc.QuoteRequest{}, "", err
		}
		system = &adjusted
	}
	return calc.QuoteRequest{
		Usage:      usage,
		System:     system,
		Incentives: incentivesOrDefault(req.Incentives),
		Preset:     req.Preset,
		Payment:    req.Payment,
	}, utility, nil
}

// adjustPanels applies a +/- panel change to the given system, or to the
// sized system when none is given.
func adjustPanels(usage calc.UsageProfile, system *calc.SystemConfiguration, change int) (calc.SystemConfiguration, error) {
	var adjusted calc.SystemConfiguration
	if system != nil {
		adjusted = *system
	} else {
		sizing, err := calc.Size(usage)
		if err != nil {
			return calc.SystemConfiguration{}, err
		}
		adjusted.Panels = sizing.Panels
	}
	adjusted.Panels = calc.ClampPanels(adjusted.Panels + change)
	return adjusted, nil
}

func parsePackagesQuery(r *http.Request) (quoteRequest, error) {
	query := r.URL.Query()
	req := quoteRequest{
		usageRequest: usageRequest{ZipCode: query.Get("zip")},
		Preset:       query.Get("preset"),
	}
	var err error
	if req.MonthlyBill, err = parseQueryFloat(query.Get("monthly_bill"), "monthly_bill"); err != nil {
		return quoteRequest{}, err
	}
	if req.ElectricityRate, err = parseQueryFloat(query.Get("electricity_rate"), "electricity_rate"); err != nil {
		return quoteRequest{}, err
	}
	if raw := strings.TrimSpace(query.Get("base_cost")); raw != "" {
		base, err := parseQueryFloat(raw, "base_cost")
		if err != nil {
			return quoteRequest{}, err
		}
		req.BaseCost = &base
	}
	if raw := strings.TrimSpace(query.Get("payment")); raw != "" {
		if req.Payment, err = calc.ParsePaymentOption(raw); err != nil {
			return quoteRequest{}, err
		}
	}
	return req, nil
}

func parseQueryFloat(raw, name string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: invalid %s", errBadRequest, name)
	}
	return v, nil
}

func decodeUtilityRequest(r *http.Request) (store.UtilityInput, error) {
	var req utilityRequest
	if err := decodeJSON(r, &req); err != nil {
		return store.UtilityInput{}, err
	}
	return store.UtilityInput{
		ZipCode:         req.ZipCode,
		UtilityName:     req.UtilityName,
		CompanyID:       req.CompanyID,
		UtilityType:     req.UtilityType,
		State:           req.State,
		ElectricityRate: req.ElectricityRate,
		BaseCost:        req.BaseCost,
	}, nil
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", errBadRequest, err)
	}
	return nil
}

func incentivesOrDefault(in *calc.Incentives) calc.Incentives {
	if in == nil {
		return calc.DefaultIncentives()
	}
	return *in
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest),
		errors.Is(err, calc.ErrInvalidInput),
		errors.Is(err, store.ErrInvalidUtility):
		return http.StatusBadRequest
	case errors.Is(err, calc.ErrUnknownPreset), errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeFailure(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}
