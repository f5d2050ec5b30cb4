package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/modules/attribution"
	"github.com/quantfolio/quantcore/internal/modules/compliance"
	"github.com/quantfolio/quantcore/internal/modules/optimization"
	"github.com/quantfolio/quantcore/internal/modules/rebalancing"
	"github.com/quantfolio/quantcore/internal/modules/risk"
)

// Handlers wires the analytics engines to HTTP. Each handler parses the
// request, calls one engine operation and encodes the result.
type Handlers struct {
	risk        *risk.Service
	attribution *attribution.Service
	optimizer   *optimization.Service
	rebalancer  *rebalancing.Service
	compliance  *compliance.Service
	log         zerolog.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(
	riskSvc *risk.Service,
	attributionSvc *attribution.Service,
	optimizerSvc *optimization.Service,
	rebalancerSvc *rebalancing.Service,
	complianceSvc *compliance.Service,
	log zerolog.Logger,
) *Handlers {
	return &Handlers{
		risk:        riskSvc,
		attribution: attributionSvc,
		optimizer:   optimizerSvc,
		rebalancer:  rebalancerSvc,
		compliance:  complianceSvc,
		log:         log.With().Str("component", "handlers").Logger(),
	}
}

// HandleHealth responds to liveness probes.
func (h *Handlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{"status": "ok"})
}

// HandleSystemStatus reports service identity and time.
func (h *Handlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, map[string]string{
		"service": "quantcore",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// HandleVaR computes Value at Risk.
// GET /api/portfolios/{portfolioID}/risk/var?method=&confidence=&horizon=&simulations=
func (h *Handlers) HandleVaR(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	params := risk.VaRParams{
		Method:      risk.VaRMethod(r.URL.Query().Get("method")),
		Confidence:  queryFloat(r, "confidence", 0.95),
		HorizonDays: int(queryFloat(r, "horizon", 1)),
		Simulations: int(queryFloat(r, "simulations", 0)),
	}

	result, err := h.risk.VaR(r.Context(), portfolioID, ownerID, params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleCVaR computes expected shortfall.
func (h *Handlers) HandleCVaR(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	params := risk.VaRParams{
		Confidence:  queryFloat(r, "confidence", 0.95),
		HorizonDays: int(queryFloat(r, "horizon", 1)),
	}

	result, err := h.risk.CVaR(r.Context(), portfolioID, ownerID, params)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleStressTest applies a named or custom shock scenario.
// POST body: {"scenario": "2008", "custom_shocks": {"AAPL": -0.3}}
func (h *Handlers) HandleStressTest(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	var body struct {
		Scenario     string             `json:"scenario"`
		CustomShocks map[string]float64 `json:"custom_shocks"`
	}
	if !h.readJSON(w, r, &body) {
		return
	}

	result, err := h.risk.StressTest(r.Context(), portfolioID, ownerID, body.Scenario, body.CustomShocks)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleRiskMetrics computes the composite risk bundle.
func (h *Handlers) HandleRiskMetrics(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	result, err := h.risk.Metrics(r.Context(), portfolioID, ownerID, int(queryFloat(r, "lookback", 0)))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleCorrelation builds the holdings correlation matrix.
func (h *Handlers) HandleCorrelation(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	result, err := h.risk.Correlation(r.Context(), portfolioID, ownerID, int(queryFloat(r, "lookback", 0)))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleSectorExposures aggregates weight by sector.
func (h *Handlers) HandleSectorExposures(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	result, err := h.risk.SectorExposures(r.Context(), portfolioID, ownerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleAttribution runs the Brinson-Fachler decomposition.
// GET /api/portfolios/{portfolioID}/attribution?start=2024-01-01&end=2024-06-30
func (h *Handlers) HandleAttribution(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	start, end, err := dateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.attribution.Attribution(r.Context(), portfolioID, ownerID, start, end, nil)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleReturns reports realized portfolio returns over a window.
func (h *Handlers) HandleReturns(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	start, end, err := dateRange(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := h.attribution.Returns(r.Context(), portfolioID, ownerID, start, end)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleOptimize solves an allocation.
// POST body mirrors optimization.Request.
func (h *Handlers) HandleOptimize(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	var body struct {
		Method           string             `json:"method"`
		MinPosition      float64            `json:"min_position"`
		MaxPosition      float64            `json:"max_position"`
		TargetVolatility float64            `json:"target_volatility"`
		TargetReturn     float64            `json:"target_return"`
		Views            map[string]float64 `json:"views"`
		RiskAversion     float64            `json:"risk_aversion"`
	}
	if !h.readJSON(w, r, &body) {
		return
	}

	req := optimization.Request{
		Method:           optimization.Method(body.Method),
		MinPosition:      body.MinPosition,
		MaxPosition:      body.MaxPosition,
		TargetVolatility: body.TargetVolatility,
		TargetReturn:     body.TargetReturn,
		Views:            body.Views,
		RiskAversion:     body.RiskAversion,
	}
	if req.Method == "" {
		req.Method = optimization.MethodMaxSharpe
	}

	result, err := h.optimizer.Optimize(r.Context(), portfolioID, ownerID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleFrontier samples the efficient frontier.
func (h *Handlers) HandleFrontier(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	result, err := h.optimizer.Frontier(r.Context(), portfolioID, ownerID, int(queryFloat(r, "points", 0)))
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleRebalance builds a trade plan toward target weights.
// POST body: {"targets": {"AAPL": 0.5, "MSFT": 0.5}}
func (h *Handlers) HandleRebalance(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	var body struct {
		Targets map[string]float64 `json:"targets"`
	}
	if !h.readJSON(w, r, &body) {
		return
	}

	result, err := h.rebalancer.Plan(r.Context(), portfolioID, ownerID, body.Targets)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleComplianceCheck runs the active rules against the live portfolio.
// POST body: {"rule_ids": [1, 2]} (empty means all active rules)
func (h *Handlers) HandleComplianceCheck(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	var body struct {
		RuleIDs []int64 `json:"rule_ids"`
	}
	if !h.readJSON(w, r, &body) {
		return
	}

	result, err := h.compliance.Check(r.Context(), portfolioID, ownerID, body.RuleIDs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandlePreTradeCheck evaluates a hypothetical order without persisting.
// POST body: {"ticker": "AAPL", "side": "buy", "shares": "10", "price": "185.50"}
func (h *Handlers) HandlePreTradeCheck(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	var body struct {
		Ticker string          `json:"ticker"`
		Side   string          `json:"side"`
		Shares decimal.Decimal `json:"shares"`
		Price  decimal.Decimal `json:"price"`
	}
	if !h.readJSON(w, r, &body) {
		return
	}

	order := compliance.Order{
		Ticker: body.Ticker,
		Side:   domain.TradeSide(body.Side),
		Shares: body.Shares,
		Price:  body.Price,
	}

	result, err := h.compliance.PreTrade(r.Context(), portfolioID, ownerID, order)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleOpenViolations lists unresolved violations.
func (h *Handlers) HandleOpenViolations(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	result, err := h.compliance.OpenViolations(r.Context(), portfolioID, ownerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, result)
}

// HandleResolveViolation marks a recorded violation as handled.
// POST /api/portfolios/{portfolioID}/compliance/violations/{violationID}/resolve
func (h *Handlers) HandleResolveViolation(w http.ResponseWriter, r *http.Request) {
	portfolioID, ownerID, ok := h.scope(w, r)
	if !ok {
		return
	}

	violationID := chi.URLParam(r, "violationID")
	if err := h.compliance.ResolveViolation(r.Context(), portfolioID, ownerID, violationID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, map[string]string{"status": "resolved", "violation_id": violationID})
}

// scope parses the portfolio id from the path and the owner from the query.
func (h *Handlers) scope(w http.ResponseWriter, r *http.Request) (portfolioID, ownerID int64, ok bool) {
	portfolioID, err := strconv.ParseInt(chi.URLParam(r, "portfolioID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid portfolio id", http.StatusBadRequest)
		return 0, 0, false
	}

	ownerID, err = strconv.ParseInt(r.URL.Query().Get("owner_id"), 10, 64)
	if err != nil {
		http.Error(w, "owner_id is required", http.StatusBadRequest)
		return 0, 0, false
	}

	return portfolioID, ownerID, true
}

func (h *Handlers) readJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	// An empty body means "use defaults".
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handlers) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError maps the domain error taxonomy to HTTP statuses.
func (h *Handlers) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrInsufficientData), errors.Is(err, domain.ErrNumericalFailure):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, domain.ErrUpstreamUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		h.log.Error().Err(err).Msg("Request failed")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func queryFloat(r *http.Request, key string, fallback float64) float64 {
	if raw := r.URL.Query().Get(key); raw != "" {
		if v, err := strconv.ParseFloat(raw, 64); err == nil {
			return v
		}
	}
	return fallback
}

func dateRange(r *http.Request) (time.Time, time.Time, error) {
	const layout = "2006-01-02"

	end := time.Now().UTC()
	start := end.AddDate(-1, 0, 0)

	if raw := r.URL.Query().Get("start"); raw != "" {
		t, err := time.Parse(layout, raw)
		if err != nil {
			return start, end, errors.New("invalid start date, want YYYY-MM-DD")
		}
		start = t
	}
	if raw := r.URL.Query().Get("end"); raw != "" {
		t, err := time.Parse(layout, raw)
		if err != nil {
			return start, end, errors.New("invalid end date, want YYYY-MM-DD")
		}
		end = t
	}

	return start, end, nil
}
