package risk

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantcore/internal/config"
	"github.com/quantfolio/quantcore/internal/marketdata"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
	"github.com/quantfolio/quantcore/pkg/formulas"
)

// Service is the risk engine: VaR/CVaR, stress testing, correlation and the
// composite risk-metric bundle. All operations are request-scoped and
// stateless; insufficient data degrades to documented neutral results.
type Service struct {
	portfolios *portfolio.Service
	market     *marketdata.Service
	classifier sectorLookup
	defaults   config.Defaults
	src        rand.Source // overridable for deterministic simulations
	log        zerolog.Logger
}

type sectorLookup interface {
	Sector(ticker string) string
}

// NewService creates a new risk service
func NewService(
	portfolios *portfolio.Service,
	market *marketdata.Service,
	classifier sectorLookup,
	defaults config.Defaults,
	log zerolog.Logger,
) *Service {
	return &Service{
		portfolios: portfolios,
		market:     market,
		classifier: classifier,
		defaults:   defaults,
		log:        log.With().Str("component", "risk").Logger(),
	}
}

// VaR computes Value at Risk with the requested estimator. An empty
// portfolio or missing price history yields a zero result, not an error.
func (s *Service) VaR(ctx context.Context, portfolioID, ownerID int64, params VaRParams) (VaRResult, error) {
	result := VaRResult{
		Method:         params.Method,
		Confidence:     params.Confidence,
		HorizonDays:    params.HorizonDays,
		Amount:         decimal.Zero,
		PortfolioValue: decimal.Zero,
	}

	snap, stats, err := s.load(ctx, portfolioID, ownerID)
	if err != nil {
		return result, err
	}
	result.PortfolioValue = snap.TotalValue
	if stats.Empty() {
		return result, nil
	}

	portfolioReturns := stats.PortfolioReturns(snap.Weights)

	switch params.Method {
	case MethodParametric:
		result.Fraction = ParametricVaR(portfolioReturns, params.Confidence, params.HorizonDays)
	case MethodMonteCarlo:
		simulations := params.Simulations
		if simulations <= 0 {
			simulations = s.defaults.MonteCarloDraws
		}
		fraction, err := MonteCarloVaR(stats, snap.Weights, params.Confidence, params.HorizonDays, simulations, s.source())
		if err != nil {
			return result, err
		}
		result.Fraction = fraction
	default:
		result.Fraction = HistoricalVaR(portfolioReturns, params.Confidence, params.HorizonDays)
	}

	result.Amount = snap.TotalValue.Mul(decimal.NewFromFloat(result.Fraction))

	s.log.Debug().
		Int64("portfolio_id", portfolioID).
		Str("method", string(params.Method)).
		Float64("confidence", params.Confidence).
		Float64("var_fraction", result.Fraction).
		Msg("Calculated VaR")

	return result, nil
}

// CVaR computes expected shortfall from the historical distribution.
func (s *Service) CVaR(ctx context.Context, portfolioID, ownerID int64, params VaRParams) (CVaRResult, error) {
	result := CVaRResult{
		Confidence:     params.Confidence,
		HorizonDays:    params.HorizonDays,
		Amount:         decimal.Zero,
		PortfolioValue: decimal.Zero,
	}

	snap, stats, err := s.load(ctx, portfolioID, ownerID)
	if err != nil {
		return result, err
	}
	result.PortfolioValue = snap.TotalValue
	if stats.Empty() {
		return result, nil
	}

	result.Fraction = HistoricalCVaR(stats.PortfolioReturns(snap.Weights), params.Confidence, params.HorizonDays)
	result.Amount = snap.TotalValue.Mul(decimal.NewFromFloat(result.Fraction))

	return result, nil
}

// StressTest applies a named or custom shock scenario to current positions.
func (s *Service) StressTest(ctx context.Context, portfolioID, ownerID int64, scenario string, customShocks map[string]float64) (StressResult, error) {
	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return StressResult{}, err
	}

	return StressTest(snap.Positions, scenario, customShocks, s.defaults.StressShock), nil
}

// Correlation builds the pairwise correlation matrix of the holdings.
func (s *Service) Correlation(ctx context.Context, portfolioID, ownerID int64, lookbackDays int) (CorrelationReport, error) {
	report := CorrelationReport{Matrix: map[string]map[string]float64{}}

	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return report, err
	}

	from, to := s.window(lookbackDays)
	stats, err := s.market.AlignedReturns(ctx, snap.Tickers(), from, to)
	if err != nil {
		return report, err
	}
	if stats.Empty() {
		return report, nil
	}

	matrix := stats.CorrelationMatrix()
	report.Tickers = stats.Tickers
	for i, a := range stats.Tickers {
		row := make(map[string]float64, len(stats.Tickers))
		for j, b := range stats.Tickers {
			row[b] = matrix.At(i, j)
		}
		report.Matrix[a] = row
	}
	report.AverageCorrelation = stats.AverageCorrelation()

	return report, nil
}

// Metrics computes the composite risk bundle against the portfolio's
// declared benchmark. A benchmark without price data degrades to beta=1 and
// zero alpha/tracking-error/information-ratio, the documented neutral case.
func (s *Service) Metrics(ctx context.Context, portfolioID, ownerID int64, lookbackDays int) (Metrics, error) {
	metrics := Metrics{
		PortfolioID: portfolioID,
		AsOf:        time.Now().UTC(),
		Beta:        1.0,
		VaR95:       decimal.Zero,
		CVaR95:      decimal.Zero,
	}

	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return metrics, err
	}

	from, to := s.window(lookbackDays)
	stats, err := s.market.AlignedReturns(ctx, snap.Tickers(), from, to)
	if err != nil {
		return metrics, err
	}
	if stats.Empty() {
		metrics.Beta = 0
		return metrics, nil
	}

	portfolioReturns := stats.PortfolioReturns(snap.Weights)
	days := s.defaults.TradingDays

	metrics.Volatility = formulas.AnnualizedVolatility(portfolioReturns, days)
	metrics.SharpeRatio = formulas.SharpeRatio(portfolioReturns, s.defaults.RiskFreeRate, days)
	metrics.SortinoRatio = formulas.SortinoRatio(portfolioReturns, s.defaults.RiskFreeRate, days)
	metrics.MaxDrawdown = formulas.MaxDrawdown(portfolioReturns)

	varFraction := HistoricalVaR(portfolioReturns, 0.95, 1)
	cvarFraction := HistoricalCVaR(portfolioReturns, 0.95, 1)
	metrics.VaR95 = snap.TotalValue.Mul(decimal.NewFromFloat(varFraction))
	metrics.CVaR95 = snap.TotalValue.Mul(decimal.NewFromFloat(cvarFraction))

	benchmark := snap.Portfolio.Benchmark
	if benchmark == "" {
		benchmark = "SPY"
	}
	benchDates, benchReturns, err := s.market.ReturnSeries(ctx, benchmark, from, to)
	if err != nil {
		return metrics, err
	}

	alignedPortfolio, alignedBench := alignByDate(stats.Dates, portfolioReturns, benchDates, benchReturns)
	if len(alignedBench) >= 2 {
		metrics.Beta = formulas.Beta(alignedPortfolio, alignedBench)
		metrics.Alpha = formulas.Alpha(alignedPortfolio, alignedBench, s.defaults.RiskFreeRate, days)
		metrics.TrackingError = formulas.TrackingError(alignedPortfolio, alignedBench, days)
		metrics.InformationRatio = formulas.InformationRatio(alignedPortfolio, alignedBench, days)
	}

	return metrics, nil
}

// SectorExposures aggregates portfolio weight by sector and reports the
// Herfindahl concentration index.
func (s *Service) SectorExposures(ctx context.Context, portfolioID, ownerID int64) (SectorExposure, error) {
	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return SectorExposure{}, err
	}

	return sectorExposure(snap, s.classifier), nil
}

func (s *Service) load(ctx context.Context, portfolioID, ownerID int64) (portfolio.Snapshot, *marketdata.Statistics, error) {
	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return portfolio.Snapshot{}, nil, err
	}
	if len(snap.Positions) == 0 {
		return snap, &marketdata.Statistics{}, nil
	}

	from, to := s.window(s.defaults.LookbackDays)
	stats, err := s.market.AlignedReturns(ctx, snap.Tickers(), from, to)
	if err != nil {
		return snap, nil, err
	}

	return snap, stats, nil
}

func (s *Service) window(lookbackDays int) (time.Time, time.Time) {
	if lookbackDays <= 0 {
		lookbackDays = s.defaults.LookbackDays
	}
	to := time.Now().UTC()
	return to.AddDate(0, 0, -lookbackDays), to
}

func (s *Service) source() rand.Source {
	if s.src != nil {
		return s.src
	}
	return rand.NewPCG(rand.Uint64(), rand.Uint64())
}

// alignByDate inner-joins two dated return series.
func alignByDate(datesA []string, a []float64, datesB []string, b []float64) ([]float64, []float64) {
	lookup := make(map[string]float64, len(datesB))
	for i, date := range datesB {
		lookup[date] = b[i]
	}

	var outA, outB []float64
	for i, date := range datesA {
		if v, ok := lookup[date]; ok {
			outA = append(outA, a[i])
			outB = append(outB, v)
		}
	}

	return outA, outB
}
