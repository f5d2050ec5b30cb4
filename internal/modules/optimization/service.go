package optimization

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/mat"

	"github.com/quantfolio/quantcore/internal/config"
	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/marketdata"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
)

const (
	defaultTargetVolatility = 0.15
	defaultTargetReturn     = 0.15
	defaultRiskAversion     = 2.5
)

// Service is the allocation engine. Every method works from the same model
// inputs: annualized mean returns and covariance estimated over the long
// lookback window.
type Service struct {
	portfolios *portfolio.Service
	market     *marketdata.Service
	defaults   config.Defaults
	src        rand.Source // overridable for deterministic frontier sampling
	log        zerolog.Logger
}

// NewService creates a new optimization service
func NewService(
	portfolios *portfolio.Service,
	market *marketdata.Service,
	defaults config.Defaults,
	log zerolog.Logger,
) *Service {
	return &Service{
		portfolios: portfolios,
		market:     market,
		defaults:   defaults,
		log:        log.With().Str("component", "optimization").Logger(),
	}
}

// Optimize solves the requested allocation for the portfolio's holdings.
func (s *Service) Optimize(ctx context.Context, portfolioID, ownerID int64, req Request) (Result, error) {
	result := Result{PortfolioID: portfolioID, Method: req.Method}

	prob, err := s.buildProblem(ctx, portfolioID, ownerID, req)
	if err != nil {
		return result, err
	}

	if len(prob.tickers) == 1 {
		result.Weights = map[string]float64{prob.tickers[0]: 1}
		result.ExpectedReturn = prob.mu[0]
		result.Volatility = prob.volatility([]float64{1})
		if result.Volatility > 0 {
			result.SharpeRatio = (result.ExpectedReturn - prob.riskFree) / result.Volatility
		}
		return result, nil
	}

	var weights []float64
	switch req.Method {
	case MethodMaxSharpe:
		weights, err = prob.maxSharpe()
	case MethodMinVolatility:
		weights, err = prob.minVolatility()
	case MethodEfficientRisk:
		target := req.TargetVolatility
		if target <= 0 {
			target = defaultTargetVolatility
		}
		weights, err = prob.efficientRisk(target)
	case MethodEfficientReturn:
		target := req.TargetReturn
		if target <= 0 {
			target = defaultTargetReturn
		}
		weights, err = prob.efficientReturn(target)
	case MethodBlackLitterman:
		delta := req.RiskAversion
		if delta <= 0 {
			delta = defaultRiskAversion
		}
		posterior, blErr := blackLittermanReturns(prob.tickers, prob.cov, req.Views, delta)
		if blErr != nil {
			return result, blErr
		}
		prob.mu = posterior
		weights, err = prob.maxSharpe()
	case MethodRiskParity:
		weights, err = riskParity(prob.tickers, prob.cov)
	case MethodHRP:
		weights, err = hierarchicalRiskParity(prob.tickers, prob.cov, prob.corr())
	default:
		return result, fmt.Errorf("unknown optimization method: %s", req.Method)
	}
	if err != nil {
		return result, err
	}

	result.Weights = cleanWeights(prob.tickers, weights)
	cleaned := make([]float64, len(prob.tickers))
	for i, ticker := range prob.tickers {
		cleaned[i] = result.Weights[ticker]
	}
	result.ExpectedReturn = prob.portfolioReturn(cleaned)
	result.Volatility = prob.volatility(cleaned)
	if result.Volatility > 0 {
		result.SharpeRatio = (result.ExpectedReturn - prob.riskFree) / result.Volatility
	}

	s.log.Info().
		Int64("portfolio_id", portfolioID).
		Str("method", string(req.Method)).
		Int("positions", len(result.Weights)).
		Float64("expected_return", result.ExpectedReturn).
		Float64("volatility", result.Volatility).
		Msg("Solved allocation")

	return result, nil
}

// Frontier samples the attainable risk/return region for the holdings and
// marks where the current allocation sits.
func (s *Service) Frontier(ctx context.Context, portfolioID, ownerID int64, points int) (Frontier, error) {
	prob, err := s.buildProblem(ctx, portfolioID, ownerID, Request{})
	if err != nil {
		return Frontier{}, err
	}

	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return Frontier{}, err
	}

	sampled, err := sampleFrontier(prob, points, s.source())
	if err != nil {
		return Frontier{}, err
	}

	current := make([]float64, len(prob.tickers))
	for i, ticker := range prob.tickers {
		current[i] = snap.Weights[ticker]
	}

	return Frontier{
		Portfolios: sampled,
		Current:    frontierPoint(prob, current),
	}, nil
}

// buildProblem estimates annualized model inputs from aligned history.
func (s *Service) buildProblem(ctx context.Context, portfolioID, ownerID int64, req Request) (*problem, error) {
	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return nil, err
	}
	if len(snap.Positions) == 0 {
		return nil, fmt.Errorf("portfolio %d has no positions: %w", portfolioID, domain.ErrInsufficientData)
	}

	to := time.Now().UTC()
	from := to.AddDate(0, 0, -s.defaults.OptimizerLookbackD)
	stats, err := s.market.AlignedReturns(ctx, snap.Tickers(), from, to)
	if err != nil {
		return nil, err
	}
	if stats.Observations() < s.defaults.MinModelPoints {
		return nil, fmt.Errorf("%d aligned observations, need %d: %w",
			stats.Observations(), s.defaults.MinModelPoints, domain.ErrInsufficientData)
	}

	days := s.defaults.TradingDays
	mu := stats.Means()
	for i := range mu {
		mu[i] *= days
	}

	n := len(stats.Tickers)
	daily := stats.CovarianceMatrix()
	cov := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			cov.SetSym(i, j, daily.At(i, j)*days)
		}
	}

	return newProblem(stats.Tickers, mu, cov, req.MinPosition, req.MaxPosition, s.defaults.RiskFreeRate)
}

func (s *Service) source() rand.Source {
	if s.src != nil {
		return s.src
	}
	return rand.NewPCG(rand.Uint64(), rand.Uint64())
}
