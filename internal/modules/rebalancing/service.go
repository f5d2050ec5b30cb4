package rebalancing

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantcore/internal/config"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
)

// weightSumTolerance bounds how far target weights may drift from full
// investment before the request is rejected.
const weightSumTolerance = 1e-4

// Service builds rebalancing plans from live portfolio state.
type Service struct {
	portfolios *portfolio.Service
	defaults   config.Defaults
	log        zerolog.Logger
}

// NewService creates a new rebalancing service
func NewService(portfolios *portfolio.Service, defaults config.Defaults, log zerolog.Logger) *Service {
	return &Service{
		portfolios: portfolios,
		defaults:   defaults,
		log:        log.With().Str("component", "rebalancing").Logger(),
	}
}

// Plan proposes the trades that move the portfolio to the target weights.
func (s *Service) Plan(ctx context.Context, portfolioID, ownerID int64, targets map[string]float64) (Plan, error) {
	if err := validateTargets(targets); err != nil {
		return Plan{}, err
	}

	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return Plan{}, err
	}

	plan := BuildPlan(snap, targets, s.defaults)

	s.log.Info().
		Int64("portfolio_id", portfolioID).
		Int("trades", len(plan.Trades)).
		Float64("turnover", plan.Turnover).
		Str("estimated_commission", plan.EstimatedCommission.String()).
		Msg("Built rebalancing plan")

	return plan, nil
}

func validateTargets(targets map[string]float64) error {
	if len(targets) == 0 {
		return fmt.Errorf("target weights are required")
	}

	total := 0.0
	for ticker, weight := range targets {
		if weight < 0 {
			return fmt.Errorf("target weight for %s is negative", ticker)
		}
		total += weight
	}
	if math.Abs(total-1) > weightSumTolerance {
		return fmt.Errorf("target weights sum to %.6f, want 1", total)
	}

	return nil
}
