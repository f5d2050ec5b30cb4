package portfolio

import (
	"github.com/rs/zerolog"
)

// Service assembles portfolio snapshots for the analytics engines.
type Service struct {
	portfolios *PortfolioRepository
	positions  *PositionRepository
	log        zerolog.Logger
}

// NewService creates a new portfolio service
func NewService(portfolios *PortfolioRepository, positions *PositionRepository, log zerolog.Logger) *Service {
	return &Service{
		portfolios: portfolios,
		positions:  positions,
		log:        log.With().Str("component", "portfolio").Logger(),
	}
}

// Snapshot loads a portfolio and its positions and derives weights. Returns
// domain.ErrNotFound when the portfolio is missing or owned by someone else.
func (s *Service) Snapshot(portfolioID, ownerID int64) (Snapshot, error) {
	p, err := s.portfolios.Get(portfolioID, ownerID)
	if err != nil {
		return Snapshot{}, err
	}

	positions, err := s.positions.ListByPortfolio(portfolioID)
	if err != nil {
		return Snapshot{}, err
	}

	snap := NewSnapshot(p, positions)

	s.log.Debug().
		Int64("portfolio_id", portfolioID).
		Int("positions", len(positions)).
		Str("total_value", snap.TotalValue.String()).
		Msg("Built portfolio snapshot")

	return snap, nil
}

// Repos exposes the underlying repositories for the scheduler job.
func (s *Service) Repos() (*PortfolioRepository, *PositionRepository) {
	return s.portfolios, s.positions
}
