package compliance

import (
	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
)

// simulateOrder applies a hypothetical trade to a copy of the position set
// and rebuilds the snapshot. The input snapshot is never mutated; a sell that
// empties a position removes it.
func simulateOrder(snap portfolio.Snapshot, order Order) portfolio.Snapshot {
	positions := make([]domain.Position, 0, len(snap.Positions)+1)
	applied := false

	for _, pos := range snap.Positions {
		clone := pos
		if clone.Ticker == order.Ticker {
			applied = true
			switch order.Side {
			case domain.SideBuy:
				clone.Shares = clone.Shares.Add(order.Shares)
			case domain.SideSell:
				clone.Shares = clone.Shares.Sub(order.Shares)
			}
			if !order.Price.IsZero() {
				clone.CurrentPrice = order.Price
			}
			clone.RefreshMarketValue()
			if clone.Shares.Sign() <= 0 {
				continue
			}
		}
		positions = append(positions, clone)
	}

	if !applied && order.Side == domain.SideBuy {
		created := domain.Position{
			PortfolioID:  snap.Portfolio.ID,
			Ticker:       order.Ticker,
			Shares:       order.Shares,
			CurrentPrice: order.Price,
			Currency:     snap.Portfolio.BaseCurrency,
		}
		created.RefreshMarketValue()
		positions = append(positions, created)
	}

	return portfolio.NewSnapshot(snap.Portfolio, positions)
}
