package portfolio

import (
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantcore/internal/domain"
)

// Snapshot is a portfolio plus its current position set at a point in time.
// Weights are market-value shares of the total and sum to 1 when TotalValue
// is positive; an empty or worthless portfolio has no defined weights.
type Snapshot struct {
	Portfolio  domain.Portfolio
	Positions  []domain.Position
	TotalValue decimal.Decimal
	Weights    map[string]float64
}

// NewSnapshot computes the total market value and per-ticker weights for a
// position set. Multiple lots of the same ticker aggregate into one weight.
func NewSnapshot(p domain.Portfolio, positions []domain.Position) Snapshot {
	total := decimal.Zero
	for _, pos := range positions {
		total = total.Add(pos.MarketValue)
	}

	weights := make(map[string]float64, len(positions))
	if total.IsPositive() {
		totalF, _ := total.Float64()
		for _, pos := range positions {
			mv, _ := pos.MarketValue.Float64()
			weights[pos.Ticker] += mv / totalF
		}
	}

	return Snapshot{
		Portfolio:  p,
		Positions:  positions,
		TotalValue: total,
		Weights:    weights,
	}
}

// Tickers returns the distinct tickers held, in position order.
func (s Snapshot) Tickers() []string {
	seen := make(map[string]bool, len(s.Positions))
	var tickers []string
	for _, pos := range s.Positions {
		if !seen[pos.Ticker] {
			seen[pos.Ticker] = true
			tickers = append(tickers, pos.Ticker)
		}
	}
	return tickers
}

// Value returns TotalValue as a float for statistical code paths. Monetary
// outputs stay decimal; this is for ratio math only.
func (s Snapshot) Value() float64 {
	v, _ := s.TotalValue.Float64()
	return v
}
