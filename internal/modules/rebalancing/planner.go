package rebalancing

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantcore/internal/config"
	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
)

// BuildPlan computes the trades that move a portfolio from its current
// weights to the target weights. Pure: it never touches storage.
//
// Deltas below the materiality threshold are dropped. Tickers without a held
// position are priced at the reference fallback so the share count is still
// an estimate rather than absent. Turnover is one-way: half the sum of
// absolute weight changes.
func BuildPlan(snap portfolio.Snapshot, targets map[string]float64, defaults config.Defaults) Plan {
	plan := Plan{
		PortfolioID:         snap.Portfolio.ID,
		EstimatedCommission: decimal.Zero,
		TotalBuys:           decimal.Zero,
		TotalSells:          decimal.Zero,
		CreatedAt:           time.Now().UTC(),
	}

	prices := make(map[string]decimal.Decimal, len(snap.Positions))
	for _, pos := range snap.Positions {
		prices[pos.Ticker] = pos.CurrentPrice
	}

	seen := make(map[string]struct{}, len(targets)+len(snap.Weights))
	tickers := make([]string, 0, len(targets)+len(snap.Weights))
	for ticker := range targets {
		if _, ok := seen[ticker]; !ok {
			seen[ticker] = struct{}{}
			tickers = append(tickers, ticker)
		}
	}
	for ticker := range snap.Weights {
		if _, ok := seen[ticker]; !ok {
			seen[ticker] = struct{}{}
			tickers = append(tickers, ticker)
		}
	}
	sort.Strings(tickers)

	commissionRate := decimal.NewFromFloat(defaults.CommissionRate)
	grossDelta := 0.0

	for _, ticker := range tickers {
		delta := targets[ticker] - snap.Weights[ticker]
		if math.Abs(delta) < defaults.MinTradeWeight {
			continue
		}
		grossDelta += math.Abs(delta)

		amount := snap.TotalValue.Mul(decimal.NewFromFloat(math.Abs(delta)))

		price, ok := prices[ticker]
		if !ok || price.IsZero() {
			price = decimal.NewFromFloat(defaults.ReferencePrice)
		}

		side := domain.SideBuy
		if delta < 0 {
			side = domain.SideSell
		}

		trade := Trade{
			Ticker:        ticker,
			Side:          side,
			Shares:        amount.Div(price),
			Amount:        amount,
			Price:         price,
			CurrentWeight: snap.Weights[ticker],
			TargetWeight:  targets[ticker],
			WeightDelta:   delta,
		}
		plan.Trades = append(plan.Trades, trade)

		plan.EstimatedCommission = plan.EstimatedCommission.Add(amount.Mul(commissionRate))
		if side == domain.SideBuy {
			plan.TotalBuys = plan.TotalBuys.Add(amount)
		} else {
			plan.TotalSells = plan.TotalSells.Add(amount)
		}
	}

	plan.Turnover = grossDelta / 2
	return plan
}
