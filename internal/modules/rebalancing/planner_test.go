package rebalancing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantcore/internal/config"
	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
)

func snapshotOf(values map[string]float64) portfolio.Snapshot {
	var positions []domain.Position
	for ticker, value := range values {
		pos := domain.Position{
			Ticker:       ticker,
			Shares:       decimal.NewFromInt(1),
			CurrentPrice: decimal.NewFromFloat(value),
		}
		pos.RefreshMarketValue()
		positions = append(positions, pos)
	}
	return portfolio.NewSnapshot(domain.Portfolio{ID: 1}, positions)
}

func TestBuildPlanMovesTowardTargets(t *testing.T) {
	snap := snapshotOf(map[string]float64{"AAA": 600, "BBB": 400})
	targets := map[string]float64{"AAA": 0.5, "BBB": 0.5}

	plan := BuildPlan(snap, targets, config.DefaultAnalytics())

	require.Len(t, plan.Trades, 2)

	byTicker := map[string]Trade{}
	for _, trade := range plan.Trades {
		byTicker[trade.Ticker] = trade
	}

	sell := byTicker["AAA"]
	assert.Equal(t, domain.SideSell, sell.Side)
	assert.InDelta(t, 100.0, sell.Amount.InexactFloat64(), 1e-9)

	buy := byTicker["BBB"]
	assert.Equal(t, domain.SideBuy, buy.Side)
	assert.InDelta(t, 100.0, buy.Amount.InexactFloat64(), 1e-9)

	// One-way turnover: half the gross weight change.
	assert.InDelta(t, 0.10, plan.Turnover, 1e-9)

	// Dollar-neutral: buys equal sells when total value is unchanged.
	assert.True(t, plan.TotalBuys.Equal(plan.TotalSells))
}

func TestBuildPlanSkipsImmaterialDeltas(t *testing.T) {
	snap := snapshotOf(map[string]float64{"AAA": 500.4, "BBB": 499.6})
	targets := map[string]float64{"AAA": 0.5, "BBB": 0.5}

	plan := BuildPlan(snap, targets, config.DefaultAnalytics())

	assert.Empty(t, plan.Trades)
	assert.Zero(t, plan.Turnover)
}

func TestBuildPlanUnpricedTickerUsesReferencePrice(t *testing.T) {
	snap := snapshotOf(map[string]float64{"AAA": 1000})
	targets := map[string]float64{"AAA": 0.9, "NEW": 0.1}

	plan := BuildPlan(snap, targets, config.DefaultAnalytics())

	var newTrade *Trade
	for i := range plan.Trades {
		if plan.Trades[i].Ticker == "NEW" {
			newTrade = &plan.Trades[i]
		}
	}
	require.NotNil(t, newTrade)

	assert.Equal(t, domain.SideBuy, newTrade.Side)
	assert.True(t, newTrade.Price.Equal(decimal.NewFromInt(100)), "price: %s", newTrade.Price)
	// $100 at the $100 reference price buys one share.
	assert.True(t, newTrade.Shares.Equal(decimal.NewFromInt(1)), "shares: %s", newTrade.Shares)
}

func TestBuildPlanCommission(t *testing.T) {
	snap := snapshotOf(map[string]float64{"AAA": 600, "BBB": 400})
	targets := map[string]float64{"AAA": 0.5, "BBB": 0.5}

	plan := BuildPlan(snap, targets, config.DefaultAnalytics())

	// 1bp on $200 of traded notional.
	assert.InDelta(t, 0.02, plan.EstimatedCommission.InexactFloat64(), 1e-9)
}

func TestBuildPlanTurnoverOrderInvariant(t *testing.T) {
	values := map[string]float64{"AAA": 300, "BBB": 300, "CCC": 200, "DDD": 200}
	targets := map[string]float64{"AAA": 0.10, "BBB": 0.40, "CCC": 0.25, "DDD": 0.25}

	first := BuildPlan(snapshotOf(values), targets, config.DefaultAnalytics())
	second := BuildPlan(snapshotOf(values), targets, config.DefaultAnalytics())

	assert.Equal(t, first.Turnover, second.Turnover)

	// Trade list ordering is deterministic by ticker.
	require.Equal(t, len(first.Trades), len(second.Trades))
	for i := range first.Trades {
		assert.Equal(t, first.Trades[i].Ticker, second.Trades[i].Ticker)
	}
}

func TestBuildPlanRoundTrip(t *testing.T) {
	snap := snapshotOf(map[string]float64{"AAA": 500, "BBB": 300, "CCC": 200})
	targets := map[string]float64{"AAA": 0.2, "BBB": 0.5, "CCC": 0.3}

	plan := BuildPlan(snap, targets, config.DefaultAnalytics())

	// Applying the signed weight deltas to the current weights reconstructs
	// the targets.
	reconstructed := map[string]float64{}
	for ticker, w := range snap.Weights {
		reconstructed[ticker] = w
	}
	for _, trade := range plan.Trades {
		reconstructed[trade.Ticker] += trade.WeightDelta
	}
	for ticker, want := range targets {
		assert.InDelta(t, want, reconstructed[ticker], 1e-9, ticker)
	}
}

func TestValidateTargets(t *testing.T) {
	assert.Error(t, validateTargets(nil))
	assert.Error(t, validateTargets(map[string]float64{"AAA": 0.5}))
	assert.Error(t, validateTargets(map[string]float64{"AAA": 1.5, "BBB": -0.5}))
	assert.NoError(t, validateTargets(map[string]float64{"AAA": 0.6, "BBB": 0.4}))
}
