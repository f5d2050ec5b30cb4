package compliance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantcore/internal/domain"
)

func TestSimulateOrderBuyIncreasesPosition(t *testing.T) {
	snap := holdingsSnapshot(map[string]float64{"AAA": 100, "BBB": 100})

	order := Order{
		Ticker: "AAA",
		Side:   domain.SideBuy,
		Shares: decimal.NewFromInt(1),
		Price:  decimal.NewFromInt(100),
	}
	simulated := simulateOrder(snap, order)

	assert.InDelta(t, 200.0/300.0, simulated.Weights["AAA"], 1e-9)
	assert.InDelta(t, 100.0/300.0, simulated.Weights["BBB"], 1e-9)
}

func TestSimulateOrderBuyCreatesPosition(t *testing.T) {
	snap := holdingsSnapshot(map[string]float64{"AAA": 100})

	order := Order{
		Ticker: "NEW",
		Side:   domain.SideBuy,
		Shares: decimal.NewFromInt(2),
		Price:  decimal.NewFromInt(50),
	}
	simulated := simulateOrder(snap, order)

	require.Len(t, simulated.Positions, 2)
	assert.InDelta(t, 0.5, simulated.Weights["NEW"], 1e-9)
}

func TestSimulateOrderSellRemovesEmptiedPosition(t *testing.T) {
	snap := holdingsSnapshot(map[string]float64{"AAA": 100, "BBB": 100})

	order := Order{
		Ticker: "AAA",
		Side:   domain.SideSell,
		Shares: decimal.NewFromInt(1),
		Price:  decimal.NewFromInt(100),
	}
	simulated := simulateOrder(snap, order)

	require.Len(t, simulated.Positions, 1)
	assert.Equal(t, "BBB", simulated.Positions[0].Ticker)
	assert.InDelta(t, 1.0, simulated.Weights["BBB"], 1e-9)
}

func TestSimulateOrderDoesNotMutateInput(t *testing.T) {
	snap := holdingsSnapshot(map[string]float64{"AAA": 100, "BBB": 100})
	sharesBefore := snap.Positions[0].Shares
	valueBefore := snap.TotalValue

	order := Order{
		Ticker: snap.Positions[0].Ticker,
		Side:   domain.SideBuy,
		Shares: decimal.NewFromInt(5),
		Price:  decimal.NewFromInt(100),
	}
	_ = simulateOrder(snap, order)

	assert.True(t, snap.Positions[0].Shares.Equal(sharesBefore))
	assert.True(t, snap.TotalValue.Equal(valueBefore))
	assert.Len(t, snap.Positions, 2)
}

func TestPreTradeAgainstPositionLimit(t *testing.T) {
	snap := holdingsSnapshot(map[string]float64{"AAA": 200, "BBB": 800})
	rule := domain.ComplianceRule{
		ID:       1,
		Type:     domain.RulePositionLimit,
		Severity: domain.SeverityError,
	}

	// Live portfolio already breaches on BBB; a buy that pushes AAA past the
	// limit must surface in the simulated evaluation too.
	order := Order{
		Ticker: "AAA",
		Side:   domain.SideBuy,
		Shares: decimal.NewFromInt(3),
		Price:  decimal.NewFromInt(100),
	}
	simulated := simulateOrder(snap, order)
	result := Evaluate(simulated, []domain.ComplianceRule{rule}, sectorsFor(nil))

	assert.False(t, result.Passed)
	require.Len(t, result.Violations, 1)
}
