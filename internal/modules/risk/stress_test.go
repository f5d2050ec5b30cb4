package risk

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantcore/internal/domain"
)

func position(ticker string, value float64) domain.Position {
	return domain.Position{
		Ticker:      ticker,
		MarketValue: decimal.NewFromFloat(value),
	}
}

func TestStressTestUniformShock(t *testing.T) {
	positions := []domain.Position{
		position("AAA", 100),
		position("BBB", 100),
	}

	result := StressTest(positions, "1987_black_monday", nil, -0.20)

	assert.True(t, result.ValueBefore.Equal(decimal.NewFromInt(200)), "before: %s", result.ValueBefore)
	assert.True(t, result.ValueAfter.Equal(decimal.NewFromInt(160)), "after: %s", result.ValueAfter)
	assert.True(t, result.PnL.Equal(decimal.NewFromInt(-40)), "pnl: %s", result.PnL)
	assert.InDelta(t, -20.0, result.PnLPercent, 1e-9)
	require.Len(t, result.Impacts, 2)
	assert.InDelta(t, -20.0, result.Impacts[0].ImpactPercent, 1e-9)
}

func TestStressTestUnknownScenarioUsesDefault(t *testing.T) {
	positions := []domain.Position{position("AAA", 100)}

	result := StressTest(positions, "made_up_scenario", nil, -0.20)

	assert.True(t, result.ValueAfter.Equal(decimal.NewFromInt(80)), "after: %s", result.ValueAfter)
}

func TestStressTestCustomShocks(t *testing.T) {
	positions := []domain.Position{
		position("HIT", 100),
		position("MISS", 100),
	}

	result := StressTest(positions, "custom", map[string]float64{"HIT": -0.50}, -0.20)

	// MISS has no entry and no "default" key, so it is untouched.
	assert.True(t, result.ValueAfter.Equal(decimal.NewFromInt(150)), "after: %s", result.ValueAfter)
}

func TestStressTestCustomDefaultKey(t *testing.T) {
	positions := []domain.Position{
		position("HIT", 100),
		position("MISS", 100),
	}

	shocks := map[string]float64{"HIT": -0.50, "default": -0.10}
	result := StressTest(positions, "custom", shocks, -0.20)

	assert.True(t, result.ValueAfter.Equal(decimal.NewFromInt(140)), "after: %s", result.ValueAfter)
}

func TestStressTestEmptyPortfolio(t *testing.T) {
	result := StressTest(nil, "2008_financial_crisis", nil, -0.20)

	assert.True(t, result.ValueBefore.IsZero())
	assert.True(t, result.PnL.IsZero())
	assert.Empty(t, result.Impacts)
}
