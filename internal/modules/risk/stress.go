package risk

import (
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantcore/internal/domain"
)

// Named historical scenarios, as uniform fractional price shocks.
var stressScenarios = map[string]float64{
	"2008_financial_crisis": -0.40,
	"2020_covid_crash":      -0.35,
	"1987_black_monday":     -0.20,
	"2000_dotcom_bubble":    -0.45,
}

// StressTest applies a per-ticker fractional shock to each position's market
// value independently and sums the shocked values.
//
// With customShocks set, each ticker uses its own entry, then the "default"
// key, then no shock. Otherwise every position takes the named scenario's
// uniform shock; unknown scenario names fall back to defaultShock.
func StressTest(positions []domain.Position, scenario string, customShocks map[string]float64, defaultShock float64) StressResult {
	result := StressResult{
		Scenario:    scenario,
		ValueBefore: decimal.Zero,
		ValueAfter:  decimal.Zero,
		PnL:         decimal.Zero,
	}
	if len(positions) == 0 {
		return result
	}

	uniform, known := stressScenarios[scenario]
	if !known {
		uniform = defaultShock
	}

	for _, pos := range positions {
		shock := uniform
		if customShocks != nil {
			var ok bool
			if shock, ok = customShocks[pos.Ticker]; !ok {
				if shock, ok = customShocks["default"]; !ok {
					shock = 0
				}
			}
		}

		shocked := pos.MarketValue.Mul(decimal.NewFromFloat(1 + shock))
		result.ValueBefore = result.ValueBefore.Add(pos.MarketValue)
		result.ValueAfter = result.ValueAfter.Add(shocked)

		result.Impacts = append(result.Impacts, PositionImpact{
			Ticker:        pos.Ticker,
			CurrentValue:  pos.MarketValue,
			ShockedValue:  shocked,
			Impact:        shocked.Sub(pos.MarketValue),
			ImpactPercent: shock * 100,
		})
	}

	result.PnL = result.ValueAfter.Sub(result.ValueBefore)
	if result.ValueBefore.IsPositive() {
		pnl, _ := result.PnL.Float64()
		before, _ := result.ValueBefore.Float64()
		result.PnLPercent = pnl / before * 100
	}

	return result
}
