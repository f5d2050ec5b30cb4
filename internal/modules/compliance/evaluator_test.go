package compliance

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
)

func holdingsSnapshot(values map[string]float64) portfolio.Snapshot {
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

func sectorsFor(sectors map[string]string) domain.StaticClassifier {
	return domain.NewStaticClassifier(sectors, "Technology")
}

func TestPositionLimitSingleViolation(t *testing.T) {
	// One position at 30% against a 25% limit.
	snap := holdingsSnapshot(map[string]float64{"BIG": 300, "AAA": 250, "BBB": 250, "CCC": 200})
	rule := domain.ComplianceRule{
		ID:         1,
		Name:       "max position",
		Type:       domain.RulePositionLimit,
		Parameters: map[string]float64{ParamMaxPositionWeight: 0.25},
		Severity:   domain.SeverityError,
	}

	result := Evaluate(snap, []domain.ComplianceRule{rule}, sectorsFor(nil))

	assert.False(t, result.Passed)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "BIG", result.Violations[0].Subject)
	assert.InDelta(t, 0.30, result.Violations[0].Observed, 1e-9)
	assert.Empty(t, result.Warnings)
}

func TestPositionLimitAllWithinBounds(t *testing.T) {
	snap := holdingsSnapshot(map[string]float64{"AAA": 250, "BBB": 250, "CCC": 250, "DDD": 250})
	rule := domain.ComplianceRule{
		ID:       1,
		Type:     domain.RulePositionLimit,
		Severity: domain.SeverityError,
	}

	result := Evaluate(snap, []domain.ComplianceRule{rule}, sectorsFor(nil))

	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
}

func TestWarningSeverityDoesNotFailCheck(t *testing.T) {
	snap := holdingsSnapshot(map[string]float64{"BIG": 500, "AAA": 500})
	rule := domain.ComplianceRule{
		ID:       1,
		Type:     domain.RulePositionLimit,
		Severity: domain.SeverityWarning,
	}

	result := Evaluate(snap, []domain.ComplianceRule{rule}, sectorsFor(nil))

	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
	require.Len(t, result.Warnings, 1)
}

func TestConcentrationRule(t *testing.T) {
	snap := holdingsSnapshot(map[string]float64{"AAA": 150, "BBB": 850})
	rule := domain.ComplianceRule{
		ID:         2,
		Type:       domain.RuleConcentration,
		Parameters: map[string]float64{ParamMaxIssuerConcentration: 0.20},
		Severity:   domain.SeverityCritical,
	}

	result := Evaluate(snap, []domain.ComplianceRule{rule}, sectorsFor(nil))

	assert.False(t, result.Passed)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "BBB", result.Violations[0].Subject)
}

func TestSectorLimitRule(t *testing.T) {
	snap := holdingsSnapshot(map[string]float64{"AAPL": 300, "MSFT": 300, "JPM": 400})
	classifier := sectorsFor(map[string]string{
		"AAPL": "Technology",
		"MSFT": "Technology",
		"JPM":  "Financials",
	})
	rule := domain.ComplianceRule{
		ID:         3,
		Type:       domain.RuleSectorLimit,
		Parameters: map[string]float64{ParamMaxSectorExposure: 0.50},
		Severity:   domain.SeverityError,
	}

	result := Evaluate(snap, []domain.ComplianceRule{rule}, classifier)

	// Technology is at 60% against a 50% limit.
	require.Len(t, result.Violations, 1)
	assert.Equal(t, "Technology", result.Violations[0].Subject)
	assert.InDelta(t, 0.60, result.Violations[0].Observed, 1e-9)
}

func TestCustomRuleProducesNoFinding(t *testing.T) {
	snap := holdingsSnapshot(map[string]float64{"AAA": 1000})
	rule := domain.ComplianceRule{
		ID:       4,
		Type:     domain.RuleCustom,
		Severity: domain.SeverityCritical,
	}

	result := Evaluate(snap, []domain.ComplianceRule{rule}, sectorsFor(nil))

	assert.True(t, result.Passed)
	assert.Empty(t, result.Violations)
	assert.Empty(t, result.Warnings)
}

func TestDefaultThresholds(t *testing.T) {
	// 24% position passes the default 25% position limit but breaches the
	// default 10% issuer concentration.
	snap := holdingsSnapshot(map[string]float64{"AAA": 240, "BBB": 190, "CCC": 190, "DDD": 190, "EEE": 190})
	rules := []domain.ComplianceRule{
		{ID: 1, Type: domain.RulePositionLimit, Severity: domain.SeverityError},
		{ID: 2, Type: domain.RuleConcentration, Severity: domain.SeverityError},
	}

	result := Evaluate(snap, rules, sectorsFor(nil))

	require.Len(t, result.Violations, 1)
	assert.Equal(t, int64(2), result.Violations[0].RuleID)
}
