package compliance

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantcore/internal/domain"
)

// Parameter keys recognized by the built-in rule types, with their fallback
// thresholds.
const (
	ParamMaxPositionWeight      = "max_position_weight"
	ParamMaxIssuerConcentration = "max_issuer_concentration"
	ParamMaxSectorExposure      = "max_sector_exposure"

	defaultMaxPositionWeight      = 0.25
	defaultMaxIssuerConcentration = 0.10
	defaultMaxSectorExposure      = 0.40
)

// Finding is one rule breach discovered during evaluation. Findings are pure
// values; recording them as violations is a separate step.
type Finding struct {
	RuleID      int64
	RuleName    string
	RuleType    domain.RuleType
	Severity    domain.RuleSeverity
	Subject     string // ticker or sector that breached
	Observed    float64
	Threshold   float64
	Description string
}

// Blocking reports whether this finding fails the overall check.
func (f Finding) Blocking() bool {
	return f.Severity.Blocking()
}

// CheckResult is the outcome of one compliance evaluation. Passed depends
// only on blocking findings; warnings are advisory.
type CheckResult struct {
	PortfolioID int64
	Passed      bool
	Violations  []Finding
	Warnings    []Finding
	CheckedAt   time.Time
}

// Order is a hypothetical trade for pre-trade simulation.
type Order struct {
	Ticker string
	Side   domain.TradeSide
	Shares decimal.Decimal
	Price  decimal.Decimal
}
