package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AssetClass classifies a position's instrument type.
type AssetClass string

const (
	AssetClassEquity      AssetClass = "equity"
	AssetClassFixedIncome AssetClass = "fixed_income"
	AssetClassETF         AssetClass = "etf"
	AssetClassCash        AssetClass = "cash"
)

// Portfolio is a managed book of positions.
type Portfolio struct {
	ID           int64
	Name         string
	OwnerID      int64
	Strategy     string
	Benchmark    string // benchmark ticker, e.g. "SPY"
	BaseCurrency string
	IsActive     bool
	CreatedAt    time.Time
}

// Position is a single holding inside a portfolio.
// MarketValue = Shares * CurrentPrice; monetary fields are decimal because
// they represent reportable currency amounts.
type Position struct {
	ID           int64
	PortfolioID  int64
	Ticker       string
	AssetClass   AssetClass
	Shares       decimal.Decimal
	CostBasis    decimal.Decimal
	CurrentPrice decimal.Decimal
	MarketValue  decimal.Decimal
	Currency     string
	OpenedAt     time.Time
}

// RefreshMarketValue recomputes MarketValue from shares and the current price.
func (p *Position) RefreshMarketValue() {
	p.MarketValue = p.Shares.Mul(p.CurrentPrice)
}

// PriceBar is one daily OHLCV observation for an instrument.
type PriceBar struct {
	Date     time.Time
	Open     float64
	High     float64
	Low      float64
	Close    float64
	AdjClose float64
	Volume   int64
}

// RuleSeverity grades compliance rules and their findings.
type RuleSeverity string

const (
	SeverityInfo     RuleSeverity = "info"
	SeverityWarning  RuleSeverity = "warning"
	SeverityError    RuleSeverity = "error"
	SeverityCritical RuleSeverity = "critical"
)

// Blocking reports whether a breach of this severity fails the check.
func (s RuleSeverity) Blocking() bool {
	return s == SeverityError || s == SeverityCritical
}

// RuleType selects the compliance check applied by a rule.
type RuleType string

const (
	RulePositionLimit RuleType = "position_limit"
	RuleConcentration RuleType = "concentration"
	RuleSectorLimit   RuleType = "sector_limit"
	RuleCustom        RuleType = "custom"
)

// ComplianceRule is a parametrized compliance constraint. Rules are immutable
// during evaluation; only an administrator mutates them.
type ComplianceRule struct {
	ID          int64
	Name        string
	Description string
	Type        RuleType
	Parameters  map[string]float64
	Severity    RuleSeverity
	IsActive    bool
	CreatedAt   time.Time
}

// Threshold returns a rule parameter, or fallback when the key is absent.
func (r ComplianceRule) Threshold(key string, fallback float64) float64 {
	if v, ok := r.Parameters[key]; ok {
		return v
	}
	return fallback
}

// ComplianceViolation is a persisted breach record. The evaluator creates
// these append-only; resolution happens in an external workflow.
type ComplianceViolation struct {
	ID          string // uuid
	PortfolioID int64
	RuleID      int64
	OccurredAt  time.Time
	Severity    RuleSeverity
	Description string
	Resolved    bool
}

// TradeSide is the direction of a rebalancing trade.
type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)
