package rebalancing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantcore/internal/domain"
)

// Trade is one planned order moving a position toward its target weight.
type Trade struct {
	Ticker        string
	Side          domain.TradeSide
	Shares        decimal.Decimal
	Amount        decimal.Decimal // notional, always positive
	Price         decimal.Decimal
	CurrentWeight float64
	TargetWeight  float64
	WeightDelta   float64
}

// Plan is the full trade list for one rebalance, with cost estimates. It is
// a proposal only; nothing here executes orders.
type Plan struct {
	PortfolioID         int64
	Trades              []Trade
	Turnover            float64 // one-way, fraction of portfolio value
	EstimatedCommission decimal.Decimal
	TotalBuys           decimal.Decimal
	TotalSells          decimal.Decimal
	CreatedAt           time.Time
}
