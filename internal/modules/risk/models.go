package risk

import (
	"time"

	"github.com/shopspring/decimal"
)

// VaRMethod selects the estimator used for Value at Risk.
type VaRMethod string

const (
	MethodHistorical VaRMethod = "historical"
	MethodParametric VaRMethod = "parametric"
	MethodMonteCarlo VaRMethod = "monte_carlo"
)

// VaRParams parametrizes a VaR or CVaR calculation.
type VaRParams struct {
	Confidence  float64 // e.g. 0.95
	HorizonDays int     // holding period in trading days
	Method      VaRMethod
	Simulations int // Monte Carlo draws; ignored by other methods
}

// VaRResult is the loss estimate, both as a return fraction and in currency.
type VaRResult struct {
	Method         VaRMethod
	Confidence     float64
	HorizonDays    int
	Fraction       float64 // loss as a fraction of portfolio value
	Amount         decimal.Decimal
	PortfolioValue decimal.Decimal
}

// CVaRResult is the expected shortfall beyond the VaR threshold.
type CVaRResult struct {
	Confidence     float64
	HorizonDays    int
	Fraction       float64
	Amount         decimal.Decimal
	PortfolioValue decimal.Decimal
}

// PositionImpact is the per-position effect of a stress scenario.
type PositionImpact struct {
	Ticker        string
	CurrentValue  decimal.Decimal
	ShockedValue  decimal.Decimal
	Impact        decimal.Decimal
	ImpactPercent float64
}

// StressResult is the portfolio-level outcome of a stress scenario.
type StressResult struct {
	Scenario    string
	ValueBefore decimal.Decimal
	ValueAfter  decimal.Decimal
	PnL         decimal.Decimal
	PnLPercent  float64
	Impacts     []PositionImpact
}

// Metrics is the composite risk bundle for one portfolio.
type Metrics struct {
	PortfolioID      int64
	AsOf             time.Time
	Volatility       float64
	SharpeRatio      float64
	SortinoRatio     float64
	MaxDrawdown      float64
	Beta             float64
	Alpha            float64
	TrackingError    float64
	InformationRatio float64
	VaR95            decimal.Decimal
	CVaR95           decimal.Decimal
}

// CorrelationReport is the pairwise correlation structure of the holdings.
type CorrelationReport struct {
	Tickers            []string
	Matrix             map[string]map[string]float64
	AverageCorrelation float64
}

// SectorExposure summarizes exposure concentration by sector.
type SectorExposure struct {
	Exposures         map[string]float64 // sector -> weight
	Largest           []SectorWeight     // descending by exposure
	ConcentrationRisk float64            // Herfindahl index of sector weights
}

// SectorWeight is one sector's share of portfolio value.
type SectorWeight struct {
	Sector   string
	Exposure float64
}
