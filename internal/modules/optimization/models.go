package optimization

// Method selects the allocation algorithm. Every method maps
// (expected returns, covariance, constraints) to weights, so dispatch is by
// tag, not type hierarchy.
type Method string

const (
	MethodMaxSharpe       Method = "max_sharpe"
	MethodMinVolatility   Method = "min_volatility"
	MethodEfficientRisk   Method = "efficient_risk"
	MethodEfficientReturn Method = "efficient_return"
	MethodBlackLitterman  Method = "black_litterman"
	MethodRiskParity      Method = "risk_parity"
	MethodHRP             Method = "hrp"
)

// Request parametrizes one optimization run.
type Request struct {
	Method Method

	// Box constraints applied per position. Zero values mean unconstrained
	// long-only, i.e. [0, 1].
	MinPosition float64
	MaxPosition float64

	// Mean-variance targets; zero means the 15% default.
	TargetVolatility float64
	TargetReturn     float64

	// Black-Litterman inputs.
	Views        map[string]float64 // ticker -> expected annual return
	RiskAversion float64            // zero means the 2.5 default
}

// Result reports the solved allocation and its ex-ante performance. Weights
// sum to 1 within tolerance and are non-negative; no method here shorts.
type Result struct {
	PortfolioID    int64
	Method         Method
	Weights        map[string]float64
	ExpectedReturn float64
	Volatility     float64
	SharpeRatio    float64
}

// FrontierPoint is one sampled portfolio on the risk/return plane.
type FrontierPoint struct {
	Return      float64
	Volatility  float64
	SharpeRatio float64
	Weights     map[string]float64
}

// Frontier is a sampled efficient-frontier cloud plus the current portfolio.
type Frontier struct {
	Portfolios []FrontierPoint
	Current    FrontierPoint
}
