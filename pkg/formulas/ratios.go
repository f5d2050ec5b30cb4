package formulas

import "math"

// SharpeRatio calculates the annualized Sharpe ratio from periodic returns.
//
//	Sharpe = (Annualized Return - Risk-free Rate) / Annualized Volatility
//
// riskFreeRate is annual (e.g. 0.04 for 4%), periodsPerYear is 252 for daily
// data. Returns 0 when volatility is zero.
func SharpeRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	vol := AnnualizedVolatility(returns, periodsPerYear)
	if vol == 0 {
		return 0
	}
	return (AnnualizedReturn(returns, periodsPerYear) - riskFreeRate) / vol
}

// SortinoRatio is the downside-deviation variant of Sharpe: only returns
// below zero count toward the denominator.
func SortinoRatio(returns []float64, riskFreeRate, periodsPerYear float64) float64 {
	var downside []float64
	for _, r := range returns {
		if r < 0 {
			downside = append(downside, r)
		}
	}

	downsideVol := AnnualizedVolatility(downside, periodsPerYear)
	if downsideVol == 0 {
		return 0
	}

	return (AnnualizedReturn(returns, periodsPerYear) - riskFreeRate) / downsideVol
}

// TrackingError is the annualized standard deviation of active returns
// (portfolio minus benchmark, aligned element-wise).
func TrackingError(portfolio, benchmark []float64, periodsPerYear float64) float64 {
	if len(portfolio) != len(benchmark) || len(portfolio) < 2 {
		return 0
	}

	active := make([]float64, len(portfolio))
	for i := range portfolio {
		active[i] = portfolio[i] - benchmark[i]
	}

	return AnnualizedVolatility(active, periodsPerYear)
}

// InformationRatio is the annualized active return divided by tracking error.
func InformationRatio(portfolio, benchmark []float64, periodsPerYear float64) float64 {
	te := TrackingError(portfolio, benchmark, periodsPerYear)
	if te == 0 {
		return 0
	}

	activeMean := AnnualizedReturn(portfolio, periodsPerYear) - AnnualizedReturn(benchmark, periodsPerYear)
	return activeMean / te
}

// Beta regresses portfolio returns on benchmark returns:
// cov(portfolio, benchmark) / var(benchmark). Returns 1 when the benchmark
// has no variance, the documented neutral default.
func Beta(portfolio, benchmark []float64) float64 {
	if len(portfolio) != len(benchmark) || len(portfolio) < 2 {
		return 1.0
	}

	benchVar := Variance(benchmark)
	if benchVar == 0 {
		return 1.0
	}

	return Covariance(portfolio, benchmark) / benchVar
}

// Alpha is the CAPM excess return: annualized portfolio return minus the
// beta-scaled benchmark premium over the risk-free rate.
func Alpha(portfolio, benchmark []float64, riskFreeRate, periodsPerYear float64) float64 {
	beta := Beta(portfolio, benchmark)
	portfolioMean := AnnualizedReturn(portfolio, periodsPerYear)
	benchmarkMean := AnnualizedReturn(benchmark, periodsPerYear)

	return portfolioMean - (riskFreeRate + beta*(benchmarkMean-riskFreeRate))
}

// AnnualizedFromTotal converts a total return over a number of calendar days
// into an annualized rate.
func AnnualizedFromTotal(totalReturn float64, days int) float64 {
	if days <= 0 {
		return 0
	}
	years := float64(days) / 365.25
	if years <= 0 || totalReturn <= -1 {
		return 0
	}
	return math.Pow(1+totalReturn, 1/years) - 1
}
