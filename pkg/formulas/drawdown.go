package formulas

// MaxDrawdown calculates the maximum peak-to-trough loss of the equity curve
// implied by a series of periodic returns.
//
//	equity[t]   = Π (1 + r[i]) for i <= t
//	drawdown[t] = (equity[t] - running peak) / running peak
//
// The result is the most negative drawdown, e.g. -0.25 for a 25% loss from
// peak, or 0 for a monotonically rising curve.
func MaxDrawdown(returns []float64) float64 {
	if len(returns) == 0 {
		return 0
	}

	equity := 1.0
	peak := 1.0
	maxDD := 0.0

	for _, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			dd := (equity - peak) / peak
			if dd < maxDD {
				maxDD = dd
			}
		}
	}

	return maxDD
}

// DrawdownSeries returns the drawdown at every step of the equity curve.
// Values are <= 0; a zero means the curve is at a new peak.
func DrawdownSeries(returns []float64) []float64 {
	series := make([]float64, len(returns))

	equity := 1.0
	peak := 1.0
	for i, r := range returns {
		equity *= 1 + r
		if equity > peak {
			peak = equity
		}
		if peak > 0 {
			series[i] = (equity - peak) / peak
		}
	}

	return series
}
