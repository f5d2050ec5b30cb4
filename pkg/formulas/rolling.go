package formulas

import (
	"math"

	"github.com/markcheno/go-talib"
)

// RollingMean computes the simple moving average of the series over the given
// window. The first window-1 entries are NaN, matching talib conventions.
func RollingMean(data []float64, window int) []float64 {
	if len(data) < window || window < 1 {
		return nil
	}
	return talib.Sma(data, window)
}

// RollingVolatility computes the rolling standard deviation over the given
// window, annualized by sqrt(periodsPerYear). Entries before the window fills
// are NaN.
func RollingVolatility(returns []float64, window int, periodsPerYear float64) []float64 {
	if len(returns) < window || window < 2 {
		return nil
	}

	raw := talib.StdDev(returns, window, 1.0)
	out := make([]float64, len(raw))
	scale := math.Sqrt(periodsPerYear)
	for i, v := range raw {
		if math.IsNaN(v) {
			out[i] = v
			continue
		}
		out[i] = v * scale
	}

	return out
}
