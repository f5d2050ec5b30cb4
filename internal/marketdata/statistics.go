package marketdata

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/quantfolio/quantcore/pkg/formulas"
)

// Statistics is the aligned return set for a group of instruments: one return
// column per ticker, every column the same length, observation dates shared.
// Instruments with zero variance are retained so the matrix dimension always
// matches the input set; consumers decide how to handle them.
type Statistics struct {
	Tickers []string
	Dates   []string             // observation dates, ascending
	Returns map[string][]float64 // per ticker, len == len(Dates)
}

// Empty reports whether there were too few aligned observations to compute
// anything. Callers must treat this as "insufficient data", not an error.
func (s *Statistics) Empty() bool {
	return s == nil || len(s.Tickers) == 0 || len(s.Dates) == 0
}

// Observations returns the number of aligned return points.
func (s *Statistics) Observations() int {
	if s == nil {
		return 0
	}
	return len(s.Dates)
}

// Column returns the return series for one ticker, or nil when absent.
func (s *Statistics) Column(ticker string) []float64 {
	if s == nil {
		return nil
	}
	return s.Returns[ticker]
}

// Means returns the mean return per ticker, ordered like Tickers.
func (s *Statistics) Means() []float64 {
	means := make([]float64, len(s.Tickers))
	for i, ticker := range s.Tickers {
		means[i] = formulas.Mean(s.Returns[ticker])
	}
	return means
}

// PortfolioReturns collapses the aligned columns into one weighted return
// series. Weights for tickers without data contribute nothing.
func (s *Statistics) PortfolioReturns(weights map[string]float64) []float64 {
	if s.Empty() {
		return []float64{}
	}

	series := make([]float64, len(s.Dates))
	for _, ticker := range s.Tickers {
		w := weights[ticker]
		if w == 0 {
			continue
		}
		for i, r := range s.Returns[ticker] {
			series[i] += w * r
		}
	}

	return series
}

// CovarianceMatrix builds the sample covariance matrix of the aligned return
// columns, ordered like Tickers. Diagonal entries are variances >= 0.
func (s *Statistics) CovarianceMatrix() *mat.SymDense {
	n := len(s.Tickers)
	cov := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			c := formulas.Covariance(s.Returns[s.Tickers[i]], s.Returns[s.Tickers[j]])
			cov.SetSym(i, j, c)
		}
	}

	return cov
}

// CorrelationMatrix normalizes the covariance matrix to correlations.
// Zero-variance instruments get zero off-diagonal entries and a unit
// diagonal so the dimension still matches the input set.
func (s *Statistics) CorrelationMatrix() *mat.SymDense {
	n := len(s.Tickers)
	corr := mat.NewSymDense(n, nil)

	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			c := formulas.Correlation(s.Returns[s.Tickers[i]], s.Returns[s.Tickers[j]])
			if math.IsNaN(c) {
				c = 0
			}
			corr.SetSym(i, j, c)
		}
	}

	return corr
}

// AverageCorrelation is the mean of the strict upper triangle of the
// correlation matrix, 0 for fewer than two instruments.
func (s *Statistics) AverageCorrelation() float64 {
	n := len(s.Tickers)
	if n < 2 {
		return 0
	}

	corr := s.CorrelationMatrix()
	total := 0.0
	count := 0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			total += corr.At(i, j)
			count++
		}
	}

	return total / float64(count)
}

// AnnualizedVolatility is the weighted portfolio volatility scaled to a
// yearly figure.
func (s *Statistics) AnnualizedVolatility(weights map[string]float64, periodsPerYear float64) float64 {
	return formulas.AnnualizedVolatility(s.PortfolioReturns(weights), periodsPerYear)
}

// RollingVolatility computes the rolling annualized volatility of the
// weighted portfolio return series over the given window.
func (s *Statistics) RollingVolatility(weights map[string]float64, window int, periodsPerYear float64) []float64 {
	return formulas.RollingVolatility(s.PortfolioReturns(weights), window, periodsPerYear)
}
