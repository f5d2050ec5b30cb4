package risk

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/marketdata"
	"github.com/quantfolio/quantcore/pkg/formulas"
)

// HistoricalVaR scales the realized weighted-return series by sqrt(horizon)
// and takes the (1-confidence) empirical percentile, reported as a positive
// loss fraction.
func HistoricalVaR(portfolioReturns []float64, confidence float64, horizonDays int) float64 {
	if len(portfolioReturns) == 0 {
		return 0
	}

	scaled := scaleToHorizon(portfolioReturns, horizonDays)
	return math.Abs(formulas.Percentile(scaled, 1-confidence))
}

// ParametricVaR assumes normally distributed returns:
//
//	VaR = |mean + z(1-confidence) * sigma| * sqrt(horizon)
func ParametricVaR(portfolioReturns []float64, confidence float64, horizonDays int) float64 {
	if len(portfolioReturns) < 2 {
		return 0
	}

	mean := formulas.Mean(portfolioReturns)
	sigma := formulas.StdDev(portfolioReturns)
	z := distuv.UnitNormal.Quantile(1 - confidence)

	return math.Abs((mean + z*sigma) * math.Sqrt(float64(horizonDays)))
}

// HistoricalCVaR averages all returns at or below the VaR threshold of the
// scaled distribution, reported as a positive loss fraction.
func HistoricalCVaR(portfolioReturns []float64, confidence float64, horizonDays int) float64 {
	if len(portfolioReturns) == 0 {
		return 0
	}

	scaled := scaleToHorizon(portfolioReturns, horizonDays)
	threshold := formulas.Percentile(scaled, 1-confidence)

	var tailSum float64
	var tailCount int
	for _, r := range scaled {
		if r <= threshold {
			tailSum += r
			tailCount++
		}
	}
	if tailCount == 0 {
		return math.Abs(threshold)
	}

	return math.Abs(tailSum / float64(tailCount))
}

// MonteCarloVaR draws multivariate-normal return samples from the empirical
// mean vector and covariance matrix, computes simulated weighted portfolio
// returns and applies the historical-percentile rule to the simulated
// distribution. A covariance matrix that cannot be factorized even after
// diagonal regularization is a numerical failure.
func MonteCarloVaR(
	stats *marketdata.Statistics,
	weights map[string]float64,
	confidence float64,
	horizonDays int,
	simulations int,
	src rand.Source,
) (float64, error) {
	if stats.Empty() {
		return 0, nil
	}
	if simulations < 1 {
		simulations = 1
	}

	means := stats.Means()
	cov := stats.CovarianceMatrix()

	chol, err := factorize(cov)
	if err != nil {
		return 0, err
	}

	n := len(stats.Tickers)
	w := make([]float64, n)
	for i, ticker := range stats.Tickers {
		w[i] = weights[ticker]
	}

	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
	var lower mat.TriDense
	chol.LTo(&lower)

	simulated := make([]float64, simulations)
	z := make([]float64, n)
	correlated := mat.NewVecDense(n, nil)
	for s := 0; s < simulations; s++ {
		for i := range z {
			z[i] = normal.Rand()
		}
		correlated.MulVec(&lower, mat.NewVecDense(n, z))

		var portfolioReturn float64
		for i := 0; i < n; i++ {
			portfolioReturn += w[i] * (means[i] + correlated.AtVec(i))
		}
		simulated[s] = portfolioReturn
	}

	return HistoricalVaR(simulated, confidence, horizonDays), nil
}

// factorize attempts a Cholesky factorization, regularizing the diagonal a
// few times before giving up. Zero-variance instruments make the sample
// covariance only semi-definite, so the jitter path is common.
func factorize(cov *mat.SymDense) (*mat.Cholesky, error) {
	n, _ := cov.Dims()

	var chol mat.Cholesky
	if chol.Factorize(cov) {
		return &chol, nil
	}

	jitter := 1e-10
	for attempt := 0; attempt < 6; attempt++ {
		regularized := mat.NewSymDense(n, nil)
		regularized.CopySym(cov)
		for i := 0; i < n; i++ {
			regularized.SetSym(i, i, regularized.At(i, i)+jitter)
		}
		if chol.Factorize(regularized) {
			return &chol, nil
		}
		jitter *= 100
	}

	return nil, domain.NumericalError("monte_carlo", "covariance matrix is not positive definite")
}

func scaleToHorizon(returns []float64, horizonDays int) []float64 {
	if horizonDays < 1 {
		horizonDays = 1
	}

	factor := math.Sqrt(float64(horizonDays))
	scaled := make([]float64, len(returns))
	for i, r := range returns {
		scaled[i] = r * factor
	}

	return scaled
}
