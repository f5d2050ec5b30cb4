package optimization

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/quantfolio/quantcore/internal/domain"
)

// riskParity equalizes each position's share of total portfolio risk. The
// solver minimizes the squared deviation of risk contributions from 1/N by
// projected gradient with numeric derivatives; the floor keeps every position
// invested so contributions stay defined.
func riskParity(tickers []string, cov *mat.SymDense) ([]float64, error) {
	n := len(tickers)
	if n == 0 {
		return nil, domain.ErrInsufficientData
	}
	if n == 1 {
		return []float64{1}, nil
	}

	lo := make([]float64, n)
	hi := make([]float64, n)
	for i := range lo {
		lo[i] = 0.01
		hi[i] = 1.0
	}

	objective := func(w []float64) float64 {
		variance := 0.0
		marginal := make([]float64, n)
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				marginal[i] += cov.At(i, j) * w[j]
			}
			variance += w[i] * marginal[i]
		}
		if variance <= 0 {
			return 0
		}

		target := 1.0 / float64(n)
		total := 0.0
		for i := 0; i < n; i++ {
			contribution := w[i] * marginal[i] / variance
			total += (contribution - target) * (contribution - target)
		}
		return total
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	w = projectToSimplex(w, lo, hi)

	const (
		eps  = 1e-7
		step = 0.5
	)

	grad := make([]float64, n)
	next := make([]float64, n)
	bumped := make([]float64, n)
	for iter := 0; iter < 2000; iter++ {
		base := objective(w)
		for i := 0; i < n; i++ {
			copy(bumped, w)
			bumped[i] += eps
			grad[i] = (objective(bumped) - base) / eps
		}

		for i := 0; i < n; i++ {
			next[i] = w[i] - step*grad[i]
		}
		next = projectToSimplex(next, lo, hi)

		delta := 0.0
		for i := 0; i < n; i++ {
			d := math.Abs(next[i] - w[i])
			if d > delta {
				delta = d
			}
		}
		copy(w, next)
		if delta < 1e-10 {
			break
		}
	}

	for _, wi := range w {
		if math.IsNaN(wi) || math.IsInf(wi, 0) {
			return nil, domain.NumericalError(string(MethodRiskParity), "solver diverged")
		}
	}

	return w, nil
}
