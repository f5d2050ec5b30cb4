package optimization

import (
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/quantfolio/quantcore/internal/domain"
)

// blTau scales the uncertainty of the equilibrium prior.
const blTau = 0.05

// blackLittermanReturns blends equilibrium returns implied by a market-weight
// prior with absolute investor views. With no views the posterior collapses
// to the prior.
//
//	pi    = delta * Sigma * w_mkt
//	Omega = diag(tau * P Sigma P')
//	mu    = pi + tau Sigma P' (P tau Sigma P' + Omega)^-1 (Q - P pi)
func blackLittermanReturns(tickers []string, cov *mat.SymDense, views map[string]float64, riskAversion float64) ([]float64, error) {
	n := len(tickers)

	// Equal market weights stand in for capitalization data.
	marketWeight := 1.0 / float64(n)
	pi := make([]float64, n)
	for i := 0; i < n; i++ {
		total := 0.0
		for j := 0; j < n; j++ {
			total += cov.At(i, j) * marketWeight
		}
		pi[i] = riskAversion * total
	}

	if len(views) == 0 {
		return pi, nil
	}

	index := make(map[string]int, n)
	for i, ticker := range tickers {
		index[ticker] = i
	}

	viewed := make([]string, 0, len(views))
	for ticker := range views {
		if _, ok := index[ticker]; ok {
			viewed = append(viewed, ticker)
		}
	}
	sort.Strings(viewed)
	k := len(viewed)
	if k == 0 {
		return pi, nil
	}

	pick := mat.NewDense(k, n, nil)
	q := mat.NewVecDense(k, nil)
	for row, ticker := range viewed {
		pick.Set(row, index[ticker], 1)
		q.SetVec(row, views[ticker])
	}

	tauSigma := mat.NewDense(n, n, nil)
	tauSigma.Scale(blTau, cov)

	// P tauSigma P'
	var pts, middle mat.Dense
	pts.Mul(pick, tauSigma)
	middle.Mul(&pts, pick.T())

	// Omega added on the diagonal.
	for i := 0; i < k; i++ {
		middle.Set(i, i, 2*middle.At(i, i))
	}

	// Q - P pi
	piVec := mat.NewVecDense(n, pi)
	var residual mat.VecDense
	residual.MulVec(pick, piVec)
	residual.SubVec(q, &residual)

	var adjust mat.VecDense
	if err := adjust.SolveVec(&middle, &residual); err != nil {
		return nil, domain.NumericalError(string(MethodBlackLitterman), "view uncertainty matrix is singular")
	}

	// tauSigma P' adjust
	var spread mat.Dense
	spread.Mul(tauSigma, pick.T())
	var tilt mat.VecDense
	tilt.MulVec(&spread, &adjust)

	posterior := make([]float64, n)
	for i := 0; i < n; i++ {
		posterior[i] = pi[i] + tilt.AtVec(i)
	}

	return posterior, nil
}
