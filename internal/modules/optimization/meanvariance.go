package optimization

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/quantfolio/quantcore/internal/domain"
)

// problem is one mean-variance program: annualized expected returns and
// covariance under per-position box constraints and full investment.
type problem struct {
	tickers  []string
	mu       []float64
	cov      *mat.SymDense
	lo, hi   []float64
	riskFree float64
}

func newProblem(tickers []string, mu []float64, cov *mat.SymDense, minPos, maxPos, riskFree float64) (*problem, error) {
	n := len(tickers)
	if n == 0 {
		return nil, domain.ErrInsufficientData
	}

	if maxPos <= 0 || maxPos > 1 {
		maxPos = 1
	}
	if minPos < 0 {
		minPos = 0
	}

	lo := make([]float64, n)
	hi := make([]float64, n)
	for i := range lo {
		lo[i] = minPos
		hi[i] = maxPos
	}

	if minPos*float64(n) > 1+1e-9 || maxPos*float64(n) < 1-1e-9 {
		return nil, domain.NumericalError("mean_variance", "box constraints leave no feasible portfolio")
	}

	return &problem{tickers: tickers, mu: mu, cov: cov, lo: lo, hi: hi, riskFree: riskFree}, nil
}

// corr normalizes the covariance to a correlation matrix. Zero-variance
// instruments keep a unit diagonal and zero correlation.
func (p *problem) corr() *mat.SymDense {
	n := len(p.tickers)
	corr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		corr.SetSym(i, i, 1)
		for j := i + 1; j < n; j++ {
			denom := math.Sqrt(p.cov.At(i, i) * p.cov.At(j, j))
			if denom > 0 {
				corr.SetSym(i, j, p.cov.At(i, j)/denom)
			}
		}
	}
	return corr
}

func (p *problem) portfolioReturn(w []float64) float64 {
	total := 0.0
	for i, wi := range w {
		total += wi * p.mu[i]
	}
	return total
}

func (p *problem) portfolioVariance(w []float64) float64 {
	n := len(w)
	total := 0.0
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			total += w[i] * p.cov.At(i, j) * w[j]
		}
	}
	return total
}

func (p *problem) volatility(w []float64) float64 {
	v := p.portfolioVariance(w)
	if v <= 0 {
		return 0
	}
	return math.Sqrt(v)
}

func (p *problem) sharpe(w []float64) float64 {
	vol := p.volatility(w)
	if vol == 0 {
		return 0
	}
	return (p.portfolioReturn(w) - p.riskFree) / vol
}

// solveQP minimizes lambda*w'Σw - w·mu over the constraint set by projected
// gradient descent. lambda trades risk against return; mu may be nil for a
// pure minimum-variance program.
func (p *problem) solveQP(lambda float64, method string) ([]float64, error) {
	n := len(p.tickers)

	w := make([]float64, n)
	for i := range w {
		w[i] = 1.0 / float64(n)
	}
	w = projectToSimplex(w, p.lo, p.hi)

	// Lipschitz bound for the gradient via Gershgorin row sums.
	lipschitz := 0.0
	for i := 0; i < n; i++ {
		row := 0.0
		for j := 0; j < n; j++ {
			row += math.Abs(p.cov.At(i, j))
		}
		if row > lipschitz {
			lipschitz = row
		}
	}
	step := 1.0 / (2*lambda*lipschitz + 1e-12)

	grad := make([]float64, n)
	next := make([]float64, n)
	for iter := 0; iter < 5000; iter++ {
		for i := 0; i < n; i++ {
			g := 0.0
			for j := 0; j < n; j++ {
				g += p.cov.At(i, j) * w[j]
			}
			grad[i] = 2 * lambda * g
			if p.mu != nil {
				grad[i] -= p.mu[i]
			}
		}

		for i := 0; i < n; i++ {
			next[i] = w[i] - step*grad[i]
		}
		next = projectToSimplex(next, p.lo, p.hi)

		delta := 0.0
		for i := 0; i < n; i++ {
			d := math.Abs(next[i] - w[i])
			if d > delta {
				delta = d
			}
		}
		copy(w, next)
		if delta < 1e-11 {
			break
		}
	}

	for _, wi := range w {
		if math.IsNaN(wi) || math.IsInf(wi, 0) {
			return nil, domain.NumericalError(method, "solver diverged")
		}
	}

	return w, nil
}

// maxSharpe scans the risk-aversion frontier and keeps the portfolio with
// the best Sharpe ratio.
func (p *problem) maxSharpe() ([]float64, error) {
	var best []float64
	bestSharpe := math.Inf(-1)

	for _, lambda := range frontierLambdas() {
		w, err := p.solveQP(lambda, string(MethodMaxSharpe))
		if err != nil {
			return nil, err
		}
		if s := p.sharpe(w); s > bestSharpe {
			bestSharpe = s
			best = append([]float64(nil), w...)
		}
	}

	if best == nil {
		return nil, domain.NumericalError(string(MethodMaxSharpe), "no frontier point found")
	}
	return best, nil
}

// minVolatility solves the pure minimum-variance program.
func (p *problem) minVolatility() ([]float64, error) {
	stripped := &problem{tickers: p.tickers, mu: nil, cov: p.cov, lo: p.lo, hi: p.hi, riskFree: p.riskFree}
	return stripped.solveQP(1.0, string(MethodMinVolatility))
}

// efficientRisk maximizes return subject to volatility at or below target.
func (p *problem) efficientRisk(targetVolatility float64) ([]float64, error) {
	var best []float64
	bestReturn := math.Inf(-1)

	for _, lambda := range frontierLambdas() {
		w, err := p.solveQP(lambda, string(MethodEfficientRisk))
		if err != nil {
			return nil, err
		}
		if p.volatility(w) <= targetVolatility && p.portfolioReturn(w) > bestReturn {
			bestReturn = p.portfolioReturn(w)
			best = append([]float64(nil), w...)
		}
	}

	if best == nil {
		return nil, domain.NumericalError(string(MethodEfficientRisk), "target volatility below minimum achievable")
	}
	return best, nil
}

// efficientReturn minimizes volatility subject to return at or above target.
func (p *problem) efficientReturn(targetReturn float64) ([]float64, error) {
	var best []float64
	bestVol := math.Inf(1)

	for _, lambda := range frontierLambdas() {
		w, err := p.solveQP(lambda, string(MethodEfficientReturn))
		if err != nil {
			return nil, err
		}
		if p.portfolioReturn(w) >= targetReturn && p.volatility(w) < bestVol {
			bestVol = p.volatility(w)
			best = append([]float64(nil), w...)
		}
	}

	if best == nil {
		return nil, domain.NumericalError(string(MethodEfficientReturn), "target return above maximum achievable")
	}
	return best, nil
}

// frontierLambdas are log-spaced risk-aversion values spanning the frontier
// from return-seeking to variance-minimizing.
func frontierLambdas() []float64 {
	const count = 40
	lambdas := make([]float64, count)
	logMin, logMax := math.Log(0.05), math.Log(500.0)
	for i := 0; i < count; i++ {
		lambdas[i] = math.Exp(logMin + (logMax-logMin)*float64(i)/float64(count-1))
	}
	return lambdas
}

// projectToSimplex projects v onto {w: sum w = 1, lo <= w <= hi} by bisecting
// the shift in w_i = clip(v_i - tau, lo_i, hi_i); the constraint sum is
// monotone in tau.
func projectToSimplex(v, lo, hi []float64) []float64 {
	n := len(v)
	out := make([]float64, n)

	sumAt := func(tau float64) float64 {
		total := 0.0
		for i := 0; i < n; i++ {
			w := v[i] - tau
			if w < lo[i] {
				w = lo[i]
			} else if w > hi[i] {
				w = hi[i]
			}
			total += w
		}
		return total
	}

	low, high := math.Inf(1), math.Inf(-1)
	for i := 0; i < n; i++ {
		if v[i]-hi[i] < low {
			low = v[i] - hi[i]
		}
		if v[i]-lo[i] > high {
			high = v[i] - lo[i]
		}
	}
	low -= 1
	high += 1

	for iter := 0; iter < 100; iter++ {
		mid := (low + high) / 2
		if sumAt(mid) > 1 {
			low = mid
		} else {
			high = mid
		}
	}

	tau := (low + high) / 2
	for i := 0; i < n; i++ {
		w := v[i] - tau
		if w < lo[i] {
			w = lo[i]
		} else if w > hi[i] {
			w = hi[i]
		}
		out[i] = w
	}

	return out
}

// cleanWeights zeroes dust allocations and renormalizes so the full
// investment constraint survives rounding.
func cleanWeights(tickers []string, w []float64) map[string]float64 {
	total := 0.0
	for _, wi := range w {
		if wi >= 1e-4 {
			total += wi
		}
	}
	if total == 0 {
		total = 1
	}

	weights := make(map[string]float64, len(tickers))
	for i, ticker := range tickers {
		if w[i] < 1e-4 {
			continue
		}
		weights[ticker] = w[i] / total
	}

	return weights
}
