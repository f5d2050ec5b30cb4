package optimization

import (
	"math"
	"math/rand/v2"
)

// sampleFrontier builds the risk/return cloud: random long-only portfolios
// for the interior plus the solved frontier portfolios along the upper edge.
func sampleFrontier(p *problem, points int, src rand.Source) ([]FrontierPoint, error) {
	if points <= 0 {
		points = 200
	}

	rng := rand.New(src)
	n := len(p.tickers)
	out := make([]FrontierPoint, 0, points+len(frontierLambdas()))

	for k := 0; k < points; k++ {
		w := make([]float64, n)
		total := 0.0
		for i := range w {
			// Exponential draws normalize to a flat Dirichlet sample.
			w[i] = rng.ExpFloat64()
			total += w[i]
		}
		for i := range w {
			w[i] /= total
		}
		out = append(out, frontierPoint(p, w))
	}

	for _, lambda := range frontierLambdas() {
		w, err := p.solveQP(lambda, "frontier")
		if err != nil {
			return nil, err
		}
		out = append(out, frontierPoint(p, w))
	}

	return out, nil
}

func frontierPoint(p *problem, w []float64) FrontierPoint {
	ret := p.portfolioReturn(w)
	vol := p.volatility(w)
	sharpe := 0.0
	if vol > 0 {
		sharpe = (ret - p.riskFree) / vol
	}
	if math.IsNaN(sharpe) {
		sharpe = 0
	}

	return FrontierPoint{
		Return:      ret,
		Volatility:  vol,
		SharpeRatio: sharpe,
		Weights:     cleanWeights(p.tickers, w),
	}
}
