package optimization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func testProblem(t *testing.T) *problem {
	t.Helper()

	tickers := []string{"AAA", "BBB", "CCC"}
	mu := []float64{0.12, 0.08, 0.05}
	cov := mat.NewSymDense(3, []float64{
		0.0400, 0.0060, 0.0020,
		0.0060, 0.0225, 0.0015,
		0.0020, 0.0015, 0.0100,
	})

	p, err := newProblem(tickers, mu, cov, 0, 1, 0.04)
	require.NoError(t, err)
	return p
}

func assertValidWeights(t *testing.T, w []float64) {
	t.Helper()

	sum := 0.0
	for _, wi := range w {
		assert.GreaterOrEqual(t, wi, -1e-9)
		sum += wi
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestProjectToSimplex(t *testing.T) {
	lo := []float64{0, 0, 0}
	hi := []float64{1, 1, 1}

	w := projectToSimplex([]float64{0.5, 0.3, 0.2}, lo, hi)
	assertValidWeights(t, w)
	// Already feasible input projects to itself.
	assert.InDelta(t, 0.5, w[0], 1e-9)

	w = projectToSimplex([]float64{2.0, -1.0, 0.5}, lo, hi)
	assertValidWeights(t, w)
	assert.InDelta(t, 0.0, w[1], 1e-9)
}

func TestProjectToSimplexRespectsBox(t *testing.T) {
	lo := []float64{0.1, 0.1, 0.1}
	hi := []float64{0.5, 0.5, 0.5}

	w := projectToSimplex([]float64{10, 0, 0}, lo, hi)
	assertValidWeights(t, w)
	for _, wi := range w {
		assert.GreaterOrEqual(t, wi, 0.1-1e-9)
		assert.LessOrEqual(t, wi, 0.5+1e-9)
	}
	assert.InDelta(t, 0.5, w[0], 1e-6)
}

func TestMinVolatilityPrefersLowVarianceAssets(t *testing.T) {
	p := testProblem(t)

	w, err := p.minVolatility()
	require.NoError(t, err)
	assertValidWeights(t, w)

	// AAA has 4x the variance of CCC; the minimum-variance portfolio holds
	// less of it.
	assert.Less(t, w[0], w[2])
	assert.LessOrEqual(t, p.volatility(w), p.volatility([]float64{1.0 / 3, 1.0 / 3, 1.0 / 3})+1e-9)
}

func TestMaxSharpe(t *testing.T) {
	p := testProblem(t)

	w, err := p.maxSharpe()
	require.NoError(t, err)
	assertValidWeights(t, w)

	// The solution beats both trivial corner portfolios on Sharpe.
	assert.GreaterOrEqual(t, p.sharpe(w), p.sharpe([]float64{1, 0, 0})-1e-9)
	assert.GreaterOrEqual(t, p.sharpe(w), p.sharpe([]float64{0, 0, 1})-1e-9)
}

func TestEfficientRisk(t *testing.T) {
	p := testProblem(t)

	target := 0.15
	w, err := p.efficientRisk(target)
	require.NoError(t, err)
	assertValidWeights(t, w)
	assert.LessOrEqual(t, p.volatility(w), target+1e-6)
}

func TestEfficientRiskInfeasibleTarget(t *testing.T) {
	p := testProblem(t)

	// No long-only combination of these assets gets volatility this low.
	_, err := p.efficientRisk(0.001)
	assert.Error(t, err)
}

func TestEfficientReturn(t *testing.T) {
	p := testProblem(t)

	target := 0.09
	w, err := p.efficientReturn(target)
	require.NoError(t, err)
	assertValidWeights(t, w)
	assert.GreaterOrEqual(t, p.portfolioReturn(w), target-1e-6)
}

func TestEfficientReturnInfeasibleTarget(t *testing.T) {
	p := testProblem(t)

	// Above the best single-asset return.
	_, err := p.efficientReturn(0.50)
	assert.Error(t, err)
}

func TestNewProblemInfeasibleBox(t *testing.T) {
	cov := mat.NewSymDense(2, []float64{0.04, 0, 0, 0.04})

	_, err := newProblem([]string{"AAA", "BBB"}, []float64{0.1, 0.1}, cov, 0, 0.3, 0.04)
	assert.Error(t, err)
}

func TestCleanWeights(t *testing.T) {
	weights := cleanWeights([]string{"AAA", "BBB", "CCC"}, []float64{0.6, 0.4, 1e-7})

	assert.NotContains(t, weights, "CCC")

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestFrontierLambdasSpanOrders(t *testing.T) {
	lambdas := frontierLambdas()
	require.NotEmpty(t, lambdas)
	assert.Less(t, lambdas[0], 0.1)
	assert.Greater(t, lambdas[len(lambdas)-1], 100.0)
	for _, l := range lambdas {
		assert.Greater(t, l, 0.0)
	}
}
