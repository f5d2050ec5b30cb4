package risk

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfolio/quantcore/internal/marketdata"
)

func sampleReturns() []float64 {
	return []float64{
		0.012, -0.024, 0.008, -0.015, 0.020, 0.003, -0.031, 0.011,
		-0.006, 0.017, -0.009, 0.004, -0.022, 0.014, 0.001, -0.018,
		0.009, -0.002, 0.025, -0.013,
	}
}

func TestHistoricalVaRMonotonicInConfidence(t *testing.T) {
	returns := sampleReturns()

	var95 := HistoricalVaR(returns, 0.95, 1)
	var99 := HistoricalVaR(returns, 0.99, 1)

	assert.GreaterOrEqual(t, var99, var95)
	assert.Greater(t, var95, 0.0)
}

func TestHistoricalVaRScalesWithHorizon(t *testing.T) {
	returns := sampleReturns()

	oneDay := HistoricalVaR(returns, 0.95, 1)
	tenDay := HistoricalVaR(returns, 0.95, 10)

	assert.InDelta(t, oneDay*math.Sqrt(10), tenDay, 1e-9)
}

func TestHistoricalVaREmptySeries(t *testing.T) {
	assert.Equal(t, 0.0, HistoricalVaR(nil, 0.95, 1))
}

func TestHistoricalCVaRAtLeastVaR(t *testing.T) {
	returns := sampleReturns()

	varValue := HistoricalVaR(returns, 0.95, 1)
	cvarValue := HistoricalCVaR(returns, 0.95, 1)

	// Expected shortfall averages the tail beyond VaR, so it cannot be less.
	assert.GreaterOrEqual(t, cvarValue, varValue-1e-12)
}

func TestParametricVaR(t *testing.T) {
	returns := sampleReturns()

	value := ParametricVaR(returns, 0.95, 1)
	assert.Greater(t, value, 0.0)

	// Wider confidence pushes the quantile further into the tail.
	assert.Greater(t, ParametricVaR(returns, 0.99, 1), value)

	assert.Equal(t, 0.0, ParametricVaR([]float64{0.01}, 0.95, 1))
}

func TestMonteCarloVaRDeterministicWithFixedSource(t *testing.T) {
	stats := &marketdata.Statistics{
		Tickers: []string{"AAA", "BBB"},
		Dates:   []string{"d1", "d2", "d3", "d4", "d5"},
		Returns: map[string][]float64{
			"AAA": {0.01, -0.02, 0.015, -0.005, 0.01},
			"BBB": {-0.005, 0.01, -0.02, 0.015, 0.002},
		},
	}
	weights := map[string]float64{"AAA": 0.6, "BBB": 0.4}

	first, err := MonteCarloVaR(stats, weights, 0.95, 1, 2000, rand.NewPCG(7, 11))
	require.NoError(t, err)
	second, err := MonteCarloVaR(stats, weights, 0.95, 1, 2000, rand.NewPCG(7, 11))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Greater(t, first, 0.0)
}

func TestMonteCarloVaRHandlesSemiDefiniteCovariance(t *testing.T) {
	// A zero-variance instrument makes the covariance matrix only PSD; the
	// jitter path must still factorize it.
	stats := &marketdata.Statistics{
		Tickers: []string{"AAA", "FLAT"},
		Dates:   []string{"d1", "d2", "d3", "d4"},
		Returns: map[string][]float64{
			"AAA":  {0.01, -0.02, 0.015, -0.005},
			"FLAT": {0, 0, 0, 0},
		},
	}

	value, err := MonteCarloVaR(stats, map[string]float64{"AAA": 0.5, "FLAT": 0.5}, 0.95, 1, 500, rand.NewPCG(1, 2))
	require.NoError(t, err)
	assert.Greater(t, value, 0.0)
}

func TestMonteCarloVaRFloorsSimulationCount(t *testing.T) {
	// A non-positive simulation count is floored to a single draw.
	stats := &marketdata.Statistics{
		Tickers: []string{"AAA"},
		Dates:   []string{"d1", "d2", "d3"},
		Returns: map[string][]float64{
			"AAA": {0.01, -0.02, 0.015},
		},
	}

	value, err := MonteCarloVaR(stats, map[string]float64{"AAA": 1}, 0.95, 1, 0, rand.NewPCG(3, 5))
	require.NoError(t, err)
	assert.GreaterOrEqual(t, value, 0.0)
}

func TestMonteCarloVaREmptyStats(t *testing.T) {
	value, err := MonteCarloVaR(&marketdata.Statistics{}, nil, 0.95, 1, 100, rand.NewPCG(1, 2))
	require.NoError(t, err)
	assert.Equal(t, 0.0, value)
}
