package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoAssetStats() *Statistics {
	return &Statistics{
		Tickers: []string{"AAA", "BBB"},
		Dates:   []string{"2024-01-02", "2024-01-03", "2024-01-04", "2024-01-05"},
		Returns: map[string][]float64{
			"AAA": {0.01, -0.02, 0.015, 0.005},
			"BBB": {-0.01, 0.02, -0.015, -0.005},
		},
	}
}

func TestStatisticsEmpty(t *testing.T) {
	var s *Statistics
	assert.True(t, s.Empty())
	assert.True(t, (&Statistics{}).Empty())
	assert.False(t, twoAssetStats().Empty())
}

func TestPortfolioReturns(t *testing.T) {
	stats := twoAssetStats()
	series := stats.PortfolioReturns(map[string]float64{"AAA": 0.5, "BBB": 0.5})

	require.Len(t, series, 4)
	// Perfectly offsetting legs cancel.
	for _, r := range series {
		assert.InDelta(t, 0.0, r, 1e-12)
	}
}

func TestPortfolioReturnsIgnoresUnknownWeights(t *testing.T) {
	stats := twoAssetStats()
	series := stats.PortfolioReturns(map[string]float64{"AAA": 1.0, "ZZZ": 0.5})

	require.Len(t, series, 4)
	assert.InDelta(t, 0.01, series[0], 1e-12)
}

func TestCovarianceMatrixShape(t *testing.T) {
	cov := twoAssetStats().CovarianceMatrix()

	r, c := cov.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.GreaterOrEqual(t, cov.At(0, 0), 0.0)
	assert.InDelta(t, cov.At(0, 1), cov.At(1, 0), 1e-15)
}

func TestCorrelationMatrix(t *testing.T) {
	corr := twoAssetStats().CorrelationMatrix()

	assert.InDelta(t, 1.0, corr.At(0, 0), 1e-12)
	assert.InDelta(t, 1.0, corr.At(1, 1), 1e-12)
	// The two columns mirror each other exactly.
	assert.InDelta(t, -1.0, corr.At(0, 1), 1e-9)
}

func TestCorrelationMatrixZeroVariance(t *testing.T) {
	stats := &Statistics{
		Tickers: []string{"AAA", "FLAT"},
		Dates:   []string{"d1", "d2", "d3"},
		Returns: map[string][]float64{
			"AAA":  {0.01, -0.02, 0.015},
			"FLAT": {0, 0, 0},
		},
	}

	corr := stats.CorrelationMatrix()
	assert.Equal(t, 1.0, corr.At(1, 1))
	assert.Equal(t, 0.0, corr.At(0, 1))
}

func TestAverageCorrelation(t *testing.T) {
	assert.Equal(t, 0.0, (&Statistics{Tickers: []string{"AAA"}}).AverageCorrelation())
	assert.InDelta(t, -1.0, twoAssetStats().AverageCorrelation(), 1e-9)
}
