package attribution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrinsonFachlerDecompositionCloses(t *testing.T) {
	securities := []SecurityReturn{
		{Ticker: "AAPL", Sector: "Technology", Weight: 0.40, Return: 0.12},
		{Ticker: "MSFT", Sector: "Technology", Weight: 0.20, Return: 0.08},
		{Ticker: "JPM", Sector: "Financials", Weight: 0.25, Return: -0.03},
		{Ticker: "XOM", Sector: "Energy", Weight: 0.15, Return: 0.05},
	}
	bench := Benchmark{
		SectorWeights: map[string]float64{
			"Technology": 0.50,
			"Financials": 0.30,
			"Energy":     0.20,
		},
		SectorReturns: map[string]float64{
			"Technology": 0.09,
			"Financials": 0.01,
			"Energy":     0.04,
		},
	}

	report := BrinsonFachler(securities, bench, 0.08, 0.10)

	effects := report.AllocationEffect + report.SelectionEffect + report.InteractionEffect
	assert.InDelta(t, report.ActiveReturn, effects, 1e-9)

	// Benchmark total return is consolidated from its own sector data.
	expectedBench := 0.50*0.09 + 0.30*0.01 + 0.20*0.04
	assert.InDelta(t, expectedBench, report.BenchmarkReturn, 1e-12)

	require.Len(t, report.Sectors, 3)
	for _, sector := range report.Sectors {
		assert.InDelta(t, sector.Total, sector.Allocation+sector.Selection+sector.Interaction, 1e-12)
	}
}

func TestBrinsonFachlerSingleSector(t *testing.T) {
	securities := []SecurityReturn{
		{Ticker: "AAPL", Sector: "Technology", Weight: 1.0, Return: 0.10},
	}
	bench := Benchmark{
		SectorWeights: map[string]float64{"Technology": 1.0},
		SectorReturns: map[string]float64{"Technology": 0.06},
	}

	report := BrinsonFachler(securities, bench, 0.08, 0.10)

	assert.InDelta(t, 0.10, report.TotalReturn, 1e-12)
	assert.InDelta(t, 0.06, report.BenchmarkReturn, 1e-12)
	assert.InDelta(t, 0.04, report.ActiveReturn, 1e-12)
	// With matched weights the entire active return is selection.
	assert.InDelta(t, 0.04, report.SelectionEffect, 1e-12)
	assert.InDelta(t, 0.0, report.AllocationEffect, 1e-12)
	assert.InDelta(t, 0.0, report.InteractionEffect, 1e-12)
}

func TestBrinsonFachlerDefaultBenchmark(t *testing.T) {
	securities := []SecurityReturn{
		{Ticker: "AAPL", Sector: "Technology", Weight: 0.5, Return: 0.10},
		{Ticker: "JPM", Sector: "Financials", Weight: 0.5, Return: 0.02},
	}

	// Empty benchmark: weights spread equally, returns take the default.
	report := BrinsonFachler(securities, Benchmark{}, 0.08, 0.10)

	assert.InDelta(t, 0.08, report.BenchmarkReturn, 1e-12)
	effects := report.AllocationEffect + report.SelectionEffect + report.InteractionEffect
	assert.InDelta(t, report.ActiveReturn, effects, 1e-9)
}

func TestBrinsonFachlerBenchmarkOnlySector(t *testing.T) {
	securities := []SecurityReturn{
		{Ticker: "AAPL", Sector: "Technology", Weight: 1.0, Return: 0.10},
	}
	bench := Benchmark{
		SectorWeights: map[string]float64{"Technology": 0.60, "Utilities": 0.40},
		SectorReturns: map[string]float64{"Technology": 0.07, "Utilities": 0.03},
	}

	report := BrinsonFachler(securities, bench, 0.08, 0.10)

	// The unheld benchmark sector still contributes allocation effect.
	require.Len(t, report.Sectors, 2)
	effects := report.AllocationEffect + report.SelectionEffect + report.InteractionEffect
	assert.InDelta(t, report.ActiveReturn, effects, 1e-9)
}

func TestBrinsonFachlerPartialBenchmarkCloses(t *testing.T) {
	securities := []SecurityReturn{
		{Ticker: "AAPL", Sector: "Technology", Weight: 0.50, Return: 0.12},
		{Ticker: "JPM", Sector: "Financials", Weight: 0.30, Return: 0.02},
		{Ticker: "XOM", Sector: "Energy", Weight: 0.20, Return: 0.05},
	}
	// Only one sector is declared; the rest fall back to the default weight.
	bench := Benchmark{
		SectorWeights: map[string]float64{"Technology": 0.60},
		SectorReturns: map[string]float64{"Technology": 0.09},
	}

	report := BrinsonFachler(securities, bench, 0.08, 0.10)

	// Effective benchmark weights form a full weight set.
	weightSum := 0.0
	for _, sector := range report.Sectors {
		weightSum += sector.BenchmarkWeight
	}
	assert.InDelta(t, 1.0, weightSum, 1e-12)

	// 0.60/0.10/0.10 normalized: Technology 0.75, the others 0.125 each.
	for _, sector := range report.Sectors {
		if sector.Sector == "Technology" {
			assert.InDelta(t, 0.75, sector.BenchmarkWeight, 1e-12)
		} else {
			assert.InDelta(t, 0.125, sector.BenchmarkWeight, 1e-12)
		}
	}

	effects := report.AllocationEffect + report.SelectionEffect + report.InteractionEffect
	assert.InDelta(t, report.ActiveReturn, effects, 1e-9)
}

func TestBrinsonFachlerEmptyInput(t *testing.T) {
	report := BrinsonFachler(nil, Benchmark{}, 0.08, 0.10)
	assert.Zero(t, report.ActiveReturn)
	assert.Empty(t, report.Sectors)
}
