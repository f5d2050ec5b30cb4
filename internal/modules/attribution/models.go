package attribution

import "time"

// SectorEffect is the Brinson-Fachler decomposition for one sector.
type SectorEffect struct {
	Sector          string
	PortfolioWeight float64
	BenchmarkWeight float64
	PortfolioReturn float64
	BenchmarkReturn float64
	Allocation      float64
	Selection       float64
	Interaction     float64
	Total           float64
}

// Report is the single-period attribution breakdown. The defining invariant:
// AllocationEffect + SelectionEffect + InteractionEffect == ActiveReturn
// within numerical tolerance, for any input whose weight sets each sum to 1.
type Report struct {
	PortfolioID       int64
	StartDate         time.Time
	EndDate           time.Time
	TotalReturn       float64
	BenchmarkReturn   float64
	ActiveReturn      float64
	AllocationEffect  float64
	SelectionEffect   float64
	InteractionEffect float64
	Sectors           []SectorEffect
}

// Benchmark describes the comparison portfolio at sector granularity. Sectors
// missing from SectorWeights take the configured default sector weight, and
// the effective weights are normalized to sum to 1; missing returns take the
// configured default sector return. The benchmark total return is always the
// weight-consolidated sum of its sector returns so the decomposition closes.
type Benchmark struct {
	SectorWeights map[string]float64
	SectorReturns map[string]float64
}

// SecurityReturn is one holding's weight and realized period return.
type SecurityReturn struct {
	Ticker string
	Sector string
	Weight float64
	Return float64
}

// DatedReturn is one periodic portfolio return observation.
type DatedReturn struct {
	Date   string
	Return float64
}

// ReturnsReport summarizes realized portfolio returns over a window.
type ReturnsReport struct {
	PortfolioID      int64
	StartDate        time.Time
	EndDate          time.Time
	Daily            []DatedReturn
	CumulativeReturn float64
	AnnualizedReturn float64
	TWRR             float64
}
