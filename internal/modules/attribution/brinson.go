package attribution

import "sort"

// BrinsonFachler decomposes active return into allocation, selection and
// interaction effects at sector granularity.
//
// Per sector s, with wp/wb the portfolio/benchmark weights and rp/rb the
// sector returns, and RB the benchmark total return:
//
//	allocation  = (wp - wb) * (rb - RB)
//	selection   = wb * (rp - rb)
//	interaction = (wp - wb) * (rp - rb)
//
// RB is computed as the benchmark's own weighted sector return. Sectors
// absent from the declared benchmark weights take defaultSectorWeight, and
// the effective weights are normalized to sum to 1, so the three effects sum
// exactly to the active return even for partially specified benchmarks.
func BrinsonFachler(securities []SecurityReturn, bench Benchmark, defaultSectorReturn, defaultSectorWeight float64) Report {
	sectors := aggregateSectors(securities)
	if len(sectors) == 0 {
		return Report{}
	}

	names := make([]string, 0, len(sectors))
	for name := range sectors {
		names = append(names, name)
	}
	for name := range bench.SectorWeights {
		if _, ok := sectors[name]; !ok {
			names = append(names, name)
			sectors[name] = &sectorBucket{}
		}
	}
	sort.Strings(names)

	weights := effectiveBenchmarkWeights(names, bench.SectorWeights, defaultSectorWeight)
	benchmarkReturn := func(sector string) float64 {
		if r, ok := bench.SectorReturns[sector]; ok {
			return r
		}
		return defaultSectorReturn
	}

	// Benchmark total return consolidated from its own sector data.
	totalBenchmark := 0.0
	for _, name := range names {
		totalBenchmark += weights[name] * benchmarkReturn(name)
	}

	report := Report{BenchmarkReturn: totalBenchmark}
	for _, name := range names {
		bucket := sectors[name]
		wp := bucket.weight
		wb := weights[name]
		rb := benchmarkReturn(name)
		rp := 0.0
		if wp > 0 {
			rp = bucket.weightedReturn / wp
		}

		allocation := (wp - wb) * (rb - totalBenchmark)
		selection := wb * (rp - rb)
		interaction := (wp - wb) * (rp - rb)

		report.TotalReturn += bucket.weightedReturn
		report.AllocationEffect += allocation
		report.SelectionEffect += selection
		report.InteractionEffect += interaction

		report.Sectors = append(report.Sectors, SectorEffect{
			Sector:          name,
			PortfolioWeight: wp,
			BenchmarkWeight: wb,
			PortfolioReturn: rp,
			BenchmarkReturn: rb,
			Allocation:      allocation,
			Selection:       selection,
			Interaction:     interaction,
			Total:           allocation + selection + interaction,
		})
	}

	report.ActiveReturn = report.TotalReturn - report.BenchmarkReturn
	return report
}

// effectiveBenchmarkWeights fills sectors missing from the declared map with
// the default sector weight and normalizes the result to sum to 1. The
// closure identity requires the benchmark weights to be a full weight set.
func effectiveBenchmarkWeights(names []string, declared map[string]float64, defaultWeight float64) map[string]float64 {
	weights := make(map[string]float64, len(names))
	total := 0.0
	for _, name := range names {
		w, ok := declared[name]
		if !ok {
			w = defaultWeight
		}
		if w < 0 {
			w = 0
		}
		weights[name] = w
		total += w
	}

	if total <= 0 {
		equal := 1.0 / float64(len(names))
		for _, name := range names {
			weights[name] = equal
		}
		return weights
	}

	for name := range weights {
		weights[name] /= total
	}
	return weights
}

type sectorBucket struct {
	weight         float64
	weightedReturn float64
}

func aggregateSectors(securities []SecurityReturn) map[string]*sectorBucket {
	sectors := make(map[string]*sectorBucket)
	for _, sec := range securities {
		bucket, ok := sectors[sec.Sector]
		if !ok {
			bucket = &sectorBucket{}
			sectors[sec.Sector] = bucket
		}
		bucket.weight += sec.Weight
		bucket.weightedReturn += sec.Weight * sec.Return
	}
	return sectors
}
