package risk

import (
	"sort"

	"github.com/quantfolio/quantcore/internal/modules/portfolio"
)

// sectorExposure aggregates position weights by sector. The Herfindahl index
// over sector weights measures concentration risk: 1.0 means everything sits
// in a single sector.
func sectorExposure(snap portfolio.Snapshot, classifier sectorLookup) SectorExposure {
	exposures := make(map[string]float64)
	for ticker, weight := range snap.Weights {
		exposures[classifier.Sector(ticker)] += weight
	}

	var largest []SectorWeight
	herfindahl := 0.0
	for sector, exposure := range exposures {
		largest = append(largest, SectorWeight{Sector: sector, Exposure: exposure})
		herfindahl += exposure * exposure
	}

	sort.Slice(largest, func(i, j int) bool {
		if largest[i].Exposure == largest[j].Exposure {
			return largest[i].Sector < largest[j].Sector
		}
		return largest[i].Exposure > largest[j].Exposure
	})
	if len(largest) > 10 {
		largest = largest[:10]
	}

	return SectorExposure{
		Exposures:         exposures,
		Largest:           largest,
		ConcentrationRisk: herfindahl,
	}
}
