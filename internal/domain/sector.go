package domain

// SectorClassifier maps a ticker to its sector. Classification is an external
// input owned by the data layer; this core only consumes the lookup.
type SectorClassifier interface {
	Sector(ticker string) string
}

// StaticClassifier is a fixed ticker-to-sector mapping with a fallback for
// unknown tickers. It stands in until a real classification feed is wired.
type StaticClassifier struct {
	Sectors  map[string]string
	Fallback string
}

// NewStaticClassifier builds a classifier from a fixed mapping. A nil mapping
// classifies everything as the fallback sector.
func NewStaticClassifier(sectors map[string]string, fallback string) StaticClassifier {
	if fallback == "" {
		fallback = "Technology"
	}
	return StaticClassifier{Sectors: sectors, Fallback: fallback}
}

// Sector returns the mapped sector or the fallback.
func (c StaticClassifier) Sector(ticker string) string {
	if s, ok := c.Sectors[ticker]; ok {
		return s
	}
	return c.Fallback
}
