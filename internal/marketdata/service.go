package marketdata

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantcore/internal/config"
	"github.com/quantfolio/quantcore/internal/domain"
)

// Service derives aligned return statistics from raw price history. It is the
// shared leaf dependency of the risk, attribution and optimization engines.
type Service struct {
	provider Provider
	defaults config.Defaults
	log      zerolog.Logger
}

// NewService creates a new return statistics service
func NewService(provider Provider, defaults config.Defaults, log zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		defaults: defaults,
		log:      log.With().Str("component", "marketdata").Logger(),
	}
}

// minBars is the price points an instrument needs before its return series is
// usable. Two bars yield one return, so the floor is two.
func (s *Service) minBars() int {
	if s.defaults.MinReturnPoints > 2 {
		return s.defaults.MinReturnPoints
	}
	return 2
}

// tickerSeries is one instrument's return observations keyed by date.
type tickerSeries struct {
	ticker  string
	returns map[string]float64
}

// AlignedReturns fetches price history for every ticker concurrently, derives
// simple returns per instrument, and inner-joins them on date. Dates missing
// from any series are dropped, never zero-filled. Tickers with fewer than the
// configured minimum of price points are dropped from the joint set.
func (s *Service) AlignedReturns(ctx context.Context, tickers []string, from, to time.Time) (*Statistics, error) {
	type fetchResult struct {
		ticker string
		bars   []domain.PriceBar
		err    error
	}

	results := make([]fetchResult, len(tickers))
	var wg sync.WaitGroup
	for i, ticker := range tickers {
		wg.Add(1)
		go func(i int, ticker string) {
			defer wg.Done()
			bars, err := s.provider.DailyPrices(ctx, ticker, from, to)
			results[i] = fetchResult{ticker: ticker, bars: bars, err: err}
		}(i, ticker)
	}
	wg.Wait()

	var series []tickerSeries
	for _, res := range results {
		if res.err != nil {
			return nil, fmt.Errorf("failed to fetch prices for %s: %w", res.ticker, res.err)
		}
		if len(res.bars) < s.minBars() {
			s.log.Debug().Str("ticker", res.ticker).Int("bars", len(res.bars)).
				Msg("Dropping ticker with insufficient price history")
			continue
		}
		series = append(series, deriveReturns(res.ticker, res.bars))
	}

	if len(series) == 0 {
		return &Statistics{}, nil
	}

	dates := commonDates(series)
	if len(dates) == 0 {
		return &Statistics{}, nil
	}

	stats := &Statistics{
		Dates:   dates,
		Returns: make(map[string][]float64, len(series)),
	}
	for _, ts := range series {
		column := make([]float64, len(dates))
		for i, date := range dates {
			column[i] = ts.returns[date]
		}
		stats.Tickers = append(stats.Tickers, ts.ticker)
		stats.Returns[ts.ticker] = column
	}

	s.log.Debug().
		Int("tickers", len(stats.Tickers)).
		Int("observations", len(dates)).
		Msg("Aligned return series")

	return stats, nil
}

// ReturnSeries fetches a single instrument's return series, dated by the
// later day of each consecutive bar pair.
func (s *Service) ReturnSeries(ctx context.Context, ticker string, from, to time.Time) ([]string, []float64, error) {
	bars, err := s.provider.DailyPrices(ctx, ticker, from, to)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch prices for %s: %w", ticker, err)
	}
	if len(bars) < s.minBars() {
		return nil, nil, nil
	}

	ts := deriveReturns(ticker, bars)
	dates := make([]string, 0, len(ts.returns))
	for date := range ts.returns {
		dates = append(dates, date)
	}
	sort.Strings(dates)

	returns := make([]float64, len(dates))
	for i, date := range dates {
		returns[i] = ts.returns[date]
	}

	return dates, returns, nil
}

// deriveReturns computes simple returns from adjacent bars. Adjacency is
// treated as consecutive trading days regardless of calendar gaps.
func deriveReturns(ticker string, bars []domain.PriceBar) tickerSeries {
	returns := make(map[string]float64, len(bars)-1)
	for i := 1; i < len(bars); i++ {
		prev := bars[i-1].Close
		if prev == 0 {
			continue
		}
		date := bars[i].Date.Format(dateLayout)
		returns[date] = (bars[i].Close - prev) / prev
	}

	return tickerSeries{ticker: ticker, returns: returns}
}

// commonDates intersects the observation dates of every series, ascending.
func commonDates(series []tickerSeries) []string {
	counts := make(map[string]int)
	for _, ts := range series {
		for date := range ts.returns {
			counts[date]++
		}
	}

	var dates []string
	for date, n := range counts {
		if n == len(series) {
			dates = append(dates, date)
		}
	}
	sort.Strings(dates)

	return dates
}
