package attribution

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantcore/internal/config"
	"github.com/quantfolio/quantcore/internal/domain"
	"github.com/quantfolio/quantcore/internal/marketdata"
	"github.com/quantfolio/quantcore/internal/modules/portfolio"
	"github.com/quantfolio/quantcore/pkg/formulas"
)

// Service is the attribution engine: Brinson-Fachler decomposition and the
// realized-returns report.
type Service struct {
	portfolios *portfolio.Service
	market     *marketdata.Service
	provider   marketdata.Provider
	classifier domain.SectorClassifier
	defaults   config.Defaults
	log        zerolog.Logger
}

// NewService creates a new attribution service
func NewService(
	portfolios *portfolio.Service,
	market *marketdata.Service,
	provider marketdata.Provider,
	classifier domain.SectorClassifier,
	defaults config.Defaults,
	log zerolog.Logger,
) *Service {
	return &Service{
		portfolios: portfolios,
		market:     market,
		provider:   provider,
		classifier: classifier,
		defaults:   defaults,
		log:        log.With().Str("component", "attribution").Logger(),
	}
}

// Attribution runs the Brinson-Fachler decomposition over the given window.
// Pass a nil benchmark to use the configured sector defaults.
func (s *Service) Attribution(ctx context.Context, portfolioID, ownerID int64, start, end time.Time, bench *Benchmark) (Report, error) {
	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return Report{}, err
	}

	var securities []SecurityReturn
	for _, pos := range snap.Positions {
		periodReturn, ok, err := s.periodReturn(ctx, pos.Ticker, start, end)
		if err != nil {
			return Report{}, err
		}
		if !ok {
			s.log.Debug().Str("ticker", pos.Ticker).Msg("No price data for attribution window")
			continue
		}

		securities = append(securities, SecurityReturn{
			Ticker: pos.Ticker,
			Sector: s.classifier.Sector(pos.Ticker),
			Weight: snap.Weights[pos.Ticker],
			Return: periodReturn,
		})
	}

	var benchmark Benchmark
	if bench != nil {
		benchmark = *bench
	}

	report := BrinsonFachler(securities, benchmark, s.defaults.BenchmarkReturn, s.defaults.BenchmarkWeight)
	report.PortfolioID = portfolioID
	report.StartDate = start
	report.EndDate = end

	s.log.Debug().
		Int64("portfolio_id", portfolioID).
		Float64("active_return", report.ActiveReturn).
		Int("sectors", len(report.Sectors)).
		Msg("Calculated attribution")

	return report, nil
}

// Returns computes the realized portfolio return series plus cumulative,
// annualized and time-weighted figures over a window.
func (s *Service) Returns(ctx context.Context, portfolioID, ownerID int64, start, end time.Time) (ReturnsReport, error) {
	report := ReturnsReport{PortfolioID: portfolioID, StartDate: start, EndDate: end}

	snap, err := s.portfolios.Snapshot(portfolioID, ownerID)
	if err != nil {
		return report, err
	}

	stats, err := s.market.AlignedReturns(ctx, snap.Tickers(), start, end)
	if err != nil {
		return report, err
	}
	if stats.Empty() {
		return report, nil
	}

	series := stats.PortfolioReturns(snap.Weights)
	for i, date := range stats.Dates {
		report.Daily = append(report.Daily, DatedReturn{Date: date, Return: series[i]})
	}

	report.CumulativeReturn = formulas.CumulativeReturn(series)
	report.TWRR = report.CumulativeReturn
	report.AnnualizedReturn = formulas.AnnualizedFromTotal(report.CumulativeReturn, int(end.Sub(start).Hours()/24))

	return report, nil
}

// periodReturn is the simple return between the first and last close of the
// window. ok=false means no usable data.
func (s *Service) periodReturn(ctx context.Context, ticker string, start, end time.Time) (float64, bool, error) {
	bars, err := s.provider.DailyPrices(ctx, ticker, start, end)
	if err != nil {
		return 0, false, fmt.Errorf("failed to fetch prices for %s: %w", ticker, err)
	}
	if len(bars) < 2 || bars[0].Close == 0 {
		return 0, false, nil
	}

	first := bars[0].Close
	last := bars[len(bars)-1].Close
	return (last - first) / first, true, nil
}
