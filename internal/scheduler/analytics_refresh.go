package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantcore/internal/modules/portfolio"
	"github.com/quantfolio/quantcore/internal/modules/risk"
)

// AnalyticsRefreshJob recomputes the risk-metric bundle for every active
// portfolio and appends the results to the metrics history. Failures on one
// portfolio are logged and do not stop the sweep.
type AnalyticsRefreshJob struct {
	risk       *risk.Service
	metrics    *risk.MetricsRepository
	portfolios *portfolio.PortfolioRepository
	timeout    time.Duration
	log        zerolog.Logger
}

// NewAnalyticsRefreshJob creates the nightly analytics job.
func NewAnalyticsRefreshJob(
	riskSvc *risk.Service,
	metrics *risk.MetricsRepository,
	portfolios *portfolio.PortfolioRepository,
	log zerolog.Logger,
) *AnalyticsRefreshJob {
	return &AnalyticsRefreshJob{
		risk:       riskSvc,
		metrics:    metrics,
		portfolios: portfolios,
		timeout:    10 * time.Minute,
		log:        log.With().Str("component", "analytics_refresh").Logger(),
	}
}

// Name returns the job name
func (j *AnalyticsRefreshJob) Name() string {
	return "analytics_refresh"
}

// Run sweeps the active portfolios.
func (j *AnalyticsRefreshJob) Run() error {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	portfolios, err := j.portfolios.ListActive()
	if err != nil {
		return err
	}

	refreshed := 0
	for _, p := range portfolios {
		metrics, err := j.risk.Metrics(ctx, p.ID, p.OwnerID, 0)
		if err != nil {
			j.log.Error().Err(err).Int64("portfolio_id", p.ID).Msg("Failed to compute risk metrics")
			continue
		}
		if err := j.metrics.Save(metrics); err != nil {
			j.log.Error().Err(err).Int64("portfolio_id", p.ID).Msg("Failed to save risk metrics")
			continue
		}
		refreshed++
	}

	j.log.Info().
		Int("portfolios", len(portfolios)).
		Int("refreshed", refreshed).
		Msg("Analytics refresh complete")

	return nil
}
