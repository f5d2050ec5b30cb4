package risk

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
)

// MetricsRepository persists computed risk-metric bundles for the nightly
// refresh job and the reporting collaborators.
type MetricsRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewMetricsRepository creates a new risk metrics repository
func NewMetricsRepository(db *sql.DB, log zerolog.Logger) *MetricsRepository {
	return &MetricsRepository{
		db:  db,
		log: log.With().Str("repo", "risk_metrics").Logger(),
	}
}

// Save appends one metrics row. Rows are append-only; history is the point.
func (r *MetricsRepository) Save(m Metrics) error {
	query := `
		INSERT INTO risk_metrics (
			portfolio_id, calculation_date, volatility, sharpe_ratio, sortino_ratio,
			max_drawdown, beta, alpha, tracking_error, information_ratio, var_95, cvar_95
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		m.PortfolioID, m.AsOf.Format("2006-01-02"),
		m.Volatility, m.SharpeRatio, m.SortinoRatio,
		m.MaxDrawdown, m.Beta, m.Alpha, m.TrackingError, m.InformationRatio,
		m.VaR95.String(), m.CVaR95.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to save risk metrics: %w", err)
	}

	return nil
}
