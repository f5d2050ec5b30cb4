package marketdata

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantcore/internal/domain"
)

// Provider supplies daily price history for one instrument. An empty result
// is a valid, non-error response meaning "no data". Implementations backed by
// a remote collaborator should wrap transport failures in
// domain.ErrUpstreamUnavailable; this core never retries them.
type Provider interface {
	DailyPrices(ctx context.Context, ticker string, from, to time.Time) ([]domain.PriceBar, error)
}

const dateLayout = "2006-01-02"

// HistoryRepository reads and writes daily price bars in the local price_data
// table, which the data-ingestion collaborator keeps current.
type HistoryRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewHistoryRepository creates a new price history repository
func NewHistoryRepository(db *sql.DB, log zerolog.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:  db,
		log: log.With().Str("repo", "price_history").Logger(),
	}
}

// DailyPrices fetches bars for a ticker ordered by date ascending.
func (r *HistoryRepository) DailyPrices(ctx context.Context, ticker string, from, to time.Time) ([]domain.PriceBar, error) {
	query := `
		SELECT date, open, high, low, close, adjusted_close, volume
		FROM price_data
		WHERE ticker = ? AND date >= ? AND date <= ?
		ORDER BY date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, ticker, from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("failed to query prices for %s: %w", ticker, err)
	}
	defer rows.Close()

	var bars []domain.PriceBar
	for rows.Next() {
		var (
			dateStr  string
			open     sql.NullFloat64
			high     sql.NullFloat64
			low      sql.NullFloat64
			closePx  float64
			adjClose sql.NullFloat64
			volume   sql.NullInt64
		)

		if err := rows.Scan(&dateStr, &open, &high, &low, &closePx, &adjClose, &volume); err != nil {
			return nil, fmt.Errorf("failed to scan price bar: %w", err)
		}

		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			return nil, fmt.Errorf("invalid price date %q: %w", dateStr, err)
		}

		bar := domain.PriceBar{
			Date:     date,
			Open:     open.Float64,
			High:     high.Float64,
			Low:      low.Float64,
			Close:    closePx,
			AdjClose: closePx,
			Volume:   volume.Int64,
		}
		if adjClose.Valid {
			bar.AdjClose = adjClose.Float64
		}

		bars = append(bars, bar)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating price bars: %w", err)
	}

	return bars, nil
}

// SaveBar upserts a single daily bar. Used by the ingestion boundary and by
// tests seeding fixtures.
func (r *HistoryRepository) SaveBar(ctx context.Context, ticker string, bar domain.PriceBar) error {
	query := `
		INSERT INTO price_data (ticker, date, open, high, low, close, adjusted_close, volume)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(ticker, date) DO UPDATE SET
			open = excluded.open,
			high = excluded.high,
			low = excluded.low,
			close = excluded.close,
			adjusted_close = excluded.adjusted_close,
			volume = excluded.volume
	`

	_, err := r.db.ExecContext(ctx, query,
		ticker, bar.Date.Format(dateLayout),
		bar.Open, bar.High, bar.Low, bar.Close, bar.AdjClose, bar.Volume,
	)
	if err != nil {
		return fmt.Errorf("failed to save price bar for %s: %w", ticker, err)
	}

	return nil
}
