package portfolio

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/quantfolio/quantcore/internal/domain"
)

// PositionRepository handles position database operations. Monetary columns
// are stored as decimal strings, never binary floats.
type PositionRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *sql.DB, log zerolog.Logger) *PositionRepository {
	return &PositionRepository{
		db:  db,
		log: log.With().Str("repo", "position").Logger(),
	}
}

// ListByPortfolio returns all positions of one portfolio.
func (r *PositionRepository) ListByPortfolio(portfolioID int64) ([]domain.Position, error) {
	query := `
		SELECT id, portfolio_id, ticker, asset_class, shares, cost_basis,
		       current_price, market_value, currency, opened_at
		FROM positions
		WHERE portfolio_id = ?
		ORDER BY ticker
	`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query positions: %w", err)
	}
	defer rows.Close()

	var positions []domain.Position
	for rows.Next() {
		pos, err := scanPosition(rows)
		if err != nil {
			return nil, err
		}
		positions = append(positions, pos)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating positions: %w", err)
	}

	return positions, nil
}

// Upsert inserts or replaces a position row.
func (r *PositionRepository) Upsert(pos domain.Position) (int64, error) {
	if pos.ID > 0 {
		query := `
			UPDATE positions
			SET shares = ?, cost_basis = ?, current_price = ?, market_value = ?, currency = ?
			WHERE id = ?
		`
		if _, err := r.db.Exec(query, pos.Shares.String(), pos.CostBasis.String(),
			pos.CurrentPrice.String(), pos.MarketValue.String(), pos.Currency, pos.ID); err != nil {
			return 0, fmt.Errorf("failed to update position: %w", err)
		}
		return pos.ID, nil
	}

	query := `
		INSERT INTO positions (portfolio_id, ticker, asset_class, shares, cost_basis,
		                       current_price, market_value, currency)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	res, err := r.db.Exec(query, pos.PortfolioID, pos.Ticker, string(pos.AssetClass),
		pos.Shares.String(), pos.CostBasis.String(), pos.CurrentPrice.String(),
		pos.MarketValue.String(), pos.Currency)
	if err != nil {
		return 0, fmt.Errorf("failed to insert position: %w", err)
	}

	return res.LastInsertId()
}

func scanPosition(rows *sql.Rows) (domain.Position, error) {
	var (
		pos                                        domain.Position
		assetClass                                 string
		shares, costBasis, currentPrice, marketVal string
		openedAt                                   string
	)

	err := rows.Scan(&pos.ID, &pos.PortfolioID, &pos.Ticker, &assetClass,
		&shares, &costBasis, &currentPrice, &marketVal, &pos.Currency, &openedAt)
	if err != nil {
		return domain.Position{}, fmt.Errorf("failed to scan position: %w", err)
	}

	pos.AssetClass = domain.AssetClass(assetClass)
	if pos.Shares, err = decimal.NewFromString(shares); err != nil {
		return domain.Position{}, fmt.Errorf("invalid shares %q: %w", shares, err)
	}
	if pos.CostBasis, err = decimal.NewFromString(costBasis); err != nil {
		return domain.Position{}, fmt.Errorf("invalid cost basis %q: %w", costBasis, err)
	}
	if pos.CurrentPrice, err = decimal.NewFromString(currentPrice); err != nil {
		return domain.Position{}, fmt.Errorf("invalid current price %q: %w", currentPrice, err)
	}
	if pos.MarketValue, err = decimal.NewFromString(marketVal); err != nil {
		return domain.Position{}, fmt.Errorf("invalid market value %q: %w", marketVal, err)
	}
	pos.OpenedAt = parseTimestamp(openedAt)

	return pos, nil
}
