package portfolio

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantcore/internal/domain"
)

// PortfolioRepository handles portfolio database operations
type PortfolioRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewPortfolioRepository creates a new portfolio repository
func NewPortfolioRepository(db *sql.DB, log zerolog.Logger) *PortfolioRepository {
	return &PortfolioRepository{
		db:  db,
		log: log.With().Str("repo", "portfolio").Logger(),
	}
}

// Get returns one portfolio scoped to its owner. A portfolio that exists but
// belongs to another owner is reported as not found.
func (r *PortfolioRepository) Get(id, ownerID int64) (domain.Portfolio, error) {
	query := `
		SELECT id, name, owner_id, strategy, benchmark, base_currency, is_active, created_at
		FROM portfolios
		WHERE id = ? AND owner_id = ?
	`

	var (
		p         domain.Portfolio
		createdAt string
	)
	err := r.db.QueryRow(query, id, ownerID).Scan(
		&p.ID, &p.Name, &p.OwnerID, &p.Strategy, &p.Benchmark,
		&p.BaseCurrency, &p.IsActive, &createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Portfolio{}, fmt.Errorf("portfolio %d: %w", id, domain.ErrNotFound)
		}
		return domain.Portfolio{}, fmt.Errorf("failed to query portfolio: %w", err)
	}

	p.CreatedAt = parseTimestamp(createdAt)
	return p, nil
}

// ListActive returns every active portfolio, for the periodic analytics job.
func (r *PortfolioRepository) ListActive() ([]domain.Portfolio, error) {
	query := `
		SELECT id, name, owner_id, strategy, benchmark, base_currency, is_active, created_at
		FROM portfolios
		WHERE is_active = 1
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolios: %w", err)
	}
	defer rows.Close()

	var portfolios []domain.Portfolio
	for rows.Next() {
		var (
			p         domain.Portfolio
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.Name, &p.OwnerID, &p.Strategy, &p.Benchmark,
			&p.BaseCurrency, &p.IsActive, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio: %w", err)
		}
		p.CreatedAt = parseTimestamp(createdAt)
		portfolios = append(portfolios, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating portfolios: %w", err)
	}

	return portfolios, nil
}

// Create inserts a portfolio and returns its assigned ID.
func (r *PortfolioRepository) Create(p domain.Portfolio) (int64, error) {
	query := `
		INSERT INTO portfolios (name, owner_id, strategy, benchmark, base_currency, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.Exec(query, p.Name, p.OwnerID, p.Strategy, p.Benchmark, p.BaseCurrency, p.IsActive)
	if err != nil {
		return 0, fmt.Errorf("failed to insert portfolio: %w", err)
	}

	return res.LastInsertId()
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
