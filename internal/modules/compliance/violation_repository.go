package compliance

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantcore/internal/domain"
)

// ViolationRepository handles compliance violation database operations
type ViolationRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewViolationRepository creates a new compliance violation repository
func NewViolationRepository(db *sql.DB, log zerolog.Logger) *ViolationRepository {
	return &ViolationRepository{
		db:  db,
		log: log.With().Str("repo", "compliance_violations").Logger(),
	}
}

// Save persists one violation record.
func (r *ViolationRepository) Save(v domain.ComplianceViolation) error {
	query := `
		INSERT INTO compliance_violations (id, portfolio_id, rule_id, occurred_at, severity, description, resolved)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.Exec(query,
		v.ID, v.PortfolioID, v.RuleID,
		v.OccurredAt.UTC().Format("2006-01-02 15:04:05"),
		string(v.Severity), v.Description, v.Resolved,
	)
	if err != nil {
		return fmt.Errorf("failed to insert compliance violation: %w", err)
	}

	return nil
}

// ListOpen returns the unresolved violations for a portfolio, newest first.
func (r *ViolationRepository) ListOpen(portfolioID int64) ([]domain.ComplianceViolation, error) {
	query := `
		SELECT id, portfolio_id, rule_id, occurred_at, severity, description, resolved
		FROM compliance_violations
		WHERE portfolio_id = ? AND resolved = 0
		ORDER BY occurred_at DESC
	`

	rows, err := r.db.Query(query, portfolioID)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance violations: %w", err)
	}
	defer rows.Close()

	var violations []domain.ComplianceViolation
	for rows.Next() {
		var (
			v          domain.ComplianceViolation
			occurredAt string
			severity   string
		)
		if err := rows.Scan(&v.ID, &v.PortfolioID, &v.RuleID, &occurredAt, &severity, &v.Description, &v.Resolved); err != nil {
			return nil, fmt.Errorf("failed to scan compliance violation: %w", err)
		}
		v.OccurredAt = parseTimestamp(occurredAt)
		v.Severity = domain.RuleSeverity(severity)
		violations = append(violations, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating compliance violations: %w", err)
	}

	return violations, nil
}

// Resolve marks a violation as handled. The portfolio id scopes the update so
// a record can only be resolved through its own portfolio.
func (r *ViolationRepository) Resolve(id string, portfolioID int64) error {
	res, err := r.db.Exec(`UPDATE compliance_violations SET resolved = 1 WHERE id = ? AND portfolio_id = ?`, id, portfolioID)
	if err != nil {
		return fmt.Errorf("failed to resolve compliance violation: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("compliance violation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}
