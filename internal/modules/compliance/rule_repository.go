package compliance

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/quantfolio/quantcore/internal/domain"
)

// RuleRepository handles compliance rule database operations
type RuleRepository struct {
	db  *sql.DB
	log zerolog.Logger
}

// NewRuleRepository creates a new compliance rule repository
func NewRuleRepository(db *sql.DB, log zerolog.Logger) *RuleRepository {
	return &RuleRepository{
		db:  db,
		log: log.With().Str("repo", "compliance_rules").Logger(),
	}
}

// ListActive returns every active rule, ordered by id.
func (r *RuleRepository) ListActive() ([]domain.ComplianceRule, error) {
	query := `
		SELECT id, name, description, rule_type, parameters, severity, is_active, created_at
		FROM compliance_rules
		WHERE is_active = 1
		ORDER BY id
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query compliance rules: %w", err)
	}
	defer rows.Close()

	var rules []domain.ComplianceRule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating compliance rules: %w", err)
	}

	return rules, nil
}

// Get returns one rule by id.
func (r *RuleRepository) Get(id int64) (domain.ComplianceRule, error) {
	query := `
		SELECT id, name, description, rule_type, parameters, severity, is_active, created_at
		FROM compliance_rules
		WHERE id = ?
	`

	row := r.db.QueryRow(query, id)
	rule, err := scanRuleRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ComplianceRule{}, fmt.Errorf("compliance rule %d: %w", id, domain.ErrNotFound)
		}
		return domain.ComplianceRule{}, err
	}

	return rule, nil
}

// Create inserts a rule and returns its assigned ID.
func (r *RuleRepository) Create(rule domain.ComplianceRule) (int64, error) {
	params, err := json.Marshal(rule.Parameters)
	if err != nil {
		return 0, fmt.Errorf("failed to encode rule parameters: %w", err)
	}

	query := `
		INSERT INTO compliance_rules (name, description, rule_type, parameters, severity, is_active)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	res, err := r.db.Exec(query, rule.Name, rule.Description, string(rule.Type), string(params), string(rule.Severity), rule.IsActive)
	if err != nil {
		return 0, fmt.Errorf("failed to insert compliance rule: %w", err)
	}

	return res.LastInsertId()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRule(rows *sql.Rows) (domain.ComplianceRule, error) {
	return scanRuleRow(rows)
}

func scanRuleRow(row rowScanner) (domain.ComplianceRule, error) {
	var (
		rule      domain.ComplianceRule
		ruleType  string
		params    string
		severity  string
		createdAt string
	)
	if err := row.Scan(&rule.ID, &rule.Name, &rule.Description, &ruleType, &params, &severity, &rule.IsActive, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ComplianceRule{}, err
		}
		return domain.ComplianceRule{}, fmt.Errorf("failed to scan compliance rule: %w", err)
	}

	rule.Type = domain.RuleType(ruleType)
	rule.Severity = domain.RuleSeverity(severity)
	rule.CreatedAt = parseTimestamp(createdAt)

	rule.Parameters = map[string]float64{}
	if params != "" {
		if err := json.Unmarshal([]byte(params), &rule.Parameters); err != nil {
			return domain.ComplianceRule{}, fmt.Errorf("failed to decode parameters for rule %d: %w", rule.ID, err)
		}
	}

	return rule, nil
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05", time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
