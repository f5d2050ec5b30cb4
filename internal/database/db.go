package database

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// DB wraps the database connection
type DB struct {
	conn *sql.DB
	path string
}

// New creates a new database connection
func New(dbPath string) (*DB, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	// WAL mode for better concurrency
	conn, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)

	return &DB{
		conn: conn,
		path: dbPath,
	}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Conn returns the underlying sql.DB connection
func (db *DB) Conn() *sql.DB {
	return db.conn
}

// Begin starts a new transaction
func (db *DB) Begin() (*sql.Tx, error) {
	return db.conn.Begin()
}

// Migrate creates the schema when missing. Statements are idempotent so the
// call is safe on every boot.
func (db *DB) Migrate() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS portfolios (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			owner_id INTEGER NOT NULL,
			strategy TEXT DEFAULT '',
			benchmark TEXT DEFAULT '',
			base_currency TEXT DEFAULT 'USD',
			is_active INTEGER DEFAULT 1,
			created_at TEXT DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS positions (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			portfolio_id INTEGER NOT NULL REFERENCES portfolios(id) ON DELETE CASCADE,
			ticker TEXT NOT NULL,
			asset_class TEXT DEFAULT 'equity',
			shares TEXT NOT NULL,
			cost_basis TEXT DEFAULT '0',
			current_price TEXT DEFAULT '0',
			market_value TEXT DEFAULT '0',
			currency TEXT DEFAULT 'USD',
			opened_at TEXT DEFAULT (datetime('now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_positions_portfolio ON positions(portfolio_id)`,
		`CREATE TABLE IF NOT EXISTS price_data (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			ticker TEXT NOT NULL,
			date TEXT NOT NULL,
			open REAL, high REAL, low REAL,
			close REAL NOT NULL,
			adjusted_close REAL,
			volume INTEGER,
			UNIQUE(ticker, date)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_price_data_ticker_date ON price_data(ticker, date)`,
		`CREATE TABLE IF NOT EXISTS compliance_rules (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			description TEXT DEFAULT '',
			rule_type TEXT NOT NULL,
			parameters TEXT NOT NULL DEFAULT '{}',
			severity TEXT DEFAULT 'warning',
			is_active INTEGER DEFAULT 1,
			created_at TEXT DEFAULT (datetime('now'))
		)`,
		`CREATE TABLE IF NOT EXISTS compliance_violations (
			id TEXT PRIMARY KEY,
			portfolio_id INTEGER NOT NULL,
			rule_id INTEGER NOT NULL,
			occurred_at TEXT NOT NULL,
			severity TEXT NOT NULL,
			description TEXT NOT NULL,
			resolved INTEGER DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_violations_portfolio ON compliance_violations(portfolio_id)`,
		`CREATE TABLE IF NOT EXISTS risk_metrics (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			portfolio_id INTEGER NOT NULL,
			calculation_date TEXT NOT NULL,
			volatility REAL, sharpe_ratio REAL, sortino_ratio REAL,
			max_drawdown REAL, beta REAL, alpha REAL,
			tracking_error REAL, information_ratio REAL,
			var_95 TEXT, cvar_95 TEXT,
			created_at TEXT DEFAULT (datetime('now'))
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.conn.Exec(stmt); err != nil {
			return fmt.Errorf("failed to run migration: %w", err)
		}
	}

	return nil
}

// Exec executes a query without returning rows
func (db *DB) Exec(query string, args ...interface{}) (sql.Result, error) {
	return db.conn.Exec(query, args...)
}

// Query executes a query that returns rows
func (db *DB) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return db.conn.Query(query, args...)
}

// QueryRow executes a query that returns at most one row
func (db *DB) QueryRow(query string, args ...interface{}) *sql.Row {
	return db.conn.QueryRow(query, args...)
}
