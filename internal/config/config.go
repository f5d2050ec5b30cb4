package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DatabasePath string
	LogLevel     string
	Port         int
	DevMode      bool

	Defaults Defaults
}

// Defaults carries the named numeric fallbacks used across the analytics
// engines. They live here, not as constants buried in calculation paths, so
// tests and deployments can override them deterministically.
type Defaults struct {
	RiskFreeRate       float64 // annual, e.g. 0.04
	TradingDays        float64 // periods per year for annualization
	BenchmarkReturn    float64 // sector benchmark return fallback
	BenchmarkWeight    float64 // sector benchmark weight fallback
	StressShock        float64 // shock for unknown stress scenarios
	ReferencePrice     float64 // price fallback for unpriced tickers
	MinTradeWeight     float64 // materiality threshold for rebalance trades
	CommissionRate     float64 // commission estimate, fraction of notional
	MinModelPoints     int     // aligned observations for model-backed output
	MinReturnPoints    int     // price points per ticker to derive a return series
	MonteCarloDraws    int     // default simulation count
	LookbackDays       int     // price history window for risk calculations
	OptimizerLookbackD int     // longer window for optimization inputs
}

// DefaultAnalytics returns the documented default bundle.
func DefaultAnalytics() Defaults {
	return Defaults{
		RiskFreeRate:       0.04,
		TradingDays:        252,
		BenchmarkReturn:    0.08,
		BenchmarkWeight:    0.10,
		StressShock:        -0.20,
		ReferencePrice:     100.0,
		MinTradeWeight:     0.001,
		CommissionRate:     0.0001,
		MinModelPoints:     60,
		MinReturnPoints:    2,
		MonteCarloDraws:    10000,
		LookbackDays:       252,
		OptimizerLookbackD: 756,
	}
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Port:         getEnvAsInt("PORT", 8001),
		DevMode:      getEnvAsBool("DEV_MODE", false),
		DatabasePath: getEnv("DATABASE_PATH", "./data/quantcore.db"),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		Defaults:     DefaultAnalytics(),
	}

	cfg.Defaults.RiskFreeRate = getEnvAsFloat("RISK_FREE_RATE", cfg.Defaults.RiskFreeRate)
	cfg.Defaults.CommissionRate = getEnvAsFloat("COMMISSION_RATE", cfg.Defaults.CommissionRate)
	cfg.Defaults.LookbackDays = getEnvAsInt("RISK_LOOKBACK_DAYS", cfg.Defaults.LookbackDays)
	cfg.Defaults.MonteCarloDraws = getEnvAsInt("MONTE_CARLO_DRAWS", cfg.Defaults.MonteCarloDraws)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.DatabasePath == "" {
		return fmt.Errorf("DATABASE_PATH is required")
	}
	if c.Defaults.TradingDays <= 0 {
		return fmt.Errorf("trading days per year must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
