package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadUsesAnalyticsDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 0.04, cfg.Defaults.RiskFreeRate)
	assert.Equal(t, 10000, cfg.Defaults.MonteCarloDraws)
	assert.Equal(t, 252, cfg.Defaults.LookbackDays)
	assert.Equal(t, 2, cfg.Defaults.MinReturnPoints)
}

func TestLoadEnvOverridesAnalyticsDefaults(t *testing.T) {
	t.Setenv("MONTE_CARLO_DRAWS", "500")
	t.Setenv("RISK_FREE_RATE", "0.02")
	t.Setenv("RISK_LOOKBACK_DAYS", "126")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 500, cfg.Defaults.MonteCarloDraws)
	assert.Equal(t, 0.02, cfg.Defaults.RiskFreeRate)
	assert.Equal(t, 126, cfg.Defaults.LookbackDays)
}

func TestLoadEnvOverridesServerSettings(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("DEV_MODE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.True(t, cfg.DevMode)
}
