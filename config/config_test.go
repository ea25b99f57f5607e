package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadYAMLOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
account:
  starting_cash: 25000
  symbols: [BTCUSDT]
risk:
  cooldown_minutes: 30
`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, 25000.0, cfg.Account.StartingCash)
	assert.Equal(t, []string{"BTCUSDT"}, cfg.Account.Symbols)
	assert.Equal(t, 30*time.Minute, cfg.Limits().Cooldown)

	// Untouched sections keep their defaults.
	assert.Equal(t, 0.55, cfg.Fusion.Threshold)
	assert.Equal(t, "sqlite", cfg.Journal.Backend)
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"account": {"starting_cash": 5000, "symbols": ["ETHUSDT"]}
	}`), 0o644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, cfg.Account.StartingCash)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "desk.yaml")
	want := Default()
	want.Account.StartingCash = 12345

	require.NoError(t, want.SaveToFile(path))
	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero cash", func(c *Config) { c.Account.StartingCash = 0 }},
		{"no symbols", func(c *Config) { c.Account.Symbols = nil }},
		{"order frac too big", func(c *Config) { c.Risk.MaxOrderFrac = 1.5 }},
		{"negative fee", func(c *Config) { c.Risk.FeeRate = -0.001 }},
		{"zero stop loss", func(c *Config) { c.Exit.StopLoss = 0 }},
		{"threshold out of range", func(c *Config) { c.Fusion.Threshold = 2 }},
		{"zero order size", func(c *Config) { c.Fusion.OrderSize = 0 }},
		{"bad journal backend", func(c *Config) { c.Journal.Backend = "postgres" }},
		{"journal path missing", func(c *Config) { c.Journal.Path = "" }},
		{"zero interval", func(c *Config) { c.Cycle.IntervalSeconds = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestExitPolicyInheritsCooldown(t *testing.T) {
	cfg := Default()
	cfg.Risk.CooldownMinutes = 45

	assert.Equal(t, 45*time.Minute, cfg.ExitPolicy().Cooldown)
	assert.Equal(t, cfg.ExitPolicy(), cfg.Fuser().Exit)
}
