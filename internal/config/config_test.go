package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "yahoo", cfg.DataSource.Provider)
	assert.Equal(t, "wikipedia", cfg.Universe.Source)
	assert.Equal(t, 182, cfg.Screen.LookbackDays)
	assert.Equal(t, 182*24*time.Hour, cfg.Lookback())
	assert.Equal(t, 8, cfg.Screen.Concurrency)
	assert.Equal(t, 30*time.Second, cfg.DataSource.FetchTimeout)
	assert.Equal(t, "0 30 22 * * 1-5", cfg.Schedule.ScanCron)
	assert.Equal(t, 12*time.Hour, cfg.Cache.TTL)
	assert.False(t, cfg.TelegramEnabled())
	assert.True(t, cfg.CacheEnabled())
}

func TestLoad_CacheSwitch(t *testing.T) {
	cfg, err := Load(writeConfig(t, "cache:\n  disabled: true\n"))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.CacheEnabled())

	t.Setenv("SCREENER_CACHE_DISABLED", "true")
	cfg, err = Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.False(t, cfg.CacheEnabled())
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
data_source:
  provider: rest
  base_url: https://bars.example.com
  fetch_timeout: 10s
universe:
  source: static
  tickers: [AAPL, BRK.B]
screen:
  lookback_days: 120
  concurrency: 4
cache:
  ttl: 1h
`)
	t.Setenv("SCREENER_CONCURRENCY", "16")
	t.Setenv("TELEGRAM_BOT_TOKEN", "token")
	t.Setenv("TELEGRAM_CHAT_ID", "42")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "rest", cfg.DataSource.Provider)
	assert.Equal(t, 10*time.Second, cfg.DataSource.FetchTimeout)
	assert.Equal(t, []string{"AAPL", "BRK.B"}, cfg.Universe.Tickers)
	assert.Equal(t, 120, cfg.Screen.LookbackDays)
	assert.Equal(t, 16, cfg.Screen.Concurrency)
	assert.Equal(t, time.Hour, cfg.Cache.TTL)
	assert.True(t, cfg.TelegramEnabled())
}

func TestLoad_TickersEnvSwitchesToStatic(t *testing.T) {
	t.Setenv("SCREENER_TICKERS", "AAPL,MSFT")
	cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "static", cfg.Universe.Source)
	assert.Equal(t, []string{"AAPL", "MSFT"}, cfg.Universe.Tickers)
}

func TestLoad_BadYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "screen: [unterminated"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
	}{
		{"unknown provider", func(c *Config) { c.DataSource.Provider = "bloomberg" }},
		{"rest without base url", func(c *Config) { c.DataSource.Provider = "rest" }},
		{"static without tickers", func(c *Config) { c.Universe.Source = "static" }},
		{"negative concurrency", func(c *Config) { c.Screen.Concurrency = -1 }},
		{"lookback too short", func(c *Config) { c.Screen.LookbackDays = 5 }},
		{"half telegram", func(c *Config) { c.Telegram.BotToken = "x" }},
		{"negative cache ttl", func(c *Config) { c.Cache.TTL = -time.Minute }},
		{"bad metrics addr", func(c *Config) { c.Metrics.Listen = "not an address" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(filepath.Join(t.TempDir(), "none.yaml"))
			require.NoError(t, err)
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
