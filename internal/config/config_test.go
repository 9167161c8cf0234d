package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chTempDir(t *testing.T) {
	t.Helper()
	// Change to temp dir so no config.yaml is found.
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
}

func TestLoadDefaults(t *testing.T) {
	chTempDir(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "collidium.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "data", cfg.Data.Dir)
	assert.Equal(t, "collisions.csv", cfg.Data.CollisionsCSV)
	assert.Equal(t, "building_permits.csv", cfg.Data.PermitsCSV)
	assert.Equal(t, 300, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 3, cfg.Fetch.Retries)
	assert.InDelta(t, 1.0, cfg.Fetch.RequestsPerSec, 0.001)
	assert.Equal(t, "2013-01-01", cfg.Collision.MinDate)
	assert.InDelta(t, 1_000_000, cfg.Building.MinValue, 0.001)
	assert.Equal(t, "2017-04-01", cfg.Building.FinalBefore)
	assert.InDelta(t, 1500, cfg.Join.RadiusFt, 0.001)
	assert.Equal(t, 365, cfg.Join.WindowDays)
	assert.Equal(t, []int{2014, 2015, 2016, 2017}, cfg.Query.ValidYears)
}

func TestLoadFromYAML(t *testing.T) {
	chTempDir(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/collidium
join:
  radius_ft: 800
  workers: 4
building:
  min_value: 2000000
log:
  level: debug
  format: console
`
	require.NoError(t, os.WriteFile("config.yaml", []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/collidium", cfg.Store.DatabaseURL)
	assert.InDelta(t, 800, cfg.Join.RadiusFt, 0.001)
	assert.Equal(t, 4, cfg.Join.Workers)
	assert.InDelta(t, 2_000_000, cfg.Building.MinValue, 0.001)
	assert.Equal(t, "debug", cfg.Log.Level)
	// Unset keys keep their defaults.
	assert.Equal(t, 365, cfg.Join.WindowDays)
}

func TestInitLogger(t *testing.T) {
	assert.NoError(t, InitLogger(LogConfig{Level: "debug", Format: "console"}))
	assert.NoError(t, InitLogger(LogConfig{Level: "warn", Format: "json"}))
	assert.Error(t, InitLogger(LogConfig{Level: "shout", Format: "json"}))
}
