package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultHasSaneValues(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "./aegis-data", cfg.DataDir)
	assert.Equal(t, 200, cfg.Planner.InitialCapacity)
	assert.Equal(t, 50, cfg.Planner.MinCapacity)
	assert.Equal(t, 5000, cfg.Planner.MaxCapacity)
	assert.Equal(t, 20*time.Millisecond, cfg.Planner.FlushInterval)
	assert.Equal(t, time.Hour, cfg.Session.DefaultTTL)
}

func TestLoadFillsMissingFieldsFromDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aegis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("dataDir: /var/lib/aegis\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/aegis", cfg.DataDir)
	assert.Equal(t, 200, cfg.Planner.InitialCapacity)
	assert.Equal(t, time.Hour, cfg.Session.DefaultTTL)
}

func TestLoadHonorsExplicitOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "aegis.yaml")
	yaml := `
dataDir: /data/aegis
log:
  level: debug
  json: true
planner:
  initialCapacity: 500
  minCapacity: 100
  maxCapacity: 10000
  flushInterval: 50ms
session:
  defaultTTL: 15m
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/aegis", cfg.DataDir)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.True(t, cfg.Log.JSON)
	assert.Equal(t, 500, cfg.Planner.InitialCapacity)
	assert.Equal(t, 50*time.Millisecond, cfg.Planner.FlushInterval)
	assert.Equal(t, 15*time.Minute, cfg.Session.DefaultTTL)
}

func TestLoadErrorsOnMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestTuningConvertsToPlannerShape(t *testing.T) {
	cfg := Default()
	tuning := cfg.Tuning()
	assert.Equal(t, cfg.Planner.InitialCapacity, tuning.InitialCapacity)
	assert.Equal(t, cfg.Planner.FlushInterval, tuning.FlushInterval)
}
