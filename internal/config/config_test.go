package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "localhost", cfg.Database.Postgres.Host)
	assert.True(t, cfg.Database.Postgres.Enabled)
	assert.True(t, cfg.Redis.Enabled)
	assert.True(t, cfg.NATS.Enabled)
	assert.True(t, cfg.NATS.JetStream)
	assert.Equal(t, 5*time.Minute, cfg.Dispatch.AcceptanceWindow)
	assert.Equal(t, 3, cfg.Dispatch.MaxReassignments)
	assert.Equal(t, 24*time.Hour, cfg.Dispatch.ResolvedGracePeriod)
	assert.Equal(t, 2*time.Minute, cfg.Scheduler.RetriageInterval)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9090
dispatch:
  acceptance_window: 90s
  max_reassignments: 5
database:
  postgres:
    enabled: false
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 90*time.Second, cfg.Dispatch.AcceptanceWindow)
	assert.Equal(t, 5, cfg.Dispatch.MaxReassignments)
	assert.False(t, cfg.Database.Postgres.Enabled)
	// Untouched keys keep their defaults.
	assert.Equal(t, 24*time.Hour, cfg.Dispatch.ResolvedGracePeriod)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("STRAYAID_SERVER_PORT", "7070")
	t.Setenv("STRAYAID_DISPATCH_MAX_REASSIGNMENTS", "1")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 1, cfg.Dispatch.MaxReassignments)
}

func TestPostgresDSN(t *testing.T) {
	pc := PostgresConfig{
		Host: "db", Port: 5433, User: "strayaid", Password: "s3cret",
		Database: "strayaid", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://strayaid:s3cret@db:5433/strayaid?sslmode=disable", pc.DSN())
}
