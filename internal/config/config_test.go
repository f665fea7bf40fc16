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

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, 3001, cfg.Server.Port)
	assert.Equal(t, 5*time.Second, cfg.Tracking.FlushInterval)
	assert.Equal(t, 50.0, cfg.Tracking.ScrollThreshold)
	assert.Equal(t, 0, cfg.Tracking.BatchSize)
	assert.Equal(t, 4, cfg.Ingest.Concurrency)
	assert.Equal(t, "file", cfg.Mirror.Backend)
	assert.False(t, cfg.Mirror.Enabled)
	assert.Equal(t, "llama-3.3-70b-versatile", cfg.Groq.Model)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSAllowedOrigins)
}

func TestLoadConfig_FileAndEnvOverride(t *testing.T) {
	path := writeConfig(t, `
data_dir: /var/lib/insights
server:
  port: 8080
mirror:
  enabled: true
  backend: badger
  save_every: 10
tracking:
  flush_interval: 2s
`)
	t.Setenv("GROQ_API_KEY", "gsk_test")
	t.Setenv("PORT", "9090")

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "gsk_test", cfg.Groq.APIKey)
	assert.True(t, cfg.Mirror.Enabled)
	assert.Equal(t, 10, cfg.Mirror.SaveEvery)
	assert.Equal(t, 2*time.Second, cfg.Tracking.FlushInterval)
	assert.Equal(t, filepath.Join("/var/lib/insights", "mirror"), cfg.MirrorPath())
	assert.Equal(t, filepath.Join("/var/lib/insights", "insights.db"), cfg.DatabasePath())
}

func TestLoadConfig_InvalidBackend(t *testing.T) {
	path := writeConfig(t, "mirror:\n  backend: redis\n")

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mirror.backend")
}

func TestValidate_Ranges(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)

	bad := *cfg
	bad.Server.Port = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Ingest.Concurrency = 0
	assert.Error(t, bad.Validate())

	bad = *cfg
	bad.Tracking.FlushInterval = 0
	assert.Error(t, bad.Validate())
}

func TestFirebaseConfig(t *testing.T) {
	f := FirebaseConfig{}
	assert.False(t, f.Configured())

	f.PrivateKey = `-----BEGIN-----\nabc\n-----END-----`
	assert.True(t, f.Configured())
	assert.Equal(t, "-----BEGIN-----\nabc\n-----END-----", f.Key())
}

func TestSessionPath(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/agent"}
	assert.Equal(t, filepath.Join("/tmp/agent", "session.json"), cfg.SessionPath())

	cfg.Tracking.SessionFile = "/etc/session.json"
	assert.Equal(t, "/etc/session.json", cfg.SessionPath())
}
