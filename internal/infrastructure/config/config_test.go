package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
storage:
  database_path: "operations.db"
reconciliation:
  auto_min_score: 0.9
observability:
  logging:
    level: debug
    format: json
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "operations.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 0.9, cfg.Reconciliation.AutoMinScore)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_SparseFileGetsDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("server:\n  port: 3000\n"), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "reconcile.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 0.80, cfg.Reconciliation.AutoMinScore)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.Equal(t, "text", cfg.Observability.Logging.Format)
	assert.Contains(t, cfg.Server.AllowedOrigins, "http://localhost:3000")
}

func TestLoadFromEnv(t *testing.T) {
	os.Setenv("RECON_PORT", "8181")
	os.Setenv("RECON_DB_PATH", "test.db")
	os.Setenv("RECON_AUTO_MIN_SCORE", "0.75")
	os.Setenv("LOG_LEVEL", "warn")
	defer func() {
		os.Unsetenv("RECON_PORT")
		os.Unsetenv("RECON_DB_PATH")
		os.Unsetenv("RECON_AUTO_MIN_SCORE")
		os.Unsetenv("LOG_LEVEL")
	}()

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 0.75, cfg.Reconciliation.AutoMinScore)
	assert.Equal(t, "warn", cfg.Observability.Logging.Level)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	os.Unsetenv("RECON_PORT")
	os.Unsetenv("RECON_DB_PATH")
	os.Unsetenv("RECON_AUTO_MIN_SCORE")

	cfg := LoadFromEnv()
	assert.NotNil(t, cfg)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "reconcile.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 0.80, cfg.Reconciliation.AutoMinScore)
}

func TestLoadOrEnvWithPath_FallbackToEnv(t *testing.T) {
	os.Setenv("RECON_DB_PATH", "fallback.db")
	defer os.Unsetenv("RECON_DB_PATH")

	cfg := LoadOrEnvWithPath(filepath.Join(t.TempDir(), "nonexistent.yaml"))
	assert.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
storage:
  database_path: "${TEST_RECON_DB_PATH}"
`

	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	os.Setenv("TEST_RECON_DB_PATH", "expanded.db")
	defer os.Unsetenv("TEST_RECON_DB_PATH")

	cfg, err := Load(configPath)
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
}
