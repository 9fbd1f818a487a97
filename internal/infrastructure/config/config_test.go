package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
storage:
  database_path: "ledger.db"
solver:
  max_candidates: 24
  max_nodes: 5000
api:
  port: 9000
  allowed_origins:
    - "http://localhost:3000"
observability:
  logging:
    level: debug
    format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "ledger.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 24, cfg.Solver.MaxCandidates)
	assert.Equal(t, int64(5000), cfg.Solver.MaxNodes)
	assert.Equal(t, 9000, cfg.API.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.API.AllowedOrigins)
	assert.Equal(t, "debug", cfg.Observability.Logging.Level)
	assert.Equal(t, "json", cfg.Observability.Logging.Format)
}

func TestLoad_SparseFileGetsDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "storage:\n  database_path: sparse.db\n"))
	require.NoError(t, err)

	assert.Equal(t, "sparse.db", cfg.Storage.DatabasePath)
	assert.Equal(t, DefaultMaxCandidates, cfg.Solver.MaxCandidates)
	assert.Equal(t, int64(DefaultMaxNodes), cfg.Solver.MaxNodes)
	assert.Equal(t, 8085, cfg.API.Port)
	assert.Equal(t, "info", cfg.Observability.Logging.Level)
	assert.Equal(t, "text", cfg.Observability.Logging.Format)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "solver: [unclosed"))
	assert.Error(t, err)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("AUTOCLEAR_DB_PATH", "test.db")
	t.Setenv("AUTOCLEAR_MAX_CANDIDATES", "20")
	t.Setenv("AUTOCLEAR_MAX_NODES", "1000")
	t.Setenv("API_PORT", "9999")
	t.Setenv("API_ALLOWED_ORIGINS", "http://a.test, http://b.test,")

	cfg := LoadFromEnv()
	assert.Equal(t, "test.db", cfg.Storage.DatabasePath)
	assert.Equal(t, 20, cfg.Solver.MaxCandidates)
	assert.Equal(t, int64(1000), cfg.Solver.MaxNodes)
	assert.Equal(t, 9999, cfg.API.Port)
	assert.Equal(t, []string{"http://a.test", "http://b.test"}, cfg.API.AllowedOrigins)
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	t.Setenv("AUTOCLEAR_DB_PATH", "")
	t.Setenv("AUTOCLEAR_MAX_CANDIDATES", "not-a-number")
	t.Setenv("API_ALLOWED_ORIGINS", "")

	cfg := LoadFromEnv()
	assert.Equal(t, "autoclear.db", cfg.Storage.DatabasePath)
	assert.Equal(t, DefaultMaxCandidates, cfg.Solver.MaxCandidates)
	assert.Nil(t, cfg.API.AllowedOrigins)
}

func TestLoadOrEnv_FallbackToEnv(t *testing.T) {
	t.Setenv("AUTOCLEAR_DB_PATH", "fallback.db")

	cfg := LoadOrEnvWithPath("nonexistent.yaml")
	require.NotNil(t, cfg)
	assert.Equal(t, "fallback.db", cfg.Storage.DatabasePath)
}

func TestEnvVarExpansion(t *testing.T) {
	t.Setenv("TEST_DB_PATH", "expanded.db")

	cfg, err := Load(writeConfig(t, `
storage:
  database_path: "${TEST_DB_PATH}"
`))
	require.NoError(t, err)
	assert.Equal(t, "expanded.db", cfg.Storage.DatabasePath)
}
