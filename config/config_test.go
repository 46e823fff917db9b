package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/cashflow-engine/ledger"
)

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CASHFLOW_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, ":8080", cfg.Addr())
	assert.Equal(t, ledger.ProjectionMonths, cfg.ProjectionMonths)
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "cashflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
port: 9000
db_path: /tmp/file.db
log_format: json
allowed_origins: [https://app.example]
projection_months: 36
shutdown_timeout: 10s
`), 0o600))

	// GIVEN: The environment overrides part of the file
	t.Setenv("CASHFLOW_PORT", "9100")
	t.Setenv("CASHFLOW_CURRENCY", "eur")
	t.Setenv("CASHFLOW_ALLOWED_ORIGINS", "http://a, http://b,")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Port)
	assert.Equal(t, "/tmp/file.db", cfg.DBPath)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "EUR", cfg.Currency)
	assert.Equal(t, []string{"http://a", "http://b"}, cfg.AllowedOrigins)
	assert.Equal(t, 36, cfg.ProjectionMonths)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CASHFLOW_DB_PATH=:memory:\n"), 0o600))
	t.Cleanup(func() { os.Unsetenv("CASHFLOW_DB_PATH") })

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, ":memory:", cfg.DBPath)
}

func TestLoad_Errors(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load("missing.yaml")
	assert.Error(t, err)

	t.Setenv("CASHFLOW_PORT", "http")
	t.Setenv("CASHFLOW_SHUTDOWN_TIMEOUT", "soon")
	_, err = Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CASHFLOW_PORT")
	assert.Contains(t, err.Error(), "CASHFLOW_SHUTDOWN_TIMEOUT")
}

func TestValidate_ProjectionMonthsRange(t *testing.T) {
	tests := []struct {
		months int
		valid  bool
	}{
		{1, true},
		{ledger.ProjectionMonths, true},
		{ledger.MaxProjectionMonths, true},
		{0, false},
		{ledger.MaxProjectionMonths + 1, false},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.ProjectionMonths = tt.months
		if tt.valid {
			assert.NoError(t, cfg.Validate(), "months %d", tt.months)
		} else {
			assert.ErrorContains(t, cfg.Validate(), "projection months", "months %d", tt.months)
		}
	}
}

func TestValidate_CollectsEveryProblem(t *testing.T) {
	cfg := Config{Port: 0, LogLevel: "loud", LogFormat: "xml", Currency: "EURO"}

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"port", "database path", "log level", "log format", "currency", "projection months", "shutdown timeout"} {
		assert.Contains(t, err.Error(), want)
	}
}
