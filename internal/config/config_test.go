package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadAppliesDefaultsAndAppDir(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "api_base_url: http://localhost:8080/\n")

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:8080", cfg.APIBaseURL)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, SessionBackendFile, cfg.SessionBackend)
	assert.Equal(t, filepath.Join(dir, "logs", "client.log"), cfg.LogFile)
	assert.Equal(t, filepath.Join(dir, "data"), cfg.DataDir)
	assert.Equal(t, 12, cfg.PageSize)
	assert.InDelta(t, 0.10, cfg.TaxRate, 1e-9)
	assert.Zero(t, cfg.RequestTimeout)
	assert.DirExists(t, cfg.DataDir)
	assert.DirExists(t, filepath.Dir(cfg.LogFile))
}

func TestLoadReadsAllKeys(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, `
api_base_url: https://shop.example.com
log_level: DEBUG
log_file: /tmp/storefront-test/client.log
data_dir: state
session_backend: memory
request_timeout: 15s
page_size: 24
tax_rate: 0.2
`)

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/tmp/storefront-test/client.log", cfg.LogFile)
	assert.Equal(t, filepath.Join(dir, "state"), cfg.DataDir)
	assert.Equal(t, SessionBackendMemory, cfg.SessionBackend)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 24, cfg.PageSize)
	assert.InDelta(t, 0.2, cfg.TaxRate, 1e-9)
}

func TestLoadKeepsExplicitZeroTaxRate(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "api_base_url: http://localhost:8083\ntax_rate: 0\n")

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, 0.0, cfg.TaxRate)
}

func TestOverrideLogLevel(t *testing.T) {
	cfg := &Config{LogLevel: "info"}

	require.NoError(t, cfg.OverrideLogLevel(" DEBUG "))
	assert.Equal(t, "debug", cfg.LogLevel)

	err := cfg.OverrideLogLevel("verbose")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verbose")
	assert.Equal(t, "debug", cfg.LogLevel)

	assert.Error(t, cfg.OverrideLogLevel("  "))
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "api_base_url: http://localhost:8080\n")
	t.Setenv(EnvAPIURL, "http://api.internal:9000")
	t.Setenv(EnvSessionBackend, "redis")
	t.Setenv(EnvRedisAddr, "cache:6379")
	t.Setenv(EnvLogLevel, "error")

	cfg, err := Load(path, dir)
	require.NoError(t, err)

	assert.Equal(t, "http://api.internal:9000", cfg.APIBaseURL)
	assert.Equal(t, SessionBackendRedis, cfg.SessionBackend)
	assert.Equal(t, "cache:6379", cfg.RedisAddr)
	assert.Equal(t, "error", cfg.LogLevel)
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "api_base_url: http://localhost:8080\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STOREFRONT_REDIS_DB=3\n"), 0o644))
	t.Cleanup(func() { os.Unsetenv("STOREFRONT_REDIS_DB") })

	cfg, err := Load(path, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.RedisDB)
}

func TestLoadValidationErrors(t *testing.T) {
	cases := map[string]string{
		"missing url":      "log_level: info\n",
		"relative url":     "api_base_url: localhost\n",
		"bad level":        "api_base_url: http://x\nlog_level: trace\n",
		"bad backend":      "api_base_url: http://x\nsession_backend: cookie\n",
		"redis no addr":    "api_base_url: http://x\nsession_backend: redis\n",
		"bad tax":          "api_base_url: http://x\ntax_rate: 1.5\n",
		"negative timeout": "api_base_url: http://x\nrequest_timeout: -1s\n",
		"invalid yaml":     "api_base_url: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			path := writeConfig(t, dir, body)

			_, err := Load(path, dir)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrConfigFailed))

			var cfgErr *Error
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, path, cfgErr.Path)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	_, err := Load(filepath.Join(dir, "absent.yaml"), dir)
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.ErrorIs(t, err, ErrConfigFailed)
}

func TestLoadRejectsEmptyArguments(t *testing.T) {
	_, err := Load("", "/tmp")
	assert.ErrorIs(t, err, ErrConfigFailed)
	_, err = Load("config.yaml", "")
	assert.ErrorIs(t, err, ErrConfigFailed)
}

func TestDefaultPath(t *testing.T) {
	assert.Equal(t, filepath.Join("opt", "shop", "config.yaml"), DefaultPath(filepath.Join("opt", "shop")))
}
