package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configVars = []string{
	"SERVER_PORT", "TRANSPORT_MODE", "LOG_LEVEL", "LOG_FORMAT", "METRICS_ADDR", "EXPORT_DIR",
	"QUESTDB_TRANSPORT", "QUESTDB_HOST", "QUESTDB_HTTP_PORT", "QUESTDB_PG_PORT",
	"QUESTDB_USER", "QUESTDB_PASSWORD", "QUESTDB_DATABASE", "QUERY_TIMEOUT",
	"SYMBOLS", "EXCHANGES", "INGEST_INTERVAL", "HTTP_TIMEOUT", "USER_AGENT", "CONFIG_FILE",
}

// clearEnv unsets every variable LoadConfig reads and moves any .env file
// out of the way for the duration of the test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, v := range configVars {
		if old, ok := os.LookupEnv(v); ok {
			t.Cleanup(func() { os.Setenv(v, old) })
		}
		os.Unsetenv(v)
	}

	cwd, _ := os.Getwd()
	envPath := filepath.Join(cwd, ".env")
	tempPath := filepath.Join(cwd, ".env.bak")
	if _, err := os.Stat(envPath); err == nil {
		require.NoError(t, os.Rename(envPath, tempPath))
		t.Cleanup(func() {
			if err := os.Rename(tempPath, envPath); err != nil {
				t.Logf("Failed to restore .env file: %v", err)
			}
		})
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV_VAR", "test_value")

	value := getEnv("TEST_ENV_VAR", "default_value")
	assert.Equal(t, "test_value", value)

	value = getEnv("NON_EXISTING_VAR", "default_value")
	assert.Equal(t, "default_value", value)
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 9092, cfg.ServerPort)
	assert.Equal(t, "stdio", cfg.TransportMode)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "rest", cfg.QuestDB.Transport)
	assert.Equal(t, "localhost", cfg.QuestDB.Host)
	assert.Equal(t, 9000, cfg.QuestDB.HTTPPort)
	assert.Equal(t, 8812, cfg.QuestDB.PGPort)
	assert.Equal(t, "admin", cfg.QuestDB.User)
	assert.Equal(t, "qdb", cfg.QuestDB.Name)
	assert.Equal(t, 30*time.Second, cfg.QuestDB.QueryTimeout)
	assert.Equal(t, []string{"BTC", "ETH", "ADA", "SOL"}, cfg.Ingest.Symbols)
	assert.Equal(t, []string{"binance", "coinbase", "coingecko", "kraken"}, cfg.Ingest.Exchanges)
	assert.Equal(t, time.Duration(0), cfg.Ingest.Interval)
	assert.Equal(t, "http://localhost:9000", cfg.QuestDBURL())
}

func TestLoadConfigFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("SERVER_PORT", "8080")
	t.Setenv("TRANSPORT_MODE", "sse")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("QUESTDB_TRANSPORT", "PGWIRE")
	t.Setenv("QUESTDB_HOST", "qdb.example.com")
	t.Setenv("SYMBOLS", " btc, eth ,")
	t.Setenv("EXCHANGES", "Kraken")
	t.Setenv("INGEST_INTERVAL", "1m")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.ServerPort)
	assert.Equal(t, "sse", cfg.TransportMode)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "pgwire", cfg.QuestDB.Transport)
	assert.Equal(t, "http://qdb.example.com:9000", cfg.QuestDBURL())
	assert.Equal(t, []string{"BTC", "ETH"}, cfg.Ingest.Symbols)
	assert.Equal(t, []string{"kraken"}, cfg.Ingest.Exchanges)
	assert.Equal(t, time.Minute, cfg.Ingest.Interval)
}

func TestLoadConfigInvalid(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad port", "SERVER_PORT", "abc"},
		{"bad duration", "QUERY_TIMEOUT", "soon"},
		{"bad transport", "TRANSPORT_MODE", "carrier-pigeon"},
		{"bad questdb transport", "QUESTDB_TRANSPORT", "ilp"},
		{"negative interval", "INGEST_INTERVAL", "-1s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "crypto.toml")
	content := `
[exchanges.Kraken]
base_url = "http://127.0.0.1:1234"
rate_limit = 2.5

[exchanges.Kraken.symbols]
DOT = "DOTUSD"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)

	cfg, err := LoadConfig()
	require.NoError(t, err)
	kraken, ok := cfg.Exchanges["kraken"]
	require.True(t, ok)
	assert.Equal(t, "http://127.0.0.1:1234", kraken.BaseURL)
	assert.Equal(t, 2.5, kraken.RateLimit)
	assert.Equal(t, "DOTUSD", kraken.SymbolMap["DOT"])
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "missing.toml"))

	_, err := LoadConfig()
	assert.Error(t, err)
}
