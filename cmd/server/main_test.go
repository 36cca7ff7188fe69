package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/crypto-mcp-server/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		TransportMode: "stdio",
		ExportDir:     "exports",
		QuestDB: config.QuestDBConfig{
			Transport:    "rest",
			Host:         "127.0.0.1",
			HTTPPort:     1,
			QueryTimeout: time.Second,
		},
		Ingest: config.IngestConfig{
			Symbols:     []string{"BTC"},
			Exchanges:   []string{"coinbase"},
			HTTPTimeout: time.Second,
		},
	}
}

func TestRunReturnsErrors(t *testing.T) {
	t.Run("unknown transport mode", func(t *testing.T) {
		cfg := testConfig()
		cfg.TransportMode = "carrier-pigeon"

		err := run(cfg)
		require.Error(t, err)
		assert.EqualError(t, err, "unknown transport mode: carrier-pigeon")
	})

	t.Run("unsupported backend", func(t *testing.T) {
		cfg := testConfig()
		cfg.QuestDB.Transport = "ilp"

		err := run(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to open QuestDB backend")
	})

	t.Run("unknown exchange", func(t *testing.T) {
		cfg := testConfig()
		cfg.Ingest.Exchanges = []string{"mtgox"}

		err := run(cfg)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to configure exchanges")
	})
}
