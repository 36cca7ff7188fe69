package analyst

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

func TestGenerateSQL(t *testing.T) {
	t.Run("price", func(t *testing.T) {
		sql := GenerateSQL(domain.Analysis{
			Intent:    domain.IntentPrice,
			Entities:  []string{"BTC"},
			TimeRange: domain.RangeHour,
		})
		assert.Contains(t, sql, "WHERE timestamp > dateadd('h', -1, now()) AND symbol IN ('BTC')")
		assert.Contains(t, sql, "LIMIT 20")
	})

	t.Run("price comparison uses latest rows", func(t *testing.T) {
		sql := GenerateSQL(domain.Analysis{
			Intent:     domain.IntentPrice,
			Entities:   []string{"BTC", "ETH"},
			Exchanges:  []string{"kraken"},
			Comparison: true,
		})
		assert.Contains(t, sql, "WHERE symbol IN ('BTC', 'ETH') AND exchange IN ('kraken')\nLATEST ON timestamp PARTITION BY symbol, exchange")
	})

	t.Run("comparison", func(t *testing.T) {
		sql := GenerateSQL(domain.Analysis{Intent: domain.IntentComparison})
		assert.Equal(t, LatestPricesSQL(nil), sql)
		assert.NotContains(t, sql, "WHERE")
	})

	t.Run("volume", func(t *testing.T) {
		sql := GenerateSQL(domain.Analysis{Intent: domain.IntentVolume, TimeRange: domain.RangeDay})
		assert.Contains(t, sql, "sum(volume) AS total_volume")
		assert.Contains(t, sql, "dateadd('d', -1, now())")
		assert.Contains(t, sql, "GROUP BY symbol, exchange")
	})

	t.Run("arbitrage", func(t *testing.T) {
		sql := GenerateSQL(domain.Analysis{Intent: domain.IntentArbitrage, Entities: []string{"BTC"}})
		assert.Equal(t, ArbitrageSQL([]string{"BTC"}, DefaultArbitrageThreshold), sql)
	})

	t.Run("trend", func(t *testing.T) {
		sql := GenerateSQL(domain.Analysis{Intent: domain.IntentTrend, TimeRange: domain.RangeWeek})
		assert.Contains(t, sql, "AS price_change_pct")
		assert.Contains(t, sql, "dateadd('d', -7, now())")
	})

	t.Run("unknown falls back to recent rows", func(t *testing.T) {
		sql := GenerateSQL(domain.Analysis{Intent: domain.IntentUnknown, TimeRange: "bogus"})
		assert.Contains(t, sql, "dateadd('m', -15, now())")
		assert.Contains(t, sql, "LIMIT 10")
	})
}

func TestArbitrageSQL(t *testing.T) {
	sql := ArbitrageSQL([]string{"BTC"}, 0.1)
	assert.Contains(t, sql, "WHERE symbol IN ('BTC')\n    LATEST ON")
	assert.Contains(t, sql, "WHERE lp1.exchange < lp2.exchange\nAND")
	assert.Contains(t, sql, "* 100 > 0.1\n")

	sql = ArbitrageSQL(nil, 0)
	assert.NotContains(t, sql, "symbol IN")
	assert.Contains(t, sql, "* 100 > 0\n")
}

func TestQuoteList(t *testing.T) {
	assert.Equal(t, "'BTC', 'O''X'", quoteList([]string{"BTC", "O'X"}))
	assert.Equal(t, "", inFilter("symbol", nil))
}
