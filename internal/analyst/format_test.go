package analyst

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

func resultSet(columns []string, rows ...[]any) *domain.ResultSet {
	rs := &domain.ResultSet{Dataset: rows, Count: len(rows)}
	for _, c := range columns {
		rs.Columns = append(rs.Columns, domain.Column{Name: c})
	}
	return rs
}

func TestFormatAnswerEmpty(t *testing.T) {
	assert.Equal(t, EmptyResultText, FormatAnswer("anything", nil))
	assert.Equal(t, EmptyResultText, FormatAnswer("anything", resultSet([]string{"price"})))
}

func TestFormatAnswerPrices(t *testing.T) {
	rs := resultSet([]string{"symbol", "exchange", "price", "timestamp"},
		[]any{"BTC", "binance", 65000.5, "2025-01-02T03:04:05.000000Z"},
		[]any{"BTC", "kraken", 64000.0, "2025-01-02T03:04:05.000000Z"},
		[]any{"ETH", "coinbase", 3000.0, "2025-01-02T03:04:05.000000Z"},
		[]any{"ADA", "coingecko", 1234.5, nil},
	)

	text := FormatAnswer("What's the price of BTC?", rs)

	assert.Contains(t, text, "Based on your question 'What's the price of BTC?', here's what I found:")
	assert.Contains(t, text, "Found 4 records with 4 data points each.")
	assert.Contains(t, text, "Average Price: $33,308.75")
	assert.Contains(t, text, "Price Range: $1,234.50 - $65,000.50")
	assert.Contains(t, text, "1. symbol: BTC | exchange: binance | price: 65000.5 | timestamp: 2025-01-02T03:04:05.000000Z")
	assert.Contains(t, text, "... and 1 more records")
	assert.NotContains(t, text, "4. symbol")
	assert.NotContains(t, text, "Arbitrage")
}

func TestFormatAnswerArbitrage(t *testing.T) {
	cols := []string{"symbol", "exchange1", "price1", "exchange2", "price2", "price_diff", "arbitrage_pct"}

	t.Run("opportunities", func(t *testing.T) {
		rs := resultSet(cols,
			[]any{"BTC", "binance", 100.0, "kraken", 102.5, 2.5, 2.5},
			[]any{"ETH", "binance", 100.0, "coinbase", 100.5, 0.5, 0.5},
			[]any{"SOL", "coinbase", 100.0, "kraken", 101.2, 1.2, 1.2},
		)
		text := FormatAnswer("arbitrage?", rs)
		assert.Contains(t, text, "Found 2 opportunities > 1%")
		assert.Contains(t, text, "BTC: 2.50% between binance and kraken")
		assert.Contains(t, text, "SOL: 1.20% between coinbase and kraken")
		assert.NotContains(t, text, "ETH: 0.50%")
	})

	t.Run("none above threshold", func(t *testing.T) {
		rs := resultSet(cols, []any{"ETH", "binance", 100.0, "coinbase", 100.5, 0.5, 0.5})
		text := FormatAnswer("arbitrage?", rs)
		assert.Contains(t, text, "No significant arbitrage opportunities found (>1%)")
	})
}

func TestFormatAnswerVolume(t *testing.T) {
	rs := resultSet([]string{"symbol", "exchange", "total_volume"},
		[]any{"BTC", "binance", 1000.0},
		[]any{"BTC", "kraken", 500.0},
	)
	text := FormatAnswer("volume?", rs)
	assert.Contains(t, text, "Total Volume: 1,500.00")
	assert.Contains(t, text, "Average per Exchange: 750.00")
	assert.NotContains(t, text, "more records")
}

func TestFormatAnswerNullPrices(t *testing.T) {
	rs := resultSet([]string{"symbol", "price"}, []any{"BTC", nil})
	text := FormatAnswer("price?", rs)
	assert.NotContains(t, text, "Price Analysis")
	assert.Contains(t, text, "1. symbol: BTC | price: null")
}

func TestFormatAnswerLargeNumbers(t *testing.T) {
	rs := resultSet([]string{"symbol", "market_cap"}, []any{"BTC", 1.3e12})
	text := FormatAnswer("market cap?", rs)
	assert.Contains(t, text, "1. symbol: BTC | market_cap: 1300000000000")
	assert.NotContains(t, text, "e+12")
}

func TestErrorText(t *testing.T) {
	assert.Equal(t,
		"I encountered an error while analyzing your crypto data: boom",
		ErrorText(errors.New("boom")))
}
