package ingest

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

// TableName is the table every component reads and writes
const TableName = "crypto_prices"

// CreateTableSQL creates the price table: symbol/exchange as cached SYMBOL
// columns, designated timestamp, daily partitions, WAL enabled.
const CreateTableSQL = `CREATE TABLE IF NOT EXISTS crypto_prices (
    timestamp TIMESTAMP,
    symbol SYMBOL CAPACITY 256 CACHE,
    exchange SYMBOL CAPACITY 64 CACHE,
    price DOUBLE,
    volume DOUBLE,
    bid DOUBLE,
    ask DOUBLE,
    spread DOUBLE,
    market_cap DOUBLE
) TIMESTAMP(timestamp) PARTITION BY DAY WAL`

// TimestampLayout is the literal format QuestDB parses for TIMESTAMP columns
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// BuildInsert renders records as a single multi-row INSERT. It returns ""
// for an empty slice.
func BuildInsert(records []domain.PriceRecord) string {
	if len(records) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(TableName)
	b.WriteString(" (timestamp, symbol, exchange, price, volume, bid, ask, spread, market_cap) VALUES ")

	for i, r := range records {
		if i > 0 {
			b.WriteByte(',')
		}
		fmt.Fprintf(&b, "(%s,%s,%s,%s,%s,%s,%s,%s,%s)",
			quote(r.Timestamp.UTC().Format(TimestampLayout)),
			quote(r.Symbol),
			quote(r.Exchange),
			number(r.Price),
			number(r.Volume),
			number(r.Bid),
			number(r.Ask),
			number(r.Spread),
			number(r.MarketCap),
		)
	}
	return b.String()
}

// quote renders a SQL string literal
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

// number renders a DOUBLE literal. Non-finite values become NULL.
func number(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "NULL"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
