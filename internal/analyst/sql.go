package analyst

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

// DefaultArbitrageThreshold is the minimum price gap, in percent of the
// mid price, for a pair of exchanges to be listed at all
const DefaultArbitrageThreshold = 0.1

var timeConditions = map[domain.TimeRange]string{
	domain.RangeLatest: "timestamp > dateadd('m', -15, now())",
	domain.RangeHour:   "timestamp > dateadd('h', -1, now())",
	domain.RangeDay:    "timestamp > dateadd('d', -1, now())",
	domain.RangeWeek:   "timestamp > dateadd('d', -7, now())",
}

// GenerateSQL turns an analysis into a QuestDB query
func GenerateSQL(a domain.Analysis) string {
	timeFilter, ok := timeConditions[a.TimeRange]
	if !ok {
		timeFilter = timeConditions[domain.RangeLatest]
	}
	where := timeFilter + inFilter("symbol", a.Entities) + inFilter("exchange", a.Exchanges)

	switch a.Intent {
	case domain.IntentPrice:
		if a.Comparison {
			return latestPricesSQL(a.Entities, a.Exchanges)
		}
		return fmt.Sprintf(`SELECT symbol, exchange, price, timestamp
FROM crypto_prices
WHERE %s
ORDER BY timestamp DESC
LIMIT 20`, where)

	case domain.IntentComparison:
		return latestPricesSQL(a.Entities, a.Exchanges)

	case domain.IntentVolume:
		return fmt.Sprintf(`SELECT symbol, exchange, sum(volume) AS total_volume, avg(volume) AS avg_volume, count() AS data_points
FROM crypto_prices
WHERE %s
GROUP BY symbol, exchange
ORDER BY total_volume DESC`, where)

	case domain.IntentArbitrage:
		return ArbitrageSQL(a.Entities, DefaultArbitrageThreshold)

	case domain.IntentTrend:
		return fmt.Sprintf(`SELECT symbol, exchange,
    first(price) AS earliest_price,
    last(price) AS latest_price,
    (last(price) - first(price)) / first(price) * 100 AS price_change_pct,
    min(price) AS min_price,
    max(price) AS max_price,
    count() AS data_points
FROM crypto_prices
WHERE %s
GROUP BY symbol, exchange
ORDER BY price_change_pct DESC`, where)

	default:
		return fmt.Sprintf(`SELECT symbol, exchange, price, volume, timestamp
FROM crypto_prices
WHERE %s
ORDER BY timestamp DESC
LIMIT 10`, where)
	}
}

// latestPricesSQL returns the most recent row per (symbol, exchange)
func latestPricesSQL(symbols, exchanges []string) string {
	var conds []string
	if len(symbols) > 0 {
		conds = append(conds, "symbol IN ("+quoteList(symbols)+")")
	}
	if len(exchanges) > 0 {
		conds = append(conds, "exchange IN ("+quoteList(exchanges)+")")
	}
	where := ""
	if len(conds) > 0 {
		where = "\nWHERE " + strings.Join(conds, " AND ")
	}
	return fmt.Sprintf(`SELECT symbol, exchange, price, timestamp
FROM crypto_prices%s
LATEST ON timestamp PARTITION BY symbol, exchange
ORDER BY symbol, exchange`, where)
}

// LatestPricesSQL returns the latest quote per symbol and exchange
func LatestPricesSQL(symbols []string) string {
	return latestPricesSQL(symbols, nil)
}

// ArbitrageSQL pairs the latest price of every exchange against every other
// exchange for the same symbol and keeps gaps above minPct percent
func ArbitrageSQL(symbols []string, minPct float64) string {
	inner := ""
	if len(symbols) > 0 {
		inner = "\n    WHERE symbol IN (" + quoteList(symbols) + ")"
	}
	return fmt.Sprintf(`WITH latest_by_exchange AS (
    SELECT symbol, exchange, price
    FROM crypto_prices%s
    LATEST ON timestamp PARTITION BY symbol, exchange
)
SELECT lp1.symbol,
    lp1.exchange AS exchange1,
    lp1.price AS price1,
    lp2.exchange AS exchange2,
    lp2.price AS price2,
    abs(lp1.price - lp2.price) AS price_diff,
    abs(lp1.price - lp2.price) / ((lp1.price + lp2.price) / 2) * 100 AS arbitrage_pct
FROM latest_by_exchange lp1
JOIN latest_by_exchange lp2 ON lp1.symbol = lp2.symbol
WHERE lp1.exchange < lp2.exchange
AND abs(lp1.price - lp2.price) / ((lp1.price + lp2.price) / 2) * 100 > %s
ORDER BY arbitrage_pct DESC`, inner, trimFloat(minPct))
}

func inFilter(column string, values []string) string {
	if len(values) == 0 {
		return ""
	}
	return fmt.Sprintf(" AND %s IN (%s)", column, quoteList(values))
}

func quoteList(values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = "'" + strings.ReplaceAll(v, "'", "''") + "'"
	}
	return strings.Join(quoted, ", ")
}

func trimFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
