package exchange

import (
	"context"
	"net/url"
	"strings"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

const coinGeckoBaseURL = "https://api.coingecko.com"

// coinGeckoSpreadRatio stands in for a real book, which CoinGecko doesn't publish
const coinGeckoSpreadRatio = 0.001

var defaultCoinGeckoIDs = map[string]string{
	"BTC": "bitcoin",
	"ETH": "ethereum",
	"ADA": "cardano",
	"SOL": "solana",
}

// CoinGecko is an aggregator; all symbols are fetched in one request
type CoinGecko struct {
	httpSource
	ids map[string]string
}

// NewCoinGecko creates a CoinGecko source
func NewCoinGecko(opts Options) *CoinGecko {
	return &CoinGecko{
		httpSource: newHTTPSource(domain.ExchangeCoinGecko, coinGeckoBaseURL, opts),
		ids:        mergeSymbolMap(defaultCoinGeckoIDs, opts.SymbolMap),
	}
}

type coinGeckoQuote struct {
	USD          float64 `json:"usd"`
	USD24hVol    float64 `json:"usd_24h_vol"`
	USDMarketCap float64 `json:"usd_market_cap"`
}

// Fetch gets every mapped symbol in a single call. Unmapped symbols are skipped.
func (g *CoinGecko) Fetch(ctx context.Context, symbols []string) ([]domain.PriceRecord, error) {
	var ids []string
	for _, s := range symbols {
		if id, ok := g.ids[s]; ok {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		g.log.Warn("No valid symbols for CoinGecko")
		return nil, nil
	}

	params := url.Values{
		"ids":                 {strings.Join(ids, ",")},
		"vs_currencies":       {"usd"},
		"include_24hr_vol":    {"true"},
		"include_24hr_change": {"true"},
		"include_market_cap":  {"true"},
	}
	var data map[string]coinGeckoQuote
	if err := g.getJSON(ctx, "/api/v3/simple/price", params, &data); err != nil {
		g.log.Error("Failed to fetch data from CoinGecko: %v", err)
		return nil, err
	}

	var records []domain.PriceRecord
	for _, symbol := range symbols {
		id, ok := g.ids[symbol]
		if !ok {
			continue
		}
		q, ok := data[id]
		if !ok {
			continue
		}
		spread := q.USD * coinGeckoSpreadRatio
		rec := domain.PriceRecord{
			Timestamp: g.timestamp(),
			Symbol:    symbol,
			Exchange:  domain.ExchangeCoinGecko,
			Price:     q.USD,
			Volume:    q.USD24hVol,
			Bid:       q.USD - spread/2,
			Ask:       q.USD + spread/2,
			Spread:    spread,
			MarketCap: q.USDMarketCap,
		}
		records = append(records, rec)
		g.log.Info("Fetched %s from CoinGecko: $%.2f", symbol, rec.Price)
	}
	return records, nil
}
