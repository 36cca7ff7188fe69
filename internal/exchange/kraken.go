package exchange

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

const krakenBaseURL = "https://api.kraken.com"

var defaultKrakenPairs = map[string]string{
	"BTC": "XXBTZUSD",
	"ETH": "XETHZUSD",
	"ADA": "ADAUSD",
	"SOL": "SOLUSD",
}

// Kraken quotes USD pairs using Kraken's own pair codes
type Kraken struct {
	httpSource
	pairs map[string]string
}

// NewKraken creates a Kraken source
func NewKraken(opts Options) *Kraken {
	return &Kraken{
		httpSource: newHTTPSource(domain.ExchangeKraken, krakenBaseURL, opts),
		pairs:      mergeSymbolMap(defaultKrakenPairs, opts.SymbolMap),
	}
}

// krakenTicker holds the fields we read. Each is an array of strings:
// c = [last price, lot volume], v = [today, last 24h], b/a = [price, ...].
type krakenTicker struct {
	C []string `json:"c"`
	V []string `json:"v"`
	B []string `json:"b"`
	A []string `json:"a"`
}

type krakenResponse struct {
	Error  []string                `json:"error"`
	Result map[string]krakenTicker `json:"result"`
}

// lookup finds the ticker for pair. Kraken keys results by its canonical pair
// name (XBTUSD comes back as XXBTZUSD), so a single result is taken as is.
func (r krakenResponse) lookup(pair string) (krakenTicker, bool) {
	if t, ok := r.Result[pair]; ok {
		return t, true
	}
	if len(r.Result) == 1 {
		for _, t := range r.Result {
			return t, true
		}
	}
	return krakenTicker{}, false
}

// Fetch gets one ticker per mapped symbol
func (k *Kraken) Fetch(ctx context.Context, symbols []string) ([]domain.PriceRecord, error) {
	var records []domain.PriceRecord

	for _, symbol := range symbols {
		pair, ok := k.pairs[symbol]
		if !ok {
			continue
		}

		var resp krakenResponse
		if err := k.getJSON(ctx, "/0/public/Ticker", url.Values{"pair": {pair}}, &resp); err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			k.log.Error("Failed to fetch %s: %v", symbol, err)
			continue
		}
		if len(resp.Error) > 0 {
			k.log.Error("Kraken API error for %s: %s", symbol, strings.Join(resp.Error, "; "))
			continue
		}
		t, ok := resp.lookup(pair)
		if !ok {
			k.log.Warn("Kraken returned no ticker for %s (pair %s)", symbol, pair)
			continue
		}

		rec, err := t.record(symbol)
		if err != nil {
			k.log.Error("Failed to parse %s ticker: %v", symbol, err)
			continue
		}
		rec.Timestamp = k.timestamp()
		records = append(records, rec)
		k.log.Info("Fetched %s from Kraken: $%.2f", symbol, rec.Price)
	}

	return records, nil
}

func (t krakenTicker) record(symbol string) (domain.PriceRecord, error) {
	if len(t.C) < 1 || len(t.V) < 2 || len(t.B) < 1 || len(t.A) < 1 {
		return domain.PriceRecord{}, fmt.Errorf("incomplete ticker")
	}
	price, err := parseDecimal("price", t.C[0])
	if err != nil {
		return domain.PriceRecord{}, err
	}
	volume, err := parseDecimal("volume", t.V[1])
	if err != nil {
		return domain.PriceRecord{}, err
	}
	bid, err := parseDecimal("bid", t.B[0])
	if err != nil {
		return domain.PriceRecord{}, err
	}
	ask, err := parseDecimal("ask", t.A[0])
	if err != nil {
		return domain.PriceRecord{}, err
	}
	return domain.PriceRecord{
		Symbol:   symbol,
		Exchange: domain.ExchangeKraken,
		Price:    price,
		Volume:   volume,
		Bid:      bid,
		Ask:      ask,
		Spread:   ask - bid,
	}, nil
}
