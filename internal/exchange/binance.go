package exchange

import (
	"context"
	"errors"
	"net/url"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

const binanceBaseURL = "https://api.binance.com"

// Binance quotes <SYMBOL>USDT pairs
type Binance struct {
	httpSource
}

// NewBinance creates a Binance source
func NewBinance(opts Options) *Binance {
	return &Binance{httpSource: newHTTPSource(domain.ExchangeBinance, binanceBaseURL, opts)}
}

type binancePrice struct {
	Symbol string `json:"symbol"`
	Price  string `json:"price"`
}

type binance24hr struct {
	Volume string `json:"volume"`
}

type binanceDepth struct {
	Bids [][]string `json:"bids"`
	Asks [][]string `json:"asks"`
}

// Fetch gets the last price per symbol plus best-effort volume and top of
// book. A 451 answer stops the whole run since every later call would fail too.
func (b *Binance) Fetch(ctx context.Context, symbols []string) ([]domain.PriceRecord, error) {
	var records []domain.PriceRecord

	for _, symbol := range symbols {
		pair := url.Values{"symbol": {symbol + "USDT"}}

		var price binancePrice
		if err := b.getJSON(ctx, "/api/v3/ticker/price", pair, &price); err != nil {
			if errors.Is(err, ErrGeoBlocked) {
				b.log.Warn("Binance API blocked (451) at %s, skipping remaining symbols", symbol)
				return records, err
			}
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			b.log.Error("Failed to fetch %s: %v", symbol, err)
			continue
		}
		last, err := parseDecimal("price", price.Price)
		if err != nil {
			b.log.Error("Failed to parse %s price: %v", symbol, err)
			continue
		}

		bid, ask, volume := b.fetchExtras(ctx, symbol)

		rec := domain.PriceRecord{
			Timestamp: b.timestamp(),
			Symbol:    symbol,
			Exchange:  domain.ExchangeBinance,
			Price:     last,
			Volume:    volume,
			Bid:       bid,
			Ask:       ask,
			Spread:    domain.QuoteSpread(bid, ask),
		}
		records = append(records, rec)
		b.log.Info("Fetched %s from Binance: $%.2f", symbol, rec.Price)
	}

	return records, nil
}

// fetchExtras returns zeros for anything it cannot get
func (b *Binance) fetchExtras(ctx context.Context, symbol string) (bid, ask, volume float64) {
	pair := symbol + "USDT"

	var ticker binance24hr
	if err := b.getJSON(ctx, "/api/v3/ticker/24hr", url.Values{"symbol": {pair}}, &ticker); err == nil {
		if v, err := parseDecimal("volume", ticker.Volume); err == nil {
			volume = v
		}
	} else {
		b.log.Debug("24hr ticker unavailable for %s: %v", symbol, err)
	}

	var depth binanceDepth
	params := url.Values{"symbol": {pair}, "limit": {"5"}}
	if err := b.getJSON(ctx, "/api/v3/depth", params, &depth); err == nil {
		if len(depth.Bids) > 0 && len(depth.Bids[0]) > 0 {
			bid, _ = parseDecimal("bid", depth.Bids[0][0])
		}
		if len(depth.Asks) > 0 && len(depth.Asks[0]) > 0 {
			ask, _ = parseDecimal("ask", depth.Asks[0][0])
		}
	} else {
		b.log.Debug("order book unavailable for %s: %v", symbol, err)
	}
	return bid, ask, volume
}
