package exchange

import (
	"context"
	"fmt"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

const coinbaseBaseURL = "https://api.exchange.coinbase.com"

// Coinbase quotes <SYMBOL>-USD products
type Coinbase struct {
	httpSource
}

// NewCoinbase creates a Coinbase source
func NewCoinbase(opts Options) *Coinbase {
	return &Coinbase{httpSource: newHTTPSource(domain.ExchangeCoinbase, coinbaseBaseURL, opts)}
}

type coinbaseTicker struct {
	Price  string `json:"price"`
	Volume string `json:"volume"`
	Bid    string `json:"bid"`
	Ask    string `json:"ask"`
}

// Fetch gets one ticker per symbol
func (c *Coinbase) Fetch(ctx context.Context, symbols []string) ([]domain.PriceRecord, error) {
	var records []domain.PriceRecord

	for _, symbol := range symbols {
		var t coinbaseTicker
		path := fmt.Sprintf("/products/%s-USD/ticker", symbol)
		if err := c.getJSON(ctx, path, nil, &t); err != nil {
			if ctx.Err() != nil {
				return records, ctx.Err()
			}
			c.log.Error("Failed to fetch %s: %v", symbol, err)
			continue
		}

		rec, err := t.record(symbol)
		if err != nil {
			c.log.Error("Failed to parse %s ticker: %v", symbol, err)
			continue
		}
		rec.Timestamp = c.timestamp()
		records = append(records, rec)
		c.log.Info("Fetched %s from Coinbase: $%.2f", symbol, rec.Price)
	}

	return records, nil
}

func (t coinbaseTicker) record(symbol string) (domain.PriceRecord, error) {
	price, err := parseDecimal("price", t.Price)
	if err != nil {
		return domain.PriceRecord{}, err
	}
	volume, err := parseDecimal("volume", t.Volume)
	if err != nil {
		return domain.PriceRecord{}, err
	}
	bid, err := parseDecimal("bid", t.Bid)
	if err != nil {
		return domain.PriceRecord{}, err
	}
	ask, err := parseDecimal("ask", t.Ask)
	if err != nil {
		return domain.PriceRecord{}, err
	}
	return domain.PriceRecord{
		Symbol:   symbol,
		Exchange: domain.ExchangeCoinbase,
		Price:    price,
		Volume:   volume,
		Bid:      bid,
		Ask:      ask,
		Spread:   ask - bid,
	}, nil
}
