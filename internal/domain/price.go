package domain

import (
	"time"
)

// Exchange names as stored in the exchange column
const (
	ExchangeBinance   = "binance"
	ExchangeCoinbase  = "coinbase"
	ExchangeCoinGecko = "coingecko"
	ExchangeKraken    = "kraken"
)

// KnownExchanges lists the exchanges in their default collection order
var KnownExchanges = []string{ExchangeBinance, ExchangeCoinbase, ExchangeCoinGecko, ExchangeKraken}

// PriceRecord is one quote for one symbol on one exchange at one instant
type PriceRecord struct {
	Timestamp time.Time `json:"timestamp"`
	Symbol    string    `json:"symbol"`
	Exchange  string    `json:"exchange"`
	Price     float64   `json:"price"`
	Volume    float64   `json:"volume"`
	Bid       float64   `json:"bid"`
	Ask       float64   `json:"ask"`
	Spread    float64   `json:"spread"`
	MarketCap float64   `json:"market_cap"`
}

// QuoteSpread returns ask-bid when both sides are quoted, otherwise 0
func QuoteSpread(bid, ask float64) float64 {
	if bid > 0 && ask > 0 {
		return ask - bid
	}
	return 0
}
