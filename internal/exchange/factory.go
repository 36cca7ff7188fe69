package exchange

import (
	"fmt"
	"net/http"

	"github.com/FreePeak/crypto-mcp-server/internal/config"
	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

// New creates the named source
func New(name string, opts Options) (Source, error) {
	switch name {
	case domain.ExchangeBinance:
		return NewBinance(opts), nil
	case domain.ExchangeCoinbase:
		return NewCoinbase(opts), nil
	case domain.ExchangeCoinGecko:
		return NewCoinGecko(opts), nil
	case domain.ExchangeKraken:
		return NewKraken(opts), nil
	default:
		return nil, fmt.Errorf("unsupported exchange: %s", name)
	}
}

// FromConfig creates the configured sources in configuration order. All of
// them share one HTTP client.
func FromConfig(cfg *config.Config) ([]Source, error) {
	client := &http.Client{Timeout: cfg.Ingest.HTTPTimeout}

	sources := make([]Source, 0, len(cfg.Ingest.Exchanges))
	for _, name := range cfg.Ingest.Exchanges {
		override := cfg.Exchanges[name]
		src, err := New(name, Options{
			BaseURL:    override.BaseURL,
			HTTPClient: client,
			UserAgent:  cfg.Ingest.UserAgent,
			RateLimit:  override.RateLimit,
			SymbolMap:  override.SymbolMap,
		})
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, nil
}
