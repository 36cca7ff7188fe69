package analyst

import (
	"strings"
	"unicode"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

var (
	priceWords     = []string{"price", "cost", "value"}
	volumeWords    = []string{"volume", "trading", "activity"}
	arbitrageWords = []string{"arbitrage", "difference", "spread", "opportunit"}
	trendWords     = []string{"trend", "change", "movement", "performance"}

	// matched as whole words; "vs" would otherwise hit inside other words
	comparisonWords = map[string]bool{
		"compare": true, "compared": true, "comparing": true, "comparison": true,
		"vs": true, "versus": true, "between": true,
	}
)

// DefaultAliases maps words in a question to ticker symbols
var DefaultAliases = map[string]string{
	"btc": "BTC", "bitcoin": "BTC",
	"eth": "ETH", "ethereum": "ETH", "ether": "ETH",
	"ada": "ADA", "cardano": "ADA",
	"sol": "SOL", "solana": "SOL",
}

// Analyze reads a question using the default symbol aliases
func Analyze(question string) domain.Analysis {
	return analyze(question, DefaultAliases)
}

func analyze(question string, aliases map[string]string) domain.Analysis {
	q := strings.ToLower(question)
	tokens := tokenize(q)

	a := domain.Analysis{
		Intent:    domain.IntentUnknown,
		Entities:  []string{},
		TimeRange: domain.RangeLatest,
	}

	for _, tok := range tokens {
		if comparisonWords[tok] {
			a.Comparison = true
			break
		}
	}

	switch {
	case containsAny(q, priceWords):
		a.Intent = domain.IntentPrice
	case containsAny(q, volumeWords):
		a.Intent = domain.IntentVolume
	case containsAny(q, arbitrageWords):
		a.Intent = domain.IntentArbitrage
	case containsAny(q, trendWords):
		a.Intent = domain.IntentTrend
	case a.Comparison:
		a.Intent = domain.IntentComparison
	}

	seen := map[string]bool{}
	for _, tok := range tokens {
		if sym, ok := aliases[tok]; ok && !seen[sym] {
			seen[sym] = true
			a.Entities = append(a.Entities, sym)
		}
		for _, ex := range domain.KnownExchanges {
			if tok == ex && !seen[ex] {
				seen[ex] = true
				a.Exchanges = append(a.Exchanges, ex)
			}
		}
	}

	switch {
	case strings.Contains(q, "week") || strings.Contains(q, "7 day"):
		a.TimeRange = domain.RangeWeek
	case strings.Contains(q, "24 hour") || strings.Contains(q, "day"):
		a.TimeRange = domain.RangeDay
	case strings.Contains(q, "hour") || strings.Contains(q, "recent"):
		a.TimeRange = domain.RangeHour
	}

	return a
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// DemoQuestions is a representative set of questions for walkthroughs
var DemoQuestions = []string{
	"What are the latest Bitcoin prices?",
	"Show me arbitrage opportunities between exchanges",
	"How much trading volume do we have for ETH?",
	"Compare prices between Binance and Coinbase",
	"What's the trend for Solana in the last hour?",
	"Which crypto has the highest volume today?",
	"Find me the best arbitrage opportunities for ADA",
	"What's the average spread across all exchanges?",
}
