package analyst

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
)

// Scenario names
const (
	ScenarioFlashCrash = "flash_crash"
	ScenarioVolatility = "volatility"
	ScenarioLiquidity  = "liquidity"
)

const highVolatilityPct = 2.0

// Scenario is a canned analysis with a hand-written query
type Scenario struct {
	Name     string
	Title    string
	Question string
	SQL      string
	// summarize turns the rows into findings
	summarize func(rs *domain.ResultSet) []string
}

// ScenarioReport is the outcome of running a scenario
type ScenarioReport struct {
	Name     string            `json:"name"`
	Title    string            `json:"title"`
	Question string            `json:"question"`
	SQL      string            `json:"sql"`
	Result   *domain.ResultSet `json:"result"`
	Findings []string          `json:"findings"`
}

// Text renders the report for display
func (r *ScenarioReport) Text() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\nQuestion: %s\n", r.Title, r.Question)
	if r.Result == nil || r.Result.Len() == 0 {
		b.WriteString("No data found for this analysis")
		return b.String()
	}
	fmt.Fprintf(&b, "Found %d results\n", r.Result.Len())
	for _, f := range r.Findings {
		b.WriteString("  - " + f + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

var scenarios = map[string]Scenario{
	ScenarioFlashCrash: {
		Name:     ScenarioFlashCrash,
		Title:    "Flash Crash Detection",
		Question: "Did any crypto drop more than 5% in the last hour?",
		SQL: `SELECT * FROM (
    SELECT symbol, exchange,
        first(price) AS start_price,
        last(price) AS end_price,
        (last(price) - first(price)) / first(price) * 100 AS change_pct
    FROM crypto_prices
    WHERE timestamp > dateadd('h', -1, now())
    GROUP BY symbol, exchange
)
WHERE change_pct < -5
ORDER BY change_pct ASC`,
		summarize: summarizeFlashCrash,
	},
	ScenarioVolatility: {
		Name:     ScenarioVolatility,
		Title:    "High Frequency Trading Analysis",
		Question: "Show me price volatility by 5-minute intervals",
		SQL: `SELECT * FROM (
    SELECT timestamp, symbol, exchange,
        min(price) AS low,
        max(price) AS high,
        first(price) AS open,
        last(price) AS close,
        (max(price) - min(price)) / avg(price) * 100 AS volatility_pct
    FROM crypto_prices
    WHERE timestamp > dateadd('h', -2, now())
    SAMPLE BY 5m
)
ORDER BY timestamp DESC
LIMIT 50`,
		summarize: summarizeVolatility,
	},
	ScenarioLiquidity: {
		Name:     ScenarioLiquidity,
		Title:    "Liquidity Analysis",
		Question: "Which exchanges have the tightest spreads?",
		SQL: `SELECT * FROM (
    SELECT exchange, symbol,
        avg(spread) AS avg_spread,
        avg(spread / price * 100) AS avg_spread_pct,
        min(spread / price * 100) AS min_spread_pct,
        max(spread / price * 100) AS max_spread_pct,
        count() AS observations
    FROM crypto_prices
    WHERE timestamp > dateadd('h', -24, now())
        AND spread > 0
        AND price > 0
    GROUP BY exchange, symbol
)
WHERE observations > 5
ORDER BY avg_spread_pct ASC`,
		summarize: summarizeLiquidity,
	},
}

// ScenarioNames lists the available scenarios in a stable order
func ScenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetScenario looks up a scenario by name
func GetScenario(name string) (Scenario, bool) {
	s, ok := scenarios[name]
	return s, ok
}

func summarizeFlashCrash(rs *domain.ResultSet) []string {
	if rs.Len() == 0 {
		return []string{"No significant crashes detected"}
	}
	out := []string{"FLASH CRASHES DETECTED:"}
	for i := 0; i < min(rs.Len(), sampleRows); i++ {
		pct, _ := rs.Float(i, "change_pct")
		out = append(out, fmt.Sprintf("%s on %s: %.2f%% drop", rs.String(i, "symbol"), rs.String(i, "exchange"), pct))
	}
	return out
}

func summarizeVolatility(rs *domain.ResultSet) []string {
	if rs.Len() == 0 {
		return nil
	}
	var sum float64
	high := 0
	for i := 0; i < rs.Len(); i++ {
		v, ok := rs.Float(i, "volatility_pct")
		if !ok {
			continue
		}
		sum += v
		if v > highVolatilityPct {
			high++
		}
	}
	return []string{
		fmt.Sprintf("Average 5-min volatility: %.2f%%", sum/float64(rs.Len())),
		fmt.Sprintf("High volatility periods (>%.0f%%): %d", highVolatilityPct, high),
	}
}

func summarizeLiquidity(rs *domain.ResultSet) []string {
	best := -1
	var bestPct float64
	for i := 0; i < rs.Len(); i++ {
		v, ok := rs.Float(i, "avg_spread_pct")
		if !ok {
			continue
		}
		if best < 0 || v < bestPct {
			best, bestPct = i, v
		}
	}
	if best < 0 {
		return nil
	}
	return []string{
		fmt.Sprintf("Tightest spreads: %s %s (%.3f%%)", rs.String(best, "exchange"), rs.String(best, "symbol"), bestPct),
		fmt.Sprintf("Total exchange-symbol pairs analyzed: %d", rs.Len()),
	}
}

// RunScenario executes a named scenario
func (a *Analyst) RunScenario(ctx context.Context, name string) (*ScenarioReport, error) {
	s, ok := GetScenario(name)
	if !ok {
		return nil, fmt.Errorf("unknown scenario %q (available: %s)", name, strings.Join(ScenarioNames(), ", "))
	}

	rs, err := a.querier.Exec(ctx, s.SQL)
	if err != nil {
		return nil, fmt.Errorf("%s failed: %w", s.Title, err)
	}

	return &ScenarioReport{
		Name:     s.Name,
		Title:    s.Title,
		Question: s.Question,
		SQL:      s.SQL,
		Result:   rs,
		Findings: s.summarize(rs),
	}, nil
}
