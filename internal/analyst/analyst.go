// Package analyst answers natural-language questions about crypto prices by
// turning them into QuestDB queries.
package analyst

import (
	"context"
	"fmt"
	"strings"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
	"github.com/FreePeak/crypto-mcp-server/internal/metrics"
)

// Querier executes SQL and returns the rows
type Querier interface {
	Exec(ctx context.Context, query string) (*domain.ResultSet, error)
}

// Answer is the full trace of one question
type Answer struct {
	Question string            `json:"question"`
	Analysis domain.Analysis   `json:"analysis"`
	SQL      string            `json:"sql"`
	Result   *domain.ResultSet `json:"result,omitempty"`
	Text     string            `json:"text"`
}

// Analyst answers questions against a price table
type Analyst struct {
	querier Querier
	aliases map[string]string
}

// Option configures an Analyst
type Option func(*Analyst)

// WithAliases replaces the word-to-symbol table used to find entities
func WithAliases(aliases map[string]string) Option {
	return func(a *Analyst) {
		a.aliases = aliases
	}
}

// WithSymbols adds each symbol as an alias of itself, so tickers outside the
// default table are still recognised
func WithSymbols(symbols []string) Option {
	return func(a *Analyst) {
		merged := make(map[string]string, len(a.aliases)+len(symbols))
		for k, v := range a.aliases {
			merged[k] = v
		}
		for _, s := range symbols {
			s = strings.ToUpper(strings.TrimSpace(s))
			if s != "" {
				merged[strings.ToLower(s)] = s
			}
		}
		a.aliases = merged
	}
}

// New creates an Analyst
func New(q Querier, opts ...Option) *Analyst {
	a := &Analyst{querier: q, aliases: DefaultAliases}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Analyze reads a question with this analyst's aliases
func (a *Analyst) Analyze(question string) domain.Analysis {
	return analyze(question, a.aliases)
}

// Ask analyses the question, runs the generated query and formats the rows.
// A failed query still yields an Answer whose Text describes the failure.
func (a *Analyst) Ask(ctx context.Context, question string) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question cannot be empty")
	}

	analysis := a.Analyze(question)
	query := GenerateSQL(analysis)
	ans := &Answer{Question: question, Analysis: analysis, SQL: query}

	logger.WithFields(logger.Fields{
		"intent":     analysis.Intent,
		"entities":   analysis.Entities,
		"time_range": analysis.TimeRange,
	}).Debug("Analyzed question")

	rs, err := a.querier.Exec(ctx, query)
	if err != nil {
		metrics.AnalystQueriesTotal.WithLabelValues(string(analysis.Intent), "error").Inc()
		ans.Text = ErrorText(err)
		return ans, err
	}

	outcome := "ok"
	if rs.Len() == 0 {
		outcome = "empty"
	}
	metrics.AnalystQueriesTotal.WithLabelValues(string(analysis.Intent), outcome).Inc()

	ans.Result = rs
	ans.Text = FormatAnswer(question, rs)
	return ans, nil
}

// Query runs a caller-supplied read-only statement
func (a *Analyst) Query(ctx context.Context, query string) (*domain.ResultSet, error) {
	if !IsReadOnly(query) {
		return nil, ErrNotReadOnly
	}
	return a.querier.Exec(ctx, query)
}

// LatestPrices returns the latest quote per symbol and exchange
func (a *Analyst) LatestPrices(ctx context.Context, symbols []string) (*domain.ResultSet, error) {
	return a.querier.Exec(ctx, LatestPricesSQL(normalizeSymbols(symbols)))
}

// Arbitrage lists exchange pairs whose latest prices differ by more than minPct
func (a *Analyst) Arbitrage(ctx context.Context, symbols []string, minPct float64) (*domain.ResultSet, error) {
	if minPct < 0 {
		return nil, fmt.Errorf("minimum spread must not be negative, got %v", minPct)
	}
	return a.querier.Exec(ctx, ArbitrageSQL(normalizeSymbols(symbols), minPct))
}

func normalizeSymbols(symbols []string) []string {
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if s = strings.ToUpper(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}
