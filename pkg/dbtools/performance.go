// Package dbtools tracks how long QuestDB statements take.
package dbtools

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
	"github.com/FreePeak/crypto-mcp-server/internal/metrics"
)

// DefaultSlowThreshold is the duration from which a statement counts as slow
const DefaultSlowThreshold = 500 * time.Millisecond

// Executor runs SQL against QuestDB
type Executor interface {
	Exec(ctx context.Context, query string) (*domain.ResultSet, error)
}

// QueryMetrics stores timing statistics for one normalized statement
type QueryMetrics struct {
	Query         string        `json:"query"`
	Count         int           `json:"count"`
	Errors        int           `json:"errors"`
	TotalDuration time.Duration `json:"total_duration"`
	MinDuration   time.Duration `json:"min_duration"`
	MaxDuration   time.Duration `json:"max_duration"`
	AvgDuration   time.Duration `json:"avg_duration"`
	LastExecuted  time.Time     `json:"last_executed"`
}

// PerformanceAnalyzer wraps an Executor and records statement timings
type PerformanceAnalyzer struct {
	next          Executor
	mutex         sync.RWMutex
	metrics       map[string]*QueryMetrics
	slowThreshold time.Duration
	now           func() time.Time
}

// NewPerformanceAnalyzer wraps next
func NewPerformanceAnalyzer(next Executor) *PerformanceAnalyzer {
	return &PerformanceAnalyzer{
		next:          next,
		metrics:       make(map[string]*QueryMetrics),
		slowThreshold: DefaultSlowThreshold,
		now:           time.Now,
	}
}

// Exec runs the statement and records how long it took
func (pa *PerformanceAnalyzer) Exec(ctx context.Context, query string) (*domain.ResultSet, error) {
	start := pa.now()
	rs, err := pa.next.Exec(ctx, query)
	duration := pa.now().Sub(start)

	metrics.QueryDuration.Observe(duration.Seconds())
	if duration >= pa.SlowThreshold() {
		logger.Warn("Slow query detected (%.2fms): %s", float64(duration.Microseconds())/1000, normalizeQuery(query))
	}
	pa.record(query, duration, err)
	return rs, err
}

func (pa *PerformanceAnalyzer) record(query string, duration time.Duration, err error) {
	key := normalizeQuery(query)

	pa.mutex.Lock()
	defer pa.mutex.Unlock()

	m, ok := pa.metrics[key]
	if !ok {
		m = &QueryMetrics{Query: key, MinDuration: duration, MaxDuration: duration}
		pa.metrics[key] = m
	}
	m.Count++
	if err != nil {
		m.Errors++
	}
	m.TotalDuration += duration
	m.AvgDuration = m.TotalDuration / time.Duration(m.Count)
	m.LastExecuted = pa.now()
	if duration < m.MinDuration {
		m.MinDuration = duration
	}
	if duration > m.MaxDuration {
		m.MaxDuration = duration
	}
}

// SlowThreshold returns the current slow query threshold
func (pa *PerformanceAnalyzer) SlowThreshold() time.Duration {
	pa.mutex.RLock()
	defer pa.mutex.RUnlock()
	return pa.slowThreshold
}

// SetSlowThreshold sets the threshold for identifying slow queries
func (pa *PerformanceAnalyzer) SetSlowThreshold(threshold time.Duration) {
	pa.mutex.Lock()
	defer pa.mutex.Unlock()
	pa.slowThreshold = threshold
}

// Reset clears all collected metrics
func (pa *PerformanceAnalyzer) Reset() {
	pa.mutex.Lock()
	defer pa.mutex.Unlock()
	pa.metrics = make(map[string]*QueryMetrics)
}

// GetSlowQueries returns statements whose average is at or above the
// threshold, slowest first. limit <= 0 means no limit.
func (pa *PerformanceAnalyzer) GetSlowQueries(limit int) []QueryMetrics {
	threshold := pa.SlowThreshold()
	return pa.collect(limit, func(m *QueryMetrics) bool { return m.AvgDuration >= threshold })
}

// GetAllMetrics returns all statements, slowest first
func (pa *PerformanceAnalyzer) GetAllMetrics(limit int) []QueryMetrics {
	return pa.collect(limit, func(*QueryMetrics) bool { return true })
}

// collect returns copies so callers never race with record
func (pa *PerformanceAnalyzer) collect(limit int, keep func(*QueryMetrics) bool) []QueryMetrics {
	pa.mutex.RLock()
	out := make([]QueryMetrics, 0, len(pa.metrics))
	for _, m := range pa.metrics {
		if keep(m) {
			out = append(out, *m)
		}
	}
	pa.mutex.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgDuration != out[j].AvgDuration {
			return out[i].AvgDuration > out[j].AvgDuration
		}
		return out[i].Query < out[j].Query
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

var (
	quotedString = regexp.MustCompile(`'(?:[^']|'')*'`)
	number       = regexp.MustCompile(`\b\d+(?:\.\d+)?\b`)
	whitespace   = regexp.MustCompile(`\s+`)
)

// normalizeQuery replaces literals so statements differing only in values
// are grouped together
func normalizeQuery(query string) string {
	normalized := quotedString.ReplaceAllString(query, "'?'")
	normalized = number.ReplaceAllString(normalized, "?")
	normalized = whitespace.ReplaceAllString(normalized, " ")
	return strings.TrimSpace(normalized)
}

var (
	selectStar    = regexp.MustCompile(`(?i)\bSELECT\s+\*`)
	hasLimit      = regexp.MustCompile(`(?i)\bLIMIT\b`)
	hasWhere      = regexp.MustCompile(`(?i)\bWHERE\b`)
	hasTimeFilter = regexp.MustCompile(`(?i)\b(timestamp|dateadd|now\(\))`)
	hasLatestOn   = regexp.MustCompile(`(?i)\bLATEST\s+ON\b`)
	hasSampleBy   = regexp.MustCompile(`(?i)\bSAMPLE\s+BY\b`)
	hasGroupBy    = regexp.MustCompile(`(?i)\bGROUP\s+BY\b`)
	likeLeading   = regexp.MustCompile(`(?i)\bLIKE\s+'%`)
	orderByRand   = regexp.MustCompile(`(?i)\bORDER\s+BY\s+rnd_`)
)

// AnalyzeQuery returns suggestions for making a QuestDB statement cheaper
func AnalyzeQuery(query string) []string {
	var suggestions []string

	if selectStar.MatchString(query) {
		suggestions = append(suggestions, "Select only the columns you need instead of SELECT *")
	}
	if !hasWhere.MatchString(query) && !hasLatestOn.MatchString(query) {
		suggestions = append(suggestions, "Add a WHERE clause so QuestDB can skip partitions")
	} else if !hasTimeFilter.MatchString(query) && !hasLatestOn.MatchString(query) {
		suggestions = append(suggestions, "Filter on the designated timestamp to prune partitions")
	}
	if !hasLimit.MatchString(query) && !hasGroupBy.MatchString(query) &&
		!hasSampleBy.MatchString(query) && !hasLatestOn.MatchString(query) {
		suggestions = append(suggestions, "Add a LIMIT clause to bound the result size")
	}
	if strings.Contains(strings.ToLower(query), "group by timestamp") {
		suggestions = append(suggestions, "Use SAMPLE BY to aggregate over time buckets")
	}
	if likeLeading.MatchString(query) {
		suggestions = append(suggestions, "Leading wildcards in LIKE prevent symbol index lookups")
	}
	if orderByRand.MatchString(query) {
		suggestions = append(suggestions, "Ordering by a random value sorts the whole result")
	}

	if len(suggestions) == 0 {
		suggestions = append(suggestions, "No obvious improvements found")
	}
	return suggestions
}
