// Package ingest collects quotes from the configured exchanges and writes
// them to QuestDB.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/exchange"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
	"github.com/FreePeak/crypto-mcp-server/internal/metrics"
)

// ErrNoRecords is returned when there is nothing to ingest
var ErrNoRecords = errors.New("no crypto data to ingest")

// Executor runs SQL against QuestDB
type Executor interface {
	Exec(ctx context.Context, query string) (*domain.ResultSet, error)
}

// SourceResult is the outcome of one source within a cycle
type SourceResult struct {
	Name    string `json:"name"`
	Records int    `json:"records"`
	Err     error  `json:"-"`
	Error   string `json:"error,omitempty"`
}

// Summary describes one collect+ingest cycle
type Summary struct {
	RunID    string         `json:"run_id"`
	Sources  []SourceResult `json:"sources"`
	Total    int            `json:"total"`
	Ingested int            `json:"ingested"`
	Duration time.Duration  `json:"duration"`
}

// Pipeline moves quotes from sources into QuestDB
type Pipeline struct {
	db      Executor
	sources []exchange.Source
	symbols []string
}

// NewPipeline creates a pipeline
func NewPipeline(db Executor, sources []exchange.Source, symbols []string) *Pipeline {
	return &Pipeline{db: db, sources: sources, symbols: symbols}
}

// Symbols returns the symbols the pipeline collects
func (p *Pipeline) Symbols() []string {
	return p.symbols
}

// EnsureSchema creates the price table if it does not exist
func (p *Pipeline) EnsureSchema(ctx context.Context) error {
	if _, err := p.db.Exec(ctx, CreateTableSQL); err != nil {
		return fmt.Errorf("failed to create %s table: %w", TableName, err)
	}
	logger.Info("Table %s is ready", TableName)
	return nil
}

// Collect queries every source concurrently. Records come back grouped in
// source order; a failing source never fails the others.
func (p *Pipeline) Collect(ctx context.Context) ([]domain.PriceRecord, []SourceResult) {
	perSource := make([][]domain.PriceRecord, len(p.sources))
	results := make([]SourceResult, len(p.sources))

	var g errgroup.Group
	for i, src := range p.sources {
		g.Go(func() error {
			records, err := src.Fetch(ctx, p.symbols)
			perSource[i] = records
			results[i] = SourceResult{Name: src.Name(), Records: len(records), Err: err}
			if err != nil {
				results[i].Error = err.Error()
				metrics.SourceErrorsTotal.WithLabelValues(src.Name(), errorReason(err)).Inc()
			}
			metrics.RecordsFetchedTotal.WithLabelValues(src.Name()).Add(float64(len(records)))
			return nil
		})
	}
	_ = g.Wait()

	var all []domain.PriceRecord
	for _, recs := range perSource {
		all = append(all, recs...)
	}
	return all, results
}

// Ingest writes records with one INSERT
func (p *Pipeline) Ingest(ctx context.Context, records []domain.PriceRecord) error {
	if len(records) == 0 {
		logger.Warn("No crypto data to ingest")
		return ErrNoRecords
	}

	query := BuildInsert(records)
	if _, err := p.db.Exec(ctx, query); err != nil {
		metrics.IngestFailuresTotal.Inc()
		preview := query
		if len(preview) > 200 {
			preview = preview[:200]
		}
		logger.Error("Failed to ingest data: %v", err)
		logger.Error("Query: %s...", preview)
		return fmt.Errorf("failed to ingest %d records: %w", len(records), err)
	}

	metrics.RowsIngestedTotal.Add(float64(len(records)))
	logger.Info("Successfully ingested %d crypto records", len(records))
	return nil
}

// RunOnce collects from all sources and ingests the result
func (p *Pipeline) RunOnce(ctx context.Context) (*Summary, error) {
	start := time.Now()
	summary := &Summary{RunID: uuid.NewString()}
	log := logger.WithFields(logger.Fields{"run_id": summary.RunID})

	records, results := p.Collect(ctx)
	summary.Sources = results
	summary.Total = len(records)

	for _, r := range results {
		log.Info("%s: %d records", r.Name, r.Records)
	}
	log.Info("Total: %d records", summary.Total)

	defer func() {
		summary.Duration = time.Since(start)
		metrics.CycleDuration.Observe(summary.Duration.Seconds())
	}()

	if len(records) == 0 {
		log.Warn("No crypto data fetched from any source. Possible causes: network connectivity issues, " +
			"API rate limiting or geographical restrictions (HTTP 451), temporary API downtime")
		return summary, ErrNoRecords
	}

	if err := p.Ingest(ctx, records); err != nil {
		return summary, err
	}
	summary.Ingested = len(records)
	return summary, nil
}

// Run executes RunOnce immediately and then every interval until ctx is
// cancelled. Cycle errors are logged, not returned.
func (p *Pipeline) Run(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return fmt.Errorf("interval must be positive, got %s", interval)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := p.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warn("Ingest cycle failed: %v", err)
		}

		select {
		case <-ctx.Done():
			logger.Info("Stopping ingestion loop")
			return nil
		case <-ticker.C:
		}
	}
}

func errorReason(err error) string {
	var statusErr *exchange.StatusError
	switch {
	case errors.Is(err, exchange.ErrGeoBlocked):
		return "geo_blocked"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.As(err, &statusErr):
		return "http_status"
	default:
		return "other"
	}
}
