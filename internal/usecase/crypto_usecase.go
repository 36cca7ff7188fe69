package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/FreePeak/crypto-mcp-server/internal/analyst"
	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/export"
	"github.com/FreePeak/crypto-mcp-server/internal/ingest"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
	"github.com/FreePeak/crypto-mcp-server/pkg/dbtools"
)

// ErrIngestDisabled is returned by IngestSnapshot when no pipeline is configured
var ErrIngestDisabled = errors.New("ingestion is not configured on this server")

// ErrPerformanceDisabled is returned when no query tracker is attached
var ErrPerformanceDisabled = errors.New("query performance tracking is not enabled")

// TableInfo describes the price table
type TableInfo struct {
	Table   string            `json:"table"`
	Columns *domain.ResultSet `json:"columns"`
	Rows    int64             `json:"rows"`
}

// CryptoUseCase ties the analyst, the exporter and the ingest pipeline to
// one database
type CryptoUseCase struct {
	db       analyst.Querier
	analyst  *analyst.Analyst
	exporter *export.Exporter
	pipeline *ingest.Pipeline
	perf     *dbtools.PerformanceAnalyzer
}

// NewCryptoUseCase creates the use case. pipeline may be nil, in which case
// IngestSnapshot is unavailable.
func NewCryptoUseCase(db analyst.Querier, a *analyst.Analyst, e *export.Exporter, pipeline *ingest.Pipeline) *CryptoUseCase {
	return &CryptoUseCase{db: db, analyst: a, exporter: e, pipeline: pipeline}
}

// WithPerformance attaches the tracker that wraps the analyst's backend
func (uc *CryptoUseCase) WithPerformance(pa *dbtools.PerformanceAnalyzer) *CryptoUseCase {
	uc.perf = pa
	return uc
}

// Ask answers a natural-language question
func (uc *CryptoUseCase) Ask(ctx context.Context, question string) (*analyst.Answer, error) {
	return uc.analyst.Ask(ctx, question)
}

// Query runs a read-only SQL statement
func (uc *CryptoUseCase) Query(ctx context.Context, query string) (*domain.ResultSet, error) {
	logger.QueryLog("questdb", query, 200)
	return uc.analyst.Query(ctx, query)
}

// LatestPrices returns the newest quote per symbol and exchange
func (uc *CryptoUseCase) LatestPrices(ctx context.Context, symbols []string) (*domain.ResultSet, error) {
	return uc.analyst.LatestPrices(ctx, symbols)
}

// Arbitrage lists cross-exchange price gaps above minPct percent
func (uc *CryptoUseCase) Arbitrage(ctx context.Context, symbols []string, minPct float64) (*domain.ResultSet, error) {
	return uc.analyst.Arbitrage(ctx, symbols, minPct)
}

// RunScenario runs a canned market analysis
func (uc *CryptoUseCase) RunScenario(ctx context.Context, name string) (*analyst.ScenarioReport, error) {
	return uc.analyst.RunScenario(ctx, name)
}

// ExportDashboard writes one dashboard CSV
func (uc *CryptoUseCase) ExportDashboard(ctx context.Context, name string) (*export.Result, error) {
	return uc.exporter.ExportDashboard(ctx, name)
}

// ExportAll writes every dashboard CSV
func (uc *CryptoUseCase) ExportAll(ctx context.Context) []*export.Result {
	return uc.exporter.ExportAll(ctx)
}

// RenderPriceChart writes a PNG chart of the last hours
func (uc *CryptoUseCase) RenderPriceChart(ctx context.Context, hours int) (*export.Result, error) {
	return uc.exporter.RenderPriceChart(ctx, hours)
}

// IngestSnapshot runs one collect and ingest cycle
func (uc *CryptoUseCase) IngestSnapshot(ctx context.Context) (*ingest.Summary, error) {
	if uc.pipeline == nil {
		return nil, ErrIngestDisabled
	}
	return uc.pipeline.RunOnce(ctx)
}

// TableInfo returns the columns and row count of the price table
func (uc *CryptoUseCase) TableInfo(ctx context.Context) (*TableInfo, error) {
	cols, err := uc.db.Exec(ctx, fmt.Sprintf("SHOW COLUMNS FROM %s", ingest.TableName))
	if err != nil {
		return nil, fmt.Errorf("failed to get schema information: %w", err)
	}
	count, err := uc.db.Exec(ctx, fmt.Sprintf("SELECT count() FROM %s", ingest.TableName))
	if err != nil {
		return nil, fmt.Errorf("failed to count rows: %w", err)
	}

	info := &TableInfo{Table: ingest.TableName, Columns: cols}
	if count.Len() > 0 && len(count.Columns) > 0 {
		if n, ok := count.Float(0, count.Columns[0].Name); ok {
			info.Rows = int64(n)
		}
	}
	return info, nil
}

// QueryMetrics returns tracked statement timings, slowest first
func (uc *CryptoUseCase) QueryMetrics(slowOnly bool, limit int) ([]dbtools.QueryMetrics, error) {
	if uc.perf == nil {
		return nil, ErrPerformanceDisabled
	}
	if slowOnly {
		return uc.perf.GetSlowQueries(limit), nil
	}
	return uc.perf.GetAllMetrics(limit), nil
}

// ResetQueryMetrics clears the tracked timings
func (uc *CryptoUseCase) ResetQueryMetrics() error {
	if uc.perf == nil {
		return ErrPerformanceDisabled
	}
	uc.perf.Reset()
	return nil
}

// SetSlowThreshold changes the duration from which a statement counts as slow
func (uc *CryptoUseCase) SetSlowThreshold(threshold time.Duration) error {
	if uc.perf == nil {
		return ErrPerformanceDisabled
	}
	if threshold <= 0 {
		return fmt.Errorf("threshold must be positive, got %s", threshold)
	}
	uc.perf.SetSlowThreshold(threshold)
	return nil
}

// AnalyzeQuery suggests improvements for a statement
func (uc *CryptoUseCase) AnalyzeQuery(query string) []string {
	return dbtools.AnalyzeQuery(query)
}
