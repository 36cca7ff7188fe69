// Package export writes dashboard CSV files and price charts from the
// price table.
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/renameio/v2"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
)

const previewRows = 3

// Querier runs SQL and returns the rows
type Querier interface {
	Exec(ctx context.Context, query string) (*domain.ResultSet, error)
}

// CSVSource is implemented by backends that can render a query as CSV
// themselves, like the QuestDB /exp endpoint
type CSVSource interface {
	Export(ctx context.Context, query string) ([]byte, error)
}

var dashboards = map[string]string{
	"price_summary": `SELECT symbol, exchange, price, volume, timestamp
FROM crypto_prices
LATEST ON timestamp PARTITION BY symbol, exchange
ORDER BY symbol, exchange`,

	"hourly_ohlc": `SELECT timestamp AS hour, symbol, exchange,
    first(price) AS open,
    max(price) AS high,
    min(price) AS low,
    last(price) AS close,
    sum(volume) AS volume
FROM crypto_prices
WHERE timestamp > dateadd('d', -1, now())
SAMPLE BY 1h`,

	"market_overview": `SELECT symbol,
    count_distinct(exchange) AS exchange_count,
    avg(price) AS avg_price,
    sum(volume) AS total_volume,
    (max(price) - min(price)) / avg(price) * 100 AS price_range_pct
FROM crypto_prices
WHERE timestamp > dateadd('h', -24, now())
GROUP BY symbol
ORDER BY total_volume DESC`,
}

// Dashboards lists the dashboard names in a stable order
func Dashboards() []string {
	names := make([]string, 0, len(dashboards))
	for name := range dashboards {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DashboardSQL returns the query behind a dashboard
func DashboardSQL(name string) (string, bool) {
	q, ok := dashboards[name]
	return q, ok
}

// Result describes a written file
type Result struct {
	Name    string   `json:"name"`
	Path    string   `json:"path"`
	Rows    int      `json:"rows"`
	Preview []string `json:"preview,omitempty"`
}

// Exporter writes query results to files in a directory
type Exporter struct {
	db  Querier
	dir string
	now func() time.Time
}

// New creates an exporter writing into dir
func New(db Querier, dir string) *Exporter {
	if dir == "" {
		dir = "."
	}
	return &Exporter{db: db, dir: dir, now: time.Now}
}

// Dir returns the output directory
func (e *Exporter) Dir() string {
	return e.dir
}

// ExportDashboard runs the named dashboard query and writes the rows to
// crypto_<name>_<YYYYmmdd_HHMM>.csv
func (e *Exporter) ExportDashboard(ctx context.Context, name string) (*Result, error) {
	query, ok := DashboardSQL(name)
	if !ok {
		return nil, fmt.Errorf("unknown dashboard %q (available: %s)", name, strings.Join(Dashboards(), ", "))
	}

	data, err := e.csv(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("export %s: %w", name, err)
	}

	path := filepath.Join(e.dir, fmt.Sprintf("crypto_%s_%s.csv", name, e.now().Format("20060102_1504")))
	if err := writeFile(path, data); err != nil {
		return nil, err
	}

	lines := nonEmptyLines(data)
	res := &Result{Name: name, Path: path, Preview: lines[:min(len(lines), previewRows+1)]}
	if len(lines) > 0 {
		res.Rows = len(lines) - 1
	}
	logger.Info("Exported %d records to %s", res.Rows, path)
	return res, nil
}

// ExportAll writes every dashboard. A failing dashboard is logged and
// skipped.
func (e *Exporter) ExportAll(ctx context.Context) []*Result {
	var out []*Result
	for _, name := range Dashboards() {
		res, err := e.ExportDashboard(ctx, name)
		if err != nil {
			logger.Error("Export failed for %s: %v", name, err)
			continue
		}
		out = append(out, res)
	}
	return out
}

func (e *Exporter) csv(ctx context.Context, query string) ([]byte, error) {
	if src, ok := e.db.(CSVSource); ok {
		return src.Export(ctx, query)
	}
	rs, err := e.db.Exec(ctx, query)
	if err != nil {
		return nil, err
	}
	return EncodeCSV(rs)
}

// EncodeCSV renders a result set with a header row
func EncodeCSV(rs *domain.ResultSet) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(rs.ColumnNames()); err != nil {
		return nil, err
	}
	record := make([]string, len(rs.Columns))
	for i := range rs.Dataset {
		for j, c := range rs.Columns {
			record[j] = rs.String(i, c.Name)
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create export directory: %w", err)
	}
	pendingFile, err := renameio.NewPendingFile(path, renameio.WithPermissions(0o644))
	if err != nil {
		return fmt.Errorf("create pending file %s: %w", path, err)
	}
	defer func() {
		if err := pendingFile.Cleanup(); err != nil {
			logger.Debug("cleanup pending file %s: %v", path, err)
		}
	}()

	if _, err := pendingFile.Write(data); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := pendingFile.CloseAtomicallyReplace(); err != nil {
		return fmt.Errorf("atomically replace %s: %w", path, err)
	}
	return nil
}

func nonEmptyLines(data []byte) []string {
	var out []string
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line != "" {
			out = append(out, line)
		}
	}
	return out
}
