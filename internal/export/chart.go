package export

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
)

// DefaultChartHours is the look-back window of the price chart
const DefaultChartHours = 6

// MaxChartHours caps the look-back window at one week
const MaxChartHours = 7 * 24

// ErrNoChartData is returned when the window holds no prices
var ErrNoChartData = errors.New("no data available for visualization")

// ChartSQL selects the prices plotted over the last hours
func ChartSQL(hours int) string {
	return fmt.Sprintf(`SELECT symbol, exchange, price, timestamp
FROM crypto_prices
WHERE timestamp > dateadd('h', -%d, now())
ORDER BY timestamp`, hours)
}

// Series is the price line of one symbol on one exchange
type Series struct {
	Label  string
	Points plotter.XYs
}

// RenderPriceChart plots one line per symbol and exchange over the last hours
// and writes crypto_analysis_<YYYYmmdd_HHMMSS>.png
func (e *Exporter) RenderPriceChart(ctx context.Context, hours int) (*Result, error) {
	if hours <= 0 {
		hours = DefaultChartHours
	}
	if hours > MaxChartHours {
		hours = MaxChartHours
	}
	rs, err := e.db.Exec(ctx, ChartSQL(hours))
	if err != nil {
		return nil, fmt.Errorf("failed to load chart data: %w", err)
	}

	series := BuildSeries(rs)
	if len(series) == 0 {
		return nil, ErrNoChartData
	}

	data, err := renderPNG(series)
	if err != nil {
		return nil, err
	}

	path := filepath.Join(e.dir, fmt.Sprintf("crypto_analysis_%s.png", e.now().Format("20060102_150405")))
	if err := writeFile(path, data); err != nil {
		return nil, err
	}
	logger.Info("Visualization saved as %s", path)
	return &Result{Name: "price_chart", Path: path, Rows: rs.Len()}, nil
}

// BuildSeries groups rows by symbol and exchange. Rows without a parseable
// timestamp or price are skipped. Series are sorted by label.
func BuildSeries(rs *domain.ResultSet) []Series {
	byLabel := map[string]*Series{}
	for i := 0; i < rs.Len(); i++ {
		price, ok := rs.Float(i, "price")
		if !ok {
			continue
		}
		ts, ok := parseTimestamp(rs.Value(i, "timestamp"))
		if !ok {
			continue
		}
		label := fmt.Sprintf("%s (%s)", rs.String(i, "symbol"), rs.String(i, "exchange"))
		s, ok := byLabel[label]
		if !ok {
			s = &Series{Label: label}
			byLabel[label] = s
		}
		s.Points = append(s.Points, plotter.XY{X: float64(ts.Unix()), Y: price})
	}

	out := make([]Series, 0, len(byLabel))
	for _, s := range byLabel {
		out = append(out, *s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Label < out[j].Label })
	return out
}

func parseTimestamp(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		ts, err := time.Parse(time.RFC3339Nano, t)
		return ts, err == nil
	default:
		return time.Time{}, false
	}
}

func renderPNG(series []Series) ([]byte, error) {
	p := plot.New()
	p.Title.Text = "Crypto Prices Over Time"
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Price (USD)"
	p.X.Tick.Marker = plot.TimeTicks{Format: "01-02 15:04"}
	p.Legend.Top = true
	p.Add(plotter.NewGrid())

	for i, s := range series {
		line, points, err := plotter.NewLinePoints(s.Points)
		if err != nil {
			return nil, fmt.Errorf("plot %s: %w", s.Label, err)
		}
		line.Color = plotutil.Color(i)
		line.Width = vg.Points(2)
		points.Color = plotutil.Color(i)
		points.Shape = plotutil.Shape(i)
		p.Add(line, points)
		p.Legend.Add(s.Label, line, points)
	}

	w, err := p.WriterTo(12*vg.Inch, 6*vg.Inch, "png")
	if err != nil {
		return nil, fmt.Errorf("render chart: %w", err)
	}
	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode chart: %w", err)
	}
	return buf.Bytes(), nil
}
