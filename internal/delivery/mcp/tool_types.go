package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/FreePeak/cortex/pkg/server"
	"github.com/FreePeak/cortex/pkg/tools"

	"github.com/FreePeak/crypto-mcp-server/internal/analyst"
	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/export"
	"github.com/FreePeak/crypto-mcp-server/internal/ingest"
	"github.com/FreePeak/crypto-mcp-server/internal/usecase"
	"github.com/FreePeak/crypto-mcp-server/pkg/dbtools"
)

// ToolType interface defines the structure for the crypto tools
type ToolType interface {
	// GetName returns the tool name (e.g., "ask_crypto")
	GetName() string

	// GetDescription returns a description for this tool
	GetDescription() string

	// CreateTool creates a tool with the specified name
	// The returned tool must be compatible with server.MCPServer.AddTool's first parameter
	CreateTool(name string) interface{}

	// HandleRequest handles tool requests for this tool type
	HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error)
}

// UseCaseProvider abstracts the crypto analysis operations
type UseCaseProvider interface {
	Ask(ctx context.Context, question string) (*analyst.Answer, error)
	Query(ctx context.Context, query string) (*domain.ResultSet, error)
	LatestPrices(ctx context.Context, symbols []string) (*domain.ResultSet, error)
	Arbitrage(ctx context.Context, symbols []string, minPct float64) (*domain.ResultSet, error)
	RunScenario(ctx context.Context, name string) (*analyst.ScenarioReport, error)
	ExportDashboard(ctx context.Context, name string) (*export.Result, error)
	ExportAll(ctx context.Context) []*export.Result
	RenderPriceChart(ctx context.Context, hours int) (*export.Result, error)
	IngestSnapshot(ctx context.Context) (*ingest.Summary, error)
	TableInfo(ctx context.Context) (*usecase.TableInfo, error)
	QueryMetrics(slowOnly bool, limit int) ([]dbtools.QueryMetrics, error)
	ResetQueryMetrics() error
	SetSlowThreshold(threshold time.Duration) error
	AnalyzeQuery(query string) []string
}

// BaseToolType provides common functionality for tool types
type BaseToolType struct {
	name        string
	description string
}

// GetName returns the name of the tool type
func (b *BaseToolType) GetName() string {
	return b.name
}

// GetDescription returns a description for the tool type
func (b *BaseToolType) GetDescription() string {
	return b.description
}

//------------------------------------------------------------------------------
// AskTool implementation
//------------------------------------------------------------------------------

// AskTool answers natural-language questions
type AskTool struct {
	BaseToolType
}

// NewAskTool creates a new ask tool type
func NewAskTool() *AskTool {
	return &AskTool{
		BaseToolType: BaseToolType{
			name:        "ask_crypto",
			description: "Answer a natural-language question about crypto prices, volumes, trends or arbitrage",
		},
	}
}

// CreateTool creates an ask tool
func (t *AskTool) CreateTool(name string) interface{} {
	return tools.NewTool(
		name,
		tools.WithDescription(t.GetDescription()),
		tools.WithString("question",
			tools.Description("Question, e.g. 'Compare Bitcoin prices across exchanges'"),
			tools.Required(),
		),
	)
}

// HandleRequest handles ask tool requests
func (t *AskTool) HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error) {
	question, ok := request.Parameters["question"].(string)
	if !ok || strings.TrimSpace(question) == "" {
		return nil, fmt.Errorf("question parameter must be a non-empty string")
	}

	answer, err := useCase.Ask(ctx, question)
	if err != nil {
		return nil, err
	}

	resp := NewResponse().WithText(answer.Text).
		WithMetadata("intent", string(answer.Analysis.Intent)).
		WithMetadata("entities", answer.Analysis.Entities).
		WithMetadata("time_range", string(answer.Analysis.TimeRange)).
		WithMetadata("sql", answer.SQL)
	if answer.Result != nil {
		resp.WithMetadata("rowCount", answer.Result.Len())
	}
	return resp, nil
}

//------------------------------------------------------------------------------
// QueryTool implementation
//------------------------------------------------------------------------------

// QueryTool runs read-only SQL
type QueryTool struct {
	BaseToolType
}

// NewQueryTool creates a new query tool type
func NewQueryTool() *QueryTool {
	return &QueryTool{
		BaseToolType: BaseToolType{
			name:        "query_crypto",
			description: "Execute a read-only SQL query (SELECT, WITH, SHOW, EXPLAIN) against the crypto_prices table",
		},
	}
}

// CreateTool creates a query tool
func (t *QueryTool) CreateTool(name string) interface{} {
	return tools.NewTool(
		name,
		tools.WithDescription(t.GetDescription()),
		tools.WithString("query",
			tools.Description("SQL query to execute"),
			tools.Required(),
		),
	)
}

// HandleRequest handles query tool requests
func (t *QueryTool) HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error) {
	query, ok := request.Parameters["query"].(string)
	if !ok {
		return nil, fmt.Errorf("query parameter must be a string")
	}

	rs, err := useCase.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	return resultSetResponse(rs)
}

//------------------------------------------------------------------------------
// LatestPricesTool implementation
//------------------------------------------------------------------------------

// LatestPricesTool lists the latest quote per symbol and exchange
type LatestPricesTool struct {
	BaseToolType
}

// NewLatestPricesTool creates a new latest prices tool type
func NewLatestPricesTool() *LatestPricesTool {
	return &LatestPricesTool{
		BaseToolType: BaseToolType{
			name:        "latest_prices",
			description: "Latest price of each symbol on each exchange",
		},
	}
}

// CreateTool creates a latest prices tool
func (t *LatestPricesTool) CreateTool(name string) interface{} {
	return tools.NewTool(
		name,
		tools.WithDescription(t.GetDescription()),
		tools.WithArray("symbols",
			tools.Description("Symbols to include, e.g. [\"BTC\", \"ETH\"]; all when omitted"),
		),
	)
}

// HandleRequest handles latest prices tool requests
func (t *LatestPricesTool) HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error) {
	rs, err := useCase.LatestPrices(ctx, getStringSlice(request.Parameters, "symbols"))
	if err != nil {
		return nil, err
	}
	if rs.Len() == 0 {
		return NewResponse().WithText(analyst.EmptyResultText), nil
	}

	var b strings.Builder
	for i := 0; i < rs.Len(); i++ {
		price, _ := rs.Float(i, "price")
		fmt.Fprintf(&b, "%-5s %-10s %14.4f  %s\n",
			rs.String(i, "symbol"), rs.String(i, "exchange"), price, rs.String(i, "timestamp"))
	}
	return NewResponse().WithText(strings.TrimRight(b.String(), "\n")).
		WithMetadata("rowCount", rs.Len()), nil
}

//------------------------------------------------------------------------------
// ArbitrageTool implementation
//------------------------------------------------------------------------------

// ArbitrageTool lists cross-exchange price gaps
type ArbitrageTool struct {
	BaseToolType
}

// NewArbitrageTool creates a new arbitrage tool type
func NewArbitrageTool() *ArbitrageTool {
	return &ArbitrageTool{
		BaseToolType: BaseToolType{
			name:        "arbitrage_opportunities",
			description: "Find price differences for the same symbol between exchanges",
		},
	}
}

// CreateTool creates an arbitrage tool
func (t *ArbitrageTool) CreateTool(name string) interface{} {
	return tools.NewTool(
		name,
		tools.WithDescription(t.GetDescription()),
		tools.WithString("symbol",
			tools.Description("Restrict to one symbol, e.g. BTC"),
		),
		tools.WithNumber("min_pct",
			tools.Description(fmt.Sprintf("Minimum gap in percent of the mid price (default %v)", analyst.DefaultArbitrageThreshold)),
		),
	)
}

// HandleRequest handles arbitrage tool requests
func (t *ArbitrageTool) HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error) {
	var symbols []string
	if symbol, ok := request.Parameters["symbol"].(string); ok && symbol != "" {
		symbols = []string{symbol}
	}

	minPct := analyst.DefaultArbitrageThreshold
	if v, ok, err := getNumber(request.Parameters, "min_pct"); err != nil {
		return nil, err
	} else if ok {
		minPct = v
	}

	rs, err := useCase.Arbitrage(ctx, symbols, minPct)
	if err != nil {
		return nil, err
	}
	if rs.Len() == 0 {
		return NewResponse().WithText(fmt.Sprintf("No arbitrage opportunities above %v%%", minPct)).
			WithMetadata("rowCount", 0), nil
	}

	var b strings.Builder
	for i := 0; i < rs.Len(); i++ {
		pct, _ := rs.Float(i, "arbitrage_pct")
		p1, _ := rs.Float(i, "price1")
		p2, _ := rs.Float(i, "price2")
		fmt.Fprintf(&b, "%s: %.2f%% between %s (%.4f) and %s (%.4f)\n",
			rs.String(i, "symbol"), pct, rs.String(i, "exchange1"), p1, rs.String(i, "exchange2"), p2)
	}
	return NewResponse().WithText(strings.TrimRight(b.String(), "\n")).
		WithMetadata("rowCount", rs.Len()).
		WithMetadata("min_pct", minPct), nil
}

//------------------------------------------------------------------------------
// ScenarioTool implementation
//------------------------------------------------------------------------------

// ScenarioTool runs a canned market analysis
type ScenarioTool struct {
	BaseToolType
}

// NewScenarioTool creates a new scenario tool type
func NewScenarioTool() *ScenarioTool {
	return &ScenarioTool{
		BaseToolType: BaseToolType{
			name:        "market_scenario",
			description: "Run a market scenario: " + strings.Join(analyst.ScenarioNames(), ", "),
		},
	}
}

// CreateTool creates a scenario tool
func (t *ScenarioTool) CreateTool(name string) interface{} {
	return tools.NewTool(
		name,
		tools.WithDescription(t.GetDescription()),
		tools.WithString("scenario",
			tools.Description("Scenario name ("+strings.Join(analyst.ScenarioNames(), ", ")+")"),
			tools.Required(),
		),
	)
}

// HandleRequest handles scenario tool requests
func (t *ScenarioTool) HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error) {
	name, ok := request.Parameters["scenario"].(string)
	if !ok {
		return nil, fmt.Errorf("scenario parameter must be a string")
	}

	report, err := useCase.RunScenario(ctx, name)
	if err != nil {
		return nil, err
	}
	return NewResponse().WithText(report.Text()).
		WithMetadata("scenario", report.Name).
		WithMetadata("sql", report.SQL).
		WithMetadata("rowCount", report.Result.Len()), nil
}

//------------------------------------------------------------------------------
// ExportTool implementation
//------------------------------------------------------------------------------

// ExportTool writes dashboard CSV files
type ExportTool struct {
	BaseToolType
}

// NewExportTool creates a new export tool type
func NewExportTool() *ExportTool {
	return &ExportTool{
		BaseToolType: BaseToolType{
			name:        "export_dashboard",
			description: "Export dashboard data as CSV: " + strings.Join(export.Dashboards(), ", "),
		},
	}
}

// CreateTool creates an export tool
func (t *ExportTool) CreateTool(name string) interface{} {
	return tools.NewTool(
		name,
		tools.WithDescription(t.GetDescription()),
		tools.WithString("name",
			tools.Description("Dashboard to export; all dashboards when omitted"),
		),
	)
}

// HandleRequest handles export tool requests
func (t *ExportTool) HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error) {
	var results []*export.Result
	if name, _ := request.Parameters["name"].(string); name != "" {
		res, err := useCase.ExportDashboard(ctx, name)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	} else {
		results = useCase.ExportAll(ctx)
	}

	if len(results) == 0 {
		return nil, fmt.Errorf("no dashboards were exported")
	}

	resp := NewResponse()
	paths := make([]string, 0, len(results))
	for _, res := range results {
		text := fmt.Sprintf("Exported %d records to %s", res.Rows, res.Path)
		if len(res.Preview) > 0 {
			text += "\n" + strings.Join(res.Preview, "\n")
		}
		resp.WithText(text)
		paths = append(paths, res.Path)
	}
	return resp.WithMetadata("files", paths), nil
}

//------------------------------------------------------------------------------
// ChartTool implementation
//------------------------------------------------------------------------------

// ChartTool renders a PNG price chart
type ChartTool struct {
	BaseToolType
}

// NewChartTool creates a new chart tool type
func NewChartTool() *ChartTool {
	return &ChartTool{
		BaseToolType: BaseToolType{
			name:        "price_chart",
			description: "Render a PNG chart of prices per symbol and exchange",
		},
	}
}

// CreateTool creates a chart tool
func (t *ChartTool) CreateTool(name string) interface{} {
	return tools.NewTool(
		name,
		tools.WithDescription(t.GetDescription()),
		tools.WithNumber("hours",
			tools.Description(fmt.Sprintf("Look-back window in hours, 1 to %d (default %d)", export.MaxChartHours, export.DefaultChartHours)),
		),
	)
}

// HandleRequest handles chart tool requests
func (t *ChartTool) HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error) {
	hours := export.DefaultChartHours
	if v, ok, err := getNumber(request.Parameters, "hours"); err != nil {
		return nil, err
	} else if ok {
		if v < 1 || v > export.MaxChartHours {
			return nil, fmt.Errorf("hours must be between 1 and %d", export.MaxChartHours)
		}
		hours = int(v)
	}

	res, err := useCase.RenderPriceChart(ctx, hours)
	if err != nil {
		return nil, err
	}
	return NewResponse().WithText("Visualization saved as " + res.Path).
		WithMetadata("file", res.Path).
		WithMetadata("rowCount", res.Rows), nil
}

//------------------------------------------------------------------------------
// IngestTool implementation
//------------------------------------------------------------------------------

// IngestTool runs one collect and ingest cycle
type IngestTool struct {
	BaseToolType
}

// NewIngestTool creates a new ingest tool type
func NewIngestTool() *IngestTool {
	return &IngestTool{
		BaseToolType: BaseToolType{
			name:        "ingest_snapshot",
			description: "Fetch current quotes from all exchanges and store them",
		},
	}
}

// CreateTool creates an ingest tool
func (t *IngestTool) CreateTool(name string) interface{} {
	return tools.NewTool(
		name,
		tools.WithDescription(t.GetDescription()),
	)
}

// HandleRequest handles ingest tool requests
func (t *IngestTool) HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error) {
	summary, err := useCase.IngestSnapshot(ctx)
	if summary == nil {
		return nil, err
	}

	var b strings.Builder
	for _, s := range summary.Sources {
		if s.Error != "" {
			fmt.Fprintf(&b, "%s: %d records (%s)\n", s.Name, s.Records, s.Error)
		} else {
			fmt.Fprintf(&b, "%s: %d records\n", s.Name, s.Records)
		}
	}
	fmt.Fprintf(&b, "Total: %d records, ingested: %d", summary.Total, summary.Ingested)

	resp := NewResponse().WithText(b.String()).
		WithMetadata("run_id", summary.RunID).
		WithMetadata("ingested", summary.Ingested)
	if err != nil {
		resp.WithMetadata("error", err.Error())
	}
	return resp, nil
}

//------------------------------------------------------------------------------
// TableInfoTool implementation
//------------------------------------------------------------------------------

// TableInfoTool describes the price table
type TableInfoTool struct {
	BaseToolType
}

// NewTableInfoTool creates a new table info tool type
func NewTableInfoTool() *TableInfoTool {
	return &TableInfoTool{
		BaseToolType: BaseToolType{
			name:        "table_info",
			description: "Show the columns and row count of the crypto_prices table",
		},
	}
}

// CreateTool creates a table info tool
func (t *TableInfoTool) CreateTool(name string) interface{} {
	return tools.NewTool(
		name,
		tools.WithDescription(t.GetDescription()),
	)
}

// HandleRequest handles table info tool requests
func (t *TableInfoTool) HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error) {
	info, err := useCase.TableInfo(ctx)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Table %s (%d rows)\n", info.Table, info.Rows)
	for i := 0; i < info.Columns.Len(); i++ {
		fmt.Fprintf(&b, "  %s %s\n", info.Columns.String(i, "column"), info.Columns.String(i, "type"))
	}
	return NewResponse().WithText(strings.TrimRight(b.String(), "\n")).
		WithMetadata("rows", info.Rows), nil
}

//------------------------------------------------------------------------------
// PerformanceTool implementation
//------------------------------------------------------------------------------

// PerformanceTool reports and tunes query timing statistics
type PerformanceTool struct {
	BaseToolType
}

// NewPerformanceTool creates a new query performance tool type
func NewPerformanceTool() *PerformanceTool {
	return &PerformanceTool{
		BaseToolType: BaseToolType{
			name:        "query_performance",
			description: "Inspect QuestDB query timings: list slow queries, show all metrics, analyze a query, reset or set the slow threshold",
		},
	}
}

// CreateTool creates a query performance tool
func (t *PerformanceTool) CreateTool(name string) interface{} {
	return tools.NewTool(
		name,
		tools.WithDescription(t.GetDescription()),
		tools.WithString("action",
			tools.Description("One of getSlowQueries, getMetrics, analyzeQuery, reset, setThreshold"),
			tools.Required(),
		),
		tools.WithString("query",
			tools.Description("SQL to analyze (analyzeQuery)"),
		),
		tools.WithNumber("limit",
			tools.Description("Maximum number of queries to return (default 10)"),
		),
		tools.WithNumber("threshold",
			tools.Description("Slow query threshold in milliseconds (setThreshold)"),
		),
	)
}

// HandleRequest handles query performance tool requests
func (t *PerformanceTool) HandleRequest(ctx context.Context, request server.ToolCallRequest, useCase UseCaseProvider) (interface{}, error) {
	action, _ := request.Parameters["action"].(string)

	switch action {
	case "getSlowQueries", "getMetrics":
		limit := 10
		if v, ok, err := getNumber(request.Parameters, "limit"); err != nil {
			return nil, err
		} else if ok && v > 0 {
			limit = int(v)
		}
		list, err := useCase.QueryMetrics(action == "getSlowQueries", limit)
		if err != nil {
			return nil, err
		}
		data, err := json.MarshalIndent(list, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("failed to encode metrics: %w", err)
		}
		return NewResponse().WithText(string(data)).WithMetadata("count", len(list)), nil

	case "analyzeQuery":
		query, ok := request.Parameters["query"].(string)
		if !ok || strings.TrimSpace(query) == "" {
			return nil, fmt.Errorf("query parameter must be a non-empty string")
		}
		suggestions := useCase.AnalyzeQuery(query)
		return NewResponse().WithText("Suggestions:\n- " + strings.Join(suggestions, "\n- ")), nil

	case "reset":
		if err := useCase.ResetQueryMetrics(); err != nil {
			return nil, err
		}
		return NewResponse().WithText("Query metrics have been reset"), nil

	case "setThreshold":
		ms, ok, err := getNumber(request.Parameters, "threshold")
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("threshold parameter is required")
		}
		threshold := time.Duration(ms * float64(time.Millisecond))
		if err := useCase.SetSlowThreshold(threshold); err != nil {
			return nil, err
		}
		return NewResponse().WithText(fmt.Sprintf("Slow query threshold set to %s", threshold)), nil

	default:
		return nil, fmt.Errorf("unknown action %q", action)
	}
}

//------------------------------------------------------------------------------
// helpers
//------------------------------------------------------------------------------

func resultSetResponse(rs *domain.ResultSet) (interface{}, error) {
	data, err := json.MarshalIndent(rs.Rows(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return NewResponse().WithText(string(data)).
		WithMetadata("columns", rs.ColumnNames()).
		WithMetadata("rowCount", rs.Len()), nil
}

// getNumber reads an optional numeric parameter. JSON numbers arrive as
// float64; numeric strings are accepted too.
func getNumber(params map[string]interface{}, key string) (float64, bool, error) {
	raw, present := params[key]
	if !present || raw == nil {
		return 0, false, nil
	}
	switch v := raw.(type) {
	case float64:
		return v, true, nil
	case int:
		return float64(v), true, nil
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false, fmt.Errorf("%s must be a number", key)
		}
		return f, true, nil
	case string:
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return 0, false, fmt.Errorf("%s must be a number", key)
		}
		return f, true, nil
	default:
		return 0, false, fmt.Errorf("%s must be a number", key)
	}
}

// getStringSlice accepts an array of strings or a comma separated string
func getStringSlice(params map[string]interface{}, key string) []string {
	switch v := params[key].(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case []string:
		return v
	case string:
		var out []string
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

//------------------------------------------------------------------------------
// ToolTypeFactory provides a factory for creating tool types
//------------------------------------------------------------------------------

// ToolTypeFactory creates and manages tool types
type ToolTypeFactory struct {
	toolTypes map[string]ToolType
}

// NewToolTypeFactory creates a new tool type factory with all registered tool types
func NewToolTypeFactory() *ToolTypeFactory {
	factory := &ToolTypeFactory{
		toolTypes: make(map[string]ToolType),
	}

	factory.Register(NewAskTool())
	factory.Register(NewQueryTool())
	factory.Register(NewLatestPricesTool())
	factory.Register(NewArbitrageTool())
	factory.Register(NewScenarioTool())
	factory.Register(NewExportTool())
	factory.Register(NewChartTool())
	factory.Register(NewIngestTool())
	factory.Register(NewTableInfoTool())
	factory.Register(NewPerformanceTool())

	return factory
}

// Register adds a tool type to the factory
func (f *ToolTypeFactory) Register(toolType ToolType) {
	f.toolTypes[toolType.GetName()] = toolType
}

// GetToolType returns a tool type by name. Names carrying a registered
// alias prefix resolve to the unprefixed tool.
func (f *ToolTypeFactory) GetToolType(name string) (ToolType, bool) {
	if toolType, ok := f.toolTypes[name]; ok {
		return toolType, true
	}
	for base, toolType := range f.toolTypes {
		if strings.HasSuffix(name, "_"+base) {
			return toolType, true
		}
	}
	return nil, false
}

// GetAllToolTypes returns all registered tool types sorted by name
func (f *ToolTypeFactory) GetAllToolTypes() []ToolType {
	types := make([]ToolType, 0, len(f.toolTypes))
	for _, toolType := range f.toolTypes {
		types = append(types, toolType)
	}
	sort.Slice(types, func(i, j int) bool { return types[i].GetName() < types[j].GetName() })
	return types
}
