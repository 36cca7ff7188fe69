package mcp

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/FreePeak/crypto-mcp-server/internal/analyst"
	"github.com/FreePeak/crypto-mcp-server/internal/domain"
	"github.com/FreePeak/crypto-mcp-server/internal/export"
	"github.com/FreePeak/crypto-mcp-server/internal/ingest"
	"github.com/FreePeak/crypto-mcp-server/internal/usecase"
	"github.com/FreePeak/crypto-mcp-server/pkg/dbtools"
)

// MockUseCase is a mock implementation of UseCaseProvider
type MockUseCase struct {
	mock.Mock
}

// Ask mocks the Ask method
func (m *MockUseCase) Ask(ctx context.Context, question string) (*analyst.Answer, error) {
	args := m.Called(ctx, question)
	ans, _ := args.Get(0).(*analyst.Answer)
	return ans, args.Error(1)
}

// Query mocks the Query method
func (m *MockUseCase) Query(ctx context.Context, query string) (*domain.ResultSet, error) {
	args := m.Called(ctx, query)
	rs, _ := args.Get(0).(*domain.ResultSet)
	return rs, args.Error(1)
}

// LatestPrices mocks the LatestPrices method
func (m *MockUseCase) LatestPrices(ctx context.Context, symbols []string) (*domain.ResultSet, error) {
	args := m.Called(ctx, symbols)
	rs, _ := args.Get(0).(*domain.ResultSet)
	return rs, args.Error(1)
}

// Arbitrage mocks the Arbitrage method
func (m *MockUseCase) Arbitrage(ctx context.Context, symbols []string, minPct float64) (*domain.ResultSet, error) {
	args := m.Called(ctx, symbols, minPct)
	rs, _ := args.Get(0).(*domain.ResultSet)
	return rs, args.Error(1)
}

// RunScenario mocks the RunScenario method
func (m *MockUseCase) RunScenario(ctx context.Context, name string) (*analyst.ScenarioReport, error) {
	args := m.Called(ctx, name)
	r, _ := args.Get(0).(*analyst.ScenarioReport)
	return r, args.Error(1)
}

// ExportDashboard mocks the ExportDashboard method
func (m *MockUseCase) ExportDashboard(ctx context.Context, name string) (*export.Result, error) {
	args := m.Called(ctx, name)
	r, _ := args.Get(0).(*export.Result)
	return r, args.Error(1)
}

// ExportAll mocks the ExportAll method
func (m *MockUseCase) ExportAll(ctx context.Context) []*export.Result {
	args := m.Called(ctx)
	r, _ := args.Get(0).([]*export.Result)
	return r
}

// RenderPriceChart mocks the RenderPriceChart method
func (m *MockUseCase) RenderPriceChart(ctx context.Context, hours int) (*export.Result, error) {
	args := m.Called(ctx, hours)
	r, _ := args.Get(0).(*export.Result)
	return r, args.Error(1)
}

// IngestSnapshot mocks the IngestSnapshot method
func (m *MockUseCase) IngestSnapshot(ctx context.Context) (*ingest.Summary, error) {
	args := m.Called(ctx)
	s, _ := args.Get(0).(*ingest.Summary)
	return s, args.Error(1)
}

// TableInfo mocks the TableInfo method
func (m *MockUseCase) TableInfo(ctx context.Context) (*usecase.TableInfo, error) {
	args := m.Called(ctx)
	info, _ := args.Get(0).(*usecase.TableInfo)
	return info, args.Error(1)
}

// QueryMetrics mocks the QueryMetrics method
func (m *MockUseCase) QueryMetrics(slowOnly bool, limit int) ([]dbtools.QueryMetrics, error) {
	args := m.Called(slowOnly, limit)
	list, _ := args.Get(0).([]dbtools.QueryMetrics)
	return list, args.Error(1)
}

// ResetQueryMetrics mocks the ResetQueryMetrics method
func (m *MockUseCase) ResetQueryMetrics() error {
	return m.Called().Error(0)
}

// SetSlowThreshold mocks the SetSlowThreshold method
func (m *MockUseCase) SetSlowThreshold(threshold time.Duration) error {
	return m.Called(threshold).Error(0)
}

// AnalyzeQuery mocks the AnalyzeQuery method
func (m *MockUseCase) AnalyzeQuery(query string) []string {
	args := m.Called(query)
	s, _ := args.Get(0).([]string)
	return s
}
