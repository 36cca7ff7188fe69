package mcp

import (
	"context"
	"io"
	"log"
	"testing"

	"github.com/FreePeak/cortex/pkg/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/crypto-mcp-server/internal/analyst"
)

func newTestServer() *server.MCPServer {
	return server.NewMCPServer("crypto-test", "0.0.0", log.New(io.Discard, "", 0))
}

func TestRegisterAllTools(t *testing.T) {
	t.Setenv("MCP_TOOL_PREFIX", "")
	uc := new(MockUseCase)
	registry := NewToolRegistry(newTestServer())

	require.NoError(t, registry.RegisterAllTools(context.Background(), uc))
	assert.Equal(t, len(NewToolTypeFactory().GetAllToolTypes()), registry.Count())

	uc.On("RunScenario", mock.Anything, "nope").Return(nil, assert.AnError)
	handler, ok := registry.Handler("market_scenario")
	require.True(t, ok)
	resp, err := handler(context.Background(), request("market_scenario", map[string]interface{}{"scenario": "nope"}))
	assert.Nil(t, resp)
	assert.ErrorIs(t, err, assert.AnError)
}

func TestRegisterAllToolsWithPrefix(t *testing.T) {
	t.Setenv("MCP_TOOL_PREFIX", "crypto_")
	uc := new(MockUseCase)
	registry := NewToolRegistry(newTestServer())

	require.NoError(t, registry.RegisterAllTools(context.Background(), uc))
	assert.Equal(t, 2*len(NewToolTypeFactory().GetAllToolTypes()), registry.Count())

	uc.On("Ask", mock.Anything, "eth volume").Return(&analyst.Answer{Text: "ok"}, nil)
	handler, ok := registry.Handler("crypto_ask_crypto")
	require.True(t, ok)
	out, err := handler(context.Background(), request("crypto_ask_crypto", map[string]interface{}{"question": "eth volume"}))
	require.NoError(t, err)
	assert.Equal(t, "ok", asResponse(t, out).Text())
}

func TestServerWrapperRejectsForeignTools(t *testing.T) {
	sw := NewServerWrapper(newTestServer())
	err := sw.AddTool(context.Background(), "not a tool", nil)
	assert.Error(t, err)
}
