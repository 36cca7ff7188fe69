package mcp

import (
	"context"
	"fmt"

	"github.com/FreePeak/cortex/pkg/server"
	"github.com/FreePeak/cortex/pkg/types"

	"github.com/FreePeak/crypto-mcp-server/internal/logger"
)

// ServerWrapper provides a wrapper around server.MCPServer to handle type assertions
type ServerWrapper struct {
	mcpServer *server.MCPServer
}

// NewServerWrapper creates a new ServerWrapper
func NewServerWrapper(mcpServer *server.MCPServer) *ServerWrapper {
	return &ServerWrapper{
		mcpServer: mcpServer,
	}
}

// AddTool adds a tool to the server
func (sw *ServerWrapper) AddTool(ctx context.Context, tool interface{}, handler func(ctx context.Context, request server.ToolCallRequest) (interface{}, error)) error {
	typedTool, ok := tool.(*types.Tool)
	if !ok {
		return fmt.Errorf("tool is not of type *types.Tool: %T", tool)
	}

	logger.Debug("Adding tool: %s", typedTool.Name)
	return sw.mcpServer.AddTool(ctx, typedTool, handler)
}
