package mcp

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/FreePeak/cortex/pkg/server"

	"github.com/FreePeak/crypto-mcp-server/internal/logger"
)

// ToolHandler is the signature cortex expects for tool handlers
type ToolHandler func(ctx context.Context, request server.ToolCallRequest) (interface{}, error)

// ToolRegistry structure to handle tool registration
type ToolRegistry struct {
	server  *ServerWrapper
	useCase UseCaseProvider
	factory *ToolTypeFactory

	// registered handlers by tool name, aliases included
	handlers map[string]ToolHandler
}

// NewToolRegistry creates a new tool registry
func NewToolRegistry(mcpServer *server.MCPServer) *ToolRegistry {
	return &ToolRegistry{
		server:   NewServerWrapper(mcpServer),
		factory:  NewToolTypeFactory(),
		handlers: make(map[string]ToolHandler),
	}
}

// RegisterAllTools registers every tool type with the server. When
// MCP_TOOL_PREFIX is set each tool is also registered under the prefixed name.
func (tr *ToolRegistry) RegisterAllTools(ctx context.Context, useCase UseCaseProvider) error {
	tr.useCase = useCase
	prefix := getToolNamePrefix()

	registrationErrors := 0
	for _, toolType := range tr.factory.GetAllToolTypes() {
		names := []string{toolType.GetName()}
		if prefix != "" {
			names = append(names, prefix+toolType.GetName())
		}
		for _, name := range names {
			if err := tr.registerTool(ctx, toolType, name); err != nil {
				logger.Error("Error registering tool %s: %v", name, err)
				registrationErrors++
				continue
			}
			logger.Debug("Registered tool %s", name)
		}
	}

	logger.Info("Registered %d tools", len(tr.handlers))
	if registrationErrors > 0 {
		return fmt.Errorf("errors occurred while registering %d tools", registrationErrors)
	}
	return nil
}

// registerTool registers a tool with the server
func (tr *ToolRegistry) registerTool(ctx context.Context, toolType ToolType, name string) error {
	tool := toolType.CreateTool(name)

	handler := func(ctx context.Context, request server.ToolCallRequest) (interface{}, error) {
		start := time.Now()
		response, err := toolType.HandleRequest(ctx, request, tr.useCase)
		log := logger.WithFields(logger.Fields{
			"tool":     name,
			"duration": time.Since(start).String(),
		})
		if err != nil {
			log.Warn("Tool call failed: %v", err)
		} else {
			log.Debug("Tool call completed")
		}
		return FormatResponse(response, err)
	}

	if err := tr.server.AddTool(ctx, tool, handler); err != nil {
		return err
	}
	tr.handlers[name] = handler
	return nil
}

// Handler returns the registered handler for a tool name
func (tr *ToolRegistry) Handler(name string) (ToolHandler, bool) {
	h, ok := tr.handlers[name]
	return h, ok
}

// Count returns the number of registered tools, aliases included
func (tr *ToolRegistry) Count() int {
	return len(tr.handlers)
}

// getToolNamePrefix returns the optional alias prefix for tool names
func getToolNamePrefix() string {
	return os.Getenv("MCP_TOOL_PREFIX")
}
