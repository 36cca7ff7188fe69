package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/FreePeak/cortex/pkg/server"

	"github.com/FreePeak/crypto-mcp-server/internal/analyst"
	"github.com/FreePeak/crypto-mcp-server/internal/config"
	"github.com/FreePeak/crypto-mcp-server/internal/delivery/mcp"
	"github.com/FreePeak/crypto-mcp-server/internal/exchange"
	"github.com/FreePeak/crypto-mcp-server/internal/export"
	"github.com/FreePeak/crypto-mcp-server/internal/infrastructure/database"
	"github.com/FreePeak/crypto-mcp-server/internal/ingest"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
	"github.com/FreePeak/crypto-mcp-server/internal/usecase"
	"github.com/FreePeak/crypto-mcp-server/pkg/dbtools"
)

const (
	serverName    = "crypto-mcp-server"
	serverVersion = "1.0.0"
)

func main() {
	transportMode := flag.String("t", "", "Transport mode (sse or stdio)")
	port := flag.Int("port", 0, "Server port")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if *transportMode != "" {
		cfg.TransportMode = *transportMode
	}
	if *port != 0 {
		cfg.ServerPort = *port
	}

	// stdout carries the MCP protocol in stdio mode, so logs go to stderr
	logger.Initialize(cfg.LogLevel, cfg.LogFormat)
	logger.Info("Starting MCP server with %s transport", cfg.TransportMode)

	if err := run(cfg); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
	logger.Info("Server stopped")
}

func run(cfg *config.Config) error {
	backend, err := database.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open QuestDB backend: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Error closing QuestDB backend: %v", err)
		}
	}()

	pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := backend.Ping(pingCtx); err != nil {
		logger.Warn("QuestDB is not reachable yet: %v", err)
	}
	cancel()

	sources, err := exchange.FromConfig(cfg)
	if err != nil {
		return fmt.Errorf("failed to configure exchanges: %w", err)
	}

	tracked := dbtools.NewPerformanceAnalyzer(backend)
	cryptoUseCase := usecase.NewCryptoUseCase(
		tracked,
		analyst.New(tracked, analyst.WithSymbols(cfg.Ingest.Symbols)),
		export.New(backend, cfg.ExportDir),
		ingest.NewPipeline(backend, sources, cfg.Ingest.Symbols),
	).WithPerformance(tracked)

	mcpServer := server.NewMCPServer(serverName, serverVersion, log.New(os.Stderr, "[cortex] ", log.LstdFlags))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	registry := mcp.NewToolRegistry(mcpServer)
	if err := registry.RegisterAllTools(ctx, cryptoUseCase); err != nil {
		return fmt.Errorf("failed to register tools: %w", err)
	}

	switch cfg.TransportMode {
	case "stdio":
		if err := mcpServer.ServeStdio(); err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil

	case "sse":
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		mcpServer.SetAddress(addr)

		errCh := make(chan error, 1)
		go func() {
			logger.Info("Server listening on %s", addr)
			errCh <- mcpServer.ServeHTTP()
		}()

		select {
		case err := <-errCh:
			if err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		case <-ctx.Done():
			logger.Info("Shutting down server...")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := mcpServer.Shutdown(shutdownCtx); err != nil {
				logger.Error("Server shutdown error: %v", err)
			}
			return nil
		}

	default:
		return fmt.Errorf("unknown transport mode: %s", cfg.TransportMode)
	}
}
