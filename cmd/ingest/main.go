package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/FreePeak/crypto-mcp-server/internal/config"
	"github.com/FreePeak/crypto-mcp-server/internal/exchange"
	"github.com/FreePeak/crypto-mcp-server/internal/infrastructure/database"
	"github.com/FreePeak/crypto-mcp-server/internal/ingest"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
	"github.com/FreePeak/crypto-mcp-server/internal/metrics"
)

func main() {
	interval := flag.Duration("interval", 0, "Collect every interval until interrupted (0 collects once)")
	metricsAddr := flag.String("metrics", "", "Address for /metrics and /healthz (empty uses METRICS_ADDR)")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *interval != 0 {
		cfg.Ingest.Interval = *interval
	}
	if *metricsAddr != "" {
		cfg.MetricsAddr = *metricsAddr
	}

	logger.Initialize(cfg.LogLevel, cfg.LogFormat)

	if err := run(cfg); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
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

	sources, err := exchange.FromConfig(cfg)
	if err != nil {
		return err
	}
	pipeline := ingest.NewPipeline(backend, sources, cfg.Ingest.Symbols)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("Crypto data ingestion: %v from %v", cfg.Ingest.Symbols, cfg.Ingest.Exchanges)
	if err := pipeline.EnsureSchema(ctx); err != nil {
		return err
	}

	if cfg.Ingest.Interval == 0 {
		summary, err := pipeline.RunOnce(ctx)
		if err != nil {
			return err
		}
		logger.Info("Ingestion complete: %d records in %s", summary.Ingested, summary.Duration)
		return nil
	}

	srv := &http.Server{
		Addr:              cfg.MetricsAddr,
		Handler:           metrics.NewRouter(backend.Ping),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Metrics listening on %s", cfg.MetricsAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return pipeline.Run(gctx, cfg.Ingest.Interval)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
