package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/FreePeak/crypto-mcp-server/internal/analyst"
	"github.com/FreePeak/crypto-mcp-server/internal/config"
	"github.com/FreePeak/crypto-mcp-server/internal/docs"
	"github.com/FreePeak/crypto-mcp-server/internal/export"
	"github.com/FreePeak/crypto-mcp-server/internal/infrastructure/database"
	"github.com/FreePeak/crypto-mcp-server/internal/logger"
	"github.com/FreePeak/crypto-mcp-server/pkg/dbtools"
)

func main() {
	question := flag.String("q", "", "Ask a single question instead of running the demo")
	skipScenarios := flag.Bool("no-scenarios", false, "Skip the market scenarios")
	skipExport := flag.Bool("no-export", false, "Skip dashboard CSV exports")
	skipChart := flag.Bool("no-chart", false, "Skip the price chart")
	checkDocs := flag.String("check-docs", "", "Validate the Markdown file at this path and exit")
	flag.Parse()

	if *checkDocs != "" {
		os.Exit(runCheckDocs(*checkDocs))
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger.Initialize(cfg.LogLevel, cfg.LogFormat)

	backend, err := database.Open(cfg)
	if err != nil {
		logger.Error("Failed to open QuestDB backend: %v", err)
		os.Exit(1)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			logger.Error("Error closing QuestDB backend: %v", err)
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	tracked := dbtools.NewPerformanceAnalyzer(backend)
	a := analyst.New(tracked, analyst.WithSymbols(cfg.Ingest.Symbols))

	if *question != "" {
		ask(ctx, a, *question)
		return
	}

	fmt.Println("Crypto Analysis Demo")
	for _, q := range analyst.DemoQuestions {
		if ctx.Err() != nil {
			return
		}
		ask(ctx, a, q)
	}

	exporter := export.New(backend, cfg.ExportDir)
	if !*skipChart {
		section("VISUALIZATION")
		res, err := exporter.RenderPriceChart(ctx, export.DefaultChartHours)
		if err != nil {
			fmt.Printf("Failed to create visualization: %v\n", err)
		} else {
			fmt.Printf("Visualization saved as %s\n", res.Path)
		}
	}

	if !*skipScenarios {
		section("ADVANCED CRYPTO ANALYSIS SCENARIOS")
		for _, name := range analyst.ScenarioNames() {
			report, err := a.RunScenario(ctx, name)
			if err != nil {
				fmt.Printf("\n%v\n", err)
				continue
			}
			fmt.Printf("\n%s\n", report.Text())
		}
	}

	if !*skipExport {
		section("DASHBOARD DATA EXPORT")
		for _, res := range exporter.ExportAll(ctx) {
			fmt.Printf("\nExported %d records to %s\n", res.Rows, res.Path)
			for _, line := range res.Preview {
				fmt.Printf("  %s\n", line)
			}
		}
	}

	if slow := tracked.GetSlowQueries(3); len(slow) > 0 {
		section("SLOW QUERIES")
		for _, m := range slow {
			fmt.Printf("%8s avg  %s\n", m.AvgDuration.Round(time.Millisecond), m.Query)
		}
	}

	fmt.Printf("\nQuestDB Web Console: %s\n", cfg.QuestDBURL())
}

func ask(ctx context.Context, a *analyst.Analyst, question string) {
	section("User: " + question)
	ans, err := a.Ask(ctx, question)
	if err != nil && ans == nil {
		fmt.Println(analyst.ErrorText(err))
		return
	}
	fmt.Printf("Intent: %s  Entities: %v  Range: %s\n\n%s\n",
		ans.Analysis.Intent, ans.Analysis.Entities, ans.Analysis.TimeRange, ans.Text)
}

func section(title string) {
	fmt.Printf("\n%s\n%s\n", strings.Repeat("=", 80), title)
}

func runCheckDocs(path string) int {
	report, err := docs.CheckMarkdown(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	if report.OK() {
		fmt.Printf("%s: %d links, no problems\n", path, len(report.Links))
		return 0
	}
	for _, p := range report.Problems {
		fmt.Fprintf(os.Stderr, "%s: %s\n", path, p)
	}
	return 1
}

