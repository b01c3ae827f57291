package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ride-dispatch/internal/config"
	"ride-dispatch/internal/engine"
	"ride-dispatch/internal/metrics"
	"ride-dispatch/internal/scenario"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	envFile := flag.String("env", "", "path to a .env file (default: ./.env if present)")
	out := flag.String("out", "", "write reports to this file instead of stdout")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	cfg, err := config.Load(envFiles...)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	paths := flag.Args()
	if len(paths) == 0 {
		paths = cfg.ScenarioPaths
	}
	if len(paths) == 0 {
		return fmt.Errorf("no scenarios given: pass files or directories, or set DISPATCH_SCENARIOS")
	}

	reportFile := cfg.ReportFile
	if *out != "" {
		reportFile = *out
	}

	scenarios, err := scenario.LoadAll(paths)
	if err != nil {
		return fmt.Errorf("failed to load scenarios: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := engine.NewRunner(engine.Config{
		Workers:         cfg.Workers,
		DefaultCapacity: cfg.DefaultCapacity,
		MaxSearchNodes:  cfg.MaxSearchNodes,
	})

	reports, err := runner.RunAll(ctx, scenarios)
	if err != nil {
		return err
	}

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			log.Printf("Could not write metrics to %s: %v", cfg.MetricsFile, err)
		}
	}

	if reportFile != "" {
		return engine.WriteReports(reportFile, reports)
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(reports); err != nil {
		return fmt.Errorf("failed to encode reports: %w", err)
	}
	return nil
}
