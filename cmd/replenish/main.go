package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vsinha/replenish/pkg/interfaces/cli/commands"
)

func main() {
	// Command line flags
	var (
		scenarioDir = flag.String(
			"scenario",
			"",
			"Path to scenario directory containing CSV files",
		)
		configFile    = flag.String("config", "", "Path to settings file (optional)")
		outputDir     = flag.String("output", "", "Output directory for results (optional)")
		format        = flag.String("format", "", "Output format: text, json, csv")
		maxIterations = flag.Int("max-iterations", 0, "Maximum master solves (0 keeps configured value)")
		epsilon       = flag.Float64("epsilon", 0, "Reduced cost acceptance threshold (0 keeps configured value)")
		workers       = flag.Int("workers", 0, "Concurrent pricing tasks (0 keeps configured value)")
		metricsFile   = flag.String("metrics-file", "", "Write Prometheus metrics to this file after the run")
		logLevel      = flag.String("log-level", "", "Log level: debug, info, warn, error")
		verbose       = flag.Bool("verbose", false, "Enable verbose output")
		help          = flag.Bool("help", false, "Show help message")
	)

	flag.Parse()

	config := commands.Config{
		ScenarioDir:   *scenarioDir,
		ConfigFile:    *configFile,
		OutputDir:     *outputDir,
		Format:        *format,
		MaxIterations: *maxIterations,
		Epsilon:       *epsilon,
		Workers:       *workers,
		MetricsFile:   *metricsFile,
		LogLevel:      *logLevel,
		Verbose:       *verbose,
		Help:          *help,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := commands.NewSolveCommand(config)
	if err := cmd.Execute(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
