package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/application/services/colgen"
	"github.com/vsinha/replenish/pkg/infrastructure/config"
	"github.com/vsinha/replenish/pkg/infrastructure/events"
	"github.com/vsinha/replenish/pkg/infrastructure/logging"
	"github.com/vsinha/replenish/pkg/infrastructure/lp"
	"github.com/vsinha/replenish/pkg/infrastructure/metrics"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/csv"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/replenish/pkg/infrastructure/sysinfo"
	"github.com/vsinha/replenish/pkg/interfaces/cli/output"
)

const serviceName = "replenish"

// Config holds configuration for the solve command. Zero values leave the
// corresponding setting from the config file or environment untouched.
type Config struct {
	ScenarioDir   string
	ConfigFile    string
	OutputDir     string
	Format        string
	MaxIterations int
	Epsilon       float64
	Workers       int
	MetricsFile   string
	LogLevel      string
	Verbose       bool
	Help          bool
}

// SolveCommand loads a scenario and plans it by column generation
type SolveCommand struct {
	config Config
}

// NewSolveCommand creates a new solve command with the given configuration
func NewSolveCommand(config Config) *SolveCommand {
	return &SolveCommand{
		config: config,
	}
}

// Execute runs the solve command
func (c *SolveCommand) Execute(ctx context.Context) error {
	if c.config.Help {
		c.showHelp()
		return nil
	}

	if err := c.validateInputs(); err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	settings, err := c.settings()
	if err != nil {
		return err
	}

	if c.config.Verbose {
		c.printHeader(settings)
	}

	logger := logging.NewFromConfig(logging.Config{
		Service:    serviceName,
		Module:     "cli",
		Level:      settings.Log.Level,
		File:       settings.Log.File,
		MaxSize:    settings.Log.MaxSize,
		MaxBackups: settings.Log.MaxBackups,
		MaxAge:     settings.Log.MaxAge,
	})
	defer logger.Close()

	if c.config.Verbose {
		fmt.Println("📂 Loading scenario from CSV files...")
	}

	instance, err := csv.NewLoader().LoadInstance(ctx, c.config.ScenarioDir)
	if err != nil {
		return fmt.Errorf("error loading scenario: %w", err)
	}

	if c.config.Verbose {
		fmt.Printf("✅ Loaded %d products, %d stores, %d periods\n\n",
			len(instance.Products), len(instance.Stores), instance.Horizon())
		fmt.Println("🔄 Running column generation...")
	}

	m := metrics.NewMetrics(serviceName)
	journal := events.NewInMemoryEventStore(logger.Named("events").Logger)
	if c.config.Verbose {
		if err := journal.Subscribe([]string{events.ColumnAcceptedEvent}, progressPrinter()); err != nil {
			return fmt.Errorf("failed to subscribe to progress events: %w", err)
		}
	}

	service := colgen.NewColumnGenerationService(
		lp.NewSimplex(settings.Solver.LPTolerance),
		colgen.Config{
			MaxIterations: settings.Solver.MaxIterations,
			Workers:       settings.Solver.Workers,
			Epsilon:       settings.Solver.Epsilon,
		},
		colgen.WithLogger(logger.Named("colgen")),
		colgen.WithMetrics(m),
		colgen.WithEventStore(journal),
	)

	start := time.Now()
	result, err := service.Plan(ctx, instance, memory.NewColumnPool(instance.Pairs()))
	if err != nil {
		return fmt.Errorf("planning failed: %w", err)
	}
	solveTime := time.Since(start)

	if c.config.Verbose {
		c.printCompletion(result)
	}

	host := sysinfo.Collect()
	err = output.Generate(result, output.Config{
		Format:     settings.Output.Format,
		OutputDir:  settings.Output.Dir,
		Verbose:    c.config.Verbose,
		SolveTime:  solveTime,
		ScenarioID: c.config.ScenarioDir,
		System:     &host,
	})
	if err != nil {
		return fmt.Errorf("failed to generate output: %w", err)
	}

	if settings.Metrics.File != "" {
		if err := m.WriteToFile(settings.Metrics.File); err != nil {
			return fmt.Errorf("failed to write metrics: %w", err)
		}
	}

	return nil
}

// validateInputs checks the scenario directory is usable
func (c *SolveCommand) validateInputs() error {
	if c.config.ScenarioDir == "" {
		return fmt.Errorf("must specify -scenario")
	}

	info, err := os.Stat(c.config.ScenarioDir)
	if err != nil {
		return fmt.Errorf("scenario directory not found: %s", c.config.ScenarioDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("scenario path is not a directory: %s", c.config.ScenarioDir)
	}

	if c.config.MaxIterations < 0 {
		return fmt.Errorf("max-iterations must not be negative")
	}
	if c.config.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	if c.config.Epsilon < 0 {
		return fmt.Errorf("epsilon must not be negative")
	}
	return nil
}

// settings loads the config file and layers command-line overrides on top
func (c *SolveCommand) settings() (*config.Config, error) {
	settings, err := config.Load(c.config.ConfigFile)
	if err != nil {
		return nil, err
	}

	if c.config.MaxIterations > 0 {
		settings.Solver.MaxIterations = c.config.MaxIterations
	}
	if c.config.Epsilon > 0 {
		settings.Solver.Epsilon = c.config.Epsilon
	}
	if c.config.Workers > 0 {
		settings.Solver.Workers = c.config.Workers
	}
	if c.config.Format != "" {
		settings.Output.Format = c.config.Format
	}
	if c.config.OutputDir != "" {
		settings.Output.Dir = c.config.OutputDir
	}
	if c.config.MetricsFile != "" {
		settings.Metrics.File = c.config.MetricsFile
	}
	if c.config.LogLevel != "" {
		settings.Log.Level = c.config.LogLevel
	}

	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// printHeader prints the run configuration
func (c *SolveCommand) printHeader(settings *config.Config) {
	fmt.Println("🏭 Replenishment Planner")
	fmt.Println("========================")
	fmt.Printf("Scenario: %s\n", c.config.ScenarioDir)
	if c.config.ConfigFile != "" {
		fmt.Printf("Config: %s\n", c.config.ConfigFile)
	}
	fmt.Printf("Max iterations: %d\n", settings.Solver.MaxIterations)
	fmt.Printf("Epsilon: %g\n", settings.Solver.Epsilon)
	fmt.Printf("Workers: %d\n", settings.Solver.Workers)
	fmt.Printf("Output: %s\n\n", settings.Output.Format)
}

// printCompletion summarises the run before the report is written
func (c *SolveCommand) printCompletion(result *dto.PlanResult) {
	fmt.Printf("🏁 Column generation complete after %d iterations (%d columns)\n",
		result.Iterations, result.PoolSize)
	if result.Warning != nil {
		fmt.Printf("⚠️  %s\n", result.WarningMessage())
	}
	fmt.Println()
}

// progressPrinter echoes accepted columns while the run is in flight
func progressPrinter() events.EventHandler {
	return &events.HandlerFunc{
		Types: []string{events.ColumnAcceptedEvent},
		Fn: func(event events.Event) error {
			accepted, ok := event.Data().(events.ColumnAccepted)
			if !ok {
				return nil
			}
			fmt.Printf("  ➕ %s column (iteration %d, reduced cost %.4f)\n",
				accepted.Pair,
				accepted.Iteration, accepted.ReducedCost)
			return nil
		},
	}
}

// showHelp displays usage information
func (c *SolveCommand) showHelp() {
	fmt.Println("Replenishment Planner - column generation over store replenishment schedules")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  replenish -scenario <dir> [options]")
	fmt.Println()
	fmt.Println("Scenario files:")
	fmt.Println("  products.csv   product_id,unit_cost,holding_cost,setup_cost,case_pack,min_order_qty")
	fmt.Println("  stores.csv     store_id")
	fmt.Println("  demand.csv     product_id,store_id,period,quantity")
	fmt.Println("  capacity.csv   store_id,period,capacity (optional)")
	fmt.Println("  inventory.csv  product_id,store_id,on_hand (optional)")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  -config <file>          YAML/TOML/JSON settings (env: REPLENISH_*)")
	fmt.Println("  -format <fmt>           Output format: text, json, csv")
	fmt.Println("  -output <dir>           Output directory for json/csv results")
	fmt.Println("  -max-iterations <n>     Master solve limit")
	fmt.Println("  -epsilon <x>            Reduced cost acceptance threshold")
	fmt.Println("  -workers <n>            Concurrent pricing tasks")
	fmt.Println("  -metrics-file <file>    Write Prometheus text metrics after the run")
	fmt.Println("  -log-level <level>      debug, info, warn, error")
	fmt.Println("  -verbose                Show progress")
	fmt.Println("  -help                   Show this help")
}
