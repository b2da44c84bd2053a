package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/application/dto"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/infrastructure/sysinfo"
)

// Config holds configuration for output generation
type Config struct {
	Format     string
	OutputDir  string
	Verbose    bool
	SolveTime  time.Duration
	ScenarioID string
	System     *sysinfo.Info
	Writer     io.Writer // defaults to stdout
}

// Report is the serialised form of a planning run
type Report struct {
	RunID      string                  `json:"run_id"`
	Scenario   string                  `json:"scenario,omitempty"`
	Converged  bool                    `json:"converged"`
	Warning    string                  `json:"warning,omitempty"`
	Objective  string                  `json:"objective"`
	Iterations int                     `json:"iterations"`
	PoolSize   int                     `json:"pool_size"`
	SolveTime  string                  `json:"solve_time"`
	System     *sysinfo.Info           `json:"system,omitempty"`
	Schedule   []entities.ScheduleLine `json:"schedule"`
	PairCosts  []PairCost              `json:"pair_costs"`
	Columns    []dto.WeightedColumn    `json:"columns"`
	History    []dto.IterationStats    `json:"history"`
}

// PairCost is the weighted plan cost of one (product, store) pair
type PairCost struct {
	Product entities.ProductID `json:"product"`
	Store   entities.StoreID   `json:"store"`
	Cost    decimal.Decimal    `json:"cost"`
}

// Generate creates output in the specified format
func Generate(result *dto.PlanResult, config Config) error {
	if config.Writer == nil {
		config.Writer = os.Stdout
	}

	switch config.Format {
	case "text":
		return generateTextOutput(result, config)
	case "json":
		return generateJSONOutput(result, config)
	case "csv":
		return generateCSVOutput(result, config)
	default:
		return fmt.Errorf("unsupported output format: %s", config.Format)
	}
}

// BuildReport converts a result into its reportable form. Money is rounded to cents.
func BuildReport(result *dto.PlanResult, config Config) Report {
	return Report{
		RunID:      result.RunID,
		Scenario:   config.ScenarioID,
		Converged:  result.Converged,
		Warning:    result.WarningMessage(),
		Objective:  money(result.Objective).StringFixed(2),
		Iterations: result.Iterations,
		PoolSize:   result.PoolSize,
		SolveTime:  config.SolveTime.String(),
		System:     config.System,
		Schedule:   reportLines(result.Lines),
		PairCosts:  pairCosts(result),
		Columns:    result.Columns,
		History:    result.History,
	}
}

// reportLines rounds days of cover to one decimal for display
func reportLines(lines []entities.ScheduleLine) []entities.ScheduleLine {
	out := make([]entities.ScheduleLine, len(lines))
	for i, line := range lines {
		line.DaysOfCover = decimal.NewFromFloat(line.DaysOfCover).Round(1).InexactFloat64()
		out[i] = line
	}
	return out
}

// pairCosts sums weight x cost per pair with decimal arithmetic
func pairCosts(result *dto.PlanResult) []PairCost {
	totals := make(map[entities.PairKey]decimal.Decimal)
	for _, c := range result.Columns {
		totals[c.Pair] = totals[c.Pair].Add(money(c.Weight * c.Cost))
	}

	costs := make([]PairCost, 0, len(totals))
	for pair, total := range totals {
		costs = append(costs, PairCost{Product: pair.Product, Store: pair.Store, Cost: total.Round(2)})
	}
	sort.Slice(costs, func(i, j int) bool {
		if costs[i].Product != costs[j].Product {
			return costs[i].Product < costs[j].Product
		}
		return costs[i].Store < costs[j].Store
	})
	return costs
}

func money(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(6)
}

// generateTextOutput creates human-readable text output
func generateTextOutput(result *dto.PlanResult, config Config) error {
	report := BuildReport(result, config)
	w := config.Writer

	fmt.Fprintf(w, "📊 Replenishment Plan Summary\n")
	fmt.Fprintf(w, "=============================\n\n")

	status := "optimal"
	if !report.Converged {
		status = "iteration limit reached"
	}
	fmt.Fprintf(w, "Run: %s\n", report.RunID)
	fmt.Fprintf(w, "Status: %s\n", status)
	fmt.Fprintf(w, "Objective: %s\n", report.Objective)
	fmt.Fprintf(w, "Iterations: %d\n", report.Iterations)
	fmt.Fprintf(w, "Columns in pool: %d\n", report.PoolSize)
	fmt.Fprintf(w, "Solve Time: %s\n", report.SolveTime)
	if report.System != nil {
		fmt.Fprintf(w, "Host: %s\n", report.System)
	}
	fmt.Fprintln(w)

	if report.Warning != "" {
		fmt.Fprintf(w, "⚠️  %s\n\n", report.Warning)
	}

	if len(report.Schedule) > 0 {
		fmt.Fprintf(w, "📋 Order Schedule:\n")
		fmt.Fprintf(w, "%-15s %-15s %-8s %-10s %-10s %-10s %-10s %-8s\n",
			"Product", "Store", "Period", "Quantity", "Packs", "Start", "End", "Cover")
		fmt.Fprintf(w, "%-15s %-15s %-8s %-10s %-10s %-10s %-10s %-8s\n",
			"---------------", "---------------", "--------", "----------", "----------", "----------", "----------", "--------")
		for _, line := range report.Schedule {
			fmt.Fprintf(w, "%-15s %-15s %-8d %-10s %-10s %-10s %-10s %-8s\n",
				line.Product, line.Store, line.Period+1,
				formatQuantity(line.Quantity),
				formatQuantity(line.CasePacks),
				formatQuantity(line.StartInventory),
				formatQuantity(line.EndInventory),
				formatCover(line.DaysOfCover))
		}
		fmt.Fprintln(w)
	}

	if len(report.PairCosts) > 0 {
		fmt.Fprintf(w, "💰 Cost by Product and Store:\n")
		fmt.Fprintf(w, "%-15s %-15s %-12s\n", "Product", "Store", "Cost")
		fmt.Fprintf(w, "%-15s %-15s %-12s\n", "---------------", "---------------", "------------")
		for _, pc := range report.PairCosts {
			fmt.Fprintf(w, "%-15s %-15s %-12s\n", pc.Product, pc.Store, pc.Cost.StringFixed(2))
		}
		fmt.Fprintln(w)
	}

	if config.Verbose && len(report.History) > 0 {
		fmt.Fprintf(w, "🔁 Iterations:\n")
		fmt.Fprintf(w, "%-10s %-14s %-8s %-8s %-14s\n", "Iteration", "Objective", "Added", "Pool", "Min RC")
		for _, h := range report.History {
			fmt.Fprintf(w, "%-10d %-14.4f %-8d %-8d %-14.6g\n", h.Iteration, h.Objective, h.ColumnsAdded, h.PoolSize, h.MinReducedCost)
		}
		fmt.Fprintln(w)
	}

	return nil
}

// generateJSONOutput creates JSON output
func generateJSONOutput(result *dto.PlanResult, config Config) error {
	jsonData, err := json.MarshalIndent(BuildReport(result, config), "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if config.OutputDir == "" {
		fmt.Fprintln(config.Writer, string(jsonData))
		return nil
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := filepath.Join(config.OutputDir, "plan.json")
	if err := os.WriteFile(filename, jsonData, 0644); err != nil {
		return fmt.Errorf("failed to write JSON file: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.Writer, "💾 JSON results saved to: %s\n", filename)
	}
	return nil
}

// generateCSVOutput writes schedule.csv and iterations.csv
func generateCSVOutput(result *dto.PlanResult, config Config) error {
	if config.OutputDir == "" {
		return fmt.Errorf("output directory required for CSV format")
	}

	if err := os.MkdirAll(config.OutputDir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	scheduleFile := filepath.Join(config.OutputDir, "schedule.csv")
	if err := writeScheduleCSV(reportLines(result.Lines), scheduleFile); err != nil {
		return fmt.Errorf("failed to write schedule CSV: %w", err)
	}

	historyFile := filepath.Join(config.OutputDir, "iterations.csv")
	if err := writeHistoryCSV(result.History, historyFile); err != nil {
		return fmt.Errorf("failed to write iterations CSV: %w", err)
	}

	if config.Verbose {
		fmt.Fprintf(config.Writer, "💾 CSV results saved to:\n")
		fmt.Fprintf(config.Writer, "  Schedule: %s\n", scheduleFile)
		fmt.Fprintf(config.Writer, "  Iterations: %s\n", historyFile)
	}
	return nil
}

func writeScheduleCSV(lines []entities.ScheduleLine, filename string) error {
	rows := [][]string{{
		"product_id", "store_id", "period", "quantity",
		"case_packs", "start_inventory", "end_inventory", "days_of_cover",
	}}
	for _, line := range lines {
		rows = append(rows, []string{
			string(line.Product),
			string(line.Store),
			strconv.Itoa(line.Period + 1),
			formatQuantity(line.Quantity),
			formatQuantity(line.CasePacks),
			formatQuantity(line.StartInventory),
			formatQuantity(line.EndInventory),
			formatCover(line.DaysOfCover),
		})
	}
	return writeCSV(filename, rows)
}

func writeHistoryCSV(history []dto.IterationStats, filename string) error {
	rows := [][]string{{"iteration", "objective", "columns_added", "pool_size", "min_reduced_cost"}}
	for _, h := range history {
		rows = append(rows, []string{
			strconv.Itoa(h.Iteration),
			strconv.FormatFloat(h.Objective, 'f', 6, 64),
			strconv.Itoa(h.ColumnsAdded),
			strconv.Itoa(h.PoolSize),
			strconv.FormatFloat(h.MinReducedCost, 'g', 8, 64),
		})
	}
	return writeCSV(filename, rows)
}

func writeCSV(filename string, rows [][]string) error {
	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		return err
	}
	return file.Close()
}

// formatQuantity prints whole units without decimals and fractions to three places
func formatQuantity(q float64) string {
	return decimal.NewFromFloat(q).Round(3).String()
}

// formatCover prints days of cover to one decimal place
func formatCover(days float64) string {
	return decimal.NewFromFloat(days).Round(1).String()
}
