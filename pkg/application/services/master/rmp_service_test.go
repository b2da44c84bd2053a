package master

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/solver"
	"github.com/vsinha/replenish/pkg/infrastructure/lp"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/memory"
)

// fakeLPSolver records the program and replays a canned answer
type fakeLPSolver struct {
	program  *solver.LinearProgram
	solution *solver.Solution
	err      error
}

func (f *fakeLPSolver) Solve(_ context.Context, program *solver.LinearProgram) (*solver.Solution, error) {
	f.program = program
	if f.err != nil {
		return nil, f.err
	}
	if f.solution != nil {
		return f.solution, nil
	}
	return &solver.Solution{
		Primal: make([]float64, program.NumVariables()),
		Duals:  make([]float64, len(program.Rows)),
	}, nil
}

var (
	uncapped = entities.PairKey{Product: "SKU_0", Store: "Location_0"}
	capped   = entities.PairKey{Product: "SKU_0", Store: "Location_1"}
)

func testProfiles() []entities.PairProfile {
	return []entities.PairProfile{
		{
			Pair:        uncapped,
			Demand:      []entities.Quantity{5, 0, 5},
			UnitCost:    2,
			HoldingCost: 1,
			CasePack:    1,
		},
		{
			Pair:        capped,
			Demand:      []entities.Quantity{3, 4, 5},
			Capacity:    []entities.Quantity{10, 10, 10},
			UnitCost:    2,
			HoldingCost: 1,
			CasePack:    1,
		},
	}
}

func seededPool(t *testing.T, profiles []entities.PairProfile, patterns map[entities.PairKey][][]entities.Quantity) *memory.ColumnPool {
	t.Helper()
	pairs := make([]entities.PairKey, len(profiles))
	for i, p := range profiles {
		pairs[i] = p.Pair
	}
	pool := memory.NewColumnPool(pairs)
	for _, profile := range profiles {
		for _, orders := range patterns[profile.Pair] {
			col, err := entities.NewColumn(profile, orders)
			if err != nil {
				t.Fatalf("NewColumn(%s, %v) failed: %v", profile.Pair, orders, err)
			}
			if _, err := pool.Add(col); err != nil {
				t.Fatalf("Add failed: %v", err)
			}
		}
	}
	return pool
}

func TestRMPService_BuildsRows(t *testing.T) {
	profiles := testProfiles()
	pool := seededPool(t, profiles, map[entities.PairKey][][]entities.Quantity{
		uncapped: {{5, 0, 5}, {10, 0, 0}},
		capped:   {{3, 4, 5}},
	})

	fake := &fakeLPSolver{}
	if _, err := NewRMPService(fake).Solve(context.Background(), profiles, pool); err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	program := fake.program
	if program.NumVariables() != 3 {
		t.Fatalf("Expected 3 variables, got %d", program.NumVariables())
	}
	if program.Objective[0] != 20 || program.Objective[1] != 30 {
		t.Errorf("Expected column costs [20 30 ...], got %v", program.Objective)
	}

	counts := map[solver.Sense]int{}
	for _, row := range program.Rows {
		counts[row.Sense]++
	}
	// Uncapped pair: periods 1 and 3 carry demand. Capped pair: 3 coverage, 3 capacity.
	if counts[solver.GreaterEqual] != 5 {
		t.Errorf("Expected 5 coverage rows, got %d", counts[solver.GreaterEqual])
	}
	if counts[solver.LessEqual] != 3 {
		t.Errorf("Expected 3 capacity rows, got %d", counts[solver.LessEqual])
	}
	if counts[solver.Equal] != 2 {
		t.Errorf("Expected 2 convexity rows, got %d", counts[solver.Equal])
	}

	first := program.Rows[0]
	if first.Name != "cover[SKU_0@Location_0,1]" || first.RHS != 5 {
		t.Errorf("Unexpected first row %+v", first)
	}
	if len(first.Columns) != 2 || first.Coefficients[0] != 5 || first.Coefficients[1] != 5 {
		t.Errorf("Expected both patterns to cover 5 units in period 1, got %v", first.Coefficients)
	}
}

func TestRMPService_MapsDuals(t *testing.T) {
	profiles := testProfiles()[:1]
	pool := seededPool(t, profiles, map[entities.PairKey][][]entities.Quantity{
		uncapped: {{5, 0, 5}},
	})

	// Rows: cover period 1, cover period 3, convexity.
	fake := &fakeLPSolver{solution: &solver.Solution{
		Primal:    []float64{1},
		Duals:     []float64{4, 3, -15},
		Objective: 20,
	}}
	sol, err := NewRMPService(fake).Solve(context.Background(), profiles, pool)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	duals := sol.Duals[uncapped]
	want := []float64{4, 0, 3}
	for i := range want {
		if duals.Coverage[i] != want[i] {
			t.Errorf("Coverage dual %d: expected %v, got %v", i, want[i], duals.Coverage[i])
		}
	}
	if duals.Capacity != nil {
		t.Errorf("Expected no capacity duals for an uncapacitated store, got %v", duals.Capacity)
	}
	if duals.Convexity != -15 {
		t.Errorf("Expected convexity dual -15, got %v", duals.Convexity)
	}
	if sol.WeightSum(uncapped) != 1 {
		t.Errorf("Expected weight sum 1, got %v", sol.WeightSum(uncapped))
	}
}

func TestRMPService_Errors(t *testing.T) {
	profiles := testProfiles()

	t.Run("empty partition", func(t *testing.T) {
		pool := seededPool(t, profiles, map[entities.PairKey][][]entities.Quantity{
			uncapped: {{5, 0, 5}},
		})
		_, err := NewRMPService(&fakeLPSolver{}).Solve(context.Background(), profiles, pool)
		if !errors.Is(err, entities.ErrInfeasible) {
			t.Errorf("Expected ErrInfeasible, got %v", err)
		}
	})

	t.Run("backend failure is wrapped", func(t *testing.T) {
		pool := seededPool(t, profiles, map[entities.PairKey][][]entities.Quantity{
			uncapped: {{5, 0, 5}},
			capped:   {{3, 4, 5}},
		})
		fake := &fakeLPSolver{err: entities.ErrSolverBackend}
		_, err := NewRMPService(fake).Solve(context.Background(), profiles, pool)
		if !errors.Is(err, entities.ErrSolverBackend) {
			t.Errorf("Expected ErrSolverBackend, got %v", err)
		}
	})

	t.Run("short solution", func(t *testing.T) {
		pool := seededPool(t, profiles, map[entities.PairKey][][]entities.Quantity{
			uncapped: {{5, 0, 5}},
			capped:   {{3, 4, 5}},
		})
		fake := &fakeLPSolver{solution: &solver.Solution{}}
		_, err := NewRMPService(fake).Solve(context.Background(), profiles, pool)
		if !errors.Is(err, entities.ErrSolverBackend) {
			t.Errorf("Expected ErrSolverBackend, got %v", err)
		}
	})
}

func TestRMPService_WithSimplex(t *testing.T) {
	profiles := testProfiles()
	pool := seededPool(t, profiles, map[entities.PairKey][][]entities.Quantity{
		uncapped: {{10, 0, 0}, {5, 0, 5}},
		capped:   {{3, 4, 5}, {7, 0, 5}},
	})

	sol, err := NewRMPService(lp.NewSimplex(0)).Solve(context.Background(), profiles, pool)
	if err != nil {
		t.Fatalf("Solve failed: %v", err)
	}

	// Lot-for-lot for the uncapped pair (20) and the capped pair (24).
	if math.Abs(sol.Objective-44) > 1e-6 {
		t.Errorf("Expected objective 44, got %v", sol.Objective)
	}
	for _, pair := range []entities.PairKey{uncapped, capped} {
		if sum := sol.WeightSum(pair); math.Abs(sum-1) > 1e-6 {
			t.Errorf("%s: expected weights to sum to 1, got %v", pair, sum)
		}
	}
	for j, w := range sol.Weights {
		if w < 0 {
			t.Errorf("Weight %d is negative: %v", j, w)
		}
	}

	schedule := sol.Schedule()
	if q := schedule.Quantity(uncapped, 0); math.Abs(q-5) > 1e-6 {
		t.Errorf("Expected 5 units in period 1, got %v", q)
	}
	if q := schedule.Quantity(uncapped, 2); math.Abs(q-5) > 1e-6 {
		t.Errorf("Expected 5 units in period 3, got %v", q)
	}
	// Lot-for-lot leaves nothing on the shelf after any period.
	for period := 0; period < 3; period++ {
		if inv := schedule.EndInventory(uncapped, period); math.Abs(inv) > 1e-6 {
			t.Errorf("Expected no stock after period %d, got %v", period+1, inv)
		}
	}

	// Dual prices must reproduce the objective: zero reduced cost on active columns.
	active, _ := sol.ActiveColumns()
	for _, c := range active {
		if rc := c.ReducedCost(sol.Duals[c.Pair]); math.Abs(rc) > 1e-6 {
			t.Errorf("Active column %v has reduced cost %v", c.Orders, rc)
		}
	}
}
