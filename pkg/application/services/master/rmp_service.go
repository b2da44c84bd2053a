package master

import (
	"context"
	"fmt"

	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/repositories"
	"github.com/vsinha/replenish/pkg/domain/solver"
)

// weightTolerance is the smallest weight treated as an active column
const weightTolerance = 1e-9

// RMPService builds and solves the restricted master problem over the pool
type RMPService struct {
	backend solver.LPSolver
}

// NewRMPService creates a master solver on top of an LP backend
func NewRMPService(backend solver.LPSolver) *RMPService {
	return &RMPService{backend: backend}
}

// rowKind identifies which family a master row belongs to
type rowKind int

const (
	coverageRow rowKind = iota
	capacityRow
	convexityRow
)

// rowRef maps an LP row back to its pair and period
type rowRef struct {
	kind   rowKind
	pair   int
	period int
}

// Solve formulates
//
//	min Σ cost_j·w_j
//	Σ cov_j[t]·w_j >= demand[t]   per pair and period with demand
//	Σ q_j[t]·w_j   <= cap[t]      per pair and period when the store is capacitated
//	Σ w_j          =  1           per pair
//
// over every column in the pool and returns weights, duals and objective.
func (s *RMPService) Solve(
	ctx context.Context,
	profiles []entities.PairProfile,
	pool repositories.ColumnRepository,
) (*Solution, error) {
	var columns []*entities.Column
	pairCols := make([][]int, len(profiles))
	for p, profile := range profiles {
		cols, err := pool.ColumnsFor(profile.Pair)
		if err != nil {
			return nil, err
		}
		if len(cols) == 0 {
			return nil, fmt.Errorf("%w: no columns for %s", entities.ErrInfeasible, profile.Pair)
		}
		for _, c := range cols {
			pairCols[p] = append(pairCols[p], len(columns))
			columns = append(columns, c)
		}
	}

	program := &solver.LinearProgram{Objective: make([]float64, len(columns))}
	for j, c := range columns {
		program.Objective[j] = c.Cost
	}

	var refs []rowRef
	for p, profile := range profiles {
		for t, demand := range profile.Demand {
			// Zero-demand rows are always satisfied and priced at zero.
			if demand == 0 {
				continue
			}
			row := solver.Row{
				Name:  fmt.Sprintf("cover[%s,%d]", profile.Pair, t+1),
				Sense: solver.GreaterEqual,
				RHS:   float64(demand),
			}
			for _, j := range pairCols[p] {
				if cov := columns[j].Coverage[t]; cov != 0 {
					row.Columns = append(row.Columns, j)
					row.Coefficients = append(row.Coefficients, float64(cov))
				}
			}
			program.AddRow(row)
			refs = append(refs, rowRef{kind: coverageRow, pair: p, period: t})
		}

		if profile.Capacity != nil {
			for t, capacity := range profile.Capacity {
				row := solver.Row{
					Name:  fmt.Sprintf("capacity[%s,%d]", profile.Pair, t+1),
					Sense: solver.LessEqual,
					RHS:   float64(capacity),
				}
				for _, j := range pairCols[p] {
					if q := columns[j].Orders[t]; q != 0 {
						row.Columns = append(row.Columns, j)
						row.Coefficients = append(row.Coefficients, float64(q))
					}
				}
				// Nothing orders in this period yet.
				if len(row.Columns) == 0 {
					continue
				}
				program.AddRow(row)
				refs = append(refs, rowRef{kind: capacityRow, pair: p, period: t})
			}
		}

		row := solver.Row{
			Name:  fmt.Sprintf("convexity[%s]", profile.Pair),
			Sense: solver.Equal,
			RHS:   1,
		}
		for _, j := range pairCols[p] {
			row.Columns = append(row.Columns, j)
			row.Coefficients = append(row.Coefficients, 1)
		}
		program.AddRow(row)
		refs = append(refs, rowRef{kind: convexityRow, pair: p})
	}

	lpSolution, err := s.backend.Solve(ctx, program)
	if err != nil {
		return nil, fmt.Errorf("restricted master (%d columns, %d rows): %w", len(columns), len(program.Rows), err)
	}
	if len(lpSolution.Primal) != len(columns) || len(lpSolution.Duals) != len(program.Rows) {
		return nil, fmt.Errorf("%w: solution has %d weights and %d duals, expected %d and %d",
			entities.ErrSolverBackend, len(lpSolution.Primal), len(lpSolution.Duals), len(columns), len(program.Rows))
	}

	duals := make([]entities.PairDuals, len(profiles))
	for p, profile := range profiles {
		duals[p].Coverage = make([]float64, profile.Horizon())
		if profile.Capacity != nil {
			duals[p].Capacity = make([]float64, profile.Horizon())
		}
	}
	for i, ref := range refs {
		y := lpSolution.Duals[i]
		switch ref.kind {
		case coverageRow:
			duals[ref.pair].Coverage[ref.period] = y
		case capacityRow:
			duals[ref.pair].Capacity[ref.period] = y
		case convexityRow:
			duals[ref.pair].Convexity = y
		}
	}

	solution := &Solution{
		Objective: lpSolution.Objective,
		Columns:   columns,
		Weights:   lpSolution.Primal,
		Duals:     make(map[entities.PairKey]entities.PairDuals, len(profiles)),
		Rows:      len(program.Rows),
	}
	for p, profile := range profiles {
		solution.Duals[profile.Pair] = duals[p]
	}
	return solution, nil
}
