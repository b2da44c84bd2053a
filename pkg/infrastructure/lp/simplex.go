// Package lp is the dense simplex backend behind solver.LPSolver.
//
// Programs are brought to standard form and solved by a two-phase tableau
// method. Row prices are read from the optimal basis, then checked against the
// primal: dual feasibility of every column and strong duality.
package lp

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/solver"
)

const (
	// DefaultTolerance is the reduced-cost optimality tolerance, relative to max |c|
	DefaultTolerance = 1e-10
	// certificateTolerance bounds the primal residual, the dual infeasibility and
	// |primal - dual|, each relative to the data
	certificateTolerance = 1e-6
)

// Simplex is an LPSolver running a two-phase tableau simplex on gonum matrices
type Simplex struct {
	tolerance float64
}

// NewSimplex creates a backend; a non-positive tolerance selects the default
func NewSimplex(tolerance float64) *Simplex {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Simplex{tolerance: tolerance}
}

// Verify interface compliance
var _ solver.LPSolver = (*Simplex)(nil)

// standardForm is min c·z s.t. A z = b, z >= 0 together with the maps from
// the general program into it. Dropped rows and variables map to -1.
type standardForm struct {
	c      []float64
	a      *mat.Dense
	b      []float64
	rowMap []int
	varMap []int
}

// Solve returns an optimal primal point, row duals and objective
func (s *Simplex) Solve(ctx context.Context, program *solver.LinearProgram) (sol *solver.Solution, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := program.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", entities.ErrSolverBackend, err)
	}

	// gonum panics on dimension mismatches; surface them as backend failures.
	defer func() {
		if r := recover(); r != nil {
			sol = nil
			err = fmt.Errorf("%w: simplex panicked: %v", entities.ErrSolverBackend, r)
		}
	}()

	form, err := toStandardForm(program)
	if err != nil {
		return nil, err
	}
	if form == nil {
		// Nothing constrains a variable with non-negative cost; zero is optimal.
		return &solver.Solution{
			Primal: make([]float64, program.NumVariables()),
			Duals:  make([]float64, len(program.Rows)),
		}, nil
	}

	tb := newTableau(form, s.tolerance)
	if err := tb.solve(ctx); err != nil {
		return nil, fmt.Errorf("simplex after %d pivots: %w", tb.pivots, classify(err))
	}

	z := tb.primal()
	y := tb.duals()
	primalObj := floats.Dot(form.c, z)
	if err := form.certify(z, y, tb.minReducedCost(), primalObj); err != nil {
		return nil, err
	}

	duals := make([]float64, len(program.Rows))
	for i, r := range form.rowMap {
		if r >= 0 {
			duals[i] = cleanSign(y[r], program.Rows[i].Sense, s.tolerance)
		}
	}

	primal := make([]float64, program.NumVariables())
	for j, k := range form.varMap {
		if k >= 0 {
			primal[j] = math.Max(0, z[k])
		}
	}

	return &solver.Solution{
		Primal:    primal,
		Duals:     duals,
		Objective: primalObj,
	}, nil
}

// toStandardForm adds a surplus column to every >= row and a slack column to
// every <= row. Empty equality rows and variables that appear in no row are
// dropped; a nil form means no row survived.
func toStandardForm(program *solver.LinearProgram) (*standardForm, error) {
	used := make([]bool, program.NumVariables())
	for _, row := range program.Rows {
		for k, j := range row.Columns {
			if row.Coefficients[k] != 0 {
				used[j] = true
			}
		}
	}

	varMap := make([]int, len(used))
	n := 0
	for j, u := range used {
		if !u {
			if program.Objective[j] < 0 {
				return nil, fmt.Errorf("%w: variable %d is unconstrained with negative cost", entities.ErrUnbounded, j)
			}
			varMap[j] = -1
			continue
		}
		varMap[j] = n
		n++
	}

	rowMap := make([]int, len(program.Rows))
	kept := 0
	extra := 0
	for i, row := range program.Rows {
		if row.Sense == solver.Equal && isEmpty(row) {
			if row.RHS != 0 {
				return nil, fmt.Errorf("%w: row %s has no terms but requires %g", entities.ErrInfeasible, row.Name, row.RHS)
			}
			rowMap[i] = -1
			continue
		}
		rowMap[i] = kept
		kept++
		if row.Sense != solver.Equal {
			extra++
		}
	}
	if kept == 0 {
		return nil, nil
	}

	cols := n + extra

	a := mat.NewDense(kept, cols, nil)
	b := make([]float64, kept)
	c := make([]float64, cols)
	for j, k := range varMap {
		if k >= 0 {
			c[k] = program.Objective[j]
		}
	}

	next := n
	for i, row := range program.Rows {
		r := rowMap[i]
		if r < 0 {
			continue
		}
		for k, j := range row.Columns {
			if col := varMap[j]; col >= 0 {
				a.Set(r, col, a.At(r, col)+row.Coefficients[k])
			}
		}
		switch row.Sense {
		case solver.GreaterEqual:
			a.Set(r, next, -1)
			next++
		case solver.LessEqual:
			a.Set(r, next, 1)
			next++
		}
		b[r] = row.RHS
	}

	return &standardForm{c: c, a: a, b: b, rowMap: rowMap, varMap: varMap}, nil
}

// certify checks the optimal basis reproduces the program: A z = b, no column
// prices out, and c·z = b·y. Any failure here is a numerical breakdown.
func (f *standardForm) certify(z, y []float64, minReducedCost, primalObj float64) error {
	m, _ := f.a.Dims()
	bScale := math.Max(1, maxAbs(f.b))
	for i := 0; i < m; i++ {
		residual := floats.Dot(f.a.RawRowView(i), z) - f.b[i]
		if math.Abs(residual) > certificateTolerance*bScale {
			return fmt.Errorf("%w: row %d residual %g after solve", entities.ErrSolverBackend, i, residual)
		}
	}

	cScale := math.Max(1, maxAbs(f.c))
	if minReducedCost < -certificateTolerance*cScale {
		return fmt.Errorf("%w: dual infeasible basis (reduced cost %g)", entities.ErrSolverBackend, minReducedCost)
	}

	dualObj := floats.Dot(f.b, y)
	if gap := math.Abs(primalObj - dualObj); gap > certificateTolerance*math.Max(1, math.Abs(primalObj)) {
		return fmt.Errorf("%w: duality gap %g (primal %g, dual %g)", entities.ErrSolverBackend, gap, primalObj, dualObj)
	}
	return nil
}

// classify maps simplex outcomes onto the domain sentinels
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	case errors.Is(err, errInfeasible):
		return fmt.Errorf("%w: %v", entities.ErrInfeasible, err)
	case errors.Is(err, errUnbounded):
		return fmt.Errorf("%w: %v", entities.ErrUnbounded, err)
	default:
		return fmt.Errorf("%w: %v", entities.ErrSolverBackend, err)
	}
}

func isEmpty(row solver.Row) bool {
	for _, v := range row.Coefficients {
		if v != 0 {
			return false
		}
	}
	return true
}

// cleanSign snaps round-off of the wrong sign to zero
func cleanSign(v float64, sense solver.Sense, tol float64) float64 {
	limit := math.Max(tol, 1e-9)
	switch sense {
	case solver.GreaterEqual:
		if v < 0 && v > -limit {
			return 0
		}
	case solver.LessEqual:
		if v > 0 && v < limit {
			return 0
		}
	}
	return v
}
