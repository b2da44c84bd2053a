// Package solver defines the linear-programming capability the master problem
// needs, independent of any particular engine.
package solver

import (
	"context"
	"fmt"
)

// Sense is the direction of a constraint row
type Sense int

const (
	GreaterEqual Sense = iota
	LessEqual
	Equal
)

func (s Sense) String() string {
	switch s {
	case GreaterEqual:
		return ">="
	case LessEqual:
		return "<="
	case Equal:
		return "="
	default:
		return fmt.Sprintf("Sense(%d)", int(s))
	}
}

// Row is one sparse constraint: Σ Coefficients[k]·x[Columns[k]] (sense) RHS
type Row struct {
	Name         string
	Columns      []int
	Coefficients []float64
	Sense        Sense
	RHS          float64
}

// LinearProgram is min c·x subject to general rows and x >= 0
type LinearProgram struct {
	Objective []float64
	Rows      []Row
}

// NumVariables returns the number of structural variables
func (lp *LinearProgram) NumVariables() int {
	return len(lp.Objective)
}

// AddRow appends a row and returns its index
func (lp *LinearProgram) AddRow(row Row) int {
	lp.Rows = append(lp.Rows, row)
	return len(lp.Rows) - 1
}

// Validate checks that every row references existing variables
func (lp *LinearProgram) Validate() error {
	n := lp.NumVariables()
	if n == 0 {
		return fmt.Errorf("linear program has no variables")
	}
	for i, row := range lp.Rows {
		if len(row.Columns) != len(row.Coefficients) {
			return fmt.Errorf("row %d (%s): %d columns but %d coefficients", i, row.Name, len(row.Columns), len(row.Coefficients))
		}
		for _, j := range row.Columns {
			if j < 0 || j >= n {
				return fmt.Errorf("row %d (%s) references variable %d, have %d", i, row.Name, j, n)
			}
		}
	}
	return nil
}

// Solution holds an optimal primal point and the row prices that certify it.
// Duals follow the minimisation convention: >= rows have non-negative prices,
// <= rows non-positive, = rows are free.
type Solution struct {
	Primal    []float64
	Duals     []float64
	Objective float64
}

// LPSolver solves linear programs to optimality
type LPSolver interface {
	Solve(ctx context.Context, lp *LinearProgram) (*Solution, error)
}
