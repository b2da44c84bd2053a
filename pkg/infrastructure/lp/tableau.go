package lp

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

var (
	errInfeasible     = errors.New("problem is infeasible")
	errUnbounded      = errors.New("problem is unbounded")
	errIterationLimit = errors.New("pivot limit reached")
)

const (
	// pivotTolerance is the smallest tableau entry accepted as a pivot
	pivotTolerance = 1e-9
	// feasibilityTolerance bounds the phase one residual, relative to max |b|
	feasibilityTolerance = 1e-9
	// blandThreshold is the run of degenerate pivots after which Bland's rule takes over
	blandThreshold = 50
	// contextInterval is how many pivots pass between context checks
	contextInterval = 64
)

// tableau is a dense two-phase simplex over min c·z s.t. A z = b, z >= 0.
//
// Rows are negated where b < 0 so every right-hand side starts non-negative.
// Each row's starting basic column is a unit column of A when one exists and an
// artificial otherwise; those columns form the identity, so at any point their
// tableau columns hold B⁻¹ and the row prices are c_B·B⁻¹.
//
// Row m holds the reduced costs; its last entry is minus the objective.
type tableau struct {
	t       *mat.Dense
	c       []float64
	m, n    int // rows, structural columns
	width   int // structural plus artificial columns; the rhs sits at index width
	basis   []int
	initial []int
	sign    []float64

	optTol  float64
	feasTol float64

	bland      bool
	degenerate int
	pivots     int
	maxPivots  int
}

func newTableau(form *standardForm, tolerance float64) *tableau {
	m, n := form.a.Dims()
	tb := &tableau{
		c:       form.c,
		m:       m,
		n:       n,
		basis:   make([]int, m),
		initial: make([]int, m),
		sign:    make([]float64, m),
		optTol:  tolerance * math.Max(1, maxAbs(form.c)),
		feasTol: feasibilityTolerance * math.Max(1, maxAbs(form.b)),
	}

	for i := range tb.sign {
		tb.sign[i] = 1
		if form.b[i] < 0 {
			tb.sign[i] = -1
		}
		tb.initial[i] = -1
	}

	// Slack columns are unit vectors; reuse them as the starting basis.
	for j := 0; j < n; j++ {
		row, nonzero := -1, 0
		for i := 0; i < m; i++ {
			if form.a.At(i, j) != 0 {
				row = i
				nonzero++
			}
		}
		if nonzero == 1 && tb.initial[row] < 0 && form.a.At(row, j)*tb.sign[row] == 1 {
			tb.initial[row] = j
		}
	}

	artificials := 0
	for _, j := range tb.initial {
		if j < 0 {
			artificials++
		}
	}
	tb.width = n + artificials
	tb.maxPivots = 50*(m+tb.width) + 1000
	tb.t = mat.NewDense(m+1, tb.width+1, nil)

	next := n
	for i := 0; i < m; i++ {
		r := tb.t.RawRowView(i)
		copy(r[:n], form.a.RawRowView(i))
		floats.Scale(tb.sign[i], r[:n])
		r[tb.width] = tb.sign[i] * form.b[i]
		if tb.initial[i] < 0 {
			r[next] = 1
			tb.initial[i] = next
			next++
		}
		tb.basis[i] = tb.initial[i]
	}
	return tb
}

// solve runs both phases and leaves an optimal basis in place
func (tb *tableau) solve(ctx context.Context) error {
	if tb.width > tb.n {
		tb.phaseOneObjective()
		if err := tb.optimize(ctx, tb.width); err != nil {
			return err
		}
		if residual := -tb.t.At(tb.m, tb.width); residual > tb.feasTol {
			return errInfeasible
		}
		tb.evictArtificials()
	}

	tb.phaseTwoObjective()
	return tb.optimize(ctx, tb.n)
}

// phaseOneObjective prices every artificial at 1
func (tb *tableau) phaseOneObjective() {
	obj := tb.t.RawRowView(tb.m)
	for j := range obj {
		obj[j] = 0
	}
	for i, j := range tb.basis {
		if j >= tb.n {
			floats.AddScaled(obj, -1, tb.t.RawRowView(i))
		}
	}
	for j := tb.n; j < tb.width; j++ {
		obj[j] += 1
	}
}

// phaseTwoObjective rebuilds the reduced costs for c; artificials cost nothing
func (tb *tableau) phaseTwoObjective() {
	obj := tb.t.RawRowView(tb.m)
	for j := range obj {
		obj[j] = 0
	}
	copy(obj, tb.c)
	for i, j := range tb.basis {
		if j < tb.n && tb.c[j] != 0 {
			floats.AddScaled(obj, -tb.c[j], tb.t.RawRowView(i))
		}
	}
}

// evictArtificials pivots zero-valued artificials out of the basis. A row with
// no structural entry left is redundant and keeps its artificial at zero.
func (tb *tableau) evictArtificials() {
	for i := 0; i < tb.m; i++ {
		if tb.basis[i] < tb.n {
			continue
		}
		r := tb.t.RawRowView(i)
		best, bestAbs := -1, pivotTolerance
		for j := 0; j < tb.n; j++ {
			if a := math.Abs(r[j]); a > bestAbs {
				best, bestAbs = j, a
			}
		}
		if best >= 0 {
			r[tb.width] = 0
			tb.pivot(i, best)
		}
	}
}

// optimize pivots until no column below limit has a negative reduced cost
func (tb *tableau) optimize(ctx context.Context, limit int) error {
	for {
		if tb.pivots%contextInterval == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		col := tb.entering(limit)
		if col < 0 {
			return nil
		}
		row := tb.leaving(col)
		if row < 0 {
			return errUnbounded
		}
		tb.pivot(row, col)

		if tb.pivots > tb.maxPivots {
			return errIterationLimit
		}
	}
}

// entering picks the most negative reduced cost, or the first negative one
// while Bland's rule is active
func (tb *tableau) entering(limit int) int {
	obj := tb.t.RawRowView(tb.m)
	best, bestVal := -1, -tb.optTol
	for j := 0; j < limit; j++ {
		if obj[j] < bestVal {
			if tb.bland {
				return j
			}
			best, bestVal = j, obj[j]
		}
	}
	return best
}

// leaving runs the ratio test. Ties go to the larger pivot, or to the
// smallest basic index under Bland's rule.
func (tb *tableau) leaving(col int) int {
	best := -1
	bestRatio, bestPivot := math.Inf(1), 0.0
	for i := 0; i < tb.m; i++ {
		a := tb.t.At(i, col)
		if a <= pivotTolerance {
			continue
		}
		ratio := math.Max(0, tb.t.At(i, tb.width)) / a
		switch {
		case best < 0 || ratio < bestRatio-1e-12*(1+bestRatio):
			best, bestRatio, bestPivot = i, ratio, a
		case ratio <= bestRatio+1e-12*(1+bestRatio):
			if (tb.bland && tb.basis[i] < tb.basis[best]) || (!tb.bland && a > bestPivot) {
				best, bestRatio, bestPivot = i, math.Min(ratio, bestRatio), a
			}
		}
	}

	if best >= 0 {
		if bestRatio*bestPivot <= tb.feasTol {
			tb.degenerate++
			if tb.degenerate > blandThreshold {
				tb.bland = true
			}
		} else {
			tb.degenerate = 0
			tb.bland = false
		}
	}
	return best
}

func (tb *tableau) pivot(row, col int) {
	pr := tb.t.RawRowView(row)
	floats.Scale(1/pr[col], pr)
	pr[col] = 1
	for i := 0; i <= tb.m; i++ {
		if i == row {
			continue
		}
		r := tb.t.RawRowView(i)
		if f := r[col]; f != 0 {
			floats.AddScaled(r, -f, pr)
			r[col] = 0
		}
	}
	tb.basis[row] = col
	tb.pivots++
}

// primal reads the basic values back; round-off below zero is clamped
func (tb *tableau) primal() []float64 {
	z := make([]float64, tb.n)
	for i, j := range tb.basis {
		if j < tb.n {
			z[j] = math.Max(0, tb.t.At(i, tb.width))
		}
	}
	return z
}

// duals returns c_B·B⁻¹ in the caller's row signs
func (tb *tableau) duals() []float64 {
	y := make([]float64, tb.m)
	for i := 0; i < tb.m; i++ {
		col := tb.initial[i]
		sum := 0.0
		for k, j := range tb.basis {
			if j < tb.n && tb.c[j] != 0 {
				sum += tb.c[j] * tb.t.At(k, col)
			}
		}
		y[i] = tb.sign[i] * sum
	}
	return y
}

// minReducedCost is the smallest reduced cost over structural columns
func (tb *tableau) minReducedCost() float64 {
	if tb.n == 0 {
		return 0
	}
	return floats.Min(tb.t.RawRowView(tb.m)[:tb.n])
}

func maxAbs(v []float64) float64 {
	out := 0.0
	for _, x := range v {
		out = math.Max(out, math.Abs(x))
	}
	return out
}
