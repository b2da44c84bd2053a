package entities

import "errors"

var (
	// ErrMalformedInstance marks missing or invalid instance data. Nothing is solved.
	ErrMalformedInstance = errors.New("malformed instance")
	// ErrInfeasible marks a master problem (or seed) with no feasible solution.
	ErrInfeasible = errors.New("infeasible")
	// ErrUnbounded marks an unbounded master problem, which points at a modeling bug.
	ErrUnbounded = errors.New("unbounded")
	// ErrNumericalNonConvergence marks a run stopped by the iteration cap.
	ErrNumericalNonConvergence = errors.New("numerical non-convergence")
	// ErrSolverBackend marks an LP engine failure unrelated to problem structure.
	ErrSolverBackend = errors.New("solver backend failure")
)
