package dto

import (
	"time"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// PlanResult contains the complete output of a planning run
type PlanResult struct {
	RunID      string
	Schedule   entities.Schedule
	Lines      []entities.ScheduleLine
	Columns    []WeightedColumn
	Objective  float64
	Iterations int
	Converged  bool
	Warning    error // set when the run stopped without proving optimality
	History    []IterationStats
	PoolSize   int // columns in the final master; History carries the pool after each pricing round
	Duration   time.Duration
}

// IterationStats summarises one master solve and the pricing round after it
type IterationStats struct {
	Iteration      int     `json:"iteration"`
	Objective      float64 `json:"objective"`
	ColumnsAdded   int     `json:"columns_added"`
	PoolSize       int     `json:"pool_size"`
	MinReducedCost float64 `json:"min_reduced_cost"`
}

// WeightedColumn is a pattern used by the final master solution
type WeightedColumn struct {
	Pair   entities.PairKey    `json:"pair"`
	Orders []entities.Quantity `json:"orders"`
	Cost   float64             `json:"cost"`
	Weight float64             `json:"weight"`
}

// WarningMessage renders the warning or an empty string
func (r *PlanResult) WarningMessage() string {
	if r.Warning == nil {
		return ""
	}
	return r.Warning.Error()
}
