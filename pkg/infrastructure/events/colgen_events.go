package events

import (
	"github.com/vsinha/replenish/pkg/domain/entities"
)

const (
	PoolSeededEvent         = "colgen.pool.seeded"
	IterationCompletedEvent = "colgen.iteration.completed"
	ColumnAcceptedEvent     = "colgen.column.accepted"
	ConvergedEvent          = "colgen.converged"
	IterationLimitEvent     = "colgen.iteration_limit"
)

type PoolSeeded struct {
	Pairs    int `json:"pairs"`
	PoolSize int `json:"pool_size"`
}

type IterationCompleted struct {
	Iteration    int     `json:"iteration"`
	Objective    float64 `json:"objective"`
	ColumnsAdded int     `json:"columns_added"`
	PoolSize     int     `json:"pool_size"`
}

type ColumnAccepted struct {
	Iteration   int                 `json:"iteration"`
	Pair        entities.PairKey    `json:"pair"`
	Orders      []entities.Quantity `json:"orders"`
	Cost        float64             `json:"cost"`
	ReducedCost float64             `json:"reduced_cost"`
}

type Converged struct {
	Iterations int     `json:"iterations"`
	Objective  float64 `json:"objective"`
	PoolSize   int     `json:"pool_size"`
}

type IterationLimitReached struct {
	MaxIterations int     `json:"max_iterations"`
	Objective     float64 `json:"objective"`
	PoolSize      int     `json:"pool_size"`
}
