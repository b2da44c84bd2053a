package master

import (
	"github.com/vsinha/replenish/pkg/domain/entities"
)

// Solution is one optimal solve of the restricted master problem.
// Weights[j] belongs to Columns[j].
type Solution struct {
	Objective float64
	Columns   []*entities.Column
	Weights   []float64
	Duals     map[entities.PairKey]entities.PairDuals
	Rows      int
}

// WeightSum returns the total weight placed on a pair's columns
func (s *Solution) WeightSum(pair entities.PairKey) float64 {
	total := 0.0
	for j, c := range s.Columns {
		if c.Pair == pair {
			total += s.Weights[j]
		}
	}
	return total
}

// ActiveColumns returns the columns carrying positive weight, in pool order
func (s *Solution) ActiveColumns() ([]*entities.Column, []float64) {
	var columns []*entities.Column
	var weights []float64
	for j, w := range s.Weights {
		if w > weightTolerance {
			columns = append(columns, s.Columns[j])
			weights = append(weights, w)
		}
	}
	return columns, weights
}

// Schedule blends the active columns' orders and end inventories by weight
func (s *Solution) Schedule() entities.Schedule {
	schedule := make(entities.Schedule)
	columns, weights := s.ActiveColumns()
	for k, c := range columns {
		w := weights[k]
		for t, q := range c.Orders {
			schedule.Add(c.Pair, t, w*float64(q), w*float64(c.Inventory[t]))
		}
	}
	return schedule
}
