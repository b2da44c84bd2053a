package pricing

import (
	"fmt"
	"maps"
	"slices"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// DefaultEpsilon is the reduced-cost threshold below which a column improves the master
const DefaultEpsilon = 1e-6

// tieTolerance treats path values this close as equal so tie-breaking stays stable
const tieTolerance = 1e-12

// PricingService finds the most negative reduced-cost pattern for a pair
type PricingService struct {
	epsilon float64
}

// NewPricingService creates a pricing solver; a non-positive epsilon selects the default
func NewPricingService(epsilon float64) *PricingService {
	if epsilon <= 0 {
		epsilon = DefaultEpsilon
	}
	return &PricingService{epsilon: epsilon}
}

// Epsilon returns the acceptance threshold
func (s *PricingService) Epsilon() float64 {
	return s.epsilon
}

// Result is the outcome of pricing one pair
type Result struct {
	Pair        entities.PairKey
	Column      *entities.Column // nil when nothing prices out
	ReducedCost float64
}

// Price runs the layered dynamic program for one pair under fixed duals.
// A column is returned only when its reduced cost is below -epsilon.
func (s *PricingService) Price(profile entities.PairProfile, duals entities.PairDuals) (*Result, error) {
	if len(duals.Coverage) != profile.Horizon() {
		return nil, fmt.Errorf("duals for %s cover %d periods, horizon is %d", profile.Pair, len(duals.Coverage), profile.Horizon())
	}

	orders, value := shortestPath(profile, duals)
	result := &Result{Pair: profile.Pair, ReducedCost: value - duals.Convexity}
	if result.ReducedCost >= -s.epsilon {
		return result, nil
	}

	column, err := entities.NewColumn(profile, orders)
	if err != nil {
		return nil, fmt.Errorf("pricing produced an invalid pattern: %w", err)
	}
	result.Column = column
	return result, nil
}

// node is the best way found to reach an inventory level at the end of a period
type node struct {
	value float64
	prev  entities.Quantity
	order entities.Quantity
}

// shortestPath returns the order sequence minimising cost minus dual credit,
// and that minimum. Layers are periods; states are end-of-period inventory.
func shortestPath(profile entities.PairProfile, duals entities.PairDuals) ([]entities.Quantity, float64) {
	horizon := profile.Horizon()

	// remaining[t] is total demand from period t to the end
	remaining := make([]entities.Quantity, horizon+1)
	for t := horizon - 1; t >= 0; t-- {
		remaining[t] = remaining[t+1] + profile.Demand[t]
	}

	layers := make([]map[entities.Quantity]node, horizon+1)
	layers[0] = map[entities.Quantity]node{profile.InitialInventory: {}}

	for t := 0; t < horizon; t++ {
		next := make(map[entities.Quantity]node)
		demand := profile.Demand[t]

		// Ascending states and orders, strict improvement: ties keep the
		// lower inventory and the smaller order.
		for _, onHand := range slices.Sorted(maps.Keys(layers[t])) {
			from := layers[t][onHand]
			for _, q := range candidates(profile, t, remaining[t]-onHand) {
				available := onHand + q
				covered := min(demand, available)
				carried := available - covered

				value := from.value + profile.StepCost(q, carried) - duals.Credit(t, q, covered)
				if best, seen := next[carried]; !seen || value < best.value-tieTolerance {
					next[carried] = node{value: value, prev: onHand, order: q}
				}
			}
		}
		layers[t+1] = next
	}

	var (
		bestLevel entities.Quantity
		bestValue float64
		found     bool
	)
	for _, level := range slices.Sorted(maps.Keys(layers[horizon])) {
		if v := layers[horizon][level].value; !found || v < bestValue-tieTolerance {
			bestLevel, bestValue, found = level, v, true
		}
	}

	orders := make([]entities.Quantity, horizon)
	level := bestLevel
	for t := horizon; t > 0; t-- {
		n := layers[t][level]
		orders[t-1] = n.order
		level = n.prev
	}
	return orders, bestValue
}

// candidates lists the admissible orders in period t given the net demand
// still to cover. Anything above the smallest covering order is dominated.
func candidates(profile entities.PairProfile, t int, netDemand entities.Quantity) []entities.Quantity {
	out := []entities.Quantity{0}
	if netDemand <= 0 {
		return out
	}

	upper := profile.RoundUp(netDemand)
	if profile.Capacity != nil {
		upper = min(upper, profile.Capacity[t])
	}

	pack := max(profile.CasePack, 1)
	first := profile.RoundUp(1)
	for q := first; q <= upper; q += pack {
		if profile.Admissible(t, q) {
			out = append(out, q)
		}
	}
	return out
}
