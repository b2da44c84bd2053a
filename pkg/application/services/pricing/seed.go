package pricing

import (
	"fmt"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// Seed builds a first demand-covering column for a pair. Lot-for-lot is tried
// first; if it breaks a capacity bound, the dynamic program is run with a
// coverage credit large enough that covering demand dominates cost.
func (s *PricingService) Seed(profile entities.PairProfile) (*entities.Column, error) {
	if orders, ok := lotForLot(profile); ok {
		return entities.NewColumn(profile, orders)
	}

	orders, _ := shortestPath(profile, phaseOneDuals(profile))
	column, err := entities.NewColumn(profile, orders)
	if err != nil {
		return nil, fmt.Errorf("seeding %s: %w", profile.Pair, err)
	}
	if !column.CoversDemand(profile.Demand) {
		return nil, fmt.Errorf("%w: no admissible pattern covers demand for %s", entities.ErrInfeasible, profile.Pair)
	}
	return column, nil
}

// lotForLot orders each period's net requirement, rounded to pack and
// minimum order. It reports false when a capacity bound is exceeded.
func lotForLot(profile entities.PairProfile) ([]entities.Quantity, bool) {
	orders := make([]entities.Quantity, profile.Horizon())
	onHand := profile.InitialInventory
	for t, demand := range profile.Demand {
		if need := demand - onHand; need > 0 {
			orders[t] = profile.RoundUp(need)
			if !profile.Admissible(t, orders[t]) {
				return nil, false
			}
		}
		onHand += orders[t] - min(demand, onHand+orders[t])
	}
	return orders, true
}

// phaseOneDuals credits every covered unit more than any pattern can cost,
// so the cheapest path is the cheapest among those with maximum coverage.
func phaseOneDuals(profile entities.PairProfile) entities.PairDuals {
	horizon := float64(profile.Horizon())
	largestOrder := float64(profile.RoundUp(profile.TotalDemand()))
	largestStock := float64(profile.InitialInventory) + horizon*largestOrder

	bound := horizon*(profile.SetupCost+profile.UnitCost*largestOrder+profile.HoldingCost*largestStock) + 1

	credit := make([]float64, profile.Horizon())
	for t := range credit {
		credit[t] = bound
	}
	return entities.PairDuals{Coverage: credit}
}
