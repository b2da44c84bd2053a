package entities

import "fmt"

// PairProfile is the solver's view of one (product, store) pair: demand,
// capacity and costs as plain numbers.
type PairProfile struct {
	Pair             PairKey
	Demand           []Quantity
	Capacity         []Quantity // nil when uncapacitated
	InitialInventory Quantity
	UnitCost         float64
	HoldingCost      float64
	SetupCost        float64
	CasePack         Quantity
	MinOrderQty      Quantity
}

// Horizon returns the number of periods
func (p PairProfile) Horizon() int {
	return len(p.Demand)
}

// Admissible reports whether ordering q units in period t respects the pack,
// minimum order and capacity rules. Zero is always admissible.
func (p PairProfile) Admissible(t int, q Quantity) bool {
	if q == 0 {
		return true
	}
	if q < 0 || q%p.pack() != 0 || q < p.MinOrderQty {
		return false
	}
	if p.Capacity != nil && q > p.Capacity[t] {
		return false
	}
	return true
}

// RoundUp returns the smallest admissible-by-pack-and-MOQ order covering need.
// It ignores capacity.
func (p PairProfile) RoundUp(need Quantity) Quantity {
	if need <= 0 {
		return 0
	}
	if need < p.MinOrderQty {
		need = p.MinOrderQty
	}
	pack := p.pack()
	return (need + pack - 1) / pack * pack
}

// TotalDemand sums demand over the horizon
func (p PairProfile) TotalDemand() Quantity {
	var total Quantity
	for _, d := range p.Demand {
		total += d
	}
	return total
}

// Simulate plays an order sequence forward. On-hand stock is consumed against
// each period's demand before anything is carried.
func (p PairProfile) Simulate(orders []Quantity) (coverage, inventory []Quantity, cost float64) {
	coverage = make([]Quantity, len(orders))
	inventory = make([]Quantity, len(orders))
	onHand := p.InitialInventory
	for t, q := range orders {
		available := onHand + q
		covered := min(p.Demand[t], available)
		onHand = available - covered
		coverage[t] = covered
		inventory[t] = onHand
		cost += p.StepCost(q, onHand)
	}
	return coverage, inventory, cost
}

// StepCost is the cost of ordering q and ending the period holding onHand
func (p PairProfile) StepCost(q, onHand Quantity) float64 {
	cost := p.UnitCost*float64(q) + p.HoldingCost*float64(onHand)
	if q > 0 {
		cost += p.SetupCost
	}
	return cost
}

// DaysOfCover is how many of the periods after period the given end stock
// lasts at their average demand, capped at the periods remaining. With no
// demand ahead the stock lasts the rest of the horizon.
func (p PairProfile) DaysOfCover(period int, endInventory float64) float64 {
	remaining := p.Horizon() - period - 1
	if remaining <= 0 {
		return 0
	}
	var future Quantity
	for _, d := range p.Demand[period+1:] {
		future += d
	}
	if future <= 0 {
		return float64(remaining)
	}
	rate := float64(future) / float64(remaining)
	return min(float64(remaining), endInventory/rate)
}

func (p PairProfile) pack() Quantity {
	if p.CasePack < 1 {
		return 1
	}
	return p.CasePack
}

func (p PairProfile) checkOrders(orders []Quantity) error {
	if len(orders) != p.Horizon() {
		return fmt.Errorf("pattern for %s has %d periods, horizon is %d", p.Pair, len(orders), p.Horizon())
	}
	for t, q := range orders {
		if q < 0 {
			return fmt.Errorf("pattern for %s orders %d in period %d", p.Pair, q, t+1)
		}
		if !p.Admissible(t, q) {
			return fmt.Errorf("pattern for %s: order of %d in period %d violates pack, minimum or capacity", p.Pair, q, t+1)
		}
	}
	return nil
}
