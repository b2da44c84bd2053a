package entities

import (
	"errors"
	"fmt"
)

// Period is one time bucket of the planning horizon
type Period struct {
	Index int
	Label string
}

// Instance is the full replenishment problem. It is read-only once validated.
type Instance struct {
	Products []Product
	Stores   []Store
	Periods  []Period
	// Demand holds one entry per period for every (product, store) pair.
	Demand map[PairKey][]Quantity
	// InitialInventory is optional; missing pairs start empty.
	InitialInventory map[PairKey]Quantity
}

// Horizon returns the number of periods
func (inst *Instance) Horizon() int {
	return len(inst.Periods)
}

// Pairs returns every (product, store) pair, product-major in input order
func (inst *Instance) Pairs() []PairKey {
	pairs := make([]PairKey, 0, len(inst.Products)*len(inst.Stores))
	for _, p := range inst.Products {
		for _, s := range inst.Stores {
			pairs = append(pairs, PairKey{Product: p.ID, Store: s.ID})
		}
	}
	return pairs
}

// Product looks up a product by id
func (inst *Instance) Product(id ProductID) (*Product, bool) {
	for i := range inst.Products {
		if inst.Products[i].ID == id {
			return &inst.Products[i], true
		}
	}
	return nil, false
}

// Store looks up a store by id
func (inst *Instance) Store(id StoreID) (*Store, bool) {
	for i := range inst.Stores {
		if inst.Stores[i].ID == id {
			return &inst.Stores[i], true
		}
	}
	return nil, false
}

// Validate checks structural completeness. Every problem found is reported,
// each wrapping ErrMalformedInstance.
func (inst *Instance) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", ErrMalformedInstance, fmt.Sprintf(format, args...)))
	}

	if len(inst.Products) == 0 {
		bad("no products")
	}
	if len(inst.Stores) == 0 {
		bad("no stores")
	}
	horizon := inst.Horizon()
	if horizon == 0 {
		bad("empty horizon")
	}

	seenProducts := make(map[ProductID]bool, len(inst.Products))
	for _, p := range inst.Products {
		if p.ID == "" {
			bad("product with empty id")
		}
		if seenProducts[p.ID] {
			bad("duplicate product %s", p.ID)
		}
		seenProducts[p.ID] = true
		if p.UnitCost.IsNegative() || p.HoldingCost.IsNegative() || p.SetupCost.IsNegative() {
			bad("product %s has a negative cost", p.ID)
		}
		if p.CasePack < 1 {
			bad("product %s case pack must be at least 1, got %d", p.ID, p.CasePack)
		}
		if p.MinOrderQty < 0 {
			bad("product %s min order qty cannot be negative, got %d", p.ID, p.MinOrderQty)
		}
	}

	seenStores := make(map[StoreID]bool, len(inst.Stores))
	for _, s := range inst.Stores {
		if s.ID == "" {
			bad("store with empty id")
		}
		if seenStores[s.ID] {
			bad("duplicate store %s", s.ID)
		}
		seenStores[s.ID] = true
		if s.Capacity == nil {
			continue
		}
		if len(s.Capacity) != horizon {
			bad("store %s capacity covers %d periods, horizon is %d", s.ID, len(s.Capacity), horizon)
			continue
		}
		for t, c := range s.Capacity {
			if c < 0 {
				bad("store %s capacity in period %d is negative", s.ID, t+1)
			}
		}
	}

	for _, pair := range inst.Pairs() {
		demand, ok := inst.Demand[pair]
		if !ok {
			bad("no demand for %s", pair)
			continue
		}
		if len(demand) != horizon {
			bad("demand for %s covers %d periods, horizon is %d", pair, len(demand), horizon)
			continue
		}
		for t, d := range demand {
			if d < 0 {
				bad("demand for %s in period %d is negative", pair, t+1)
			}
		}
		if inst.InitialInventory[pair] < 0 {
			bad("initial inventory for %s is negative", pair)
		}
	}

	for pair := range inst.Demand {
		if !seenProducts[pair.Product] || !seenStores[pair.Store] {
			bad("demand for unknown pair %s", pair)
		}
	}

	return errors.Join(errs...)
}

// Profile returns the float view of everything the solver needs for one pair.
// The instance must be valid.
func (inst *Instance) Profile(pair PairKey) (PairProfile, error) {
	product, ok := inst.Product(pair.Product)
	if !ok {
		return PairProfile{}, fmt.Errorf("%w: unknown product %s", ErrMalformedInstance, pair.Product)
	}
	store, ok := inst.Store(pair.Store)
	if !ok {
		return PairProfile{}, fmt.Errorf("%w: unknown store %s", ErrMalformedInstance, pair.Store)
	}
	demand, ok := inst.Demand[pair]
	if !ok {
		return PairProfile{}, fmt.Errorf("%w: no demand for %s", ErrMalformedInstance, pair)
	}

	return PairProfile{
		Pair:             pair,
		Demand:           demand,
		Capacity:         store.Capacity,
		InitialInventory: inst.InitialInventory[pair],
		UnitCost:         product.UnitCost.InexactFloat64(),
		HoldingCost:      product.HoldingCost.InexactFloat64(),
		SetupCost:        product.SetupCost.InexactFloat64(),
		CasePack:         product.CasePack,
		MinOrderQty:      product.MinOrderQty,
	}, nil
}
