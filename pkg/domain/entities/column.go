package entities

import (
	"encoding/binary"
	"slices"

	"github.com/cespare/xxhash/v2"
)

// Column is one feasible replenishment pattern for a single pair over the
// whole horizon. Columns are immutable once built.
type Column struct {
	Pair      PairKey
	Orders    []Quantity
	Coverage  []Quantity
	Inventory []Quantity // end-of-period on-hand
	Cost      float64
	key       uint64
}

// NewColumn validates an order sequence against the pair's rules and
// precomputes its coverage and cost
func NewColumn(profile PairProfile, orders []Quantity) (*Column, error) {
	if err := profile.checkOrders(orders); err != nil {
		return nil, err
	}

	owned := slices.Clone(orders)
	coverage, inventory, cost := profile.Simulate(owned)
	return &Column{
		Pair:      profile.Pair,
		Orders:    owned,
		Coverage:  coverage,
		Inventory: inventory,
		Cost:      cost,
		key:       PatternKey(profile.Pair, owned),
	}, nil
}

// Key is the content hash of the pair and its order sequence
func (c *Column) Key() uint64 {
	return c.key
}

// SamePattern compares pair and order sequence by value
func (c *Column) SamePattern(other *Column) bool {
	return c.Pair == other.Pair && slices.Equal(c.Orders, other.Orders)
}

// ReducedCost prices the column against the pair's duals
func (c *Column) ReducedCost(d PairDuals) float64 {
	rc := c.Cost - d.Convexity
	for t := range c.Orders {
		rc -= d.Credit(t, c.Orders[t], c.Coverage[t])
	}
	return rc
}

// CoversDemand reports whether the column alone meets every period's demand
func (c *Column) CoversDemand(demand []Quantity) bool {
	for t, d := range demand {
		if c.Coverage[t] < d {
			return false
		}
	}
	return true
}

// PatternKey hashes a pair and an order sequence
func PatternKey(pair PairKey, orders []Quantity) uint64 {
	buf := make([]byte, 0, len(pair.Product)+len(pair.Store)+2+8*len(orders))
	buf = append(buf, string(pair.Product)...)
	buf = append(buf, 0)
	buf = append(buf, string(pair.Store)...)
	buf = append(buf, 0)
	for _, q := range orders {
		buf = binary.LittleEndian.AppendUint64(buf, uint64(q))
	}
	return xxhash.Sum64(buf)
}
