package entities

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ProductID represents a unique SKU identifier
type ProductID string

// StoreID represents a unique retail location identifier
type StoreID string

// Quantity represents an integer number of sellable units
type Quantity int64

// Product carries the cost and ordering rules of one SKU
type Product struct {
	ID          ProductID
	UnitCost    decimal.Decimal // cost per unit shipped
	HoldingCost decimal.Decimal // cost per unit held at the end of a period
	SetupCost   decimal.Decimal // fixed cost per order placed
	CasePack    Quantity        // orders are multiples of this
	MinOrderQty Quantity
}

// NewProduct creates a validated Product. A zero case pack means single units.
func NewProduct(
	id ProductID,
	unitCost, holdingCost, setupCost decimal.Decimal,
	casePack, minOrderQty Quantity,
) (*Product, error) {
	if string(id) == "" {
		return nil, fmt.Errorf("product id cannot be empty")
	}
	if unitCost.IsNegative() {
		return nil, fmt.Errorf("unit cost cannot be negative, got %s", unitCost)
	}
	if holdingCost.IsNegative() {
		return nil, fmt.Errorf("holding cost cannot be negative, got %s", holdingCost)
	}
	if setupCost.IsNegative() {
		return nil, fmt.Errorf("setup cost cannot be negative, got %s", setupCost)
	}
	if casePack < 0 {
		return nil, fmt.Errorf("case pack cannot be negative, got %d", casePack)
	}
	if casePack == 0 {
		casePack = 1
	}
	if minOrderQty < 0 {
		return nil, fmt.Errorf("min order qty cannot be negative, got %d", minOrderQty)
	}

	return &Product{
		ID:          id,
		UnitCost:    unitCost,
		HoldingCost: holdingCost,
		SetupCost:   setupCost,
		CasePack:    casePack,
		MinOrderQty: minOrderQty,
	}, nil
}

// Store is a retail location with an optional receiving capacity per period
type Store struct {
	ID StoreID
	// Capacity bounds the units any single product may receive in a period.
	// A nil slice means the store is uncapacitated.
	Capacity []Quantity
}

// Capacitated reports whether the store has a per-period bound
func (s Store) Capacitated() bool {
	return s.Capacity != nil
}

// PairKey identifies one (product, store) replenishment stream
type PairKey struct {
	Product ProductID
	Store   StoreID
}

// String renders the pair as product@store
func (k PairKey) String() string {
	return string(k.Product) + "@" + string(k.Store)
}
