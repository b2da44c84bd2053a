package testing

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// Product builds a single-unit product with whole-number costs
func Product(id string, unit, holding, setup int64) entities.Product {
	return entities.Product{
		ID:          entities.ProductID(id),
		UnitCost:    decimal.NewFromInt(unit),
		HoldingCost: decimal.NewFromInt(holding),
		SetupCost:   decimal.NewFromInt(setup),
		CasePack:    1,
	}
}

// Periods builds n periods labelled from 1
func Periods(n int) []entities.Period {
	out := make([]entities.Period, n)
	for i := range out {
		out[i] = entities.Period{Index: i, Label: fmt.Sprintf("%d", i+1)}
	}
	return out
}

// BuildSinglePair is one product at one uncapacitated store. Costs are unit 2,
// holding 1 and the given setup.
func BuildSinglePair(setup int64, demand ...entities.Quantity) *entities.Instance {
	return &entities.Instance{
		Products: []entities.Product{Product("SKU_0", 2, 1, setup)},
		Stores:   []entities.Store{{ID: "Location_0"}},
		Periods:  Periods(len(demand)),
		Demand: map[entities.PairKey][]entities.Quantity{
			{Product: "SKU_0", Store: "Location_0"}: demand,
		},
	}
}

// BuildTwoStores is 1 product x 2 stores x 3 periods; Location_1 receives at
// most 10 units per period
func BuildTwoStores(setup int64) *entities.Instance {
	return &entities.Instance{
		Products: []entities.Product{Product("SKU_0", 2, 1, setup)},
		Stores: []entities.Store{
			{ID: "Location_0"},
			{ID: "Location_1", Capacity: []entities.Quantity{10, 10, 10}},
		},
		Periods: Periods(3),
		Demand: map[entities.PairKey][]entities.Quantity{
			{Product: "SKU_0", Store: "Location_0"}: {5, 0, 5},
			{Product: "SKU_0", Store: "Location_1"}: {3, 4, 5},
		},
	}
}

// NetworkConfig sizes a generated instance
type NetworkConfig struct {
	Products  int
	Stores    int
	Periods   int
	MaxDemand entities.Quantity // demand per cell is in [0, MaxDemand)
	Capacity  entities.Quantity // per-period limit on odd-numbered stores; 0 leaves all open
}

// DefaultNetworkConfig is the 3 x 4 x 6 network used by the solver tests
func DefaultNetworkConfig() NetworkConfig {
	return NetworkConfig{Products: 3, Stores: 4, Periods: 6, MaxDemand: 9, Capacity: 12}
}

// BuildNetwork generates a deterministic instance with setup costs, a case
// pack on every second product, capacities on odd stores and some opening stock
func BuildNetwork(cfg NetworkConfig) *entities.Instance {
	inst := &entities.Instance{
		Periods:          Periods(cfg.Periods),
		Demand:           make(map[entities.PairKey][]entities.Quantity),
		InitialInventory: make(map[entities.PairKey]entities.Quantity),
	}

	for p := 0; p < cfg.Products; p++ {
		prod := Product(fmt.Sprintf("SKU_%d", p), int64(1+p%3), 1, int64(6+3*(p%5)))
		if p%2 == 1 {
			prod.CasePack = 2
		}
		inst.Products = append(inst.Products, prod)
	}

	for s := 0; s < cfg.Stores; s++ {
		store := entities.Store{ID: entities.StoreID(fmt.Sprintf("Location_%d", s))}
		if cfg.Capacity > 0 && s%2 == 1 {
			store.Capacity = make([]entities.Quantity, cfg.Periods)
			for t := range store.Capacity {
				store.Capacity[t] = cfg.Capacity
			}
		}
		inst.Stores = append(inst.Stores, store)
	}

	maxDemand := int(cfg.MaxDemand)
	if maxDemand <= 0 {
		maxDemand = 1
	}
	for p, prod := range inst.Products {
		for s, store := range inst.Stores {
			pair := entities.PairKey{Product: prod.ID, Store: store.ID}
			demand := make([]entities.Quantity, cfg.Periods)
			for t := range demand {
				demand[t] = entities.Quantity((p*7 + s*3 + t*5) % maxDemand)
			}
			inst.Demand[pair] = demand
			if (p+s)%3 == 0 {
				inst.InitialInventory[pair] = 2
			}
		}
	}
	return inst
}
