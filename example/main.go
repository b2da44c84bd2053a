package main

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/vsinha/replenish/pkg/application/services/colgen"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/infrastructure/lp"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/memory"
)

func main() {
	ctx := context.Background()

	instance := buildInstance()

	fmt.Println("🛒 Planning replenishment for 1 product across 2 stores...")
	fmt.Printf("Periods: %d\n\n", instance.Horizon())

	service := colgen.NewColumnGenerationService(
		lp.NewSimplex(lp.DefaultTolerance),
		colgen.DefaultConfig(),
	)

	result, err := service.Plan(ctx, instance, memory.NewColumnPool(instance.Pairs()))
	if err != nil {
		fmt.Printf("❌ Planning failed: %v\n", err)
		return
	}

	fmt.Println("📊 Results:")
	fmt.Printf("  Objective: %.2f\n", result.Objective)
	fmt.Printf("  Iterations: %d\n", result.Iterations)
	fmt.Printf("  Columns generated: %d\n", result.PoolSize)
	fmt.Printf("  Converged: %t\n", result.Converged)
	fmt.Println()

	fmt.Println("📋 Orders:")
	for _, line := range result.Lines {
		fmt.Printf("  %s @ %s period %d: %.2f\n", line.Product, line.Store, line.Period+1, line.Quantity)
	}
	fmt.Println()

	fmt.Println("🧩 Selected patterns:")
	for _, column := range result.Columns {
		fmt.Printf("  %s orders=%v cost=%.2f weight=%.3f\n", column.Pair, column.Orders, column.Cost, column.Weight)
	}
}

// buildInstance is one product at an open store and a store with a
// 10 unit receiving limit per period
func buildInstance() *entities.Instance {
	product, err := entities.NewProduct(
		"SKU_0",
		decimal.NewFromInt(2),  // unit
		decimal.NewFromInt(1),  // holding
		decimal.NewFromInt(12), // setup
		1, 0,
	)
	if err != nil {
		panic(err)
	}

	return &entities.Instance{
		Products: []entities.Product{*product},
		Stores: []entities.Store{
			{ID: "Location_0"},
			{ID: "Location_1", Capacity: []entities.Quantity{10, 10, 10}},
		},
		Periods: []entities.Period{
			{Index: 0, Label: "W1"},
			{Index: 1, Label: "W2"},
			{Index: 2, Label: "W3"},
		},
		Demand: map[entities.PairKey][]entities.Quantity{
			{Product: "SKU_0", Store: "Location_0"}: {5, 0, 5},
			{Product: "SKU_0", Store: "Location_1"}: {3, 4, 5},
		},
	}
}
