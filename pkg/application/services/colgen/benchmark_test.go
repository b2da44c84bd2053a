package colgen

import (
	"context"
	"fmt"
	"testing"

	"github.com/vsinha/replenish/pkg/infrastructure/lp"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/replenish/pkg/infrastructure/testing"
)

func BenchmarkPlan_Network(b *testing.B) {
	sizes := []testhelpers.NetworkConfig{
		testhelpers.DefaultNetworkConfig(),
		{Products: 5, Stores: 6, Periods: 8, MaxDemand: 9, Capacity: 14},
		{Products: 10, Stores: 10, Periods: 8, MaxDemand: 7, Capacity: 0},
	}

	for _, size := range sizes {
		name := fmt.Sprintf("%dx%dx%d", size.Products, size.Stores, size.Periods)
		b.Run(name, func(b *testing.B) {
			ctx := context.Background()
			inst := testhelpers.BuildNetwork(size)
			service := NewColumnGenerationService(lp.NewSimplex(0), Config{MaxIterations: 500})

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := service.Plan(ctx, inst, memory.NewColumnPool(inst.Pairs()))
				if err != nil {
					b.Fatalf("Plan failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkPlan_Workers(b *testing.B) {
	ctx := context.Background()
	inst := testhelpers.BuildNetwork(testhelpers.NetworkConfig{Products: 6, Stores: 6, Periods: 8, MaxDemand: 9, Capacity: 14})

	for _, workers := range []int{1, 4, 16} {
		b.Run(fmt.Sprintf("workers=%d", workers), func(b *testing.B) {
			service := NewColumnGenerationService(lp.NewSimplex(0), Config{MaxIterations: 500, Workers: workers})

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := service.Plan(ctx, inst, memory.NewColumnPool(inst.Pairs())); err != nil {
					b.Fatalf("Plan failed: %v", err)
				}
			}
		})
	}
}
