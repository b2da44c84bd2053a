package pricing

import (
	"fmt"
	"testing"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

func BenchmarkPricingService_Price(b *testing.B) {
	for _, horizon := range []int{6, 12, 26} {
		b.Run(fmt.Sprintf("horizon=%d", horizon), func(b *testing.B) {
			demand := make([]entities.Quantity, horizon)
			duals := make([]float64, horizon)
			capacity := make([]entities.Quantity, horizon)
			for t := range demand {
				demand[t] = entities.Quantity(2 + (t*5)%9)
				duals[t] = float64(3 + t%4)
				capacity[t] = 24
			}
			p := profile(demand...)
			p.SetupCost = 15
			p.CasePack = 2
			p.Capacity = capacity

			service := NewPricingService(DefaultEpsilon)
			d := entities.PairDuals{Coverage: duals, Capacity: make([]float64, horizon)}

			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := service.Price(p, d); err != nil {
					b.Fatalf("Price failed: %v", err)
				}
			}
		})
	}
}

func BenchmarkPricingService_Seed(b *testing.B) {
	p := profile(9, 9, 9, 9, 9, 9)
	p.Capacity = []entities.Quantity{14, 14, 4, 4, 12, 12}
	p.SetupCost = 10
	service := NewPricingService(DefaultEpsilon)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := service.Seed(p); err != nil {
			b.Fatalf("Seed failed: %v", err)
		}
	}
}
