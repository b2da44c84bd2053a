package colgen

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/replenish/pkg/application/services/master"
	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/infrastructure/lp"
	"github.com/vsinha/replenish/pkg/infrastructure/repositories/memory"
	testhelpers "github.com/vsinha/replenish/pkg/infrastructure/testing"
)

// randomInstance builds a small feasible instance: three periods, up to two
// products and two stores, with packs, minimum orders, setups, opening stock
// and a capacity on the second store.
func randomInstance(rng *rand.Rand) *entities.Instance {
	const periods = 3
	inst := &entities.Instance{
		Periods:          testhelpers.Periods(periods),
		Demand:           make(map[entities.PairKey][]entities.Quantity),
		InitialInventory: make(map[entities.PairKey]entities.Quantity),
	}

	for p := 0; p < 1+rng.IntN(2); p++ {
		prod := testhelpers.Product(fmt.Sprintf("SKU_%d", p), int64(1+rng.IntN(3)), int64(rng.IntN(3)), int64(rng.IntN(10)))
		prod.CasePack = entities.Quantity(1 + rng.IntN(2))
		prod.MinOrderQty = entities.Quantity(rng.IntN(4))
		inst.Products = append(inst.Products, prod)
	}
	for s := 0; s < 1+rng.IntN(2); s++ {
		store := entities.Store{ID: entities.StoreID(fmt.Sprintf("Location_%d", s))}
		if s == 1 {
			store.Capacity = []entities.Quantity{8, 8, 8}
		}
		inst.Stores = append(inst.Stores, store)
	}

	for _, prod := range inst.Products {
		for _, store := range inst.Stores {
			pair := entities.PairKey{Product: prod.ID, Store: store.ID}
			demand := make([]entities.Quantity, periods)
			for t := range demand {
				demand[t] = entities.Quantity(rng.IntN(4))
			}
			inst.Demand[pair] = demand
			if rng.IntN(3) == 0 {
				inst.InitialInventory[pair] = entities.Quantity(1 + rng.IntN(3))
			}
		}
	}
	return inst
}

// enumeratedPool holds every admissible pattern ordering at most the rounded
// total demand in any period
func enumeratedPool(t *testing.T, inst *entities.Instance) ([]entities.PairProfile, *memory.ColumnPool) {
	t.Helper()
	pairs := inst.Pairs()
	pool := memory.NewColumnPool(pairs)
	profiles := make([]entities.PairProfile, len(pairs))

	for i, pair := range pairs {
		profile := mustProfile(t, inst, pair)
		profiles[i] = profile

		var choices [][]entities.Quantity
		upper := profile.RoundUp(profile.TotalDemand())
		for period := 0; period < profile.Horizon(); period++ {
			var qs []entities.Quantity
			for q := entities.Quantity(0); q <= upper; q++ {
				if profile.Admissible(period, q) {
					qs = append(qs, q)
				}
			}
			choices = append(choices, qs)
		}

		orders := make([]entities.Quantity, profile.Horizon())
		var walk func(period int)
		walk = func(period int) {
			if period == len(orders) {
				column, err := entities.NewColumn(profile, orders)
				require.NoError(t, err)
				_, err = pool.Add(column)
				require.NoError(t, err)
				return
			}
			for _, q := range choices[period] {
				orders[period] = q
				walk(period + 1)
			}
		}
		walk(0)
	}
	return profiles, pool
}

func TestPlan_MatchesFullEnumeration(t *testing.T) {
	rng := rand.New(rand.NewPCG(2024, 11))

	for trial := 0; trial < 15; trial++ {
		inst := randomInstance(rng)
		t.Run(fmt.Sprintf("trial %d", trial), func(t *testing.T) {
			require.NoError(t, inst.Validate())

			result, _, err := plan(t, inst, lp.NewSimplex(0), Config{MaxIterations: 200})
			require.NoError(t, err)
			require.True(t, result.Converged)

			profiles, pool := enumeratedPool(t, inst)
			full, err := master.NewRMPService(lp.NewSimplex(0)).Solve(context.Background(), profiles, pool)
			require.NoError(t, err)

			assert.InDelta(t, full.Objective, result.Objective, 1e-6, "generated %d of %d patterns", result.PoolSize, pool.Len())
		})
	}
}

func TestPlan_Networks(t *testing.T) {
	tests := []struct {
		name string
		cfg  testhelpers.NetworkConfig
	}{
		{"default network", testhelpers.DefaultNetworkConfig()},
		{"long horizon", testhelpers.NetworkConfig{Products: 2, Stores: 3, Periods: 10, MaxDemand: 9, Capacity: 12}},
		{"uncapacitated", testhelpers.NetworkConfig{Products: 4, Stores: 4, Periods: 8, MaxDemand: 7}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			inst := testhelpers.BuildNetwork(tt.cfg)
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			pool := memory.NewColumnPool(inst.Pairs())
			result, err := NewColumnGenerationService(lp.NewSimplex(0), Config{MaxIterations: 500, Workers: 4}).Plan(ctx, inst, pool)
			require.NoError(t, err)

			assert.True(t, result.Converged)
			assert.Greater(t, result.Objective, 0.0)
			assert.NotEmpty(t, result.Lines)
			for _, line := range result.Lines {
				assert.GreaterOrEqual(t, line.EndInventory, -1e-9)
				assert.GreaterOrEqual(t, line.DaysOfCover, 0.0)
			}
		})
	}
}
