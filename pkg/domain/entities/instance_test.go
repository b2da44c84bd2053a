package entities

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func buildTestInstance() *Instance {
	return &Instance{
		Products: []Product{
			{ID: "SKU_0", UnitCost: decimal.NewFromInt(2), HoldingCost: decimal.NewFromInt(1), CasePack: 1},
		},
		Stores: []Store{
			{ID: "Location_0"},
			{ID: "Location_1", Capacity: []Quantity{10, 10, 10}},
		},
		Periods: []Period{{Index: 0, Label: "1"}, {Index: 1, Label: "2"}, {Index: 2, Label: "3"}},
		Demand: map[PairKey][]Quantity{
			{Product: "SKU_0", Store: "Location_0"}: {5, 0, 5},
			{Product: "SKU_0", Store: "Location_1"}: {3, 4, 5},
		},
	}
}

func TestInstance_Validate(t *testing.T) {
	inst := buildTestInstance()
	if err := inst.Validate(); err != nil {
		t.Fatalf("Expected valid instance, got %v", err)
	}

	testCases := []struct {
		name        string
		mutate      func(*Instance)
		expectError string
	}{
		{
			"missing demand pair",
			func(i *Instance) { delete(i.Demand, PairKey{Product: "SKU_0", Store: "Location_1"}) },
			"no demand for SKU_0@Location_1",
		},
		{
			"short demand",
			func(i *Instance) { i.Demand[PairKey{Product: "SKU_0", Store: "Location_0"}] = []Quantity{5, 0} },
			"demand for SKU_0@Location_0 covers 2 periods, horizon is 3",
		},
		{
			"negative demand",
			func(i *Instance) { i.Demand[PairKey{Product: "SKU_0", Store: "Location_0"}] = []Quantity{5, -1, 5} },
			"demand for SKU_0@Location_0 in period 2 is negative",
		},
		{
			"short capacity",
			func(i *Instance) { i.Stores[1].Capacity = []Quantity{10} },
			"store Location_1 capacity covers 1 periods, horizon is 3",
		},
		{
			"duplicate store",
			func(i *Instance) { i.Stores = append(i.Stores, Store{ID: "Location_0"}) },
			"duplicate store Location_0",
		},
		{
			"negative cost",
			func(i *Instance) { i.Products[0].HoldingCost = decimal.NewFromInt(-1) },
			"product SKU_0 has a negative cost",
		},
		{
			"empty horizon",
			func(i *Instance) { i.Periods = nil },
			"empty horizon",
		},
		{
			"unknown pair",
			func(i *Instance) { i.Demand[PairKey{Product: "SKU_9", Store: "Location_0"}] = []Quantity{1, 1, 1} },
			"demand for unknown pair SKU_9@Location_0",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inst := buildTestInstance()
			tc.mutate(inst)
			err := inst.Validate()
			if err == nil {
				t.Fatalf("Expected error for %s, but got none", tc.name)
			}
			if !errors.Is(err, ErrMalformedInstance) {
				t.Errorf("Expected ErrMalformedInstance, got %v", err)
			}
			if !strings.Contains(err.Error(), tc.expectError) {
				t.Errorf("Expected error to contain '%s', got '%s'", tc.expectError, err.Error())
			}
		})
	}
}

func TestInstance_PairsOrder(t *testing.T) {
	inst := buildTestInstance()
	pairs := inst.Pairs()
	if len(pairs) != 2 {
		t.Fatalf("Expected 2 pairs, got %d", len(pairs))
	}
	if pairs[0].Store != "Location_0" || pairs[1].Store != "Location_1" {
		t.Errorf("Expected product-major store order, got %v", pairs)
	}
}

func TestInstance_Profile(t *testing.T) {
	inst := buildTestInstance()
	inst.InitialInventory = map[PairKey]Quantity{{Product: "SKU_0", Store: "Location_1"}: 2}

	profile, err := inst.Profile(PairKey{Product: "SKU_0", Store: "Location_1"})
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.UnitCost != 2 || profile.HoldingCost != 1 || profile.SetupCost != 0 {
		t.Errorf("Unexpected costs %+v", profile)
	}
	if profile.InitialInventory != 2 {
		t.Errorf("Expected initial inventory 2, got %d", profile.InitialInventory)
	}
	if len(profile.Capacity) != 3 {
		t.Errorf("Expected capacity to be carried over, got %v", profile.Capacity)
	}

	_, err = inst.Profile(PairKey{Product: "SKU_X", Store: "Location_1"})
	if !errors.Is(err, ErrMalformedInstance) {
		t.Errorf("Expected ErrMalformedInstance for unknown product, got %v", err)
	}
}
