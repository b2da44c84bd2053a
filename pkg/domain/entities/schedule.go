package entities

import "sort"

// ScheduleKey addresses one cell of the schedule
type ScheduleKey struct {
	Pair   PairKey
	Period int // zero-based
}

// ScheduleCell is the blended order and end-of-period stock for one cell
type ScheduleCell struct {
	Quantity     float64
	EndInventory float64
}

// Schedule maps (product, store, period) to a committed order quantity and
// the stock left after that period's demand. Values are fractional at the
// LP-relaxation stage.
type Schedule map[ScheduleKey]ScheduleCell

// Add accumulates an order and end inventory into a cell
func (s Schedule) Add(pair PairKey, period int, qty, endInventory float64) {
	key := ScheduleKey{Pair: pair, Period: period}
	cell := s[key]
	cell.Quantity += qty
	cell.EndInventory += endInventory
	s[key] = cell
}

// Quantity reads a cell's order; missing cells are zero
func (s Schedule) Quantity(pair PairKey, period int) float64 {
	return s[ScheduleKey{Pair: pair, Period: period}].Quantity
}

// EndInventory reads a cell's closing stock; missing cells are zero
func (s Schedule) EndInventory(pair PairKey, period int) float64 {
	return s[ScheduleKey{Pair: pair, Period: period}].EndInventory
}

// Lines returns the cells with an order, sorted by product, store and period.
// Profiles supply case packs, opening stock and the demand that days of cover
// are measured against; a pair without one reports single units and no stock.
func (s Schedule) Lines(profiles map[PairKey]PairProfile) []ScheduleLine {
	lines := make([]ScheduleLine, 0, len(s))
	for key, cell := range s {
		if cell.Quantity == 0 {
			continue
		}
		profile, ok := profiles[key.Pair]
		if !ok {
			profile = PairProfile{Pair: key.Pair}
		}

		start := float64(profile.InitialInventory)
		if key.Period > 0 {
			start = s.EndInventory(key.Pair, key.Period-1)
		}
		lines = append(lines, ScheduleLine{
			Product:        key.Pair.Product,
			Store:          key.Pair.Store,
			Period:         key.Period,
			Quantity:       cell.Quantity,
			CasePacks:      cell.Quantity / float64(profile.pack()),
			StartInventory: start,
			EndInventory:   cell.EndInventory,
			DaysOfCover:    profile.DaysOfCover(key.Period, cell.EndInventory),
		})
	}
	sort.Slice(lines, func(i, j int) bool {
		a, b := lines[i], lines[j]
		if a.Product != b.Product {
			return a.Product < b.Product
		}
		if a.Store != b.Store {
			return a.Store < b.Store
		}
		return a.Period < b.Period
	})
	return lines
}

// ScheduleLine is one reportable schedule cell
type ScheduleLine struct {
	Product        ProductID `json:"product"`
	Store          StoreID   `json:"store"`
	Period         int       `json:"period"`
	Quantity       float64   `json:"quantity"`
	CasePacks      float64   `json:"case_packs"`
	StartInventory float64   `json:"start_inventory"`
	EndInventory   float64   `json:"end_inventory"`
	DaysOfCover    float64   `json:"days_of_cover"`
}
