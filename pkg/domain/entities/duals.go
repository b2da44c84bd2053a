package entities

// PairDuals are the row prices of the master problem restricted to one pair
type PairDuals struct {
	Coverage  []float64 // one per period, >= 0
	Capacity  []float64 // one per period, <= 0; nil when the store is uncapacitated
	Convexity float64
}

// Credit is the dual value earned by ordering q and covering x in period t
func (d PairDuals) Credit(t int, q, x Quantity) float64 {
	credit := d.Coverage[t] * float64(x)
	if d.Capacity != nil {
		credit += d.Capacity[t] * float64(q)
	}
	return credit
}
