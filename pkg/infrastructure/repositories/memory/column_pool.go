package memory

import (
	"fmt"
	"sync"

	"github.com/vsinha/replenish/pkg/domain/entities"
	"github.com/vsinha/replenish/pkg/domain/repositories"
)

// ColumnPool provides in-memory column storage partitioned by pair.
// The partition map is fixed at construction; each partition has its own lock,
// so concurrent inserts for different pairs never contend.
type ColumnPool struct {
	order      []entities.PairKey
	partitions map[entities.PairKey]*partition
}

type partition struct {
	mu      sync.RWMutex
	columns []*entities.Column
	byKey   map[uint64][]int // content hash -> indexes into columns
}

// NewColumnPool creates a pool with one empty partition per pair
func NewColumnPool(pairs []entities.PairKey) *ColumnPool {
	pool := &ColumnPool{
		order:      make([]entities.PairKey, 0, len(pairs)),
		partitions: make(map[entities.PairKey]*partition, len(pairs)),
	}
	for _, pair := range pairs {
		if _, exists := pool.partitions[pair]; exists {
			continue
		}
		pool.order = append(pool.order, pair)
		pool.partitions[pair] = &partition{byKey: make(map[uint64][]int)}
	}
	return pool
}

// Verify interface compliance
var _ repositories.ColumnRepository = (*ColumnPool)(nil)

// Add inserts a column unless an identical pattern is already present
func (p *ColumnPool) Add(column *entities.Column) (bool, error) {
	if column == nil {
		return false, fmt.Errorf("column cannot be nil")
	}
	part, ok := p.partitions[column.Pair]
	if !ok {
		return false, fmt.Errorf("pair not registered: %s", column.Pair)
	}

	part.mu.Lock()
	defer part.mu.Unlock()

	key := column.Key()
	for _, idx := range part.byKey[key] {
		if part.columns[idx].SamePattern(column) {
			return false, nil
		}
	}
	part.byKey[key] = append(part.byKey[key], len(part.columns))
	part.columns = append(part.columns, column)
	return true, nil
}

// ColumnsFor returns a snapshot of the pair's columns in insertion order
func (p *ColumnPool) ColumnsFor(pair entities.PairKey) ([]*entities.Column, error) {
	part, ok := p.partitions[pair]
	if !ok {
		return nil, fmt.Errorf("pair not registered: %s", pair)
	}

	part.mu.RLock()
	defer part.mu.RUnlock()

	columns := make([]*entities.Column, len(part.columns))
	copy(columns, part.columns)
	return columns, nil
}

// All returns every column, pair by pair
func (p *ColumnPool) All() []*entities.Column {
	var all []*entities.Column
	for _, pair := range p.order {
		part := p.partitions[pair]
		part.mu.RLock()
		all = append(all, part.columns...)
		part.mu.RUnlock()
	}
	return all
}

// Pairs returns the registered pairs
func (p *ColumnPool) Pairs() []entities.PairKey {
	pairs := make([]entities.PairKey, len(p.order))
	copy(pairs, p.order)
	return pairs
}

// Unseeded returns the pairs without any column
func (p *ColumnPool) Unseeded() []entities.PairKey {
	var missing []entities.PairKey
	for _, pair := range p.order {
		part := p.partitions[pair]
		part.mu.RLock()
		empty := len(part.columns) == 0
		part.mu.RUnlock()
		if empty {
			missing = append(missing, pair)
		}
	}
	return missing
}

// Len returns the number of columns across all pairs
func (p *ColumnPool) Len() int {
	total := 0
	for _, part := range p.partitions {
		part.mu.RLock()
		total += len(part.columns)
		part.mu.RUnlock()
	}
	return total
}
