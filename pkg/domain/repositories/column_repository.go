package repositories

import "github.com/vsinha/replenish/pkg/domain/entities"

// ColumnRepository is the append-only pool of generated patterns
type ColumnRepository interface {
	// Add inserts a column unless the same pattern already exists for its pair.
	// It reports whether the column was inserted.
	Add(column *entities.Column) (bool, error)
	// ColumnsFor returns a pair's columns in insertion order.
	ColumnsFor(pair entities.PairKey) ([]*entities.Column, error)
	// All returns every column, grouped by pair in registration order.
	All() []*entities.Column
	// Pairs returns the registered pairs in registration order.
	Pairs() []entities.PairKey
	// Unseeded returns the pairs that still have no column.
	Unseeded() []entities.PairKey
	// Len returns the total number of columns.
	Len() int
}
