package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/vsinha/replenish/pkg/domain/entities"
)

// Scenario file names inside a scenario directory
const (
	ProductsFile  = "products.csv"
	StoresFile    = "stores.csv"
	DemandFile    = "demand.csv"
	CapacityFile  = "capacity.csv"  // optional
	InventoryFile = "inventory.csv" // optional
)

var (
	productsHeader  = []string{"product_id", "unit_cost", "holding_cost", "setup_cost", "case_pack", "min_order_qty"}
	storesHeader    = []string{"store_id"}
	demandHeader    = []string{"product_id", "store_id", "period", "quantity"}
	capacityHeader  = []string{"store_id", "period", "capacity"}
	inventoryHeader = []string{"product_id", "store_id", "on_hand"}
)

// DemandRow is one line of demand.csv; Period is 1-based
type DemandRow struct {
	Product  entities.ProductID
	Store    entities.StoreID
	Period   int
	Quantity entities.Quantity
}

// CapacityRow is one line of capacity.csv; Period is 1-based
type CapacityRow struct {
	Store    entities.StoreID
	Period   int
	Capacity entities.Quantity
}

// InventoryRow is one line of inventory.csv
type InventoryRow struct {
	Product entities.ProductID
	Store   entities.StoreID
	OnHand  entities.Quantity
}

// Loader handles loading replenishment scenarios from CSV files
type Loader struct{}

// NewLoader creates a new CSV loader
func NewLoader() *Loader {
	return &Loader{}
}

// LoadInstance reads a scenario directory and assembles a validated instance.
// The files are independent and are read concurrently.
func (l *Loader) LoadInstance(ctx context.Context, dir string) (*entities.Instance, error) {
	var (
		products  []entities.Product
		stores    []entities.StoreID
		demand    []DemandRow
		capacity  []CapacityRow
		inventory []InventoryRow
	)

	g, ctx := errgroup.WithContext(ctx)
	load := func(fn func() error) {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn()
		})
	}

	load(func() (err error) {
		products, err = l.LoadProducts(filepath.Join(dir, ProductsFile))
		return err
	})
	load(func() (err error) {
		stores, err = l.LoadStores(filepath.Join(dir, StoresFile))
		return err
	})
	load(func() (err error) {
		demand, err = l.LoadDemand(filepath.Join(dir, DemandFile))
		return err
	})
	load(func() (err error) {
		path := filepath.Join(dir, CapacityFile)
		if !exists(path) {
			return nil
		}
		capacity, err = l.LoadCapacity(path)
		return err
	})
	load(func() (err error) {
		path := filepath.Join(dir, InventoryFile)
		if !exists(path) {
			return nil
		}
		inventory, err = l.LoadInventory(path)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	inst, err := Assemble(products, stores, demand, capacity, inventory)
	if err != nil {
		return nil, err
	}
	if err := inst.Validate(); err != nil {
		return nil, err
	}
	return inst, nil
}

// Assemble builds an instance from parsed rows. The horizon is the largest
// demand period; every (product, store, period) must have a demand row.
func Assemble(
	products []entities.Product,
	storeIDs []entities.StoreID,
	demand []DemandRow,
	capacity []CapacityRow,
	inventory []InventoryRow,
) (*entities.Instance, error) {
	horizon := 0
	for _, row := range demand {
		horizon = max(horizon, row.Period)
	}

	inst := &entities.Instance{
		Products:         products,
		Periods:          make([]entities.Period, horizon),
		Demand:           make(map[entities.PairKey][]entities.Quantity),
		InitialInventory: make(map[entities.PairKey]entities.Quantity),
	}
	for t := range inst.Periods {
		inst.Periods[t] = entities.Period{Index: t, Label: strconv.Itoa(t + 1)}
	}

	var errs []error
	malformed := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s", entities.ErrMalformedInstance, fmt.Sprintf(format, args...)))
	}

	storeCaps := make(map[entities.StoreID][]entities.Quantity)
	capSeen := make(map[entities.StoreID][]bool)
	for _, row := range capacity {
		if storeCaps[row.Store] == nil {
			storeCaps[row.Store] = make([]entities.Quantity, horizon)
			capSeen[row.Store] = make([]bool, horizon)
		}
		if row.Period > horizon {
			malformed("capacity for store %s in period %d is beyond the horizon of %d", row.Store, row.Period, horizon)
			continue
		}
		if capSeen[row.Store][row.Period-1] {
			malformed("duplicate capacity for store %s in period %d", row.Store, row.Period)
			continue
		}
		capSeen[row.Store][row.Period-1] = true
		storeCaps[row.Store][row.Period-1] = row.Capacity
	}
	for store, seen := range capSeen {
		for t, ok := range seen {
			if !ok {
				malformed("store %s has capacity rows but none for period %d", store, t+1)
			}
		}
	}

	knownStores := make(map[entities.StoreID]bool, len(storeIDs))
	for _, id := range storeIDs {
		knownStores[id] = true
		inst.Stores = append(inst.Stores, entities.Store{ID: id, Capacity: storeCaps[id]})
	}
	for store := range storeCaps {
		if !knownStores[store] {
			malformed("capacity for unknown store %s", store)
		}
	}

	knownProducts := make(map[entities.ProductID]bool, len(products))
	for _, p := range products {
		knownProducts[p.ID] = true
	}

	demandSeen := make(map[entities.PairKey][]bool)
	for _, row := range demand {
		pair := entities.PairKey{Product: row.Product, Store: row.Store}
		if inst.Demand[pair] == nil {
			inst.Demand[pair] = make([]entities.Quantity, horizon)
			demandSeen[pair] = make([]bool, horizon)
		}
		if demandSeen[pair][row.Period-1] {
			malformed("duplicate demand for %s in period %d", pair, row.Period)
			continue
		}
		demandSeen[pair][row.Period-1] = true
		inst.Demand[pair][row.Period-1] = row.Quantity
	}
	for _, pair := range inst.Pairs() {
		seen, ok := demandSeen[pair]
		if !ok {
			continue // reported by Validate
		}
		for t, ok := range seen {
			if !ok {
				malformed("missing demand for %s in period %d", pair, t+1)
			}
		}
	}

	for _, row := range inventory {
		pair := entities.PairKey{Product: row.Product, Store: row.Store}
		if _, dup := inst.InitialInventory[pair]; dup {
			malformed("duplicate inventory for %s", pair)
			continue
		}
		if !knownProducts[row.Product] || !knownStores[row.Store] {
			malformed("inventory for unknown pair %s", pair)
			continue
		}
		inst.InitialInventory[pair] = row.OnHand
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return inst, nil
}

// LoadProducts loads products from a CSV file
func (l *Loader) LoadProducts(filename string) ([]entities.Product, error) {
	records, err := readRecords(filename, "products", productsHeader)
	if err != nil {
		return nil, err
	}

	products := make([]entities.Product, 0, len(records))
	for i, record := range records {
		product, err := parseProduct(record)
		if err != nil {
			return nil, fmt.Errorf("%w: products CSV row %d: %v", entities.ErrMalformedInstance, i+2, err)
		}
		products = append(products, *product)
	}
	return products, nil
}

// LoadStores loads store ids from a CSV file
func (l *Loader) LoadStores(filename string) ([]entities.StoreID, error) {
	records, err := readRecords(filename, "stores", storesHeader)
	if err != nil {
		return nil, err
	}

	stores := make([]entities.StoreID, 0, len(records))
	for i, record := range records {
		id := strings.TrimSpace(record[0])
		if id == "" {
			return nil, fmt.Errorf("%w: stores CSV row %d: store id cannot be empty", entities.ErrMalformedInstance, i+2)
		}
		stores = append(stores, entities.StoreID(id))
	}
	return stores, nil
}

// LoadDemand loads demand rows from a CSV file
func (l *Loader) LoadDemand(filename string) ([]DemandRow, error) {
	records, err := readRecords(filename, "demand", demandHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]DemandRow, 0, len(records))
	for i, record := range records {
		period, err := parsePeriod(record[2])
		if err != nil {
			return nil, fmt.Errorf("%w: demand CSV row %d: %v", entities.ErrMalformedInstance, i+2, err)
		}
		qty, err := parseQuantity("quantity", record[3])
		if err != nil {
			return nil, fmt.Errorf("%w: demand CSV row %d: %v", entities.ErrMalformedInstance, i+2, err)
		}
		rows = append(rows, DemandRow{
			Product:  entities.ProductID(strings.TrimSpace(record[0])),
			Store:    entities.StoreID(strings.TrimSpace(record[1])),
			Period:   period,
			Quantity: qty,
		})
	}
	return rows, nil
}

// LoadCapacity loads per-store capacity rows from a CSV file
func (l *Loader) LoadCapacity(filename string) ([]CapacityRow, error) {
	records, err := readRecords(filename, "capacity", capacityHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]CapacityRow, 0, len(records))
	for i, record := range records {
		period, err := parsePeriod(record[1])
		if err != nil {
			return nil, fmt.Errorf("%w: capacity CSV row %d: %v", entities.ErrMalformedInstance, i+2, err)
		}
		capacity, err := parseQuantity("capacity", record[2])
		if err != nil {
			return nil, fmt.Errorf("%w: capacity CSV row %d: %v", entities.ErrMalformedInstance, i+2, err)
		}
		rows = append(rows, CapacityRow{
			Store:    entities.StoreID(strings.TrimSpace(record[0])),
			Period:   period,
			Capacity: capacity,
		})
	}
	return rows, nil
}

// LoadInventory loads initial on-hand stock from a CSV file
func (l *Loader) LoadInventory(filename string) ([]InventoryRow, error) {
	records, err := readRecords(filename, "inventory", inventoryHeader)
	if err != nil {
		return nil, err
	}

	rows := make([]InventoryRow, 0, len(records))
	for i, record := range records {
		onHand, err := parseQuantity("on_hand", record[2])
		if err != nil {
			return nil, fmt.Errorf("%w: inventory CSV row %d: %v", entities.ErrMalformedInstance, i+2, err)
		}
		rows = append(rows, InventoryRow{
			Product: entities.ProductID(strings.TrimSpace(record[0])),
			Store:   entities.StoreID(strings.TrimSpace(record[1])),
			OnHand:  onHand,
		})
	}
	return rows, nil
}

// readRecords opens a CSV file, checks its header and returns the data rows
func readRecords(filename, name string, expectedHeader []string) ([][]string, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s file %s: %w", name, filename, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read %s CSV: %w", name, err)
	}

	if len(records) < 2 {
		return nil, fmt.Errorf("%w: %s CSV must have header and at least one data row", entities.ErrMalformedInstance, name)
	}

	header := records[0]
	if !validateHeader(header, expectedHeader) {
		return nil, fmt.Errorf("%w: %s CSV header mismatch. Expected: %v, Got: %v", entities.ErrMalformedInstance, name, expectedHeader, header)
	}

	for i, record := range records[1:] {
		if len(record) != len(expectedHeader) {
			return nil, fmt.Errorf("%w: %s CSV row %d: expected %d columns, got %d", entities.ErrMalformedInstance, name, i+2, len(expectedHeader), len(record))
		}
	}
	return records[1:], nil
}

func validateHeader(actual, expected []string) bool {
	if len(actual) != len(expected) {
		return false
	}

	for i, col := range expected {
		// encoding/csv keeps a UTF-8 byte order mark on the first field
		if strings.ToLower(strings.TrimSpace(strings.TrimPrefix(actual[i], "\ufeff"))) != col {
			return false
		}
	}

	return true
}

func parseProduct(record []string) (*entities.Product, error) {
	id := entities.ProductID(strings.TrimSpace(record[0]))

	costs := make([]decimal.Decimal, 3)
	for k, name := range []string{"unit_cost", "holding_cost", "setup_cost"} {
		raw := strings.TrimSpace(record[1+k])
		if raw == "" {
			costs[k] = decimal.Zero
			continue
		}
		v, err := decimal.NewFromString(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %s", name, raw)
		}
		costs[k] = v
	}

	casePack, err := parseOptionalQuantity("case_pack", record[4])
	if err != nil {
		return nil, err
	}
	moq, err := parseOptionalQuantity("min_order_qty", record[5])
	if err != nil {
		return nil, err
	}

	return entities.NewProduct(id, costs[0], costs[1], costs[2], casePack, moq)
}

func parsePeriod(raw string) (int, error) {
	period, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || period < 1 {
		return 0, fmt.Errorf("invalid period: %s (expected a positive integer)", raw)
	}
	return period, nil
}

func parseQuantity(name, raw string) (entities.Quantity, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %s", name, raw)
	}
	if v < 0 {
		return 0, fmt.Errorf("%s cannot be negative, got %d", name, v)
	}
	return entities.Quantity(v), nil
}

func parseOptionalQuantity(name, raw string) (entities.Quantity, error) {
	if strings.TrimSpace(raw) == "" {
		return 0, nil
	}
	return parseQuantity(name, raw)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return !errors.Is(err, fs.ErrNotExist)
}
