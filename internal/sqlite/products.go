package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

const upsertProductSQL = `INSERT INTO products (` + productColumns + `)
	VALUES (?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(product_id) DO UPDATE SET
		product_name = excluded.product_name,
		stock_quantity = excluded.stock_quantity,
		track_stock = excluded.track_stock,
		is_cyclical = excluded.is_cyclical,
		replacement_interval_days = excluded.replacement_interval_days,
		last_replacement_date = excluded.last_replacement_date`

// Load returns every cached product keyed by ID. The cache mirrors
// products.jsonl, so absent or corrupt data loads as an empty mapping.
func (b *Backend) Load() (map[string]*types.Product, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	products, err := b.queryProducts("SELECT "+productColumns+" FROM products", nil)
	if err != nil {
		return nil, err
	}
	result := make(map[string]*types.Product, len(products))
	for _, p := range products {
		result[p.ProductID] = p
	}
	return result, nil
}

// Save replaces the whole mapping. The products table is rewritten in one
// transaction and products.jsonl is then regenerated from it atomically.
// If the JSONL write fails the cache is ahead of the file until the next
// successful Save; the next Attach reloads from the file.
func (b *Backend) Save(products map[string]*types.Product) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return types.ErrStoreDetached
	}

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning save transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM products"); err != nil {
		return fmt.Errorf("clearing products: %w", err)
	}
	stmt, err := tx.Prepare(upsertProductSQL)
	if err != nil {
		return fmt.Errorf("preparing product insert: %w", err)
	}
	defer stmt.Close()

	for _, id := range sortedIDs(products) {
		p := products[id]
		if p == nil {
			continue
		}
		if id != p.ProductID {
			return fmt.Errorf("%w: key %q holds product %q", types.ErrInvalidID, id, p.ProductID)
		}
		if _, err := stmt.Exec(productArgs(p)...); err != nil {
			return fmt.Errorf("saving product %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing products: %w", err)
	}

	return b.persistProductsJSONL()
}

// Fetch returns cached products matching filter, ordered by ID.
func (b *Backend) Fetch(filter types.ProductFilter) ([]*types.Product, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if !b.attached {
		return nil, types.ErrStoreDetached
	}

	var (
		where []string
		args  []any
	)
	if filter.CyclicalOnly {
		where = append(where, "is_cyclical = 1")
	}
	if filter.TrackedOnly {
		where = append(where, "track_stock = 1")
	}
	if filter.OutOfStock {
		where = append(where, "stock_quantity = 0")
	}
	if filter.NameContains != "" {
		where = append(where, "instr(lower(product_name), lower(?)) > 0")
		args = append(args, filter.NameContains)
	}

	query := "SELECT " + productColumns + " FROM products"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY product_id"

	return b.queryProducts(query, args)
}

// persistProductsJSONL regenerates products.jsonl from the products table.
// The caller must hold b.mu.
func (b *Backend) persistProductsJSONL() error {
	products, err := b.queryProducts("SELECT "+productColumns+" FROM products ORDER BY product_id", nil)
	if err != nil {
		return fmt.Errorf("reading products for JSONL: %w", err)
	}

	records := make([]json.RawMessage, 0, len(products))
	for _, p := range products {
		rec, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("encoding product %s: %w", p.ProductID, err)
		}
		records = append(records, rec)
	}
	if err := writeJSONLAtomic(filepath.Join(b.dataDir, productsJSONL), records); err != nil {
		return fmt.Errorf("persisting %s: %w", productsJSONL, err)
	}
	return nil
}

// queryProducts runs a products query and hydrates every row.
// The caller must hold b.mu.
func (b *Backend) queryProducts(query string, args []any) ([]*types.Product, error) {
	rows, err := b.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying products: %w", err)
	}
	defer rows.Close()

	var products []*types.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating products: %w", err)
	}
	return products, nil
}

// scanProduct hydrates one products row in productColumns order.
func scanProduct(rows *sql.Rows) (*types.Product, error) {
	var (
		p          types.Product
		trackStock bool
		cyclical   bool
		interval   sql.NullInt64
		lastDate   sql.NullString
	)
	if err := rows.Scan(&p.ProductID, &p.Name, &p.StockQuantity, &trackStock, &cyclical, &interval, &lastDate); err != nil {
		return nil, fmt.Errorf("scanning product: %w", err)
	}
	p.TrackStock = trackStock
	if cyclical {
		p.Schedule = &types.Schedule{
			IntervalDays:    int(interval.Int64),
			LastReplacement: lastDate.String,
		}
	}
	return &p, nil
}

// productArgs dehydrates a product into upsertProductSQL arguments.
func productArgs(p *types.Product) []any {
	var (
		interval any
		lastDate any
	)
	if p.Schedule != nil {
		interval = p.Schedule.IntervalDays
		lastDate = p.Schedule.LastReplacement
	}
	return []any{
		p.ProductID,
		p.Name,
		max(0, p.StockQuantity),
		p.TrackStock,
		p.Schedule != nil,
		interval,
		lastDate,
	}
}

// sortedIDs returns the keys of products in ascending order.
func sortedIDs(products map[string]*types.Product) []string {
	ids := make([]string, 0, len(products))
	for id := range products {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
