package sqlite

import (
	"database/sql"
	"fmt"
)

// Schema DDL for the products cache.
const (
	createProducts = `CREATE TABLE products (
    product_id TEXT PRIMARY KEY,
    product_name TEXT NOT NULL,
    stock_quantity INTEGER NOT NULL CHECK (stock_quantity >= 0),
    track_stock INTEGER NOT NULL,
    is_cyclical INTEGER NOT NULL,
    replacement_interval_days INTEGER,
    last_replacement_date TEXT
);`

	idxProductsCyclical = `CREATE INDEX idx_products_cyclical ON products(is_cyclical);`
	idxProductsStock    = `CREATE INDEX idx_products_stock ON products(stock_quantity);`
)

// productColumns is the column list shared by every products query, in the
// order scanProduct expects.
const productColumns = "product_id, product_name, stock_quantity, track_stock, is_cyclical, replacement_interval_days, last_replacement_date"

var schemaDDL = []string{
	createProducts,
	idxProductsCyclical,
	idxProductsStock,
}

// createSchema executes every DDL statement in order.
func createSchema(db *sql.DB) error {
	for _, stmt := range schemaDDL {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}
