package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// loadProductsJSONL reads products.jsonl and inserts every decodable record
// into the products table. Loading is transactional: all succeed or the
// cache stays empty. Malformed lines, records without a product_id, and
// unknown fields are skipped; a later line for the same ID replaces an
// earlier one.
func loadProductsJSONL(db *sql.DB, path string) error {
	records, err := readJSONL(path)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(upsertProductSQL)
	if err != nil {
		return fmt.Errorf("preparing product insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var p types.Product
		if err := json.Unmarshal(rec, &p); err != nil {
			continue
		}
		if p.ProductID == "" {
			continue
		}
		if _, err := stmt.Exec(productArgs(&p)...); err != nil {
			continue
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}
