package types

import "errors"

// Store is the durable mapping from product ID to product record.
// Callers attach to a backend, load the mapping once, save the whole mapping
// after every mutation, and detach when done.
type Store interface {
	// Attach connects the Store to the backend described by config.
	// Creates the DataDir if it does not exist. Returns ErrAlreadyAttached
	// if called while already attached.
	Attach(config Config) error

	// Detach releases backend resources. Idempotent: multiple calls succeed.
	// After Detach, Load, Save and Fetch return ErrStoreDetached.
	Detach() error

	// Load returns every persisted product keyed by ID. Absent or corrupt
	// data yields an empty mapping, never an error.
	Load() (map[string]*Product, error)

	// Save replaces the persisted mapping with products in a single
	// atomic write.
	Save(products map[string]*Product) error

	// Fetch returns the persisted products matching filter, ordered by ID.
	// A zero filter returns every product.
	Fetch(filter ProductFilter) ([]*Product, error)
}

// ProductFilter narrows Store.Fetch. Zero-valued fields do not filter.
type ProductFilter struct {
	CyclicalOnly bool   // only products with a replacement schedule
	TrackedOnly  bool   // only products with track_stock set
	OutOfStock   bool   // only products whose stock is zero
	NameContains string // case-insensitive substring of the product name
}

// Store lifecycle errors.
var (
	ErrStoreDetached   = errors.New("store is detached")
	ErrAlreadyAttached = errors.New("store is already attached")
)
