// Package sqlite implements the SQLite storage backend for pantry.
// products.jsonl in the data directory is the source of truth; SQLite is a
// query cache rebuilt from it on every Attach and kept in step on every Save.
package sqlite

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// File names inside the data directory.
const (
	productsJSONL = "products.jsonl"
	databaseFile  = "pantry.db"
)

// Compile-time interface check: Backend must implement Store.
var _ types.Store = (*Backend)(nil)

// Backend implements the Store interface using SQLite as the query engine
// and a JSONL file as the source of truth.
type Backend struct {
	mu       sync.RWMutex
	attached bool
	config   types.Config
	dataDir  string
	db       *sql.DB
}

// NewBackend creates a new SQLite backend instance.
// The backend is not attached; call Attach with a Config to initialize.
func NewBackend() *Backend {
	return &Backend{}
}

// Attach initializes the backend with the given configuration.
// Creates DataDir if it does not exist, rebuilds the SQLite schema, creates
// an empty products.jsonl on first use and loads it into SQLite.
// Returns ErrAlreadyAttached if already attached.
func (b *Backend) Attach(config types.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.attached {
		return types.ErrAlreadyAttached
	}
	if err := config.Validate(); err != nil {
		return err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("creating data dir: %w", err)
	}

	// The cache is disposable; start from an empty database every time.
	dbPath := filepath.Join(dataDir, databaseFile)
	_ = os.Remove(dbPath)

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return fmt.Errorf("opening %s: %w", dbPath, err)
	}
	// A single connection keeps writers serialized inside SQLite.
	db.SetMaxOpenConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return err
	}

	jsonlPath := filepath.Join(dataDir, productsJSONL)
	if err := ensureFile(jsonlPath); err != nil {
		db.Close()
		return err
	}
	if err := loadProductsJSONL(db, jsonlPath); err != nil {
		db.Close()
		return fmt.Errorf("load JSONL: %w", err)
	}

	b.db = db
	b.config = config
	b.dataDir = dataDir
	b.attached = true
	return nil
}

// Detach releases all resources held by the backend.
// After Detach, all operations return ErrStoreDetached. Detach is idempotent.
func (b *Backend) Detach() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.attached {
		return nil
	}
	if b.db != nil {
		if err := b.db.Close(); err != nil {
			return err
		}
		b.db = nil
	}
	b.attached = false
	return nil
}

// DataDir returns the directory the backend is attached to, or "" when
// detached.
func (b *Backend) DataDir() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if !b.attached {
		return ""
	}
	return b.dataDir
}

// ensureFile creates an empty file at path if none exists.
func ensureFile(path string) error {
	f, err := os.OpenFile(path, os.O_RDONLY|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("initializing %s: %w", filepath.Base(path), err)
	}
	return f.Close()
}
