// Package repository owns the in-memory product mapping and every product
// mutation. Each successful mutation persists the full mapping through a
// types.Store and then publishes a change event.
package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/mesh-intelligence/pantry/internal/events"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Repository is the single owner of the product mapping. It is safe for
// concurrent use; one mutex serializes mutate-then-persist.
type Repository struct {
	mu       sync.Mutex
	products map[string]*types.Product
	store    types.Store
	emitter  *events.Emitter
	logger   *slog.Logger
	now      func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *Repository) { r.logger = logger }
}

// WithClock sets the time source used for "today".
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

// WithEmitter sets the change emitter. The default is a private emitter.
func WithEmitter(emitter *events.Emitter) Option {
	return func(r *Repository) { r.emitter = emitter }
}

// New creates a Repository over an attached store. Call Load before use.
func New(store types.Store, opts ...Option) *Repository {
	r := &Repository{
		products: make(map[string]*types.Product),
		store:    store,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With("component", "repository")
	if r.emitter == nil {
		r.emitter = events.NewEmitter(r.logger)
	}
	return r
}

// Subscribe registers h for change events.
func (r *Repository) Subscribe(h events.Handler) {
	r.emitter.Subscribe(h)
}

// Load replaces the in-memory mapping with the persisted one. When nothing
// is persisted and legacy is a product with an ID, legacy is imported and
// saved once. If that save fails the import stays in memory and Load
// returns an error wrapping ErrPersist, so the caller can retry later.
func (r *Repository) Load(ctx context.Context, legacy *types.Product) error {
	r.mu.Lock()
	loaded, err := r.store.Load()
	if err != nil {
		r.mu.Unlock()
		return fmt.Errorf("loading products: %w", err)
	}
	if loaded == nil {
		loaded = make(map[string]*types.Product)
	}
	r.products = loaded

	var persistErr error
	if len(loaded) == 0 && legacy != nil && legacy.ProductID != "" {
		r.logger.Info("importing legacy product", "product_id", legacy.ProductID)
		r.products[legacy.ProductID] = legacy.Clone()
		persistErr = r.persistLocked("import_legacy")
	}
	count := len(r.products)
	r.mu.Unlock()

	r.logger.Debug("products loaded", "count", count)
	r.emitter.Emit(ctx, events.NewChangeEvent(events.KindProductsLoaded, "", nil, r.now()))
	return persistErr
}

// ReplaceItem records that one unit was used as a replacement: stock drops
// by one (floored at zero) and, for a cyclical product, the last
// replacement date becomes today. It applies even when stock is zero.
func (r *Repository) ReplaceItem(ctx context.Context, productID string) error {
	today := types.FormatDate(r.now())
	return r.mutate(ctx, productID, events.KindItemReplaced, func(p *types.Product) error {
		p.RemoveStock(1)
		if p.Schedule != nil {
			p.Schedule.LastReplacement = today
		}
		return nil
	})
}

// AddStock increases stock by quantity, which must be positive.
func (r *Repository) AddStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", types.ErrInvalidQuantity, quantity)
	}
	return r.mutate(ctx, productID, events.KindStockAdded, func(p *types.Product) error {
		p.AddStock(quantity)
		return nil
	})
}

// RemoveStock decreases stock by quantity, which must be positive. Stock
// never drops below zero.
func (r *Repository) RemoveStock(ctx context.Context, productID string, quantity int) error {
	if quantity <= 0 {
		return fmt.Errorf("%w: %d", types.ErrInvalidQuantity, quantity)
	}
	return r.mutate(ctx, productID, events.KindStockRemoved, func(p *types.Product) error {
		p.RemoveStock(quantity)
		return nil
	})
}

// UpdateProduct merges the supplied fields of update into the product.
func (r *Repository) UpdateProduct(ctx context.Context, productID string, update types.ProductUpdate) error {
	today := r.now()
	return r.mutate(ctx, productID, events.KindProductUpdated, func(p *types.Product) error {
		update.Apply(p, today)
		return nil
	})
}

// AddProduct inserts product keyed by its ID, overwriting any existing
// record with the same ID.
func (r *Repository) AddProduct(ctx context.Context, product *types.Product) error {
	if product == nil || product.ProductID == "" {
		return types.ErrInvalidID
	}
	p := product.Clone()
	p.SetStock(p.StockQuantity)

	r.mu.Lock()
	r.products[p.ProductID] = p
	snapshot := p.Clone()
	persistErr := r.persistLocked(string(events.KindProductAdded))
	r.mu.Unlock()

	r.emitter.Emit(ctx, events.NewChangeEvent(events.KindProductAdded, p.ProductID, snapshot, r.now()))
	return persistErr
}

// RemoveProduct deletes the product. Removing an unknown ID does nothing.
func (r *Repository) RemoveProduct(ctx context.Context, productID string) error {
	r.mu.Lock()
	if _, ok := r.products[productID]; !ok {
		r.mu.Unlock()
		return nil
	}
	delete(r.products, productID)
	persistErr := r.persistLocked(string(events.KindProductRemoved))
	r.mu.Unlock()

	r.emitter.Emit(ctx, events.NewChangeEvent(events.KindProductRemoved, productID, nil, r.now()))
	return persistErr
}

// DaysUntilReplacement returns the signed number of days until the next
// replacement. ok is false when the product is unknown, has no schedule,
// or its stored date cannot be parsed (the last case is logged).
func (r *Repository) DaysUntilReplacement(productID string) (days int, ok bool) {
	r.mu.Lock()
	p, found := r.products[productID]
	var schedule *types.Schedule
	if found && p.Schedule != nil {
		s := *p.Schedule
		schedule = &s
	}
	r.mu.Unlock()

	if schedule == nil {
		return 0, false
	}
	days, err := schedule.DaysUntil(types.Today(r.now()))
	if err != nil {
		r.logDateError(productID, schedule, err)
		return 0, false
	}
	return days, true
}

// NextReplacementDate returns last replacement plus interval, with the
// same absence rules as DaysUntilReplacement.
func (r *Repository) NextReplacementDate(productID string) (time.Time, bool) {
	r.mu.Lock()
	p, found := r.products[productID]
	var schedule *types.Schedule
	if found && p.Schedule != nil {
		s := *p.Schedule
		schedule = &s
	}
	r.mu.Unlock()

	if schedule == nil {
		return time.Time{}, false
	}
	next, err := schedule.NextReplacement()
	if err != nil {
		r.logDateError(productID, schedule, err)
		return time.Time{}, false
	}
	return next, true
}

// Get returns a copy of the product.
func (r *Repository) Get(productID string) (*types.Product, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[productID]
	if !ok {
		return nil, false
	}
	return p.Clone(), true
}

// Exists reports whether a product with the ID is configured.
func (r *Repository) Exists(productID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.products[productID]
	return ok
}

// List returns copies of every product ordered by ID.
func (r *Repository) List() []*types.Product {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*types.Product, 0, len(r.products))
	for _, p := range r.products {
		out = append(out, p.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// Find queries the store for products matching filter. The store is in
// step with the mapping after every successful persist.
func (r *Repository) Find(filter types.ProductFilter) ([]*types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.store.Fetch(filter)
}

// mutate applies fn to an existing product, persists and publishes.
func (r *Repository) mutate(ctx context.Context, productID string, kind events.Kind, fn func(p *types.Product) error) error {
	r.mu.Lock()
	p, ok := r.products[productID]
	if !ok {
		r.mu.Unlock()
		r.logger.Error("product not found", "product_id", productID, "operation", string(kind))
		return fmt.Errorf("%w: %s", types.ErrProductNotFound, productID)
	}
	if err := fn(p); err != nil {
		r.mu.Unlock()
		return err
	}
	snapshot := p.Clone()
	persistErr := r.persistLocked(string(kind))
	r.mu.Unlock()

	r.emitter.Emit(ctx, events.NewChangeEvent(kind, productID, snapshot, r.now()))
	return persistErr
}

// persistLocked saves the whole mapping. The caller must hold r.mu. A
// failure is logged and returned wrapped with ErrPersist; the in-memory
// change stands.
func (r *Repository) persistLocked(operation string) error {
	if err := r.store.Save(r.products); err != nil {
		r.logger.Error("failed to persist products", "operation", operation, "error", err)
		return fmt.Errorf("%w: %w", types.ErrPersist, err)
	}
	return nil
}

func (r *Repository) logDateError(productID string, s *types.Schedule, err error) {
	if errors.Is(err, types.ErrNoSchedule) {
		return
	}
	r.logger.Error("invalid last replacement date",
		"product_id", productID,
		"last_replacement_date", s.LastReplacement,
		"error", err)
}
