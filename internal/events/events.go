// Package events delivers product change notifications to observers.
// Presentation layers subscribe once and react to every successful
// repository mutation without polling.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Kind identifies what changed.
type Kind string

// Change kinds published by the repository.
const (
	KindProductAdded   Kind = "product_added"
	KindProductUpdated Kind = "product_updated"
	KindProductRemoved Kind = "product_removed"
	KindStockAdded     Kind = "stock_added"
	KindStockRemoved   Kind = "stock_removed"
	KindItemReplaced   Kind = "item_replaced"
	KindProductsLoaded Kind = "products_loaded"
)

// ChangeEvent describes one successful mutation.
type ChangeEvent struct {
	ID        uuid.UUID      `json:"id"`
	Kind      Kind           `json:"kind"`
	ProductID string         `json:"product_id,omitempty"`
	Product   *types.Product `json:"product,omitempty"` // snapshot after the change; nil for removals and loads
	At        time.Time      `json:"at"`
}

// NewChangeEvent builds an event with a fresh time-ordered ID.
// product is cloned so handlers never share the repository's record.
func NewChangeEvent(kind Kind, productID string, product *types.Product, at time.Time) ChangeEvent {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ChangeEvent{
		ID:        id,
		Kind:      kind,
		ProductID: productID,
		Product:   product.Clone(),
		At:        at,
	}
}

// Handler reacts to change events.
type Handler interface {
	HandleChange(ctx context.Context, event ChangeEvent) error
}

// HandlerFunc adapts an ordinary function to a Handler.
type HandlerFunc func(ctx context.Context, event ChangeEvent) error

// HandleChange calls f(ctx, event).
func (f HandlerFunc) HandleChange(ctx context.Context, event ChangeEvent) error {
	return f(ctx, event)
}
