// Package service exposes the repository verbs as named operations that
// take JSON payloads, for callers outside the process such as scripts and
// automations. Payloads are validated before they reach the repository.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mesh-intelligence/pantry/internal/repository"
	"github.com/mesh-intelligence/pantry/internal/validate"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Service names.
const (
	ReplaceItem   = "replace_item"
	AddStock      = "add_stock"
	RemoveStock   = "remove_stock"
	UpdateProduct = "update_product"
)

// Registry errors.
var (
	ErrUnknownService = errors.New("unknown service")
	ErrInvalidPayload = errors.New("invalid payload")
)

// ReplaceItemRequest is the replace_item payload.
type ReplaceItemRequest struct {
	ProductID string `json:"product_id" validate:"required"`
}

// StockRequest is the add_stock and remove_stock payload.
type StockRequest struct {
	ProductID string `json:"product_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"gt=0"`
}

// UpdateProductRequest is the update_product payload.
type UpdateProductRequest struct {
	ProductID           string  `json:"product_id" validate:"required"`
	Name                *string `json:"product_name,omitempty" validate:"omitempty,min=1"`
	StockQuantity       *int    `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	IntervalDays        *int    `json:"replacement_interval_days,omitempty" validate:"omitempty,gt=0"`
	LastReplacementDate *string `json:"last_replacement_date,omitempty" validate:"omitempty,isodate"`
}

// Handler runs one service with a raw JSON payload.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Registry maps service names to handlers bound to a repository.
type Registry struct {
	repo     *repository.Repository
	logger   *slog.Logger
	handlers map[string]Handler
}

// NewRegistry creates a Registry with every pantry service registered.
func NewRegistry(repo *repository.Repository, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Registry{
		repo:     repo,
		logger:   logger.With("component", "services"),
		handlers: make(map[string]Handler),
	}
	r.handlers[ReplaceItem] = r.replaceItem
	r.handlers[AddStock] = r.addStock
	r.handlers[RemoveStock] = r.removeStock
	r.handlers[UpdateProduct] = r.updateProduct
	return r
}

// Names returns the registered service names in order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.handlers))
	for name := range r.handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Call runs the named service. An unknown product is logged and is not an
// error for the caller; invalid payloads and persist failures are.
func (r *Registry) Call(ctx context.Context, name string, payload json.RawMessage) error {
	h, ok := r.handlers[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownService, name)
	}
	r.logger.Debug("service called", "service", name)
	err := h(ctx, payload)
	if errors.Is(err, types.ErrProductNotFound) {
		return nil
	}
	return err
}

func (r *Registry) replaceItem(ctx context.Context, payload json.RawMessage) error {
	var req ReplaceItemRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.repo.ReplaceItem(ctx, req.ProductID)
}

func (r *Registry) addStock(ctx context.Context, payload json.RawMessage) error {
	var req StockRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.repo.AddStock(ctx, req.ProductID, req.Quantity)
}

func (r *Registry) removeStock(ctx context.Context, payload json.RawMessage) error {
	var req StockRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	return r.repo.RemoveStock(ctx, req.ProductID, req.Quantity)
}

func (r *Registry) updateProduct(ctx context.Context, payload json.RawMessage) error {
	var req UpdateProductRequest
	if err := decode(payload, &req); err != nil {
		return err
	}
	update := types.ProductUpdate{
		Name:          req.Name,
		StockQuantity: req.StockQuantity,
		IntervalDays:  req.IntervalDays,
	}
	if req.LastReplacementDate != nil {
		formatted, err := normalizeDate(*req.LastReplacementDate)
		if err != nil {
			return err
		}
		update.LastReplacementDate = &formatted
	}
	return r.repo.UpdateProduct(ctx, req.ProductID, update)
}

// normalizeDate parses a payload date and returns it in canonical form.
func normalizeDate(s string) (string, error) {
	d, err := types.ParseDate(s)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return types.FormatDate(d), nil
}

// decode strictly unmarshals payload into v and validates it.
func decode(payload json.RawMessage, v any) error {
	dec := json.NewDecoder(bytes.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	if err := validate.Struct(v); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPayload, err)
	}
	return nil
}
