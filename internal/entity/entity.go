// Package entity adapts products into presentation entities: read-only
// sensors, a settable stock number and a replace button. Entities read
// through the repository on every call and never cache product data.
package entity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/mesh-intelligence/pantry/internal/repository"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Icons.
const (
	IconPackage  = types.DefaultIcon
	IconCalendar = "mdi:calendar-clock"
	IconReplace  = "mdi:refresh"
)

// Stock number bounds.
const (
	StockMin = 0
	StockMax = 999
)

// UnitDays is the unit of the days-until-replacement sensor.
const UnitDays = "d"

// Entity errors.
var (
	ErrOutOfRange = errors.New("value out of range")
	ErrOutOfStock = errors.New("product is out of stock")
)

// State is an entity's current presentation.
type State struct {
	UniqueID   string         `json:"unique_id"`
	Name       string         `json:"name"`
	Icon       string         `json:"icon"`
	Value      *int           `json:"value"`
	Unit       string         `json:"unit,omitempty"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Entity is anything that can report a State.
type Entity interface {
	ProductID() string
	State() State
}

type base struct {
	repo      *repository.Repository
	productID string
}

func (b base) ProductID() string { return b.productID }

// product returns the current record, or a stub carrying only the ID
// when the product has gone.
func (b base) product() *types.Product {
	if p, ok := b.repo.Get(b.productID); ok {
		return p
	}
	return &types.Product{ProductID: b.productID, Name: b.productID}
}

func scheduleAttrs(p *types.Product) (interval, last any) {
	if p.Schedule == nil {
		return nil, nil
	}
	return p.Schedule.IntervalDays, p.Schedule.LastReplacement
}

// StockSensor reports the stock quantity.
type StockSensor struct{ base }

// NewStockSensor creates a StockSensor for productID.
func NewStockSensor(repo *repository.Repository, productID string) *StockSensor {
	return &StockSensor{base{repo: repo, productID: productID}}
}

// State implements Entity.
func (s *StockSensor) State() State {
	p := s.product()
	interval, last := scheduleAttrs(p)
	stock := p.StockQuantity
	return State{
		UniqueID: p.ProductID + "_stock",
		Name:     p.Name + " Stock",
		Icon:     IconPackage,
		Value:    &stock,
		Attributes: map[string]any{
			"product_id":                p.ProductID,
			"product_name":              p.Name,
			"replacement_interval_days": interval,
			"last_replacement_date":     last,
			"out_of_stock":              stock <= 0,
		},
	}
}

// DaysUntilReplacementSensor reports the signed days until the next
// replacement. Its value is nil when the repository reports none.
type DaysUntilReplacementSensor struct{ base }

// NewDaysUntilReplacementSensor creates the sensor for productID.
func NewDaysUntilReplacementSensor(repo *repository.Repository, productID string) *DaysUntilReplacementSensor {
	return &DaysUntilReplacementSensor{base{repo: repo, productID: productID}}
}

// State implements Entity.
func (s *DaysUntilReplacementSensor) State() State {
	p := s.product()
	interval, last := scheduleAttrs(p)
	st := State{
		UniqueID: p.ProductID + "_days_until_replacement",
		Name:     p.Name + " Days Until Replacement",
		Icon:     IconCalendar,
		Unit:     UnitDays,
		Attributes: map[string]any{
			"product_id":                p.ProductID,
			"last_replacement_date":     last,
			"replacement_interval_days": interval,
		},
	}
	if days, ok := s.repo.DaysUntilReplacement(s.productID); ok {
		st.Value = &days
	}
	if next, ok := s.repo.NextReplacementDate(s.productID); ok {
		st.Attributes["next_replacement_date"] = types.FormatDate(next)
	}
	return st
}

// StockNumber is the settable stock quantity.
type StockNumber struct {
	base
	logger *slog.Logger
}

// NewStockNumber creates a StockNumber for productID.
func NewStockNumber(repo *repository.Repository, productID string, logger *slog.Logger) *StockNumber {
	return &StockNumber{base: base{repo: repo, productID: productID}, logger: logger}
}

// State implements Entity.
func (n *StockNumber) State() State {
	p := n.product()
	stock := p.StockQuantity
	return State{
		UniqueID: p.ProductID + "_stock_number",
		Name:     p.Name + " Stock Quantity",
		Icon:     IconPackage,
		Value:    &stock,
		Attributes: map[string]any{
			"min":  StockMin,
			"max":  StockMax,
			"step": 1,
		},
	}
}

// SetValue sets the stock. value must be a whole number within
// StockMin..StockMax.
func (n *StockNumber) SetValue(ctx context.Context, value float64) error {
	if value < StockMin || value > StockMax || value != math.Trunc(value) {
		return fmt.Errorf("%w: %v not in %d..%d", ErrOutOfRange, value, StockMin, StockMax)
	}
	stock := int(value)
	n.logger.Info("setting stock", "product_id", n.productID, "stock_quantity", stock)
	return n.repo.UpdateProduct(ctx, n.productID, types.ProductUpdate{StockQuantity: &stock})
}

// ReplaceButton performs replace_item when pressed.
type ReplaceButton struct {
	base
	logger *slog.Logger
}

// NewReplaceButton creates a ReplaceButton for productID.
func NewReplaceButton(repo *repository.Repository, productID string, logger *slog.Logger) *ReplaceButton {
	return &ReplaceButton{base: base{repo: repo, productID: productID}, logger: logger}
}

// State implements Entity. A button has no value.
func (b *ReplaceButton) State() State {
	p := b.product()
	return State{
		UniqueID: p.ProductID + "_replace_button",
		Name:     p.Name + " Replace Item",
		Icon:     IconReplace,
	}
}

// Press replaces one item. With no stock on hand it refuses with
// ErrOutOfStock and changes nothing.
func (b *ReplaceButton) Press(ctx context.Context) error {
	p, ok := b.repo.Get(b.productID)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrProductNotFound, b.productID)
	}
	if p.StockQuantity <= 0 {
		b.logger.Warn("cannot replace item, out of stock", "product_id", b.productID)
		return fmt.Errorf("%w: %s", ErrOutOfStock, b.productID)
	}
	if err := b.repo.ReplaceItem(ctx, b.productID); err != nil {
		return err
	}
	b.logger.Info("replaced item", "product_id", b.productID, "stock_quantity", p.StockQuantity-1)
	return nil
}

// ForProduct returns the entities of one product: a stock sensor, a days
// sensor for cyclical products, the stock number and the replace button.
func ForProduct(repo *repository.Repository, p *types.Product, logger *slog.Logger) []Entity {
	out := []Entity{NewStockSensor(repo, p.ProductID)}
	if p.IsCyclical() {
		out = append(out, NewDaysUntilReplacementSensor(repo, p.ProductID))
	}
	return append(out,
		NewStockNumber(repo, p.ProductID, logger),
		NewReplaceButton(repo, p.ProductID, logger))
}
