// Package setup implements the product creation and edit wizard.
// Input mirrors the form a user fills in; Build turns it into a product
// record with the documented defaults.
package setup

import (
	"context"
	"fmt"
	"time"

	"github.com/mesh-intelligence/pantry/internal/repository"
	"github.com/mesh-intelligence/pantry/internal/validate"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Input is the wizard form. Unset pointer fields take their defaults.
type Input struct {
	Name                string `json:"product_name" validate:"required"`
	TrackStock          bool   `json:"track_stock"`
	IsCyclical          bool   `json:"is_cyclical"`
	StockQuantity       *int   `json:"stock_quantity,omitempty" validate:"omitempty,gte=0"`
	IntervalDays        *int   `json:"replacement_interval_days,omitempty" validate:"omitempty,gt=0"`
	LastReplacementDate string `json:"last_replacement_date,omitempty" validate:"omitempty,isodate"`
}

// Build validates in and returns the product it describes.
// A product with neither flag set is stored with the default stock.
func Build(in Input, today time.Time) (*types.Product, error) {
	if err := validate.Struct(in); err != nil {
		return nil, err
	}
	id := types.ProductIDFromName(in.Name)
	if id == "" {
		return nil, fmt.Errorf("%w: %q", types.ErrInvalidName, in.Name)
	}

	p := &types.Product{
		ProductID:     id,
		Name:          in.Name,
		StockQuantity: types.DefaultStockQuantity,
		TrackStock:    in.TrackStock,
	}
	if !in.TrackStock && !in.IsCyclical {
		return p, nil
	}
	if in.StockQuantity != nil {
		p.StockQuantity = *in.StockQuantity
	}
	if in.IsCyclical {
		s, err := buildSchedule(in, nil, today)
		if err != nil {
			return nil, err
		}
		p.Schedule = s
	}
	return p, nil
}

// buildSchedule resolves the schedule fields of in, falling back to
// current and then to the defaults.
func buildSchedule(in Input, current *types.Schedule, today time.Time) (*types.Schedule, error) {
	s := &types.Schedule{
		IntervalDays:    types.DefaultReplacementIntervalDays,
		LastReplacement: types.FormatDate(today),
	}
	if current != nil {
		if current.IntervalDays > 0 {
			s.IntervalDays = current.IntervalDays
		}
		if current.LastReplacement != "" {
			s.LastReplacement = current.LastReplacement
		}
	}
	if in.IntervalDays != nil {
		s.IntervalDays = *in.IntervalDays
	}
	if in.LastReplacementDate != "" {
		d, err := types.ParseDate(in.LastReplacementDate)
		if err != nil {
			return nil, &validate.Error{Fields: map[string]string{"last_replacement_date": validate.KeyInvalidDate}}
		}
		s.LastReplacement = types.FormatDate(d)
	}
	return s, nil
}

// Wizard creates and edits products through a Repository.
type Wizard struct {
	repo *repository.Repository
	now  func() time.Time
}

// New creates a Wizard. A nil now uses time.Now.
func New(repo *repository.Repository, now func() time.Time) *Wizard {
	if now == nil {
		now = time.Now
	}
	return &Wizard{repo: repo, now: now}
}

// Create builds a product from in and adds it. Returns
// ErrAlreadyConfigured if a product with the same ID exists. A persist
// failure is returned alongside the created product.
func (w *Wizard) Create(ctx context.Context, in Input) (*types.Product, error) {
	p, err := Build(in, w.now())
	if err != nil {
		return nil, err
	}
	if w.repo.Exists(p.ProductID) {
		return nil, fmt.Errorf("%w: %s", types.ErrAlreadyConfigured, p.ProductID)
	}
	if err := w.repo.AddProduct(ctx, p); err != nil {
		return p, err
	}
	return p, nil
}

// Edit applies the form to an existing product. Unset fields keep the
// product's current values. Clearing both flags resets stock to the
// default and drops the schedule.
func (w *Wizard) Edit(ctx context.Context, productID string, in Input) error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	current, ok := w.repo.Get(productID)
	if !ok {
		return fmt.Errorf("%w: %s", types.ErrProductNotFound, productID)
	}

	stock := types.DefaultStockQuantity
	switch {
	case in.StockQuantity != nil && (in.TrackStock || in.IsCyclical):
		stock = *in.StockQuantity
	case in.TrackStock:
		stock = current.StockQuantity
	}

	update := types.ProductUpdate{
		Name:          &in.Name,
		StockQuantity: &stock,
		TrackStock:    &in.TrackStock,
		IsCyclical:    &in.IsCyclical,
	}
	if in.IsCyclical {
		s, err := buildSchedule(in, current.Schedule, w.now())
		if err != nil {
			return err
		}
		update.IntervalDays = &s.IntervalDays
		update.LastReplacementDate = &s.LastReplacement
	}
	return w.repo.UpdateProduct(ctx, productID, update)
}
