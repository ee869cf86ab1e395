package types

import (
	"encoding/json"
	"math"
)

// Defaults applied by the creation wizard and by partial schedule updates.
const (
	DefaultStockQuantity           = 1
	DefaultReplacementIntervalDays = 30
	DefaultIcon                    = "mdi:package-variant"
)

// Product is a tracked consumable household product.
// A product with a non-nil Schedule is cyclical: both the interval and the
// last replacement date travel together, so a cyclical product cannot carry
// one without the other.
type Product struct {
	ProductID     string    // Slug derived from the name at creation; immutable.
	Name          string    // Display name.
	StockQuantity int       // Units on hand; never negative.
	TrackStock    bool      // Whether stock presentation is shown.
	Schedule      *Schedule // Replacement schedule; nil when not cyclical.
}

// Schedule is the recurring replacement schedule of a cyclical product.
type Schedule struct {
	IntervalDays    int    // Days between replacements.
	LastReplacement string // Calendar date in DateLayout.
}

// IsCyclical reports whether the product tracks a replacement schedule.
func (p *Product) IsCyclical() bool {
	return p.Schedule != nil
}

// Clone returns a deep copy of the product.
func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	cp := *p
	if p.Schedule != nil {
		s := *p.Schedule
		cp.Schedule = &s
	}
	return &cp
}

// AddStock increases the stock by quantity, saturating at math.MaxInt.
func (p *Product) AddStock(quantity int) {
	if quantity > math.MaxInt-p.StockQuantity {
		p.StockQuantity = math.MaxInt
		return
	}
	p.StockQuantity += quantity
}

// RemoveStock decreases the stock by quantity, clamping at zero.
func (p *Product) RemoveStock(quantity int) {
	p.StockQuantity = max(0, p.StockQuantity-quantity)
}

// SetStock sets the stock, clamping negative values to zero.
func (p *Product) SetStock(quantity int) {
	p.StockQuantity = max(0, quantity)
}

// productJSON is the persisted record format. Field names are stable; the
// schedule is flattened into optional fields.
type productJSON struct {
	ProductID               string  `json:"product_id"`
	ProductName             string  `json:"product_name"`
	StockQuantity           int     `json:"stock_quantity"`
	TrackStock              bool    `json:"track_stock"`
	IsCyclical              *bool   `json:"is_cyclical,omitempty"`
	ReplacementIntervalDays *int    `json:"replacement_interval_days,omitempty"`
	LastReplacementDate     *string `json:"last_replacement_date,omitempty"`
}

// MarshalJSON writes the product in the flat persisted record format.
func (p Product) MarshalJSON() ([]byte, error) {
	cyclical := p.Schedule != nil
	rec := productJSON{
		ProductID:     p.ProductID,
		ProductName:   p.Name,
		StockQuantity: p.StockQuantity,
		TrackStock:    p.TrackStock,
		IsCyclical:    &cyclical,
	}
	if p.Schedule != nil {
		interval := p.Schedule.IntervalDays
		last := p.Schedule.LastReplacement
		rec.ReplacementIntervalDays = &interval
		rec.LastReplacementDate = &last
	}
	return json.Marshal(rec)
}

// UnmarshalJSON reads the flat record format. Records written before the
// is_cyclical flag existed are cyclical when they carry either schedule
// field. Negative stock is clamped to zero.
func (p *Product) UnmarshalJSON(data []byte) error {
	var rec productJSON
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*p = Product{
		ProductID:     rec.ProductID,
		Name:          rec.ProductName,
		StockQuantity: max(0, rec.StockQuantity),
		TrackStock:    rec.TrackStock,
	}
	cyclical := rec.ReplacementIntervalDays != nil || rec.LastReplacementDate != nil
	if rec.IsCyclical != nil {
		cyclical = *rec.IsCyclical
	}
	if cyclical {
		s := &Schedule{}
		if rec.ReplacementIntervalDays != nil {
			s.IntervalDays = *rec.ReplacementIntervalDays
		}
		if rec.LastReplacementDate != nil {
			s.LastReplacement = *rec.LastReplacementDate
		}
		p.Schedule = s
	}
	return nil
}
