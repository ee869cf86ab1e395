package types

import "time"

// ProductUpdate is a partial set of product fields. Nil fields are left
// untouched by Apply.
type ProductUpdate struct {
	Name                *string `json:"product_name,omitempty"`
	StockQuantity       *int    `json:"stock_quantity,omitempty"`
	TrackStock          *bool   `json:"track_stock,omitempty"`
	IsCyclical          *bool   `json:"is_cyclical,omitempty"`
	IntervalDays        *int    `json:"replacement_interval_days,omitempty"`
	LastReplacementDate *string `json:"last_replacement_date,omitempty"`
}

// IsEmpty reports whether the update carries no fields.
func (u ProductUpdate) IsEmpty() bool {
	return u.Name == nil && u.StockQuantity == nil && u.TrackStock == nil &&
		u.IsCyclical == nil && u.IntervalDays == nil && u.LastReplacementDate == nil
}

// Apply merges the supplied fields into p. No cross-field validation is
// done here. Turning is_cyclical off drops the schedule; turning it on, or
// supplying either schedule field, creates a schedule when missing, filling
// the unsupplied field with DefaultReplacementIntervalDays or today.
func (u ProductUpdate) Apply(p *Product, today time.Time) {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.StockQuantity != nil {
		p.SetStock(*u.StockQuantity)
	}
	if u.TrackStock != nil {
		p.TrackStock = *u.TrackStock
	}
	if u.IsCyclical != nil && !*u.IsCyclical {
		p.Schedule = nil
		return
	}

	wantSchedule := (u.IsCyclical != nil && *u.IsCyclical) || u.IntervalDays != nil || u.LastReplacementDate != nil
	if !wantSchedule {
		return
	}
	if p.Schedule == nil {
		p.Schedule = &Schedule{
			IntervalDays:    DefaultReplacementIntervalDays,
			LastReplacement: FormatDate(today),
		}
	}
	if u.IntervalDays != nil {
		p.Schedule.IntervalDays = *u.IntervalDays
	}
	if u.LastReplacementDate != nil {
		p.Schedule.LastReplacement = *u.LastReplacementDate
	}
}
