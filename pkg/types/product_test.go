package types

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intPtr(v int) *int       { return &v }
func strPtr(v string) *string { return &v }
func boolPtr(v bool) *bool    { return &v }

func TestProductStockNeverNegative(t *testing.T) {
	p := &Product{ProductID: "soap", StockQuantity: 2}

	p.RemoveStock(5)
	assert.Equal(t, 0, p.StockQuantity)

	p.AddStock(3)
	p.RemoveStock(1)
	assert.Equal(t, 2, p.StockQuantity)

	p.SetStock(-4)
	assert.Equal(t, 0, p.StockQuantity)
}

func TestProductCloneIsDeep(t *testing.T) {
	p := &Product{ProductID: "filter", Schedule: &Schedule{IntervalDays: 30, LastReplacement: "2024-01-01"}}
	cp := p.Clone()
	cp.Schedule.IntervalDays = 90
	cp.Name = "changed"

	assert.Equal(t, 30, p.Schedule.IntervalDays)
	assert.Empty(t, p.Name)
	assert.Nil(t, (*Product)(nil).Clone())
}

func TestProductJSONRecordFormat(t *testing.T) {
	p := Product{
		ProductID:     "water_filter",
		Name:          "Water Filter",
		StockQuantity: 3,
		TrackStock:    true,
		Schedule:      &Schedule{IntervalDays: 30, LastReplacement: "2024-01-01"},
	}
	data, err := json.Marshal(p)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(data, &fields))
	assert.Equal(t, "water_filter", fields["product_id"])
	assert.Equal(t, "Water Filter", fields["product_name"])
	assert.EqualValues(t, 3, fields["stock_quantity"])
	assert.Equal(t, true, fields["track_stock"])
	assert.Equal(t, true, fields["is_cyclical"])
	assert.EqualValues(t, 30, fields["replacement_interval_days"])
	assert.Equal(t, "2024-01-01", fields["last_replacement_date"])

	var back Product
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, p, back)
}

func TestProductJSONNonCyclicalOmitsSchedule(t *testing.T) {
	data, err := json.Marshal(&Product{ProductID: "soap", Name: "Soap", StockQuantity: 1})
	require.NoError(t, err)
	assert.NotContains(t, string(data), "replacement_interval_days")
	assert.NotContains(t, string(data), "last_replacement_date")
	assert.Contains(t, string(data), `"is_cyclical":false`)
}

func TestProductUnmarshalLegacyRecords(t *testing.T) {
	t.Run("schedule fields without flag are cyclical", func(t *testing.T) {
		var p Product
		require.NoError(t, json.Unmarshal([]byte(`{"product_id":"x","product_name":"X","stock_quantity":2,"replacement_interval_days":10,"last_replacement_date":"2024-01-01"}`), &p))
		require.NotNil(t, p.Schedule)
		assert.Equal(t, 10, p.Schedule.IntervalDays)
	})

	t.Run("explicit flag wins", func(t *testing.T) {
		var p Product
		require.NoError(t, json.Unmarshal([]byte(`{"product_id":"x","is_cyclical":false,"replacement_interval_days":10}`), &p))
		assert.Nil(t, p.Schedule)
	})

	t.Run("negative stock is clamped", func(t *testing.T) {
		var p Product
		require.NoError(t, json.Unmarshal([]byte(`{"product_id":"x","stock_quantity":-3}`), &p))
		assert.Equal(t, 0, p.StockQuantity)
	})
}

func TestProductUpdateApply(t *testing.T) {
	today := time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC)
	base := func() *Product {
		return &Product{
			ProductID:     "filter",
			Name:          "Filter",
			StockQuantity: 4,
			TrackStock:    true,
			Schedule:      &Schedule{IntervalDays: 30, LastReplacement: "2024-01-01"},
		}
	}

	t.Run("name only leaves everything else", func(t *testing.T) {
		p := base()
		ProductUpdate{Name: strPtr("X")}.Apply(p, today)
		want := base()
		want.Name = "X"
		assert.Equal(t, want, p)
	})

	t.Run("stock is clamped", func(t *testing.T) {
		p := base()
		ProductUpdate{StockQuantity: intPtr(-1)}.Apply(p, today)
		assert.Equal(t, 0, p.StockQuantity)
	})

	t.Run("schedule fields overwrite", func(t *testing.T) {
		p := base()
		ProductUpdate{IntervalDays: intPtr(90), LastReplacementDate: strPtr("2024-05-01")}.Apply(p, today)
		assert.Equal(t, &Schedule{IntervalDays: 90, LastReplacement: "2024-05-01"}, p.Schedule)
	})

	t.Run("interval only keeps the stored date", func(t *testing.T) {
		p := base()
		ProductUpdate{IntervalDays: intPtr(45)}.Apply(p, today)
		assert.Equal(t, &Schedule{IntervalDays: 45, LastReplacement: "2024-01-01"}, p.Schedule)
	})

	t.Run("disabling cyclical drops the schedule", func(t *testing.T) {
		p := base()
		ProductUpdate{IsCyclical: boolPtr(false), IntervalDays: intPtr(5)}.Apply(p, today)
		assert.Nil(t, p.Schedule)
	})

	t.Run("enabling cyclical fills defaults", func(t *testing.T) {
		p := &Product{ProductID: "soap", StockQuantity: 1}
		ProductUpdate{IsCyclical: boolPtr(true)}.Apply(p, today)
		assert.Equal(t, &Schedule{IntervalDays: DefaultReplacementIntervalDays, LastReplacement: "2024-05-10"}, p.Schedule)
	})

	t.Run("interval on plain product creates schedule", func(t *testing.T) {
		p := &Product{ProductID: "soap", StockQuantity: 1}
		ProductUpdate{IntervalDays: intPtr(7)}.Apply(p, today)
		assert.Equal(t, &Schedule{IntervalDays: 7, LastReplacement: "2024-05-10"}, p.Schedule)
	})

	t.Run("empty update", func(t *testing.T) {
		assert.True(t, ProductUpdate{}.IsEmpty())
		assert.False(t, ProductUpdate{TrackStock: boolPtr(false)}.IsEmpty())
	})
}
