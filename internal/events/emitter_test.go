package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/pantry/internal/logging"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// recorder is a Handler that remembers what it saw.
type recorder struct {
	events []ChangeEvent
	err    error
}

func (r *recorder) HandleChange(_ context.Context, event ChangeEvent) error {
	r.events = append(r.events, event)
	return r.err
}

func TestNewChangeEvent(t *testing.T) {
	at := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	p := &types.Product{ProductID: "soap", Name: "Soap", StockQuantity: 2}

	ev := NewChangeEvent(KindStockAdded, "soap", p, at)
	assert.NotEqual(t, uuid.Nil, ev.ID)
	assert.Equal(t, uuid.Version(7), ev.ID.Version())
	assert.Equal(t, KindStockAdded, ev.Kind)
	assert.Equal(t, at, ev.At)
	require.NotNil(t, ev.Product)
	assert.Equal(t, p, ev.Product)

	p.StockQuantity = 9
	assert.Equal(t, 2, ev.Product.StockQuantity, "event must hold a snapshot")

	removed := NewChangeEvent(KindProductRemoved, "soap", nil, at)
	assert.Nil(t, removed.Product)
}

func TestEmitter(t *testing.T) {
	ctx := context.Background()
	ev := NewChangeEvent(KindProductAdded, "soap", nil, time.Now())

	t.Run("no handlers", func(t *testing.T) {
		e := NewEmitter(logging.Discard())
		assert.Equal(t, 0, e.Emit(ctx, ev))
	})

	t.Run("delivers to every handler in order", func(t *testing.T) {
		e := NewEmitter(logging.Discard())
		var order []string
		e.Subscribe(HandlerFunc(func(context.Context, ChangeEvent) error {
			order = append(order, "first")
			return nil
		}))
		e.Subscribe(HandlerFunc(func(context.Context, ChangeEvent) error {
			order = append(order, "second")
			return nil
		}))

		assert.Equal(t, 0, e.Emit(ctx, ev))
		assert.Equal(t, []string{"first", "second"}, order)
	})

	t.Run("failing handler does not stop others", func(t *testing.T) {
		e := NewEmitter(logging.Discard())
		bad := &recorder{err: errors.New("boom")}
		good := &recorder{}
		e.Subscribe(bad)
		e.Subscribe(good)

		assert.Equal(t, 1, e.Emit(ctx, ev))
		assert.Len(t, bad.events, 1)
		assert.Len(t, good.events, 1)
		assert.Equal(t, ev, good.events[0])
	})

	t.Run("panicking handler is recovered", func(t *testing.T) {
		e := NewEmitter(nil)
		good := &recorder{}
		e.Subscribe(HandlerFunc(func(context.Context, ChangeEvent) error {
			panic("observer exploded")
		}))
		e.Subscribe(good)

		assert.NotPanics(t, func() {
			assert.Equal(t, 1, e.Emit(ctx, ev))
		})
		assert.Len(t, good.events, 1)
	})
}
