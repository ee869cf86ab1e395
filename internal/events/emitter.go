package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Emitter fans change events out to registered handlers in registration
// order. It is safe for concurrent use.
type Emitter struct {
	mu       sync.RWMutex
	handlers []Handler
	logger   *slog.Logger
}

// NewEmitter creates an Emitter that logs handler failures to logger.
func NewEmitter(logger *slog.Logger) *Emitter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Emitter{
		logger: logger.With("component", "change_emitter"),
	}
}

// Subscribe registers h for every subsequent event.
func (e *Emitter) Subscribe(h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers = append(e.handlers, h)
	e.logger.Debug("registered change handler", "handler_count", len(e.handlers))
}

// Emit delivers event to every handler. A failing or panicking handler is
// logged and skipped; the remaining handlers still run. Emit returns the
// number of handlers that failed.
func (e *Emitter) Emit(ctx context.Context, event ChangeEvent) int {
	e.mu.RLock()
	handlers := make([]Handler, len(e.handlers))
	copy(handlers, e.handlers)
	e.mu.RUnlock()

	e.logger.Debug("emitting change",
		"event_id", event.ID,
		"kind", event.Kind,
		"product_id", event.ProductID,
		"handler_count", len(handlers))

	failed := 0
	for i, h := range handlers {
		if err := e.deliver(ctx, h, event); err != nil {
			failed++
			e.logger.Error("change handler failed",
				"error", err,
				"handler_index", i,
				"event_id", event.ID,
				"kind", event.Kind)
		}
	}
	return failed
}

func (e *Emitter) deliver(ctx context.Context, h Handler, event ChangeEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h.HandleChange(ctx, event)
}
