package entity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"text/tabwriter"

	"github.com/mesh-intelligence/pantry/internal/events"
	"github.com/mesh-intelligence/pantry/internal/repository"
	"github.com/mesh-intelligence/pantry/pkg/types"
)

// Board holds the entity set of every product and rebuilds it on each
// change event.
type Board struct {
	repo   *repository.Repository
	logger *slog.Logger

	mu       sync.Mutex
	entities []Entity
	rebuilds int
}

var _ events.Handler = (*Board)(nil)

// NewBoard builds the entity set for the current products.
func NewBoard(repo *repository.Repository, logger *slog.Logger) *Board {
	if logger == nil {
		logger = slog.Default()
	}
	b := &Board{repo: repo, logger: logger.With("component", "board")}
	b.Refresh()
	return b
}

// Refresh rebuilds the entity set from the repository.
func (b *Board) Refresh() {
	var entities []Entity
	for _, p := range b.repo.List() {
		entities = append(entities, ForProduct(b.repo, p, b.logger)...)
	}
	b.mu.Lock()
	b.entities = entities
	b.rebuilds++
	b.mu.Unlock()
}

// HandleChange implements events.Handler.
func (b *Board) HandleChange(_ context.Context, ev events.ChangeEvent) error {
	b.logger.Debug("refreshing on change", "kind", ev.Kind, "product_id", ev.ProductID)
	b.Refresh()
	return nil
}

// Entities returns the current entity set.
func (b *Board) Entities() []Entity {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Entity, len(b.entities))
	copy(out, b.entities)
	return out
}

// States returns the state of every entity.
func (b *Board) States() []State {
	entities := b.Entities()
	out := make([]State, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.State())
	}
	return out
}

// Rebuilds returns how many times the entity set was built.
func (b *Board) Rebuilds() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rebuilds
}

// Render writes one row per product.
func (b *Board) Render(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tNAME\tSTOCK\tDAYS LEFT\tNEXT\tSTATUS")
	for _, p := range b.repo.List() {
		stock, days, next := "-", "-", "-"
		if p.TrackStock {
			stock = strconv.Itoa(p.StockQuantity)
		}
		d, hasDays := b.repo.DaysUntilReplacement(p.ProductID)
		if hasDays {
			days = strconv.Itoa(d)
		}
		if n, ok := b.repo.NextReplacementDate(p.ProductID); ok {
			next = types.FormatDate(n)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", p.ProductID, p.Name, stock, days, next, Status(p, d, hasDays))
	}
	return tw.Flush()
}

// Status summarizes a product for display.
func Status(p *types.Product, days int, hasDays bool) string {
	switch {
	case p.TrackStock && p.StockQuantity <= 0:
		return "out of stock"
	case hasDays && days < 0:
		return "overdue"
	case hasDays && days == 0:
		return "due today"
	default:
		return "ok"
	}
}
