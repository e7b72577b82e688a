package views

import (
	"context"

	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/storage"
	"github.com/hyperjump/aether/pkg/utils"
)

// Inventory is the medical supply panel with its AI procurement strategy.
type Inventory struct {
	items    []models.InventoryItem
	analyst  Analyst
	strategy *cachedText
}

// NewInventory creates the panel and restores the last strategy from storage.
func NewInventory(ctx context.Context, kv storage.Store, analyst Analyst, items []models.InventoryItem, logger *zap.Logger) *Inventory {
	logger = utils.OrNop(logger)
	return &Inventory{
		items:    items,
		analyst:  analyst,
		strategy: newCachedText(ctx, kv, storage.KeyInventoryStrategy, logger),
	}
}

// Items returns a copy of the stock list.
func (i *Inventory) Items() []models.InventoryItem {
	out := make([]models.InventoryItem, len(i.items))
	copy(out, i.items)
	return out
}

// LowStock returns the items at or below their reorder point.
func (i *Inventory) LowStock() []models.InventoryItem {
	var out []models.InventoryItem
	for _, it := range i.items {
		if it.LowStock() {
			out = append(out, it)
		}
	}
	return out
}

// StockValue is the sum of stock level times unit price.
func (i *Inventory) StockValue() float64 {
	var v float64
	for _, it := range i.items {
		v += float64(it.StockLevel) * it.UnitPrice
	}
	return v
}

// Strategy generates a procurement strategy and caches its text. It returns
// ErrBusy if one is already being generated.
func (i *Inventory) Strategy(ctx context.Context) (string, error) {
	return i.strategy.run(ctx, func(ctx context.Context) string {
		return i.analyst.InventoryStrategy(ctx, i.items)
	})
}

// Cached returns the last strategy, if any.
func (i *Inventory) Cached() (string, bool) { return i.strategy.get() }

// Clear forgets the last strategy.
func (i *Inventory) Clear(ctx context.Context) error { return i.strategy.clear(ctx) }

// Busy reports whether a strategy is being generated.
func (i *Inventory) Busy() bool { return i.strategy.busy.Load() }

// Reload re-reads the cached strategy from storage.
func (i *Inventory) Reload(ctx context.Context) { i.strategy.Reload(ctx) }
