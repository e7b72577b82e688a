// Package views holds the state behind the dashboard, finance, inventory and
// settings panels. Each panel is independent: a failure in one never affects
// another.
package views

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/storage"
)

// ErrBusy is returned when a panel's AI request is already running.
var ErrBusy = errors.New("request already in progress")

// Analyst produces the AI text shown on the finance and inventory panels.
// Both operations always return text.
type Analyst interface {
	AnalyzeFraud(ctx context.Context, transactions []models.Transaction) string
	InventoryStrategy(ctx context.Context, items []models.InventoryItem) string
}

// cachedText is the last AI output of a panel, kept in memory and under one
// storage key.
type cachedText struct {
	kv     storage.Store
	key    string
	logger *zap.Logger

	busy atomic.Bool
	mu   sync.Mutex
	text string
	ok   bool
}

func newCachedText(ctx context.Context, kv storage.Store, key string, logger *zap.Logger) *cachedText {
	c := &cachedText{kv: kv, key: key, logger: logger}
	c.Reload(ctx)
	return c
}

// Reload reads the cached text from storage.
func (c *cachedText) Reload(ctx context.Context) {
	text, ok := storage.LoadText(ctx, c.kv, c.key, c.logger)
	c.mu.Lock()
	defer c.mu.Unlock()
	c.text, c.ok = text, ok && text != ""
}

func (c *cachedText) get() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.text, c.ok
}

// run generates new text unless a generation is already running. The result
// is cached even when it is a fallback message; a rejected write is returned
// as a *records.PersistError next to the text.
func (c *cachedText) run(ctx context.Context, generate func(context.Context) string) (string, error) {
	if !c.busy.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer c.busy.Store(false)

	text := generate(ctx)

	c.mu.Lock()
	c.text, c.ok = text, true
	c.mu.Unlock()

	if err := c.kv.Set(ctx, c.key, text); err != nil {
		c.logger.Warn("failed to cache panel output", zap.String("key", c.key), zap.Error(err))
		return text, &records.PersistError{Key: c.key, Err: err}
	}
	return text, nil
}

func (c *cachedText) clear(ctx context.Context) error {
	c.mu.Lock()
	c.text, c.ok = "", false
	c.mu.Unlock()
	if err := c.kv.Remove(ctx, c.key); err != nil {
		return &records.PersistError{Key: c.key, Err: err}
	}
	return nil
}
