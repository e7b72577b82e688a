// Package storage defines the string-keyed blob store that holds all durable
// application state, and the typed parse-with-fallback helpers on top of it.
package storage

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned by Get when the key is absent.
	ErrNotFound = errors.New("key not found")
	// ErrQuotaExceeded is returned by Set when the write would push the store
	// past its capacity. Nothing is written.
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Store is a durable string-keyed blob store. Writes are synchronous and are
// never batched; each Set or Remove is durable when it returns.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Remove(ctx context.Context, key string) error
	// Clear removes every key.
	Clear(ctx context.Context) error
	// Keys returns the keys starting with prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Usage returns the bytes counted against the quota.
	Usage(ctx context.Context) (int64, error)
	Close() error
}

// Durable state keys.
const (
	KeyPatients          = "ame_patients"
	KeyDraftPrefix       = "ame_note_draft_"
	KeyChatHistory       = "ame_chat_history"
	KeyFinanceAnalysis   = "ame_finance_analysis"
	KeyInventoryStrategy = "ame_inventory_strategy"
	KeySettings          = "ame_settings"
)

// DraftKey returns the key holding the note draft for a patient id.
func DraftKey(id string) string {
	return KeyDraftPrefix + id
}

// entrySize is what one key/value pair counts against the quota.
func entrySize(key, value string) int64 {
	return int64(len(key) + len(value))
}
