package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// LoadJSON reads key and decodes it into a T. When the key is absent, the
// value does not decode, or check rejects it, LoadJSON logs the reason and
// returns fallback(). It never fails the caller. check may be nil.
func LoadJSON[T any](ctx context.Context, s Store, key string, fallback func() T, check func(T) error, logger *zap.Logger) T {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && logger != nil {
			logger.Warn("read failed, using default", zap.String("key", key), zap.Error(err))
		}
		return fallback()
	}
	var v T
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		if logger != nil {
			logger.Warn("stored value unparsable, using default", zap.String("key", key), zap.Error(err))
		}
		return fallback()
	}
	if check != nil {
		if err := check(v); err != nil {
			if logger != nil {
				logger.Warn("stored value invalid, using default", zap.String("key", key), zap.Error(err))
			}
			return fallback()
		}
	}
	return v
}

// SaveJSON encodes v and stores it under key.
func SaveJSON(ctx context.Context, s Store, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return s.Set(ctx, key, string(data))
}

// LoadText reads a plain-text key. ok is false when the key is absent or
// unreadable; read errors other than absence are logged.
func LoadText(ctx context.Context, s Store, key string, logger *zap.Logger) (value string, ok bool) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) && logger != nil {
			logger.Warn("read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return raw, true
}
