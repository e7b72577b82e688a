package views

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/models"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/storage"
	"github.com/hyperjump/aether/pkg/utils"
)

// Settings is the preferences panel. It also owns the factory reset, which
// wipes the whole store and asks every registered component to reload.
type Settings struct {
	mu      sync.Mutex
	current models.Settings
	kv      storage.Store
	logger  *zap.Logger
	onReset []func(context.Context)
}

// NewSettings loads the saved settings, falling back to the defaults.
func NewSettings(ctx context.Context, kv storage.Store, logger *zap.Logger) *Settings {
	logger = utils.OrNop(logger)
	s := &Settings{kv: kv, logger: logger}
	s.current = s.load(ctx)
	return s
}

func (s *Settings) load(ctx context.Context) models.Settings {
	return storage.LoadJSON(ctx, s.kv, storage.KeySettings, models.DefaultSettings, checkSettings, s.logger)
}

func checkSettings(v models.Settings) error {
	return models.Validate(v)
}

// OnReset registers fn to run after a factory reset has cleared the store.
func (s *Settings) OnReset(fn func(context.Context)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onReset = append(s.onReset, fn)
}

// Get returns the current settings.
func (s *Settings) Get() models.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Save validates and stores v. Invalid input changes nothing. A rejected
// write keeps v in memory and returns a *records.PersistError.
func (s *Settings) Save(ctx context.Context, v models.Settings) error {
	if err := models.Validate(v); err != nil {
		return err
	}
	s.mu.Lock()
	s.current = v
	s.mu.Unlock()
	if err := storage.SaveJSON(ctx, s.kv, storage.KeySettings, v); err != nil {
		s.logger.Warn("failed to save settings", zap.Error(err))
		return &records.PersistError{Key: storage.KeySettings, Err: err}
	}
	return nil
}

// FactoryReset clears the entire store, restores default settings, and runs
// every reset hook so components reload their defaults. It is irreversible.
func (s *Settings) FactoryReset(ctx context.Context) error {
	if err := s.kv.Clear(ctx); err != nil {
		return fmt.Errorf("failed to clear storage: %w", err)
	}
	s.mu.Lock()
	s.current = models.DefaultSettings()
	hooks := append(([]func(context.Context))(nil), s.onReset...)
	s.mu.Unlock()

	for _, fn := range hooks {
		fn(ctx)
	}
	s.logger.Info("factory reset completed")
	return nil
}
