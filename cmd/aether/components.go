package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/aether/internal/ai"
	"github.com/hyperjump/aether/internal/chat"
	"github.com/hyperjump/aether/internal/config"
	"github.com/hyperjump/aether/internal/keyword"
	"github.com/hyperjump/aether/internal/metrics"
	"github.com/hyperjump/aether/internal/records"
	"github.com/hyperjump/aether/internal/seed"
	"github.com/hyperjump/aether/internal/server"
	"github.com/hyperjump/aether/internal/storage"
	"github.com/hyperjump/aether/internal/views"
)

// Components holds initialized services.
type Components struct {
	Storage   storage.Store
	Records   *records.Store
	Index     *keyword.PatientIndex
	Gateway   *ai.Gateway
	Chat      *chat.Session
	Finance   *views.Finance
	Inventory *views.Inventory
	Settings  *views.Settings
	Metrics   *metrics.Collector
}

func (c *Components) Close() {
	if c.Index != nil {
		_ = c.Index.Close()
	}
	if c.Storage != nil {
		_ = c.Storage.Close()
	}
}

// Deps returns the components served over HTTP.
func (c *Components) Deps() server.Deps {
	return server.Deps{
		KV:        c.Storage,
		Records:   c.Records,
		Index:     c.Index,
		Gateway:   c.Gateway,
		Chat:      c.Chat,
		Finance:   c.Finance,
		Inventory: c.Inventory,
		Settings:  c.Settings,
		Metrics:   c.Metrics,
	}
}

func initializeComponents(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	store, err := storage.NewSQLiteStore(cfg.Storage.DatabasePath, cfg.Storage.QuotaBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	return wireComponents(ctx, store, newModel(ctx, &cfg.AI, logger), &cfg.AI, logger)
}

// wireComponents builds every service on top of store and model.
func wireComponents(ctx context.Context, store storage.Store, model ai.Model, aiCfg *config.AIConfig, logger *zap.Logger) (*Components, error) {
	c := &Components{Storage: store, Metrics: metrics.NewCollector("aether")}

	index, err := keyword.NewPatientIndex(logger)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to initialize search index: %w", err)
	}
	c.Index = index

	c.Gateway = ai.NewGateway(model, aiCfg, logger, c.Metrics)
	c.Records = records.Open(ctx, store,
		records.WithLogger(logger),
		records.WithDefaults(seed.Patients),
		records.WithChangeHook(index.Refresh),
		records.WithChangeHook(c.Metrics.ObservePatients),
		records.WithWarningHook(func(pe *records.PersistError) { c.Metrics.PersistWarning(pe.Key) }),
	)
	c.Chat = chat.NewSession(ctx, store, c.Gateway, logger)
	c.Finance = views.NewFinance(ctx, store, c.Gateway, seed.Transactions(), logger)
	c.Inventory = views.NewInventory(ctx, store, c.Gateway, seed.Inventory(), logger)
	c.Settings = views.NewSettings(ctx, store, logger)
	c.Settings.OnReset(func(ctx context.Context) {
		c.Records.Load(ctx)
		if err := c.Records.Persist(ctx); err != nil {
			logger.Warn("failed to persist default patients after reset", zap.Error(err))
		}
	})
	c.Settings.OnReset(c.Chat.Reload)
	c.Settings.OnReset(c.Finance.Reload)
	c.Settings.OnReset(c.Inventory.Reload)
	return c, nil
}

// newModel returns the hosted model, or one that always fails when no API
// key is configured so every panel shows its fallback text.
func newModel(ctx context.Context, cfg *config.AIConfig, logger *zap.Logger) ai.Model {
	if cfg.APIKey == "" {
		logger.Info("no API key configured, AI features will show fallback text")
		return ai.Unavailable(nil)
	}
	m, err := ai.NewGeminiModel(ctx, cfg.APIKey)
	if err != nil {
		logger.Warn("language model unavailable", zap.Error(err))
		return ai.Unavailable(err)
	}
	return m
}
