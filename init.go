package main

import (
	"context"
	"fmt"

	"github.com/uptrace/opentelemetry-go-extra/otelzap"

	"github.com/delivro/rateshop/internal/config"
	"github.com/delivro/rateshop/internal/storage/sqlite"
	"github.com/delivro/rateshop/internal/telemetry"
	"github.com/delivro/rateshop/pkg/carrier"
)

func loadConfig() (*config.Config, error) {
	return config.Load()
}

func initLogger(level string) (*otelzap.Logger, error) {
	return telemetry.NewLogger(level)
}

func initTracer(ctx context.Context, cfg *config.Config) (func(context.Context) error, error) {
	if !cfg.OTELEnabled {
		return func(context.Context) error { return nil }, nil
	}

	_, shutdown, err := telemetry.InitTracer(ctx, cfg.OTELEndpoint, cfg.ServiceName, cfg.Version)
	return shutdown, err
}

// openRegistry opens the SQLite-backed carrier registry and, when enabled,
// seeds the default carriers into an empty store.
func openRegistry(ctx context.Context, cfg *config.Config, logger *otelzap.Logger) (*carrier.Registry, func() error, error) {
	store, err := sqlite.Open(cfg.DBPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open carrier store: %w", err)
	}

	registry := carrier.NewRegistry(store, logger)
	if cfg.SeedDefaultCarriers {
		if err := registry.EnsureDefaults(ctx); err != nil {
			_ = store.Close()
			return nil, nil, err
		}
	}
	return registry, store.Close, nil
}
