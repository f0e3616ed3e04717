package main

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"terralens/agro"
	"terralens/ee"
	"terralens/raster"
)

// App wires the request handlers to their dependencies.
type App struct {
	cfg      Config
	logger   *slog.Logger
	provider raster.Provider
	engine   *agro.Engine
	validate *validator.Validate
}

// newApp selects the imagery provider from configuration and builds the
// pipeline on top of it.
func newApp(ctx context.Context, cfg Config, logger *slog.Logger) (*App, error) {
	var provider raster.Provider
	switch cfg.Provider {
	case providerEarthEngine:
		client, err := ee.NewClient(ctx, ee.Config{
			Project:         cfg.EEProjectID,
			CredentialsFile: cfg.EECredentialsFile,
			BaseURL:         cfg.EEBaseURL,
			CallTimeout:     cfg.ProviderTimeout,
		}, logger)
		if err != nil {
			return nil, err
		}
		provider = client
	default:
		provider = raster.NewOfflineProvider()
	}
	logger.Info("imagery provider ready", "provider", provider.Name())

	return &App{
		cfg:      cfg,
		logger:   logger,
		provider: provider,
		engine:   agro.NewEngine(provider, logger),
		validate: validator.New(),
	}, nil
}
