package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/seedvault/internal/config"
	"github.com/vk/seedvault/internal/ctxlog"
	"github.com/vk/seedvault/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW      io.Writer
	logger    *slog.Logger
	registry  *registry.Registry
	config    *Config
	model     *config.Model
	converter config.Converter
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	// Load all configuration into the format-agnostic model first.
	cfgModel, converter, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		// A failure to load config is a fatal startup error.
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	logger.Debug("Configuration loaded and translated into unified model.", "models", len(cfgModel.Models))

	reg := registry.New()
	registry.RegisterBuiltins(reg)
	logger.Debug("Strategy kinds registered.", "kinds", reg.Kinds())

	// Every declared strategy must build before any database work starts.
	if err := reg.Validate(ctx, cfgModel, converter); err != nil {
		panic(fmt.Errorf("invalid model configuration: %w", err))
	}
	logger.Debug("Model validation passed.")

	return &App{
		outW:      outW,
		logger:    logger,
		registry:  reg,
		config:    appConfig,
		model:     cfgModel,
		converter: converter,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}

// Model returns the loaded configuration model. This is primarily for testing.
func (a *App) Model() *config.Model {
	return a.model
}
