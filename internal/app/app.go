package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/exprgrid/internal/adaptor"
	"github.com/vk/exprgrid/internal/config"
	"github.com/vk/exprgrid/internal/ctxlog"
	"github.com/vk/exprgrid/internal/operator"
	"github.com/vk/exprgrid/internal/registry"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *registry.Registry
	config   *config.Model
	adaptor  adaptor.Adaptor
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger and registry.
// A configuration that cannot be loaded is a fatal startup error and panics;
// the binary entrypoint recovers it into a clean exit.
func NewApp(outW io.Writer, appConfig *Config, loader config.Loader, a adaptor.Adaptor, modules ...registry.Module) *App {
	logger := newLogger(appConfig.LogLevel, appConfig.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	cfgModel, err := loader.Load(ctx, appConfig.ConfigPath)
	if err != nil {
		panic(fmt.Errorf("failed to load configuration: %w", err))
	}
	if appConfig.StorePath != "" {
		cfgModel.StorePath = appConfig.StorePath
	}
	logger.Debug("Configuration loaded and translated into unified model.")

	reg := registry.New()
	if len(modules) == 0 {
		modules = coreModules
	}
	for _, mod := range modules {
		mod.Register(reg)
	}
	logger.Debug("All operator modules registered.", "count", len(modules))

	for _, p := range cfgModel.Prebuilts {
		reg.RegisterPrebuilt(operator.PrebuiltSpec{
			Name:     p.Name,
			Produces: operator.Type(p.Type),
			Values:   p.Values,
		})
	}
	logger.Debug("Configured prebuilt values registered.", "count", len(cfgModel.Prebuilts))

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		config:   cfgModel,
		adaptor:  a,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *registry.Registry {
	return a.registry
}
