// Package bootstrap assembles the context engine stack from configuration.
// Both entry points share it: the HTTP service and the console command.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/app-context/internal/adapters/channels"
	"github.com/jsamuelsen/app-context/internal/adapters/providers"
	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/platform/config"
	"github.com/jsamuelsen/app-context/internal/platform/logging"
	"github.com/jsamuelsen/app-context/internal/platform/telemetry"
	"github.com/jsamuelsen/app-context/internal/ports"
)

// Stack is the assembled engine factory and what it needs at runtime.
type Stack struct {
	Factory  *appctx.Factory
	Checkers []ports.HealthChecker

	// Providers and Channels list the registered names in order.
	Providers []string
	Channels  []string
}

// Logger creates the process logger writing to w and installs it as
// default.
func Logger(cfg *config.Config, w io.Writer) *slog.Logger {
	logger := logging.NewWithWriter(&logging.Config{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		Service: cfg.App.Name,
		Version: cfg.App.Version,
		File: logging.FileConfig{
			Enabled:    cfg.Log.File.Enabled,
			Path:       cfg.Log.File.Path,
			MaxSizeMB:  cfg.Log.File.MaxSizeMB,
			MaxBackups: cfg.Log.File.MaxBackups,
			MaxAgeDays: cfg.Log.File.MaxAgeDays,
			Compress:   cfg.Log.File.Compress,
		},
	}, w)
	logging.SetDefault(logger)

	return logger
}

// NewStack builds the providers and channels named in cfg.AppContext and
// the factory that wires them into engines. Build passes are recorded on
// the global meter and, when reg is not nil, in Prometheus.
func NewStack(cfg *config.Config, logger *slog.Logger, reg prometheus.Registerer) (*Stack, error) {
	ac := cfg.AppContext

	provs, err := providers.FromConfig(ac.Providers, providers.Deps{
		App:    cfg.App,
		Static: ac.Static,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring context providers: %w", err)
	}

	chans, err := channels.FromConfig(ac.Channels, channels.Deps{
		Client: cfg.Client,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("configuring context channels: %w", err)
	}

	metrics, err := telemetry.NewBuildMetrics(telemetry.Meter(), reg)
	if err != nil {
		return nil, fmt.Errorf("creating build metrics: %w", err)
	}

	factory := appctx.NewFactory(appctx.FactoryConfig{
		Enabled:   ac.Enabled,
		Providers: provs,
		Channels:  chans.Channels,
		Options: []appctx.Option{
			appctx.WithRecorder(metrics),
			appctx.WithCacheEnabled(ac.Cache.Enabled),
			appctx.WithCacheTTL(ac.Cache.TTL),
		},
	})

	sample := factory.New()

	return &Stack{
		Factory:   factory,
		Checkers:  chans.Checkers,
		Providers: sample.Providers(),
		Channels:  sample.Channels(),
	}, nil
}

// ProcessContext builds the process-scope engine once. The log channel of
// this scope fills the process-wide correlation bag, so every later record
// logged outside a request carries the application context.
func (s *Stack) ProcessContext(ctx context.Context, logger *slog.Logger) (*appctx.Engine, error) {
	engine := s.Factory.New(appctx.WithLogger(logger))
	ctx = appctx.WithEngine(ctx, engine)

	if !s.Factory.Enabled() {
		logger.InfoContext(ctx, "automatic application context disabled")
		return engine, nil
	}

	if err := engine.Build(ctx); err != nil {
		return engine, fmt.Errorf("building process context: %w", err)
	}

	logger.InfoContext(ctx, "application context ready",
		slog.Any("providers", s.Providers),
		slog.Any("channels", s.Channels),
	)

	return engine, nil
}
