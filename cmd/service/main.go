// Package main is the entry point for the service.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jsamuelsen/app-context/internal/adapters/http"
	"github.com/jsamuelsen/app-context/internal/adapters/http/handlers"
	"github.com/jsamuelsen/app-context/internal/app/bootstrap"
	"github.com/jsamuelsen/app-context/internal/platform/config"
	"github.com/jsamuelsen/app-context/internal/platform/telemetry"
	"github.com/jsamuelsen/app-context/internal/ports"
)

// Build-time variables, injected via ldflags.
// Example: go build -ldflags "-X main.Version=1.0.0 -X main.Commit=$(git rev-parse HEAD) -X main.BuildTime=$(date -u +%Y-%m-%dT%H:%M:%SZ)"
var (
	// Version is the semantic version of the service.
	Version = "dev"

	// Commit is the git commit SHA.
	Commit = "unknown"

	// BuildTime is the timestamp when the binary was built.
	BuildTime = "unknown"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	profile := os.Getenv("APP_ENVIRONMENT")
	if profile == "" {
		profile = "local"
	}

	cfg, err := config.Load(profile)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := bootstrap.Logger(cfg, os.Stdout)

	logger.Info("starting service",
		slog.String("version", Version),
		slog.String("commit", Commit),
		slog.String("environment", cfg.App.Environment),
	)

	// Noop when disabled.
	telProvider, err := telemetry.New(ctx, &telemetry.Config{
		Enabled:      cfg.Telemetry.Enabled,
		Endpoint:     cfg.Telemetry.Endpoint,
		Insecure:     cfg.Telemetry.Insecure,
		ServiceName:  cfg.Telemetry.ServiceName,
		Version:      cfg.App.Version,
		Environment:  cfg.App.Environment,
		SamplingRate: cfg.Telemetry.SamplingRate,
	})
	if err != nil {
		return fmt.Errorf("initializing telemetry: %w", err)
	}

	defer func() {
		if shutdownErr := telProvider.Shutdown(context.WithoutCancel(ctx)); shutdownErr != nil {
			logger.Error("telemetry shutdown error", slog.Any("error", shutdownErr))
		}
	}()

	stack, err := bootstrap.NewStack(cfg, logger, prometheus.DefaultRegisterer)
	if err != nil {
		return err
	}

	healthRegistry := ports.NewHealthRegistry()
	for _, checker := range stack.Checkers {
		if err := healthRegistry.Register(checker); err != nil {
			return fmt.Errorf("registering %s health check: %w", checker.Name(), err)
		}
	}

	processCtx, err := stack.ProcessContext(ctx, logger)
	if err != nil {
		return err
	}
	defer processCtx.Reset(context.WithoutCancel(ctx))

	buildInfo := handlers.NewBuildInfo(Version, Commit, BuildTime)
	buildInfo.Context = handlers.ContextInfo{
		Enabled:   stack.Factory.Enabled(),
		Providers: stack.Providers,
		Channels:  stack.Channels,
	}

	server := http.New(cfg.Server, logger)

	http.SetupRouter(server.Engine(), http.RouterConfig{
		ServiceName: cfg.App.Name,
		Auth:        &cfg.Auth,
		Factory:     stack.Factory,
		Health:      handlers.NewHealthHandler(healthRegistry, buildInfo),
		Context:     handlers.NewContextHandler(),
	})

	if err := server.Run(ctx); err != nil {
		return err
	}

	logger.Info("shutdown complete")

	return nil
}
