package providers

import (
	"context"
	"log/slog"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/platform/config"
	"github.com/jsamuelsen/app-context/internal/platform/logging"
)

// Static contributes configured values, optionally gated by an expr-lang
// condition evaluated against:
//
//	env     the application environment ("production", ...)
//	origin  "web" or "console"
//	app     map with name, env, debug, url, timezone and locale
//
// Example: `env in ["staging", "production"] && origin == "web"`.
type Static struct {
	name   string
	values domain.Mapping
	when   *vm.Program
	app    config.AppConfig
}

// NewStatic compiles cfg.When. An empty condition always runs.
func NewStatic(cfg config.StaticProviderConfig, app config.AppConfig) (*Static, error) {
	p := &Static{
		name:   cfg.Name,
		values: domain.Mapping(cfg.Values).Clone(),
		app:    app,
	}

	if cfg.When != "" {
		program, err := expr.Compile(cfg.When,
			expr.Env(map[string]any{}),
			expr.AllowUndefinedVariables(),
			expr.AsBool(),
		)
		if err != nil {
			return nil, domain.NewValidationError("app_context.static."+cfg.Name+".when", err.Error())
		}
		p.when = program
	}

	return p, nil
}

// Name implements ports.ContextProvider.
func (p *Static) Name() string { return p.name }

// Cacheable reports true.
func (*Static) Cacheable() bool { return true }

// ShouldRun evaluates the condition. An evaluation error is logged and
// treated as false.
func (p *Static) ShouldRun(ctx context.Context) bool {
	if p.when == nil {
		return true
	}

	out, err := expr.Run(p.when, p.env(ctx))
	if err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "static provider condition failed",
			slog.String("provider", p.name),
			slog.Any("error", err),
		)

		return false
	}

	ok, _ := out.(bool)

	logging.FromContext(ctx).Log(ctx, logging.LevelTrace, "static provider condition evaluated",
		slog.String("provider", p.name),
		slog.Bool("run", ok),
	)

	return ok
}

// Context implements ports.ContextProvider.
func (p *Static) Context(context.Context) (domain.Mapping, error) {
	return p.values.Clone(), nil
}

func (p *Static) env(ctx context.Context) map[string]any {
	return map[string]any{
		"env":    p.app.Environment,
		"origin": Origin(ctx),
		"app": map[string]any{
			"name":     p.app.Name,
			"env":      p.app.Environment,
			"debug":    p.app.Debug,
			"url":      p.app.URL,
			"timezone": p.app.Timezone,
			"locale":   p.app.Locale,
		},
	}
}
