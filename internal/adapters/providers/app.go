package providers

import (
	"context"

	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/platform/config"
)

// Invocation origins reported under "app.origin".
const (
	OriginWeb     = "web"
	OriginConsole = "console"
)

// App contributes the application identity under "app".
type App struct {
	appctx.BaseProvider

	cfg config.AppConfig
}

// NewApp returns the app provider for cfg.
func NewApp(cfg config.AppConfig) *App {
	return &App{
		BaseProvider: appctx.BaseProvider{ProviderName: NameApp},
		cfg:          cfg,
	}
}

// Cacheable reports true: the identity does not change within a scope.
func (*App) Cacheable() bool { return true }

// Context implements ports.ContextProvider.
func (p *App) Context(ctx context.Context) (domain.Mapping, error) {
	return domain.Mapping{
		"app": map[string]any{
			"name":     p.cfg.Name,
			"env":      p.cfg.Environment,
			"debug":    p.cfg.Debug,
			"url":      p.cfg.URL,
			"timezone": p.cfg.Timezone,
			"locale":   p.cfg.Locale,
			"origin":   Origin(ctx),
		},
	}, nil
}

// Origin reports whether ctx belongs to an HTTP request or a console run.
func Origin(ctx context.Context) string {
	if _, ok := appctx.RequestFromContext(ctx); ok {
		return OriginWeb
	}

	return OriginConsole
}
