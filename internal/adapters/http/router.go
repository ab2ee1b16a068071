package http

import (
	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/app-context/internal/adapters/http/handlers"
	"github.com/jsamuelsen/app-context/internal/adapters/http/middleware"
	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/platform/config"
	"github.com/jsamuelsen/app-context/internal/platform/telemetry"
)

// RouterConfig holds what SetupRouter wires together.
type RouterConfig struct {
	ServiceName string
	Auth        *config.AuthConfig

	// Factory creates the per-request context engines.
	Factory *appctx.Factory

	Health  *handlers.HealthHandler
	Context *handlers.ContextHandler
}

// SetupRouter installs the middleware chain and routes. Order matters:
//
//  1. Recovery          catches panics from everything below
//  2. RequestID         X-Request-ID
//  3. CorrelationID     X-Correlation-ID
//  4. Tracing, Metrics  server span and HTTP metrics
//  5. Logging           skips /-/ endpoints
//
// The /api/v1 group then adds Actor and AppContext, so the request, user
// and trace providers see the values set above. Operational endpoints
// under /-/ get no context scope.
func SetupRouter(engine *gin.Engine, cfg RouterConfig) {
	engine.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.CorrelationID(),
		telemetry.Tracing(cfg.ServiceName),
		telemetry.Metrics(),
		middleware.Logging(),
	)

	if cfg.Health != nil {
		cfg.Health.Register(engine.Group("/-"))
	}

	api := engine.Group("/api/v1")
	if cfg.Factory != nil {
		api.Use(
			middleware.Actor(cfg.Auth),
			middleware.AppContext(cfg.Factory),
		)
	}

	if cfg.Context != nil {
		cfg.Context.Register(api)
	}
}
