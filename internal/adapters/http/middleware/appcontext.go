package middleware

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/platform/logging"
)

// AppContext gives every request its own context engine and correlation
// bag. When the factory is enabled the engine is built before the handler
// runs; a failed build is logged and the request carries on without
// automatic context. The engine is reset once the handler returns so sinks
// drop the request's context.
//
// It must run after RequestID, CorrelationID, Actor and the tracing
// middleware, whose values the request, user and trace providers read.
func AppContext(factory *appctx.Factory) gin.HandlerFunc {
	return func(c *gin.Context) {
		engine := factory.New()

		ctx := c.Request.Context()
		ctx = logging.WithCorrelation(ctx, logging.NewCorrelation())
		ctx = appctx.WithRequest(ctx, &appctx.Request{
			ID:            GetRequestID(c),
			CorrelationID: GetCorrelationID(c),
			Method:        c.Request.Method,
			Path:          c.Request.URL.Path,
			Route:         c.FullPath(),
			URL:           requestURL(c),
			IP:            c.ClientIP(),
			UserAgent:     c.Request.UserAgent(),
		})
		ctx = appctx.WithEngine(ctx, engine)
		c.Request = c.Request.WithContext(ctx)

		if factory.Enabled() {
			if err := engine.Build(ctx); err != nil {
				logging.FromContext(ctx).WarnContext(ctx, "request context build failed",
					slog.Any("error", err),
				)
			}
		}

		defer engine.Reset(ctx)

		c.Next()
	}
}

func requestURL(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}

	if proto := c.GetHeader("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}

	return scheme + "://" + c.Request.Host + c.Request.URL.RequestURI()
}
