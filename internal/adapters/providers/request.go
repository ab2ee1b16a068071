package providers

import (
	"context"

	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/domain"
)

// Request contributes the inbound request under "request". It only runs
// inside a request scope.
type Request struct {
	appctx.BaseProvider
}

// NewRequest returns the request provider.
func NewRequest() *Request {
	return &Request{BaseProvider: appctx.BaseProvider{ProviderName: NameRequest}}
}

// ShouldRun reports whether ctx is a request scope.
func (*Request) ShouldRun(ctx context.Context) bool {
	_, ok := appctx.RequestFromContext(ctx)
	return ok
}

// Context implements ports.ContextProvider.
func (*Request) Context(ctx context.Context) (domain.Mapping, error) {
	r, ok := appctx.RequestFromContext(ctx)
	if !ok {
		return domain.NewMapping(), nil
	}

	return domain.Mapping{
		"request": map[string]any{
			"id":             r.ID,
			"correlation_id": r.CorrelationID,
			"method":         r.Method,
			"path":           r.Path,
			"route":          r.Route,
			"url":            r.URL,
			"ip":             r.IP,
			"user_agent":     r.UserAgent,
		},
	}, nil
}
