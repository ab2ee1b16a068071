package providers

import (
	"context"

	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/domain"
)

// Trace contributes the active OpenTelemetry span under "trace".
type Trace struct {
	appctx.BaseProvider
}

// NewTrace returns the trace provider.
func NewTrace() *Trace {
	return &Trace{BaseProvider: appctx.BaseProvider{ProviderName: NameTrace}}
}

// ShouldRun reports whether ctx carries a valid span context.
func (*Trace) ShouldRun(ctx context.Context) bool {
	return trace.SpanContextFromContext(ctx).IsValid()
}

// Context implements ports.ContextProvider.
func (*Trace) Context(ctx context.Context) (domain.Mapping, error) {
	sc := trace.SpanContextFromContext(ctx)

	return domain.Mapping{
		"trace": map[string]any{
			"trace_id": sc.TraceID().String(),
			"span_id":  sc.SpanID().String(),
			"sampled":  sc.IsSampled(),
		},
	}, nil
}
