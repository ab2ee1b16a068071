package channels

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/jsamuelsen/app-context/internal/domain"
)

// SpanAttributePrefix namespaces context attributes on spans.
const SpanAttributePrefix = "app_context."

// Span copies the flattened mapping onto the span recording in ctx. An
// empty mapping is recorded as a span event.
type Span struct{}

// NewSpan returns the span channel.
func NewSpan() *Span { return &Span{} }

// Name implements ports.ContextChannel.
func (*Span) Name() string { return NameSpan }

// Send implements ports.ContextChannel.
func (*Span) Send(ctx context.Context, m domain.Mapping) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}

	if len(m) == 0 {
		span.AddEvent(SpanAttributePrefix + "reset")
		return
	}

	span.SetAttributes(SpanAttributes(m)...)
}

// SpanAttributes converts m into span attributes sorted by key.
func SpanAttributes(m domain.Mapping) []attribute.KeyValue {
	flat := m.Flatten()

	keys := make([]string, 0, len(flat))
	for k := range flat {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, toAttribute(SpanAttributePrefix+k, flat[k]))
	}

	return attrs
}

func toAttribute(key string, v any) attribute.KeyValue {
	switch val := v.(type) {
	case string:
		return attribute.String(key, val)
	case bool:
		return attribute.Bool(key, val)
	case int:
		return attribute.Int(key, val)
	case int64:
		return attribute.Int64(key, val)
	case float64:
		return attribute.Float64(key, val)
	case []string:
		return attribute.StringSlice(key, val)
	case nil:
		return attribute.String(key, "")
	default:
		return attribute.String(key, fmt.Sprint(val))
	}
}
