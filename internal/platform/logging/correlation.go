package logging

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
)

// Correlation is a replaceable set of attributes attached to every record
// logged with the context that carries it. One bag exists per request; the
// process bag serves contexts without one.
type Correlation struct {
	mu    sync.RWMutex
	attrs []slog.Attr
}

// NewCorrelation returns an empty bag.
func NewCorrelation() *Correlation {
	return &Correlation{}
}

var processCorrelation = NewCorrelation()

// ProcessCorrelation returns the process-wide bag.
func ProcessCorrelation() *Correlation {
	return processCorrelation
}

// Replace swaps the bag's contents for attrs.
func (c *Correlation) Replace(attrs ...slog.Attr) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.attrs = slices.Clone(attrs)
}

// Clear empties the bag.
func (c *Correlation) Clear() {
	c.Replace()
}

// Attrs returns a snapshot of the bag.
func (c *Correlation) Attrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return slices.Clone(c.attrs)
}

// Len returns the number of top-level attributes.
func (c *Correlation) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.attrs)
}

type correlationKey struct{}

// WithCorrelation attaches bag to ctx.
func WithCorrelation(ctx context.Context, bag *Correlation) context.Context {
	return context.WithValue(ctx, correlationKey{}, bag)
}

// CorrelationFromContext returns the bag carried by ctx, or the process bag.
func CorrelationFromContext(ctx context.Context) *Correlation {
	if ctx != nil {
		if bag, ok := ctx.Value(correlationKey{}).(*Correlation); ok && bag != nil {
			return bag
		}
	}

	return processCorrelation
}

// AttrsFromMap converts a nested map into attributes. Nested maps become
// groups; keys are sorted so output is stable.
func AttrsFromMap(m map[string]any) []slog.Attr {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}

	slices.Sort(keys)

	attrs := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		attrs = append(attrs, attrFromValue(k, m[k]))
	}

	return attrs
}

func attrFromValue(key string, v any) slog.Attr {
	switch t := v.(type) {
	case map[string]any:
		return slog.Attr{Key: key, Value: slog.GroupValue(AttrsFromMap(t)...)}
	case nil:
		return slog.Any(key, nil)
	case fmt.Stringer:
		return slog.String(key, t.String())
	default:
		return slog.Any(key, t)
	}
}

// CorrelationHandler stamps each record with the attributes of the
// correlation bag found in the record's context.
type CorrelationHandler struct {
	next slog.Handler
}

// NewCorrelationHandler wraps next.
func NewCorrelationHandler(next slog.Handler) *CorrelationHandler {
	return &CorrelationHandler{next: next}
}

// Enabled implements slog.Handler.
func (h *CorrelationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

// Handle implements slog.Handler.
func (h *CorrelationHandler) Handle(ctx context.Context, r slog.Record) error { //nolint:gocritic // slog.Handler interface requires value
	if attrs := CorrelationFromContext(ctx).Attrs(); len(attrs) > 0 {
		r = r.Clone()
		r.AddAttrs(attrs...)
	}

	return h.next.Handle(ctx, r)
}

// WithAttrs implements slog.Handler.
func (h *CorrelationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &CorrelationHandler{next: h.next.WithAttrs(attrs)}
}

// WithGroup implements slog.Handler.
func (h *CorrelationHandler) WithGroup(name string) slog.Handler {
	return &CorrelationHandler{next: h.next.WithGroup(name)}
}
