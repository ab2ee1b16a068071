// Package ports defines the contracts the context engine depends on.
// Providers and channels are implemented in internal/adapters; the engine in
// internal/app/appctx only ever sees these interfaces.
package ports

import (
	"context"
	"time"

	"github.com/jsamuelsen/app-context/internal/domain"
)

// ContextProvider contributes one named fragment of context.
//
// The ctx passed to ShouldRun and Context is the scope the engine was built
// for. Request-scoped providers read the current request from it.
//
// Example implementation:
//
//	type RegionProvider struct{ region string }
//
//	func (p *RegionProvider) Name() string                    { return "region" }
//	func (p *RegionProvider) ShouldRun(context.Context) bool  { return p.region != "" }
//	func (p *RegionProvider) Cacheable() bool                 { return true }
//	func (p *RegionProvider) Context(context.Context) (domain.Mapping, error) {
//	    return domain.Mapping{"region": p.region}, nil
//	}
type ContextProvider interface {
	// Name identifies the provider. It keys the provider cache, so it must be
	// stable and unique within one engine. Adding a second provider with the
	// same name replaces the first.
	Name() string

	// ShouldRun gates the provider for the current pass. It must not have
	// side effects; when it returns false Context is never called.
	ShouldRun(ctx context.Context) bool

	// Context returns this provider's contribution. A non-nil error aborts
	// the whole resolution pass.
	Context(ctx context.Context) (domain.Mapping, error)

	// Cacheable reports whether the engine may memoize Context for the
	// lifetime of the engine.
	Cacheable() bool
}

// ProcessScoped is implemented by cacheable providers whose fragment does
// not depend on the scope they run in. Engines created by one factory share
// a single cached fragment for such providers instead of resolving it once
// per scope.
type ProcessScoped interface {
	ProcessScoped() bool
}

// ContextChannel receives every resolved mapping.
//
// Send has no error return: delivery failures belong to the channel, which
// logs or drops them. Send must accept an empty mapping, which signals that
// the scope's context is gone.
type ContextChannel interface {
	Name() string
	Send(ctx context.Context, m domain.Mapping)
}

// BuildStats describes one resolution pass.
type BuildStats struct {
	Duration         time.Duration
	ProvidersRun     int
	ProvidersSkipped int
	CacheHits        int
	Channels         int
	Failed           bool
}

// BuildRecorder observes resolution passes. Implementations must be safe for
// concurrent use since every request engine shares one recorder.
type BuildRecorder interface {
	RecordBuild(ctx context.Context, stats BuildStats)
}

// NopRecorder discards build stats.
type NopRecorder struct{}

// RecordBuild implements BuildRecorder.
func (NopRecorder) RecordBuild(context.Context, BuildStats) {}
