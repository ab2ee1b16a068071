package appctx

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/platform/logging"
	"github.com/jsamuelsen/app-context/internal/ports"
)

// Engine aggregates provider fragments into one mapping and fans the result
// out to channels. An Engine belongs to a single scope and must not be
// mutated from more than one goroutine at a time.
type Engine struct {
	providers []ports.ContextProvider
	channels  []ports.ContextChannel

	mapping domain.Mapping
	overlay domain.Mapping
	cache   *providerCache
	built   bool

	opts options
}

// New creates an engine with no providers and no channels.
func New(opts ...Option) *Engine {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	return &Engine{
		mapping: domain.NewMapping(),
		overlay: domain.NewMapping(),
		cache:   newProviderCache(o.cacheTTL, o.now),
		opts:    o,
	}
}

// AddProvider appends p to the provider list. Order is significant: later
// providers win on conflicting keys. Adding a provider does not run it, but
// the next read triggers a pass that includes it.
//
// Providers are keyed by name. Registering a name twice replaces the earlier
// provider in place and drops its cached fragment.
func (e *Engine) AddProvider(p ports.ContextProvider) *Engine {
	if p == nil {
		return e
	}

	e.built = false

	for i, existing := range e.providers {
		if existing.Name() == p.Name() {
			e.logger(context.Background()).Warn("context provider replaced",
				slog.String("provider", p.Name()),
			)
			e.providers[i] = p
			e.cache.evict(p.Name())
			e.cacheFor(existing).evict(p.Name())

			return e
		}
	}

	e.providers = append(e.providers, p)

	return e
}

// AddChannel registers c. Channels are keyed by name; registering a name
// twice replaces the earlier channel.
func (e *Engine) AddChannel(c ports.ContextChannel) *Engine {
	if c == nil {
		return e
	}

	for i, existing := range e.channels {
		if existing.Name() == c.Name() {
			e.channels[i] = c
			return e
		}
	}

	e.channels = append(e.channels, c)

	return e
}

// Providers returns the registered provider names in order.
func (e *Engine) Providers() []string {
	names := make([]string, len(e.providers))
	for i, p := range e.providers {
		names[i] = p.Name()
	}

	return names
}

// Channels returns the registered channel names.
func (e *Engine) Channels() []string {
	names := make([]string, len(e.channels))
	for i, c := range e.channels {
		names[i] = c.Name()
	}

	return names
}

// Built reports whether the mapping reflects a completed pass or an explicit
// Clear.
func (e *Engine) Built() bool {
	return e.built
}

// Build runs one resolution pass and delivers the result to every channel.
//
// A provider error aborts the pass before any channel is called. The
// previous mapping is kept and the engine stays unbuilt, so the next read
// retries.
func (e *Engine) Build(ctx context.Context) error {
	start := e.opts.now()
	stats := ports.BuildStats{Channels: len(e.channels)}

	defer func() {
		stats.Duration = e.opts.now().Sub(start)
		e.opts.recorder.RecordBuild(ctx, stats)
	}()

	working := domain.NewMapping()

	for _, p := range e.providers {
		if !p.ShouldRun(ctx) {
			stats.ProvidersSkipped++
			continue
		}

		fragment, hit, err := e.resolve(ctx, p)
		if err != nil {
			stats.Failed = true
			e.built = false

			return domain.NewProviderError(p.Name(), err)
		}

		if hit {
			stats.CacheHits++
		} else {
			stats.ProvidersRun++
		}

		working.Merge(fragment)
	}

	working.Merge(e.overlay)

	e.mapping = working
	e.built = true

	e.logger(ctx).DebugContext(ctx, "context built",
		slog.Int("providers_run", stats.ProvidersRun),
		slog.Int("providers_skipped", stats.ProvidersSkipped),
		slog.Int("cache_hits", stats.CacheHits),
		slog.Int("keys", working.Len()),
	)

	e.deliver(ctx, working)

	return nil
}

// resolve returns the fragment of p, from cache when allowed.
func (e *Engine) resolve(ctx context.Context, p ports.ContextProvider) (domain.Mapping, bool, error) {
	cacheable := e.opts.cacheEnabled && p.Cacheable()
	cache := e.cacheFor(p)

	if cacheable {
		if fragment, ok := cache.get(p.Name()); ok {
			return fragment, true, nil
		}
	}

	fragment, err := p.Context(ctx)
	if err != nil {
		return nil, false, err
	}

	if fragment == nil {
		fragment = domain.NewMapping()
	}

	if cacheable {
		cache.put(p.Name(), fragment)
	}

	return fragment, false, nil
}

// cacheFor picks the factory-wide cache for process-scoped providers and the
// engine's own cache for everything else.
func (e *Engine) cacheFor(p ports.ContextProvider) fragmentCache {
	if e.opts.shared == nil {
		return e.cache
	}

	if ps, ok := p.(ports.ProcessScoped); ok && ps.ProcessScoped() {
		return e.opts.shared
	}

	return e.cache
}

// deliver sends a private copy of m to every channel in registration order.
// A panicking channel is logged and skipped.
func (e *Engine) deliver(ctx context.Context, m domain.Mapping) {
	for _, c := range e.channels {
		e.send(ctx, c, m.Clone())
	}
}

func (e *Engine) send(ctx context.Context, c ports.ContextChannel, m domain.Mapping) {
	defer func() {
		if r := recover(); r != nil {
			e.logger(ctx).ErrorContext(ctx, "context channel panicked",
				slog.String("channel", c.Name()),
				slog.String("panic", fmt.Sprint(r)),
			)
		}
	}()

	c.Send(ctx, m)
}

// ensureBuilt runs an implicit pass when the engine has not been built.
func (e *Engine) ensureBuilt(ctx context.Context) error {
	if e.built {
		return nil
	}

	return e.Build(ctx)
}

// All returns a copy of the resolved mapping, building first if needed.
func (e *Engine) All(ctx context.Context) (domain.Mapping, error) {
	if err := e.ensureBuilt(ctx); err != nil {
		return nil, err
	}

	return e.mapping.Clone(), nil
}

// Get resolves a dotted path, returning def when any segment is absent.
// Nested mappings are returned as copies.
func (e *Engine) Get(ctx context.Context, path string, def any) (any, error) {
	if err := e.ensureBuilt(ctx); err != nil {
		return def, err
	}

	v, ok := e.mapping.Lookup(path)
	if !ok {
		return def, nil
	}

	if nested, isMap := v.(map[string]any); isMap {
		return map[string]any(domain.Mapping(nested).Clone()), nil
	}

	return v, nil
}

// Has reports whether a dotted path resolves.
func (e *Engine) Has(ctx context.Context, path string) (bool, error) {
	if err := e.ensureBuilt(ctx); err != nil {
		return false, err
	}

	return e.mapping.Has(path), nil
}

// Set writes value at a dotted path. Providers and channels are not
// invoked and the built flag is unchanged. The value overrides provider
// output on every later pass until Clear or Reset.
func (e *Engine) Set(path string, value any) *Engine {
	if path == "" {
		return e
	}

	e.mapping.Set(path, value)
	e.overlay.Set(path, value)

	return e
}

// Unset removes the value at a dotted path from the mapping and drops any
// override Set wrote there. Providers are not invoked, so the next pass
// restores whatever they contribute at that path.
func (e *Engine) Unset(path string) *Engine {
	if path == "" {
		return e
	}

	e.mapping.Delete(path)
	e.overlay.Delete(path)

	return e
}

// Rebuild runs a fresh pass, reusing cached provider fragments.
func (e *Engine) Rebuild(ctx context.Context) error {
	e.mapping = domain.NewMapping()

	return e.Build(ctx)
}

// RebuildFromScratch evicts the provider cache and runs a fresh pass, so
// every cacheable provider recomputes. Fragments this engine shares with
// other engines of the same factory are evicted too.
func (e *Engine) RebuildFromScratch(ctx context.Context) error {
	for _, p := range e.providers {
		e.cacheFor(p).evict(p.Name())
	}

	e.cache.clear()

	return e.Rebuild(ctx)
}

// ClearProviderCache evicts the cached fragment of one provider, including a
// fragment shared across the factory's engines.
func (e *Engine) ClearProviderCache(name string) *Engine {
	e.cache.evict(name)

	if e.opts.shared != nil {
		e.opts.shared.evict(name)
	}

	return e
}

// Clear empties the mapping, the overrides and the provider cache and marks
// the engine built: reads return the empty mapping until the next Build.
// Channels are not notified. Fragments shared with other engines are kept,
// since the scope ending says nothing about process-wide facts.
func (e *Engine) Clear() *Engine {
	e.mapping = domain.NewMapping()
	e.overlay = domain.NewMapping()
	e.cache.clear()
	e.built = true

	return e
}

// Reset clears the engine and delivers the empty mapping to every channel,
// telling sinks that the scope's context is gone.
func (e *Engine) Reset(ctx context.Context) *Engine {
	e.Clear()
	e.deliver(ctx, domain.NewMapping())

	return e
}

func (e *Engine) logger(ctx context.Context) *slog.Logger {
	if e.opts.logger != nil {
		return e.opts.logger
	}

	return logging.FromContext(ctx).With(slog.String("component", "appctx.Engine"))
}
