package appctx

import (
	"github.com/jsamuelsen/app-context/internal/ports"
)

// FactoryConfig describes the engines a Factory produces.
type FactoryConfig struct {
	// Enabled controls whether lifecycle hooks build automatically.
	// Engines are still created when disabled so call sites can build
	// manually.
	Enabled   bool
	Providers []ports.ContextProvider
	Channels  []ports.ContextChannel
	Options   []Option
}

// Factory creates one engine per scope, sharing provider and channel
// instances across scopes. Providers and channels must therefore be safe
// for concurrent use; the engines themselves are not shared.
//
// Fragments of providers implementing ports.ProcessScoped are cached once
// for all engines, using the cache TTL and clock of the factory's options.
type Factory struct {
	cfg    FactoryConfig
	shared *sharedCache
}

// NewFactory creates a Factory.
func NewFactory(cfg FactoryConfig) *Factory {
	o := defaultOptions()
	for _, opt := range cfg.Options {
		opt(&o)
	}

	return &Factory{cfg: cfg, shared: newSharedCache(o.cacheTTL, o.now)}
}

// Enabled reports whether automatic resolution is switched on.
func (f *Factory) Enabled() bool {
	return f.cfg.Enabled
}

// New returns a fresh engine with every configured provider and channel
// registered. Extra options are applied after the factory's own.
func (f *Factory) New(extra ...Option) *Engine {
	opts := make([]Option, 0, len(f.cfg.Options)+len(extra)+1)
	opts = append(opts, withSharedCache(f.shared))
	opts = append(opts, f.cfg.Options...)
	opts = append(opts, extra...)

	e := New(opts...)

	for _, p := range f.cfg.Providers {
		e.AddProvider(p)
	}

	for _, c := range f.cfg.Channels {
		e.AddChannel(c)
	}

	return e
}
