package appctx

import (
	"log/slog"
	"time"

	"github.com/jsamuelsen/app-context/internal/ports"
)

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger       *slog.Logger
	recorder     ports.BuildRecorder
	cacheEnabled bool
	cacheTTL     time.Duration
	now          func() time.Time

	// shared caches process-scoped providers across engines. Set by Factory.
	shared *sharedCache
}

func defaultOptions() options {
	return options{
		recorder:     ports.NopRecorder{},
		cacheEnabled: true,
		now:          time.Now,
	}
}

// WithLogger sets the engine logger. Without it the engine logs through the
// logger carried by the build context.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithRecorder reports every resolution pass to r.
func WithRecorder(r ports.BuildRecorder) Option {
	return func(o *options) {
		if r != nil {
			o.recorder = r
		}
	}
}

// WithCacheEnabled toggles provider caching. Enabled by default.
func WithCacheEnabled(enabled bool) Option {
	return func(o *options) {
		o.cacheEnabled = enabled
	}
}

// WithCacheTTL bounds how long a cached fragment stays valid. Zero keeps it
// for the life of the engine.
func WithCacheTTL(ttl time.Duration) Option {
	return func(o *options) {
		if ttl >= 0 {
			o.cacheTTL = ttl
		}
	}
}

// WithClock replaces time.Now for cache expiry and build timing.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// withSharedCache routes process-scoped providers through c.
func withSharedCache(c *sharedCache) Option {
	return func(o *options) {
		o.shared = c
	}
}
