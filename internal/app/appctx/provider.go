package appctx

import (
	"context"

	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/ports"
)

// BaseProvider supplies the default gating and caching behavior. Embed it
// and implement Context:
//
//	type tenantProvider struct{ appctx.BaseProvider }
//
//	func (tenantProvider) Context(ctx context.Context) (domain.Mapping, error) { ... }
type BaseProvider struct {
	ProviderName string
}

// Name returns ProviderName.
func (b BaseProvider) Name() string { return b.ProviderName }

// ShouldRun always returns true.
func (BaseProvider) ShouldRun(context.Context) bool { return true }

// Cacheable returns false.
func (BaseProvider) Cacheable() bool { return false }

// ProviderFunc adapts a function into a provider.
type ProviderFunc struct {
	ProviderName string
	Fn           func(ctx context.Context) (domain.Mapping, error)
	When         func(ctx context.Context) bool
	Cache        bool
}

var _ ports.ContextProvider = (*ProviderFunc)(nil)

// Name implements ports.ContextProvider.
func (p *ProviderFunc) Name() string { return p.ProviderName }

// ShouldRun calls When, defaulting to true.
func (p *ProviderFunc) ShouldRun(ctx context.Context) bool {
	if p.When == nil {
		return true
	}

	return p.When(ctx)
}

// Context calls Fn.
func (p *ProviderFunc) Context(ctx context.Context) (domain.Mapping, error) {
	if p.Fn == nil {
		return domain.NewMapping(), nil
	}

	return p.Fn(ctx)
}

// Cacheable implements ports.ContextProvider.
func (p *ProviderFunc) Cacheable() bool { return p.Cache }

// Static returns a cacheable provider that always contributes m.
func Static(name string, m domain.Mapping) *ProviderFunc {
	fragment := m.Clone()

	return &ProviderFunc{
		ProviderName: name,
		Cache:        true,
		Fn: func(context.Context) (domain.Mapping, error) {
			return fragment.Clone(), nil
		},
	}
}

// ChannelFunc adapts a function into a channel.
type ChannelFunc struct {
	ChannelName string
	Fn          func(ctx context.Context, m domain.Mapping)
}

var _ ports.ContextChannel = (*ChannelFunc)(nil)

// Name implements ports.ContextChannel.
func (c *ChannelFunc) Name() string { return c.ChannelName }

// Send calls Fn.
func (c *ChannelFunc) Send(ctx context.Context, m domain.Mapping) {
	if c.Fn != nil {
		c.Fn(ctx, m)
	}
}
