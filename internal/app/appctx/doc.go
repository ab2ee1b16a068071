// Package appctx resolves the ambient context of a process or request.
//
// An Engine owns an ordered list of providers and a set of channels. A
// resolution pass (Build) asks every provider, in registration order, for
// its fragment, deep-merges the fragments into one mapping and delivers a
// copy of the result to every channel:
//
//	engine := appctx.New(appctx.WithCacheTTL(time.Minute)).
//	    AddProvider(providers.NewTimestamp()).
//	    AddProvider(providers.NewApp(cfg.App)).
//	    AddChannel(channels.NewLog())
//
//	if err := engine.Build(ctx); err != nil {
//	    return err
//	}
//
//	env, _ := engine.Get(ctx, "app.env", "local")
//
// # Scopes
//
// One engine serves exactly one scope: the process, or a single inbound
// request. The engine is not safe for concurrent mutation; hosting code
// creates a fresh engine per request through a Factory and hands it to call
// sites through the request's context.Context:
//
//	ctx = appctx.WithEngine(ctx, factory.New())
//	...
//	appctx.FromContext(ctx).Set("order.id", id)
//
// # Caching
//
// Providers that report Cacheable have their fragment memoized for the
// lifetime of the engine (or until the configured TTL elapses). Rebuild
// keeps the cache; RebuildFromScratch, Clear and ClearProviderCache evict.
//
// # Overrides
//
// Values written with Set are kept in an overlay that is applied on top of
// every later pass, so they win over provider output until Clear or Reset.
package appctx
