package appctx

import "context"

type (
	engineKey  struct{}
	requestKey struct{}
	actorKey   struct{}
)

// WithEngine binds e to the scope carried by ctx.
func WithEngine(ctx context.Context, e *Engine) context.Context {
	return context.WithValue(ctx, engineKey{}, e)
}

// FromContext returns the engine of the current scope, or nil.
func FromContext(ctx context.Context) *Engine {
	if ctx == nil {
		return nil
	}

	if e, ok := ctx.Value(engineKey{}).(*Engine); ok {
		return e
	}

	return nil
}

// MustFromContext returns the engine of the current scope and panics with
// ErrNoEngine when there is none.
func MustFromContext(ctx context.Context) *Engine {
	e := FromContext(ctx)
	if e == nil {
		panic(ErrNoEngine)
	}

	return e
}

// Request describes the inbound request that owns a scope. The HTTP layer
// attaches it; its presence is what makes a scope a request scope.
type Request struct {
	ID            string
	CorrelationID string
	Method        string
	Path          string
	Route         string
	URL           string
	IP            string
	UserAgent     string
}

// WithRequest marks ctx as a request scope.
func WithRequest(ctx context.Context, r *Request) context.Context {
	return context.WithValue(ctx, requestKey{}, r)
}

// RequestFromContext returns the request of the current scope.
func RequestFromContext(ctx context.Context) (*Request, bool) {
	if ctx == nil {
		return nil, false
	}

	r, ok := ctx.Value(requestKey{}).(*Request)

	return r, ok && r != nil
}

// Actor is the authenticated principal of a scope.
type Actor struct {
	Subject string
	Roles   []string
	Scopes  []string
}

// WithActor attaches the authenticated principal to ctx.
func WithActor(ctx context.Context, a *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, a)
}

// ActorFromContext returns the authenticated principal. Actors without a
// subject are treated as anonymous and not returned.
func ActorFromContext(ctx context.Context) (*Actor, bool) {
	if ctx == nil {
		return nil, false
	}

	a, ok := ctx.Value(actorKey{}).(*Actor)
	if !ok || a == nil || a.Subject == "" {
		return nil, false
	}

	return a, true
}
