package providers

import (
	"context"
	"slices"

	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/domain"
)

// User contributes the authenticated actor under "user". Anonymous scopes
// contribute nothing.
type User struct {
	appctx.BaseProvider
}

// NewUser returns the user provider.
func NewUser() *User {
	return &User{BaseProvider: appctx.BaseProvider{ProviderName: NameUser}}
}

// ShouldRun reports whether an authenticated actor is present.
func (*User) ShouldRun(ctx context.Context) bool {
	_, ok := appctx.ActorFromContext(ctx)
	return ok
}

// Context implements ports.ContextProvider.
func (*User) Context(ctx context.Context) (domain.Mapping, error) {
	a, ok := appctx.ActorFromContext(ctx)
	if !ok {
		return domain.NewMapping(), nil
	}

	return domain.Mapping{
		"user": map[string]any{
			"id":     a.Subject,
			"roles":  nonNil(a.Roles),
			"scopes": nonNil(a.Scopes),
		},
	}, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}

	return slices.Clone(s)
}
