package appctx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromContext(t *testing.T) {
	e := New()

	assert.Nil(t, FromContext(nil))
	assert.Nil(t, FromContext(context.Background()))
	assert.Same(t, e, FromContext(WithEngine(context.Background(), e)))
}

func TestMustFromContext(t *testing.T) {
	e := New()

	assert.Same(t, e, MustFromContext(WithEngine(context.Background(), e)))
	assert.PanicsWithValue(t, ErrNoEngine, func() {
		MustFromContext(context.Background())
	})
}

func TestRequestFromContext(t *testing.T) {
	_, ok := RequestFromContext(context.Background())
	assert.False(t, ok)

	req := &Request{ID: "req-1", Method: "GET", Path: "/api/v1/context"}
	got, ok := RequestFromContext(WithRequest(context.Background(), req))

	require.True(t, ok)
	assert.Equal(t, "req-1", got.ID)

	_, ok = RequestFromContext(WithRequest(context.Background(), nil))
	assert.False(t, ok)
}

func TestActorFromContext(t *testing.T) {
	tests := []struct {
		name   string
		actor  *Actor
		wantOK bool
	}{
		{name: "no actor", actor: nil, wantOK: false},
		{name: "anonymous actor", actor: &Actor{Roles: []string{"guest"}}, wantOK: false},
		{name: "authenticated actor", actor: &Actor{Subject: "user-1", Roles: []string{"admin"}}, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			if tt.actor != nil {
				ctx = WithActor(ctx, tt.actor)
			}

			got, ok := ActorFromContext(ctx)

			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.actor.Subject, got.Subject)
			}
		})
	}
}
