package appctx

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/ports"
)

func TestEngine_EmptyEngineReturnsEmptyMapping(t *testing.T) {
	e := New()

	all, err := e.All(context.Background())

	require.NoError(t, err)
	assert.Empty(t, all)
	assert.True(t, e.Built())
}

func TestEngine_LastRegisteredProviderWins(t *testing.T) {
	permutations := [][]string{
		{"p1", "p2", "p3"},
		{"p1", "p3", "p2"},
		{"p2", "p1", "p3"},
		{"p2", "p3", "p1"},
		{"p3", "p1", "p2"},
		{"p3", "p2", "p1"},
	}

	for _, order := range permutations {
		t.Run(fmt.Sprint(order), func(t *testing.T) {
			e := New()
			for _, name := range order {
				e.AddProvider(newFakeProvider(name, domain.Mapping{"k": name}))
			}

			v, err := e.Get(context.Background(), "k", nil)

			require.NoError(t, err)
			assert.Equal(t, order[len(order)-1], v)
		})
	}
}

func TestEngine_DeepMergesNestedContributions(t *testing.T) {
	e := New().
		AddProvider(newFakeProvider("first", domain.Mapping{"custom": map[string]any{"key1": "v1", "shared": "first"}})).
		AddProvider(newFakeProvider("second", domain.Mapping{"custom": map[string]any{"key2": "v2", "shared": "second"}}))

	all, err := e.All(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "v1", all.Get("custom.key1", nil))
	assert.Equal(t, "v2", all.Get("custom.key2", nil))
	assert.Equal(t, "second", all.Get("custom.shared", nil))
}

func TestEngine_ShouldRunGatesProvider(t *testing.T) {
	gated := newFakeProvider("user", domain.Mapping{"user": map[string]any{"id": "42"}})
	gated.run = false

	e := New().
		AddProvider(newFakeProvider("timestamp", domain.Mapping{"timestamp": "now"})).
		AddProvider(gated)

	require.NoError(t, e.Build(context.Background()))

	has, err := e.Has(context.Background(), "user")
	require.NoError(t, err)
	assert.False(t, has)
	assert.Zero(t, gated.calls)
}

func TestEngine_CacheableProviderRunsOnceUntilEvicted(t *testing.T) {
	ctx := context.Background()
	cached := newFakeProvider("app", domain.Mapping{"app": map[string]any{"name": "svc"}})
	cached.cacheable = true

	e := New().AddProvider(cached)

	require.NoError(t, e.Build(ctx))
	require.NoError(t, e.Build(ctx))
	require.NoError(t, e.Rebuild(ctx))
	assert.Equal(t, 1, cached.calls)

	require.NoError(t, e.RebuildFromScratch(ctx))
	assert.Equal(t, 2, cached.calls)

	e.ClearProviderCache("app")
	require.NoError(t, e.Build(ctx))
	assert.Equal(t, 3, cached.calls)

	e.ClearProviderCache("unknown")
	require.NoError(t, e.Rebuild(ctx))
	assert.Equal(t, 3, cached.calls)
}

func TestEngine_NonCacheableProviderRunsEveryPass(t *testing.T) {
	ctx := context.Background()
	volatile := newFakeProvider("timestamp", domain.Mapping{"timestamp": "t"})

	e := New().AddProvider(volatile)

	require.NoError(t, e.Build(ctx))
	require.NoError(t, e.Build(ctx))
	require.NoError(t, e.Rebuild(ctx))

	assert.Equal(t, 3, volatile.calls)
}

func TestEngine_CacheDisabled(t *testing.T) {
	ctx := context.Background()
	cached := newFakeProvider("host", domain.Mapping{"host": map[string]any{"name": "h"}})
	cached.cacheable = true

	e := New(WithCacheEnabled(false)).AddProvider(cached)

	require.NoError(t, e.Build(ctx))
	require.NoError(t, e.Rebuild(ctx))

	assert.Equal(t, 2, cached.calls)
}

func TestEngine_CacheTTLExpiresEntries(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	cached := newFakeProvider("host", domain.Mapping{"host": map[string]any{"name": "h"}})
	cached.cacheable = true

	e := New(WithCacheTTL(time.Minute), WithClock(clock.Now)).AddProvider(cached)

	require.NoError(t, e.Build(ctx))
	clock.Advance(30 * time.Second)
	require.NoError(t, e.Rebuild(ctx))
	assert.Equal(t, 1, cached.calls)

	clock.Advance(time.Minute)
	require.NoError(t, e.Rebuild(ctx))
	assert.Equal(t, 2, cached.calls)
}

func TestEngine_ResetDeliversEmptyMappingClearDoesNot(t *testing.T) {
	ctx := context.Background()
	first := newRecordingChannel("first")
	second := newRecordingChannel("second")

	e := New().
		AddProvider(newFakeProvider("timestamp", domain.Mapping{"timestamp": "t"})).
		AddChannel(first).
		AddChannel(second)

	require.NoError(t, e.Build(ctx))
	require.Len(t, first.received, 1)

	e.Clear()
	assert.Len(t, first.received, 1)
	assert.Len(t, second.received, 1)

	e.Reset(ctx)
	for _, ch := range []*recordingChannel{first, second} {
		require.Len(t, ch.received, 2, ch.name)
		assert.Empty(t, ch.last(), ch.name)
	}
}

func TestEngine_ClearMarksBuilt(t *testing.T) {
	p := newFakeProvider("timestamp", domain.Mapping{"timestamp": "t"})
	e := New().AddProvider(p)

	e.Clear()

	all, err := e.All(context.Background())
	require.NoError(t, err)
	assert.Empty(t, all)
	assert.Zero(t, p.calls)
}

func TestEngine_SetSurvivesUntilClear(t *testing.T) {
	ctx := context.Background()
	e := New().AddProvider(newFakeProvider("timestamp", domain.Mapping{"timestamp": "t"}))

	e.Set("a.b", "v")
	assert.False(t, e.Built())

	v, err := e.Get(ctx, "a.b", nil)
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	require.NoError(t, e.Rebuild(ctx))
	v, err = e.Get(ctx, "a.b", nil)
	require.NoError(t, err)
	assert.Equal(t, "v", v)

	e.Clear()
	v, err = e.Get(ctx, "a.b", nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestEngine_SetOverridesProviderOutput(t *testing.T) {
	ctx := context.Background()
	e := New().AddProvider(newFakeProvider("app", domain.Mapping{"app": map[string]any{"env": "local", "name": "svc"}}))

	require.NoError(t, e.Build(ctx))
	e.Set("app.env", "staging")
	require.NoError(t, e.Rebuild(ctx))

	all, err := e.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "staging", all.Get("app.env", nil))
	assert.Equal(t, "svc", all.Get("app.name", nil))
}

func TestEngine_SetDoesNotInvokeProvidersOrChannels(t *testing.T) {
	ctx := context.Background()
	p := newFakeProvider("timestamp", domain.Mapping{"timestamp": "t"})
	ch := newRecordingChannel("log")
	e := New().AddProvider(p).AddChannel(ch)

	require.NoError(t, e.Build(ctx))
	e.Set("custom.field", 42)

	assert.Equal(t, 1, p.calls)
	assert.Len(t, ch.received, 1)

	v, err := e.Get(ctx, "custom.field", nil)
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestEngine_AddProviderAfterBuildIsPickedUp(t *testing.T) {
	ctx := context.Background()
	e := New().AddProvider(newFakeProvider("timestamp", domain.Mapping{"timestamp": "t"}))

	require.NoError(t, e.Build(ctx))
	e.AddProvider(newFakeProvider("late", domain.Mapping{"late": true}))

	has, err := e.Has(ctx, "late")
	require.NoError(t, err)
	assert.True(t, has)
	assert.Equal(t, []string{"timestamp", "late"}, e.Providers())
}

func TestEngine_ProviderErrorAbortsPass(t *testing.T) {
	ctx := context.Background()
	cause := errors.New("hostname lookup failed")
	failing := newFakeProvider("host", nil)
	failing.err = cause
	after := newFakeProvider("after", domain.Mapping{"after": 1})
	ch := newRecordingChannel("log")

	e := New().
		AddProvider(newFakeProvider("timestamp", domain.Mapping{"timestamp": "t"})).
		AddProvider(failing).
		AddProvider(after).
		AddChannel(ch)

	err := e.Build(ctx)

	require.ErrorIs(t, err, domain.ErrProviderFailed)
	require.ErrorIs(t, err, cause)
	assert.Zero(t, after.calls)
	assert.Empty(t, ch.received)
	assert.False(t, e.Built())

	v, err := e.Get(ctx, "timestamp", "default")
	require.Error(t, err)
	assert.Equal(t, "default", v)
}

func TestEngine_PanickingChannelDoesNotBlockOthers(t *testing.T) {
	boom := &ChannelFunc{
		ChannelName: "boom",
		Fn:          func(context.Context, domain.Mapping) { panic("sink offline") },
	}
	ch := newRecordingChannel("log")

	e := New().
		AddProvider(newFakeProvider("timestamp", domain.Mapping{"timestamp": "t"})).
		AddChannel(boom).
		AddChannel(ch)

	require.NotPanics(t, func() {
		require.NoError(t, e.Build(context.Background()))
	})
	assert.Len(t, ch.received, 1)
}

func TestEngine_ChannelsReceiveIsolatedCopies(t *testing.T) {
	ctx := context.Background()
	mutating := &ChannelFunc{
		ChannelName: "mutating",
		Fn:          func(_ context.Context, m domain.Mapping) { m.Set("app.name", "mutated") },
	}
	ch := newRecordingChannel("log")

	e := New().
		AddProvider(newFakeProvider("app", domain.Mapping{"app": map[string]any{"name": "svc"}})).
		AddChannel(mutating).
		AddChannel(ch)

	require.NoError(t, e.Build(ctx))

	assert.Equal(t, "svc", ch.last().Get("app.name", nil))

	v, err := e.Get(ctx, "app.name", nil)
	require.NoError(t, err)
	assert.Equal(t, "svc", v)
}

func TestEngine_AddChannelReplacesSameName(t *testing.T) {
	old := newRecordingChannel("log")
	replacement := newRecordingChannel("log")

	e := New().AddChannel(old).AddChannel(replacement)
	require.NoError(t, e.Build(context.Background()))

	assert.Equal(t, []string{"log"}, e.Channels())
	assert.Empty(t, old.received)
	assert.Len(t, replacement.received, 1)
}

func TestEngine_GetReturnsCopyOfNestedMapping(t *testing.T) {
	ctx := context.Background()
	e := New().AddProvider(newFakeProvider("host", domain.Mapping{"host": map[string]any{"name": "web-1"}}))

	v, err := e.Get(ctx, "host", nil)
	require.NoError(t, err)

	host, ok := v.(map[string]any)
	require.True(t, ok)
	host["name"] = "changed"

	again, err := e.Get(ctx, "host.name", nil)
	require.NoError(t, err)
	assert.Equal(t, "web-1", again)
}

func TestEngine_NilRegistrationsAreIgnored(t *testing.T) {
	e := New().AddProvider(nil).AddChannel(nil)

	assert.Empty(t, e.Providers())
	assert.Empty(t, e.Channels())
}

func TestEngine_RecordsBuildStats(t *testing.T) {
	ctx := context.Background()
	recorder := &mockRecorder{}

	cached := newFakeProvider("app", domain.Mapping{"app": map[string]any{"name": "svc"}})
	cached.cacheable = true
	gated := newFakeProvider("user", nil)
	gated.run = false

	e := New(WithRecorder(recorder)).
		AddProvider(cached).
		AddProvider(gated).
		AddChannel(newRecordingChannel("log"))

	recorder.On("RecordBuild", ctx, mock.MatchedBy(func(s ports.BuildStats) bool {
		return s.ProvidersRun == 1 && s.CacheHits == 0 && s.ProvidersSkipped == 1 && s.Channels == 1 && !s.Failed
	})).Once()
	recorder.On("RecordBuild", ctx, mock.MatchedBy(func(s ports.BuildStats) bool {
		return s.ProvidersRun == 0 && s.CacheHits == 1 && s.ProvidersSkipped == 1
	})).Once()

	require.NoError(t, e.Build(ctx))
	require.NoError(t, e.Rebuild(ctx))

	recorder.AssertExpectations(t)
}

func TestEngine_RecordsFailedBuild(t *testing.T) {
	ctx := context.Background()
	recorder := &mockRecorder{}
	failing := newFakeProvider("host", nil)
	failing.err = errors.New("boom")

	recorder.On("RecordBuild", ctx, mock.MatchedBy(func(s ports.BuildStats) bool {
		return s.Failed
	})).Once()

	err := New(WithRecorder(recorder)).AddProvider(failing).Build(ctx)

	require.Error(t, err)
	recorder.AssertExpectations(t)
}

func TestEngine_AddProviderReplacesSameName(t *testing.T) {
	ctx := context.Background()
	first := newFakeProvider("tier", domain.Mapping{"tier": "gold"})
	first.cacheable = true
	second := newFakeProvider("tier", domain.Mapping{"zone": "a"})
	second.cacheable = true

	e := New().
		AddProvider(first).
		AddProvider(newFakeProvider("app", domain.Mapping{"app": "svc"}))
	require.NoError(t, e.Build(ctx))

	e.AddProvider(second)
	assert.False(t, e.Built())
	assert.Equal(t, []string{"tier", "app"}, e.Providers())

	all, err := e.All(ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.Mapping{"zone": "a", "app": "svc"}, all)
	assert.Equal(t, 1, first.calls)
	assert.Equal(t, 1, second.calls, "the replacement must not be served the earlier fragment")
}

func TestEngine_Unset(t *testing.T) {
	ctx := context.Background()
	e := New().AddProvider(newFakeProvider("app", domain.Mapping{"app": map[string]any{"name": "svc", "env": "prod"}}))
	require.NoError(t, e.Build(ctx))

	e.Set("app.name", "override").Set("custom.flag", true)

	e.Unset("app.name").Unset("custom.flag").Unset("missing.path").Unset("")

	all, err := e.All(ctx)
	require.NoError(t, err)
	// Parents left empty are pruned.
	assert.Equal(t, domain.Mapping{"app": map[string]any{"env": "prod"}}, all)

	// Provider output returns on the next pass; removed overrides do not.
	require.NoError(t, e.Rebuild(ctx))
	all, err = e.All(ctx)
	require.NoError(t, err)
	assert.Equal(t, "svc", all.Get("app.name", nil))
	assert.False(t, all.Has("custom.flag"))
}
