package appctx

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/ports"
)

// fakeProvider counts Context calls and returns a fixed fragment.
type fakeProvider struct {
	name      string
	fragment  domain.Mapping
	run       bool
	cacheable bool
	err       error
	calls     int
}

func newFakeProvider(name string, fragment domain.Mapping) *fakeProvider {
	return &fakeProvider{name: name, fragment: fragment, run: true}
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) ShouldRun(context.Context) bool { return p.run }

func (p *fakeProvider) Cacheable() bool { return p.cacheable }

func (p *fakeProvider) Context(context.Context) (domain.Mapping, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}

	return p.fragment.Clone(), nil
}

// processProvider is a cacheable, scope-independent provider that counts
// its resolutions atomically so several engines can share it.
type processProvider struct {
	name     string
	fragment domain.Mapping
	calls    atomic.Int32
}

func (p *processProvider) Name() string { return p.name }

func (p *processProvider) ShouldRun(context.Context) bool { return true }

func (p *processProvider) Cacheable() bool { return true }

func (p *processProvider) ProcessScoped() bool { return true }

func (p *processProvider) Context(context.Context) (domain.Mapping, error) {
	p.calls.Add(1)
	return p.fragment.Clone(), nil
}

// recordingChannel keeps every mapping it receives.
type recordingChannel struct {
	name     string
	received []domain.Mapping
}

func newRecordingChannel(name string) *recordingChannel {
	return &recordingChannel{name: name}
}

func (c *recordingChannel) Name() string { return c.name }

func (c *recordingChannel) Send(_ context.Context, m domain.Mapping) {
	c.received = append(c.received, m)
}

func (c *recordingChannel) last() domain.Mapping {
	if len(c.received) == 0 {
		return nil
	}

	return c.received[len(c.received)-1]
}

type mockRecorder struct {
	mock.Mock
}

func (m *mockRecorder) RecordBuild(ctx context.Context, stats ports.BuildStats) {
	m.Called(ctx, stats)
}

// fakeClock is a manually advanced clock.
type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }
