package providers

import (
	"context"
	"log/slog"
	"net"
	"os"
	"time"

	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/platform/logging"
)

// UnknownHost is reported when the hostname cannot be read.
const UnknownHost = "unknown"

const hostLookupTimeout = 2 * time.Second

// Host contributes "host.name" and "host.ip". Both lookups are best effort:
// a failure yields "unknown" and nil instead of an error.
type Host struct {
	appctx.BaseProvider

	hostname func() (string, error)
	lookup   func(ctx context.Context, host string) ([]string, error)
}

// NewHost returns the host provider backed by the OS and the default
// resolver.
func NewHost() *Host {
	return &Host{
		BaseProvider: appctx.BaseProvider{ProviderName: NameHost},
		hostname:     os.Hostname,
		lookup:       net.DefaultResolver.LookupHost,
	}
}

// Cacheable reports true.
func (*Host) Cacheable() bool { return true }

// ProcessScoped reports true: the host is the same for every scope, so a
// factory resolves it once for all of its engines.
func (*Host) ProcessScoped() bool { return true }

// Context implements ports.ContextProvider.
func (p *Host) Context(ctx context.Context) (domain.Mapping, error) {
	logger := logging.FromContext(ctx)

	name, err := p.hostname()
	if err != nil || name == "" {
		logger.DebugContext(ctx, "hostname unavailable", slog.Any("error", err))

		return domain.Mapping{"host": map[string]any{"name": UnknownHost, "ip": nil}}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, hostLookupTimeout)
	defer cancel()

	var ip any
	if addrs, err := p.lookup(ctx, name); err == nil && len(addrs) > 0 {
		ip = addrs[0]
	} else {
		logger.DebugContext(ctx, "host address unavailable", slog.String("host", name), slog.Any("error", err))
	}

	logger.Log(ctx, logging.LevelTrace, "host resolved", slog.String("host", name), slog.Any("ip", ip))

	return domain.Mapping{"host": map[string]any{"name": name, "ip": ip}}, nil
}
