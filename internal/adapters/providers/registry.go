// Package providers implements the context providers that can be enabled
// by name under app_context.providers.
package providers

import (
	"fmt"
	"time"

	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/platform/config"
	"github.com/jsamuelsen/app-context/internal/ports"
)

// Provider names accepted in configuration.
const (
	NameTimestamp = "timestamp"
	NameApp       = "app"
	NameHost      = "host"
	NameRequest   = "request"
	NameUser      = "user"
	NameTrace     = "trace"
	NameStatic    = "static"
)

// Deps carries what the providers read from configuration.
type Deps struct {
	App    config.AppConfig
	Static []config.StaticProviderConfig

	// Now overrides the clock of the timestamp provider.
	Now func() time.Time
}

// FromConfig returns the providers named in names, in order. "static"
// expands to every entry of deps.Static. Unknown names are an error, and so
// is any provider name produced twice, since the engine keys its cache by
// name.
func FromConfig(names []string, deps Deps) ([]ports.ContextProvider, error) {
	out := make([]ports.ContextProvider, 0, len(names))
	seen := make(map[string]struct{}, len(names))

	add := func(p ports.ContextProvider) error {
		if _, dup := seen[p.Name()]; dup {
			return domain.NewValidationError("app_context.providers",
				fmt.Sprintf("provider name %q is used more than once", p.Name()))
		}

		seen[p.Name()] = struct{}{}
		out = append(out, p)

		return nil
	}

	for _, name := range names {
		var p ports.ContextProvider

		switch name {
		case NameTimestamp:
			p = NewTimestamp(deps.Now, location(deps.App.Timezone))
		case NameApp:
			p = NewApp(deps.App)
		case NameHost:
			p = NewHost()
		case NameRequest:
			p = NewRequest()
		case NameUser:
			p = NewUser()
		case NameTrace:
			p = NewTrace()
		case NameStatic:
			for _, sc := range deps.Static {
				sp, err := NewStatic(sc, deps.App)
				if err != nil {
					return nil, fmt.Errorf("static provider %q: %w", sc.Name, err)
				}

				if err := add(sp); err != nil {
					return nil, err
				}
			}

			continue
		default:
			return nil, domain.NewUnknownProviderError(name)
		}

		if err := add(p); err != nil {
			return nil, err
		}
	}

	return out, nil
}

func location(name string) *time.Location {
	if name == "" {
		return time.UTC
	}

	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}

	return loc
}
