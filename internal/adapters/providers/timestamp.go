package providers

import (
	"context"
	"time"

	"github.com/jsamuelsen/app-context/internal/app/appctx"
	"github.com/jsamuelsen/app-context/internal/domain"
)

// TimestampLayout is ISO-8601 with second precision and a numeric offset.
// time.RFC3339 is not used because it renders UTC as "Z".
const TimestampLayout = "2006-01-02T15:04:05-07:00"

// Timestamp contributes the resolution time under "timestamp". It changes
// on every pass and is never cached.
type Timestamp struct {
	appctx.BaseProvider

	now func() time.Time
	loc *time.Location
}

// NewTimestamp renders times in loc. A nil now uses time.Now; a nil loc
// uses UTC.
func NewTimestamp(now func() time.Time, loc *time.Location) *Timestamp {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}

	return &Timestamp{
		BaseProvider: appctx.BaseProvider{ProviderName: NameTimestamp},
		now:          now,
		loc:          loc,
	}
}

// Context implements ports.ContextProvider.
func (p *Timestamp) Context(context.Context) (domain.Mapping, error) {
	return domain.Mapping{"timestamp": p.now().In(p.loc).Format(TimestampLayout)}, nil
}
