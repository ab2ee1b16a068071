package channels

import (
	"context"

	"github.com/jsamuelsen/app-context/internal/domain"
	"github.com/jsamuelsen/app-context/internal/platform/logging"
)

// Log shares the mapping with every later log record of the scope. It
// replaces the correlation bag carried by ctx, or the process-wide bag
// when ctx has none. An empty mapping clears the bag.
type Log struct{}

// NewLog returns the log channel.
func NewLog() *Log { return &Log{} }

// Name implements ports.ContextChannel.
func (*Log) Name() string { return NameLog }

// Send implements ports.ContextChannel.
func (*Log) Send(ctx context.Context, m domain.Mapping) {
	bag := logging.CorrelationFromContext(ctx)

	if len(m) == 0 {
		bag.Clear()
		return
	}

	bag.Replace(logging.AttrsFromMap(m)...)
}
