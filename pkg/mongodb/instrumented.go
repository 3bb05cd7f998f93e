package mongodb

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rezahawari/qurban-marketplace/pkg/logging"
	"github.com/rezahawari/qurban-marketplace/pkg/metrics"
	"go.mongodb.org/mongo-driver/event"
)

// handshake and session bookkeeping commands are not recorded
var ignoredCommands = map[string]bool{
	"hello": true, "isMaster": true, "ping": true, "saslStart": true,
	"saslContinue": true, "endSessions": true, "buildInfo": true,
}

type pendingCommand struct {
	collection string
	operation  string
}

// CommandMonitor records metrics and debug logs for every driver command
type CommandMonitor struct {
	metrics *metrics.Metrics
	logger  *logging.Logger
	pending sync.Map // requestID -> pendingCommand
}

// NewCommandMonitor returns the driver monitor; m may be nil
func NewCommandMonitor(m *metrics.Metrics, logger *logging.Logger) *event.CommandMonitor {
	monitor := &CommandMonitor{metrics: m, logger: logger}
	return &event.CommandMonitor{
		Started:   monitor.started,
		Succeeded: monitor.succeeded,
		Failed:    monitor.failed,
	}
}

func (m *CommandMonitor) started(_ context.Context, evt *event.CommandStartedEvent) {
	if ignoredCommands[evt.CommandName] {
		return
	}

	collection := ""
	if value, err := evt.Command.LookupErr(evt.CommandName); err == nil {
		collection, _ = value.StringValueOK()
	}
	m.pending.Store(evt.RequestID, pendingCommand{collection: collection, operation: evt.CommandName})
}

func (m *CommandMonitor) succeeded(ctx context.Context, evt *event.CommandSucceededEvent) {
	m.finish(ctx, evt.RequestID, evt.Duration, nil)
}

func (m *CommandMonitor) failed(ctx context.Context, evt *event.CommandFailedEvent) {
	m.finish(ctx, evt.RequestID, evt.Duration, errors.New(evt.Failure))
}

func (m *CommandMonitor) finish(ctx context.Context, requestID int64, duration time.Duration, err error) {
	value, ok := m.pending.LoadAndDelete(requestID)
	if !ok {
		return
	}
	cmd := value.(pendingCommand)

	if m.metrics != nil {
		m.metrics.RecordMongoDBOperation(cmd.collection, cmd.operation, err == nil, duration)
	}
	if m.logger != nil {
		m.logger.DatabaseQuery(ctx, cmd.collection, cmd.operation, duration, err)
	}
}
