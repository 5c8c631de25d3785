package callsettings

import (
	"context"
	"log/slog"

	"github.com/phrazzld/handset/internal/events"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/phrazzld/handset/internal/scheduler"
)

// Waiting is the call waiting switch.
type Waiting struct {
	conn    ril.Connection
	sched   *scheduler.Scheduler
	emitter events.EventEmitter
	logger  *slog.Logger
}

// NewWaiting creates the call waiting switch.
func NewWaiting(conn ril.Connection, sched *scheduler.Scheduler, emitter events.EventEmitter, logger *slog.Logger) *Waiting {
	return &Waiting{
		conn:    conn,
		sched:   sched,
		emitter: emitter,
		logger:  logger.With("component", "call_waiting"),
	}
}

// Get reads the call waiting state from the network.
func (w *Waiting) Get(ctx context.Context) (bool, error) {
	var enabled bool
	err := w.sched.Do(ctx, CategoryCallWaiting, func(ctx context.Context) error {
		var err error
		enabled, err = w.conn.GetCallWaiting(ctx)
		return err
	})
	return enabled, err
}

// Set changes call waiting and returns the state the network reports
// afterwards. The state is re-read even when the change fails, so a failed
// Set still returns the current value alongside the error.
func (w *Waiting) Set(ctx context.Context, enabled bool) (bool, error) {
	var current bool
	var setErr error
	err := w.sched.Do(ctx, CategoryCallWaiting, func(ctx context.Context) error {
		if setErr = w.conn.SetCallWaiting(ctx, enabled); setErr != nil {
			w.logger.Error("error setting call waiting", "error", setErr)
		}
		var err error
		current, err = w.conn.GetCallWaiting(ctx)
		return err
	})
	if err != nil {
		return false, err
	}
	if setErr != nil {
		return current, setErr
	}

	emitChange(ctx, w.emitter, w.logger, events.CallSettingsChangedPayload{
		Setting: "call_waiting",
		Enabled: current,
	})
	return current, nil
}
