package callsettings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/phrazzld/handset/internal/events"
	"github.com/phrazzld/handset/internal/redact"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/phrazzld/handset/internal/scheduler"
)

// Forwarding errors.
var (
	// ErrInvalidNumber is returned for a forwarding number that is not a
	// dialable digit string.
	ErrInvalidNumber = errors.New("invalid call forwarding number")

	// ErrForwardingNotApplied is returned when the network accepted a
	// forwarding request but the re-queried rules show it had no effect.
	ErrForwardingNotApplied = errors.New("call forwarding change was not applied by the network")
)

var dialable = regexp.MustCompile(`^(\+*[0-9])+$`)

// noReplyTimeout is the ring time before a no-reply forward, in seconds.
const noReplyTimeout = 20

// ForwardingStatus is the panel view of one forwarding reason.
type ForwardingStatus struct {
	Reason      ril.Reason `json:"-"`
	Name        string     `json:"reason"`
	Active      bool       `json:"active"`
	Number      string     `json:"number,omitempty"`
	TimeSeconds int        `json:"time_seconds,omitempty"`
}

// ForwardingChange enables or disables forwarding for one reason.
type ForwardingChange struct {
	Reason  ril.Reason
	Enabled bool
	// Number is required when enabling.
	Number string
}

// Forwarding is the call forwarding panel.
type Forwarding struct {
	conn         ril.Connection
	sched        *scheduler.Scheduler
	emitter      events.EventEmitter
	serviceClass int
	logger       *slog.Logger
}

// NewForwarding creates the call forwarding panel.
func NewForwarding(
	conn ril.Connection,
	sched *scheduler.Scheduler,
	emitter events.EventEmitter,
	serviceClass int,
	logger *slog.Logger,
) *Forwarding {
	return &Forwarding{
		conn:         conn,
		sched:        sched,
		emitter:      emitter,
		serviceClass: serviceClass,
		logger:       logger.With("component", "call_forwarding"),
	}
}

// Query reads the rules for all four reasons.
func (f *Forwarding) Query(ctx context.Context) ([]ForwardingStatus, error) {
	var out []ForwardingStatus
	err := f.sched.Do(ctx, CategoryCallForwarding, func(ctx context.Context) error {
		out = make([]ForwardingStatus, 0, len(ril.Reasons))
		for _, reason := range ril.Reasons {
			status, err := f.query(ctx, reason)
			if err != nil {
				return err
			}
			out = append(out, status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Set applies change and re-queries the reason to confirm the network
// applied it.
func (f *Forwarding) Set(ctx context.Context, change ForwardingChange) (ForwardingStatus, error) {
	if !change.Reason.Valid() {
		return ForwardingStatus{}, fmt.Errorf("%w: %d", ril.ErrInvalidReason, change.Reason)
	}

	opts := ril.ForwardingOptions{
		Action:       ril.ActionDisable,
		Reason:       change.Reason,
		ServiceClass: f.serviceClass,
	}
	if change.Enabled {
		if !dialable.MatchString(change.Number) {
			return ForwardingStatus{}, ErrInvalidNumber
		}
		opts.Action = ril.ActionRegistration
		opts.Number = change.Number
		if change.Reason == ril.NoReply {
			opts.TimeSeconds = noReplyTimeout
		}
	}

	var status ForwardingStatus
	err := f.sched.Do(ctx, CategoryCallForwarding, func(ctx context.Context) error {
		if err := f.conn.SetCallForwarding(ctx, opts); err != nil {
			f.logger.Error("error setting call forwarding",
				"reason", change.Reason,
				"action", opts.Action,
				"error", redact.Error(err))
			return err
		}

		var err error
		status, err = f.query(ctx, change.Reason)
		if err != nil {
			return err
		}

		if status.Active != change.Enabled {
			f.logger.Warn("call forwarding not applied",
				"reason", change.Reason,
				"action", opts.Action,
				"number", redact.Phone(change.Number))
			return ErrForwardingNotApplied
		}
		return nil
	})
	if err != nil {
		return ForwardingStatus{}, err
	}

	emitChange(ctx, f.emitter, f.logger, events.CallSettingsChangedPayload{
		Setting: "call_forwarding",
		Key:     change.Reason.String(),
		Enabled: status.Active,
	})
	return status, nil
}

func (f *Forwarding) query(ctx context.Context, reason ril.Reason) (ForwardingStatus, error) {
	rules, err := f.conn.GetCallForwarding(ctx, reason)
	if err != nil {
		return ForwardingStatus{}, fmt.Errorf("query %s: %w", reason, err)
	}

	status := ForwardingStatus{Reason: reason, Name: reason.String()}
	for _, rule := range rules {
		if rule.AppliesTo(f.serviceClass) {
			status.Active = true
			status.Number = rule.Number
			status.TimeSeconds = rule.TimeSeconds
			break
		}
	}
	return status, nil
}
