package callsettings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/phrazzld/handset/internal/events"
	"github.com/phrazzld/handset/internal/redact"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/phrazzld/handset/internal/scheduler"
)

// ProgramState is the panel view of one call barring program.
type ProgramState struct {
	Program ril.Program `json:"-"`
	Name    string      `json:"name"`
	Active  bool        `json:"active"`
	// Enabled tells whether the user may toggle the program right now.
	Enabled bool `json:"enabled"`
}

// BarringSnapshot is the panel view of all call barring programs.
type BarringSnapshot struct {
	Updating bool           `json:"updating"`
	Programs []ProgramState `json:"programs"`
}

// Barring is the call barring panel.
type Barring struct {
	conn         ril.Connection
	sched        *scheduler.Scheduler
	emitter      events.EventEmitter
	serviceClass int
	logger       *slog.Logger

	mu       sync.Mutex
	active   map[ril.Program]bool
	inflight int
}

// NewBarring creates the call barring panel.
func NewBarring(
	conn ril.Connection,
	sched *scheduler.Scheduler,
	emitter events.EventEmitter,
	serviceClass int,
	logger *slog.Logger,
) *Barring {
	return &Barring{
		conn:         conn,
		sched:        sched,
		emitter:      emitter,
		serviceClass: serviceClass,
		logger:       logger.With("component", "call_barring"),
		active:       make(map[ril.Program]bool, len(ril.Programs)),
	}
}

// Refresh queries every program in order. A failed query stops the refresh;
// programs already read keep their new state.
func (b *Barring) Refresh(ctx context.Context) error {
	b.begin()
	defer b.end()

	return b.sched.Do(ctx, CategoryCallBarring, func(ctx context.Context) error {
		for _, p := range ril.Programs {
			enabled, err := b.conn.GetCallBarring(ctx, p, b.serviceClass)
			if err != nil {
				b.logger.Error("error receiving call barring status",
					"program", p,
					"error", redact.Error(err))
				return fmt.Errorf("query %s: %w", p, err)
			}
			b.mu.Lock()
			b.active[p] = enabled
			b.mu.Unlock()
		}
		return nil
	})
}

// Toggle flips program on the network using the barring password and
// returns the new state.
func (b *Barring) Toggle(ctx context.Context, program ril.Program, password string) (bool, error) {
	if !program.Valid() {
		return false, fmt.Errorf("%w: %d", ril.ErrInvalidProgram, program)
	}

	b.begin()
	defer b.end()

	var next bool
	err := b.sched.Do(ctx, CategoryCallBarring, func(ctx context.Context) error {
		b.mu.Lock()
		next = !b.active[program]
		b.mu.Unlock()

		err := b.conn.SetCallBarring(ctx, ril.BarringOptions{
			Program:      program,
			Enabled:      next,
			Password:     password,
			ServiceClass: b.serviceClass,
		})
		if err != nil {
			b.logger.Error("error while updating call barring",
				"program", program,
				"error", redact.Error(err))
			return err
		}

		b.mu.Lock()
		b.active[program] = next
		b.mu.Unlock()
		return nil
	})
	if err != nil {
		return false, err
	}

	emitChange(ctx, b.emitter, b.logger, events.CallSettingsChangedPayload{
		Setting: "call_barring",
		Key:     program.String(),
		Enabled: next,
	})
	return next, nil
}

// ChangePasscode replaces the call barring passcode. Both codes must be four
// digits.
func (b *Barring) ChangePasscode(ctx context.Context, pin, newPin string) error {
	if !ril.ValidPasscode(pin) || !ril.ValidPasscode(newPin) {
		return ril.ErrInvalidPasscode
	}

	b.begin()
	defer b.end()

	return b.sched.Do(ctx, CategoryCallBarringPasscode, func(ctx context.Context) error {
		if err := b.conn.ChangeCallBarringPassword(ctx, pin, newPin); err != nil {
			b.logger.Error("error changing call barring passcode", "error", redact.Error(err))
			return err
		}
		b.logger.Info("call barring passcode changed")
		return nil
	})
}

// Snapshot returns the current panel state. While a request is running all
// programs are disabled. Otherwise an active BAOC disables BOIC and
// BOICexHC, and an active BAIC disables BAICr.
func (b *Barring) Snapshot() BarringSnapshot {
	b.mu.Lock()
	defer b.mu.Unlock()

	snap := BarringSnapshot{
		Updating: b.inflight > 0,
		Programs: make([]ProgramState, 0, len(ril.Programs)),
	}
	for _, p := range ril.Programs {
		enabled := !snap.Updating
		switch p {
		case ril.BOIC, ril.BOICexHC:
			enabled = enabled && !b.active[ril.BAOC]
		case ril.BAICr:
			enabled = enabled && !b.active[ril.BAIC]
		}
		snap.Programs = append(snap.Programs, ProgramState{
			Program: p,
			Name:    p.String(),
			Active:  b.active[p],
			Enabled: enabled,
		})
	}
	return snap
}

func (b *Barring) begin() {
	b.mu.Lock()
	b.inflight++
	b.mu.Unlock()
}

func (b *Barring) end() {
	b.mu.Lock()
	b.inflight--
	b.mu.Unlock()
}

func emitChange(ctx context.Context, emitter events.EventEmitter, logger *slog.Logger, payload events.CallSettingsChangedPayload) {
	if emitter == nil {
		return
	}
	event, err := events.NewEvent(events.TypeCallSettingsChanged, payload)
	if err != nil {
		logger.Error("failed to build settings event", "error", err)
		return
	}
	if err := emitter.EmitEvent(ctx, event); err != nil {
		logger.Warn("settings event handler failed", "error", err)
	}
}
