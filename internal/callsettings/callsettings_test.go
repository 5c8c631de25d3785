package callsettings_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/phrazzld/handset/internal/callsettings"
	"github.com/phrazzld/handset/internal/events"
	"github.com/phrazzld/handset/internal/ril"
	"github.com/phrazzld/handset/internal/scheduler"
	"github.com/phrazzld/handset/internal/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	conn     *MockConnection
	sched    *scheduler.Scheduler
	recorder *events.Recorder
	barring  *callsettings.Barring
	forward  *callsettings.Forwarding
	waiting  *callsettings.Waiting
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	conn := &MockConnection{Fallback: ril.NewStoreConnection(settings.NewMemoryStore(), logger)}
	sched := scheduler.New(logger)
	emitter := events.NewInMemoryEventEmitter(logger)
	recorder := events.NewRecorder(10)
	emitter.RegisterHandler(recorder)

	return &fixture{
		conn:     conn,
		sched:    sched,
		recorder: recorder,
		barring:  callsettings.NewBarring(conn, sched, emitter, ril.ServiceClassVoice, logger),
		forward:  callsettings.NewForwarding(conn, sched, emitter, ril.ServiceClassVoice, logger),
		waiting:  callsettings.NewWaiting(conn, sched, emitter, logger),
	}
}

func enabledByName(snap callsettings.BarringSnapshot) map[string]bool {
	out := make(map[string]bool, len(snap.Programs))
	for _, p := range snap.Programs {
		out[p.Name] = p.Enabled
	}
	return out
}

func TestBarringRefreshAndEnabledRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	active := map[ril.Program]bool{ril.BAOC: true, ril.BAIC: true}
	f.conn.GetCallBarringFn = func(ctx context.Context, p ril.Program, _ int) (bool, error) {
		return active[p], nil
	}

	require.NoError(t, f.barring.Refresh(ctx))
	snap := f.barring.Snapshot()

	assert.False(t, snap.Updating)
	require.Len(t, snap.Programs, 5)
	assert.True(t, snap.Programs[0].Active)
	assert.Equal(t, map[string]bool{
		"baoc":     true,
		"boic":     false,
		"boicExhc": false,
		"baic":     true,
		"baicR":    false,
	}, enabledByName(snap))
}

func TestBarringSnapshotDisabledWhileUpdating(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.conn.GetCallBarringFn = func(ctx context.Context, p ril.Program, _ int) (bool, error) {
		<-release
		return false, nil
	}

	done := make(chan error, 1)
	go func() { done <- f.barring.Refresh(context.Background()) }()

	assert.Eventually(t, func() bool { return f.barring.Snapshot().Updating }, time.Second, time.Millisecond)
	for _, enabled := range enabledByName(f.barring.Snapshot()) {
		assert.False(t, enabled)
	}

	close(release)
	require.NoError(t, <-done)
	for name, enabled := range enabledByName(f.barring.Snapshot()) {
		assert.True(t, enabled, name)
	}
}

func TestBarringRefreshStopsAtFirstError(t *testing.T) {
	f := newFixture(t)
	radioErr := errors.New("radio not available")
	var queried []ril.Program
	f.conn.GetCallBarringFn = func(ctx context.Context, p ril.Program, _ int) (bool, error) {
		queried = append(queried, p)
		if p == ril.BOICexHC {
			return false, radioErr
		}
		return true, nil
	}

	err := f.barring.Refresh(context.Background())
	assert.ErrorIs(t, err, radioErr)
	assert.Equal(t, []ril.Program{ril.BAOC, ril.BOIC, ril.BOICexHC}, queried)
	assert.True(t, f.barring.Snapshot().Programs[0].Active)
	assert.False(t, f.barring.Snapshot().Updating)
}

func TestBarringToggle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.barring.Toggle(ctx, ril.BAIC, "9999")
	assert.ErrorIs(t, err, ril.ErrIncorrectPassword)
	assert.False(t, f.barring.Snapshot().Programs[ril.BAIC].Active)

	active, err := f.barring.Toggle(ctx, ril.BAIC, ril.DefaultPasscode)
	require.NoError(t, err)
	assert.True(t, active)

	snap := f.barring.Snapshot()
	assert.True(t, snap.Programs[ril.BAIC].Active)
	assert.False(t, snap.Programs[ril.BAICr].Enabled)

	recorded := f.recorder.Events()
	require.Len(t, recorded, 1)
	var payload events.CallSettingsChangedPayload
	require.NoError(t, recorded[0].UnmarshalPayload(&payload))
	assert.Equal(t, events.CallSettingsChangedPayload{Setting: "call_barring", Key: "baic", Enabled: true}, payload)

	active, err = f.barring.Toggle(ctx, ril.BAIC, ril.DefaultPasscode)
	require.NoError(t, err)
	assert.False(t, active)

	_, err = f.barring.Toggle(ctx, ril.Program(9), ril.DefaultPasscode)
	assert.ErrorIs(t, err, ril.ErrInvalidProgram)
}

func TestBarringChangePasscode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.barring.ChangePasscode(ctx, "0000", "12"), ril.ErrInvalidPasscode)
	assert.ErrorIs(t, f.barring.ChangePasscode(ctx, "1111", "1234"), ril.ErrIncorrectPassword)
	require.NoError(t, f.barring.ChangePasscode(ctx, "0000", "1234"))

	_, err := f.barring.Toggle(ctx, ril.BAOC, "1234")
	assert.NoError(t, err)
}

func TestForwardingSetAndQuery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	status, err := f.forward.Set(ctx, callsettings.ForwardingChange{
		Reason: ril.NoReply, Enabled: true, Number: "+15551234",
	})
	require.NoError(t, err)
	assert.True(t, status.Active)
	assert.Equal(t, "+15551234", status.Number)
	assert.Equal(t, 20, status.TimeSeconds)

	all, err := f.forward.Query(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	assert.Equal(t, "unconditional", all[0].Name)
	assert.False(t, all[0].Active)
	assert.True(t, all[ril.NoReply].Active)

	status, err = f.forward.Set(ctx, callsettings.ForwardingChange{Reason: ril.NoReply})
	require.NoError(t, err)
	assert.False(t, status.Active)

	assert.Len(t, f.recorder.Events(), 2)
}

func TestForwardingRejectsInvalidNumber(t *testing.T) {
	f := newFixture(t)
	for _, number := range []string{"", "555-1234", "call me", "+"} {
		_, err := f.forward.Set(context.Background(), callsettings.ForwardingChange{
			Reason: ril.Unconditional, Enabled: true, Number: number,
		})
		assert.ErrorIs(t, err, callsettings.ErrInvalidNumber, number)
	}
}

func TestForwardingNotApplied(t *testing.T) {
	f := newFixture(t)
	f.conn.SetCallForwardingFn = func(ctx context.Context, opts ril.ForwardingOptions) error {
		return nil // accepted but ignored by the network
	}

	_, err := f.forward.Set(context.Background(), callsettings.ForwardingChange{
		Reason: ril.MobileBusy, Enabled: true, Number: "5551234",
	})
	assert.ErrorIs(t, err, callsettings.ErrForwardingNotApplied)
	assert.Empty(t, f.recorder.Events())
}

func TestWaiting(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	enabled, err := f.waiting.Get(ctx)
	require.NoError(t, err)
	assert.False(t, enabled)

	enabled, err = f.waiting.Set(ctx, true)
	require.NoError(t, err)
	assert.True(t, enabled)

	setErr := errors.New("generic failure")
	f.conn.SetCallWaitingFn = func(ctx context.Context, enabled bool) error { return setErr }
	enabled, err = f.waiting.Set(ctx, false)
	assert.ErrorIs(t, err, setErr)
	assert.True(t, enabled, "state is re-read after a failed change")
}

func TestPanelsNeverOverlapRequests(t *testing.T) {
	f := newFixture(t)
	var inflight, maxInflight atomic.Int32

	track := func() func() {
		n := inflight.Add(1)
		for {
			cur := maxInflight.Load()
			if n <= cur || maxInflight.CompareAndSwap(cur, n) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		return func() { inflight.Add(-1) }
	}
	f.conn.GetCallBarringFn = func(ctx context.Context, p ril.Program, _ int) (bool, error) {
		defer track()()
		return false, nil
	}
	f.conn.GetCallForwardingFn = func(ctx context.Context, r ril.Reason) ([]ril.ForwardingRule, error) {
		defer track()()
		return nil, nil
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			err := f.barring.Refresh(ctx)
			if err != nil {
				assert.ErrorIs(t, err, scheduler.ErrSuperseded)
			}
		}()
		go func() {
			defer wg.Done()
			_, err := f.forward.Query(ctx)
			if err != nil {
				assert.ErrorIs(t, err, scheduler.ErrSuperseded)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInflight.Load())
}
