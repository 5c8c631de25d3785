package callsettings_test

import (
	"context"

	"github.com/phrazzld/handset/internal/ril"
)

// MockConnection is a ril.Connection with per-method function fields.
// Unset methods delegate to Fallback.
type MockConnection struct {
	Fallback ril.Connection

	GetCallBarringFn    func(ctx context.Context, program ril.Program, serviceClass int) (bool, error)
	SetCallBarringFn    func(ctx context.Context, opts ril.BarringOptions) error
	GetCallForwardingFn func(ctx context.Context, reason ril.Reason) ([]ril.ForwardingRule, error)
	SetCallForwardingFn func(ctx context.Context, opts ril.ForwardingOptions) error
	SetCallWaitingFn    func(ctx context.Context, enabled bool) error
}

func (m *MockConnection) GetCallBarring(ctx context.Context, program ril.Program, serviceClass int) (bool, error) {
	if m.GetCallBarringFn != nil {
		return m.GetCallBarringFn(ctx, program, serviceClass)
	}
	return m.Fallback.GetCallBarring(ctx, program, serviceClass)
}

func (m *MockConnection) SetCallBarring(ctx context.Context, opts ril.BarringOptions) error {
	if m.SetCallBarringFn != nil {
		return m.SetCallBarringFn(ctx, opts)
	}
	return m.Fallback.SetCallBarring(ctx, opts)
}

func (m *MockConnection) ChangeCallBarringPassword(ctx context.Context, pin, newPin string) error {
	return m.Fallback.ChangeCallBarringPassword(ctx, pin, newPin)
}

func (m *MockConnection) GetCallForwarding(ctx context.Context, reason ril.Reason) ([]ril.ForwardingRule, error) {
	if m.GetCallForwardingFn != nil {
		return m.GetCallForwardingFn(ctx, reason)
	}
	return m.Fallback.GetCallForwarding(ctx, reason)
}

func (m *MockConnection) SetCallForwarding(ctx context.Context, opts ril.ForwardingOptions) error {
	if m.SetCallForwardingFn != nil {
		return m.SetCallForwardingFn(ctx, opts)
	}
	return m.Fallback.SetCallForwarding(ctx, opts)
}

func (m *MockConnection) GetCallWaiting(ctx context.Context) (bool, error) {
	return m.Fallback.GetCallWaiting(ctx)
}

func (m *MockConnection) SetCallWaiting(ctx context.Context, enabled bool) error {
	if m.SetCallWaitingFn != nil {
		return m.SetCallWaitingFn(ctx, enabled)
	}
	return m.Fallback.SetCallWaiting(ctx, enabled)
}
