package ril

import (
	"context"

	"github.com/phrazzld/handset/internal/contacts"
)

// Connection is a mobile connection. Each method issues one network request
// and returns when the network answers. Requests are not safe to run
// concurrently; callers serialise them through a scheduler.
type Connection interface {
	GetCallBarring(ctx context.Context, program Program, serviceClass int) (bool, error)
	SetCallBarring(ctx context.Context, opts BarringOptions) error
	ChangeCallBarringPassword(ctx context.Context, pin, newPin string) error

	GetCallForwarding(ctx context.Context, reason Reason) ([]ForwardingRule, error)
	SetCallForwarding(ctx context.Context, opts ForwardingOptions) error

	GetCallWaiting(ctx context.Context) (bool, error)
	SetCallWaiting(ctx context.Context, enabled bool) error
}

// ICC is a SIM card.
type ICC interface {
	ID() string
	// ReadContacts enumerates the SIM phonebook.
	ReadContacts(ctx context.Context) ([]contacts.Contact, error)
}

// ICCProvider looks up inserted SIM cards.
type ICCProvider interface {
	// ICC returns the card with the given id, or ErrUnknownICC.
	ICC(ctx context.Context, id string) (ICC, error)
}
