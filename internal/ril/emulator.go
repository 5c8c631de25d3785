package ril

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/phrazzld/handset/internal/contacts"
	"github.com/phrazzld/handset/internal/settings"
)

// DefaultPasscode is the network call barring passcode before any change.
const DefaultPasscode = "0000"

const (
	keyPasscode    = "ril.cb.passcode"
	keyCallWaiting = "ril.cw.enabled"
)

func barringKey(p Program) string { return "ril.cb." + p.String() + ".enabled" }
func forwardingKey(r Reason) string {
	return "ril.cf." + r.String() + ".rule"
}
func phonebookKey(iccID string) string { return "ril.icc." + iccID + ".phonebook" }

// StoreConnection emulates a mobile connection whose network state lives in
// a settings store.
type StoreConnection struct {
	store  settings.Store
	logger *slog.Logger
}

// NewStoreConnection creates an emulated connection over s.
func NewStoreConnection(s settings.Store, logger *slog.Logger) *StoreConnection {
	return &StoreConnection{
		store:  s,
		logger: logger.With("component", "ril_emulator"),
	}
}

var _ Connection = (*StoreConnection)(nil)

func (c *StoreConnection) GetCallBarring(ctx context.Context, program Program, serviceClass int) (bool, error) {
	if !program.Valid() {
		return false, fmt.Errorf("%w: %d", ErrInvalidProgram, program)
	}
	return c.getBool(ctx, barringKey(program))
}

func (c *StoreConnection) SetCallBarring(ctx context.Context, opts BarringOptions) error {
	if !opts.Program.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidProgram, opts.Program)
	}
	if err := c.checkPassword(ctx, opts.Password); err != nil {
		return err
	}
	c.logger.Debug("set call barring", "program", opts.Program, "enabled", opts.Enabled)
	return c.store.Set(ctx, barringKey(opts.Program), []byte(strconv.FormatBool(opts.Enabled)))
}

func (c *StoreConnection) ChangeCallBarringPassword(ctx context.Context, pin, newPin string) error {
	if !ValidPasscode(pin) || !ValidPasscode(newPin) {
		return ErrInvalidPasscode
	}
	if err := c.checkPassword(ctx, pin); err != nil {
		return err
	}
	c.logger.Debug("call barring passcode changed")
	return c.store.Set(ctx, keyPasscode, []byte(newPin))
}

func (c *StoreConnection) GetCallForwarding(ctx context.Context, reason Reason) ([]ForwardingRule, error) {
	if !reason.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidReason, reason)
	}
	var rule ForwardingRule
	err := settings.GetJSON(ctx, c.store, forwardingKey(reason), &rule)
	if errors.Is(err, settings.ErrNotFound) {
		return []ForwardingRule{}, nil
	}
	if err != nil {
		return nil, err
	}
	return []ForwardingRule{rule}, nil
}

func (c *StoreConnection) SetCallForwarding(ctx context.Context, opts ForwardingOptions) error {
	if !opts.Reason.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidReason, opts.Reason)
	}
	if !opts.Action.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidAction, opts.Action)
	}

	rules, err := c.GetCallForwarding(ctx, opts.Reason)
	if err != nil {
		return err
	}
	rule := ForwardingRule{Reason: opts.Reason, ServiceClass: opts.ServiceClass}
	if len(rules) > 0 {
		rule = rules[0]
	}

	switch opts.Action {
	case ActionRegistration:
		rule.Active = true
		rule.Number = opts.Number
		rule.TimeSeconds = opts.TimeSeconds
		rule.ServiceClass = opts.ServiceClass
	case ActionEnable:
		// The network can only re-enable a rule that has a registered number.
		rule.Active = rule.Number != ""
	case ActionDisable:
		rule.Active = false
	case ActionErasure:
		rule = ForwardingRule{Reason: opts.Reason, ServiceClass: opts.ServiceClass}
	}

	c.logger.Debug("set call forwarding",
		"reason", opts.Reason,
		"action", opts.Action,
		"active", rule.Active)
	return settings.SetJSON(ctx, c.store, forwardingKey(opts.Reason), rule)
}

func (c *StoreConnection) GetCallWaiting(ctx context.Context) (bool, error) {
	return c.getBool(ctx, keyCallWaiting)
}

func (c *StoreConnection) SetCallWaiting(ctx context.Context, enabled bool) error {
	return c.store.Set(ctx, keyCallWaiting, []byte(strconv.FormatBool(enabled)))
}

func (c *StoreConnection) checkPassword(ctx context.Context, password string) error {
	current, err := c.store.Get(ctx, keyPasscode)
	if errors.Is(err, settings.ErrNotFound) {
		current = []byte(DefaultPasscode)
	} else if err != nil {
		return err
	}
	if string(current) != password {
		return ErrIncorrectPassword
	}
	return nil
}

func (c *StoreConnection) getBool(ctx context.Context, key string) (bool, error) {
	raw, err := c.store.Get(ctx, key)
	if errors.Is(err, settings.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	v, err := strconv.ParseBool(string(raw))
	if err != nil {
		return false, fmt.Errorf("setting %q: %w", key, err)
	}
	return v, nil
}

// StoreICCProvider emulates inserted SIM cards whose phonebooks are kept in
// a settings store.
type StoreICCProvider struct {
	store settings.Store
}

// NewStoreICCProvider creates a provider over s.
func NewStoreICCProvider(s settings.Store) *StoreICCProvider {
	return &StoreICCProvider{store: s}
}

// ICC implements ICCProvider. A card exists once a phonebook was stored for it.
func (p *StoreICCProvider) ICC(ctx context.Context, id string) (ICC, error) {
	if id == "" {
		return nil, ErrUnknownICC
	}
	if _, err := p.store.Get(ctx, phonebookKey(id)); err != nil {
		if errors.Is(err, settings.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownICC, id)
		}
		return nil, err
	}
	return &storeICC{id: id, store: p.store}, nil
}

// Insert stores a phonebook for the card id, making the card available.
func (p *StoreICCProvider) Insert(ctx context.Context, id string, phonebook []contacts.Contact) error {
	if phonebook == nil {
		phonebook = []contacts.Contact{}
	}
	return settings.SetJSON(ctx, p.store, phonebookKey(id), phonebook)
}

type storeICC struct {
	id    string
	store settings.Store
}

func (c *storeICC) ID() string { return c.id }

func (c *storeICC) ReadContacts(ctx context.Context) ([]contacts.Contact, error) {
	var phonebook []contacts.Contact
	if err := settings.GetJSON(ctx, c.store, phonebookKey(c.id), &phonebook); err != nil {
		return nil, fmt.Errorf("read ICC %s phonebook: %w", c.id, err)
	}
	return phonebook, nil
}
