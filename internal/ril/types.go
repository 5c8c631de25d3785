package ril

import (
	"errors"
	"fmt"
	"strings"
)

// Radio errors.
var (
	// ErrIncorrectPassword is returned when a call barring password does not
	// match the network passcode.
	ErrIncorrectPassword = errors.New("incorrect call barring password")

	// ErrInvalidPasscode is returned when a passcode is not four digits.
	ErrInvalidPasscode = errors.New("call barring passcode must be 4 digits")

	// ErrUnknownICC is returned when no SIM card with the given id is present.
	ErrUnknownICC = errors.New("unknown ICC")

	// ErrInvalidProgram is returned for an unknown call barring program.
	ErrInvalidProgram = errors.New("invalid call barring program")

	// ErrInvalidReason is returned for an unknown call forwarding reason.
	ErrInvalidReason = errors.New("invalid call forwarding reason")

	// ErrInvalidAction is returned for an unknown call forwarding action.
	ErrInvalidAction = errors.New("invalid call forwarding action")
)

// ServiceClassVoice is the ICC service class mask for voice calls.
const ServiceClassVoice = 1

// Program identifies a call barring service.
type Program int

const (
	BAOC     Program = iota // barring all outgoing calls
	BOIC                    // barring outgoing international calls
	BOICexHC                // barring outgoing international calls except to home country
	BAIC                    // barring all incoming calls
	BAICr                   // barring all incoming calls when roaming
)

// Programs lists every call barring program in query order.
var Programs = []Program{BAOC, BOIC, BOICexHC, BAIC, BAICr}

var programNames = map[Program]string{
	BAOC:     "baoc",
	BOIC:     "boic",
	BOICexHC: "boicExhc",
	BAIC:     "baic",
	BAICr:    "baicR",
}

func (p Program) String() string {
	if name, ok := programNames[p]; ok {
		return name
	}
	return fmt.Sprintf("program(%d)", int(p))
}

// Valid reports whether p is a known program.
func (p Program) Valid() bool {
	_, ok := programNames[p]
	return ok
}

// ParseProgram maps a program name ("baoc", "boicExhc", ...) to a Program.
// Matching is case-insensitive.
func ParseProgram(name string) (Program, error) {
	for p, n := range programNames {
		if strings.EqualFold(n, name) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidProgram, name)
}

// Reason identifies when a call is forwarded.
type Reason int

const (
	Unconditional Reason = iota
	MobileBusy
	NoReply
	NotReachable
)

// Reasons lists every forwarding reason in query order.
var Reasons = []Reason{Unconditional, MobileBusy, NoReply, NotReachable}

var reasonNames = map[Reason]string{
	Unconditional: "unconditional",
	MobileBusy:    "mobilebusy",
	NoReply:       "noreply",
	NotReachable:  "notreachable",
}

func (r Reason) String() string {
	if name, ok := reasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("reason(%d)", int(r))
}

// Valid reports whether r is a known reason.
func (r Reason) Valid() bool {
	_, ok := reasonNames[r]
	return ok
}

// ParseReason maps a reason name ("unconditional", "mobilebusy", ...) to a Reason.
func ParseReason(name string) (Reason, error) {
	for r, n := range reasonNames {
		if strings.EqualFold(n, name) {
			return r, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidReason, name)
}

// Action is a call forwarding request type.
type Action int

const (
	ActionDisable      Action = 0
	ActionEnable       Action = 1
	ActionRegistration Action = 3
	ActionErasure      Action = 4
)

// Valid reports whether a is a known action.
func (a Action) Valid() bool {
	switch a {
	case ActionDisable, ActionEnable, ActionRegistration, ActionErasure:
		return true
	}
	return false
}

func (a Action) String() string {
	switch a {
	case ActionDisable:
		return "disable"
	case ActionEnable:
		return "enable"
	case ActionRegistration:
		return "registration"
	case ActionErasure:
		return "erasure"
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// BarringOptions is a call barring set request.
type BarringOptions struct {
	Program      Program
	Enabled      bool
	Password     string
	ServiceClass int
}

// ForwardingRule is one call forwarding rule as reported by the network.
type ForwardingRule struct {
	Active       bool   `json:"active"`
	Reason       Reason `json:"reason"`
	Number       string `json:"number,omitempty"`
	TimeSeconds  int    `json:"time_seconds,omitempty"`
	ServiceClass int    `json:"service_class"`
}

// AppliesTo reports whether the rule is active for the given service class.
func (r ForwardingRule) AppliesTo(serviceClass int) bool {
	return r.Active && r.ServiceClass&serviceClass != 0
}

// ForwardingOptions is a call forwarding set request.
type ForwardingOptions struct {
	Action       Action
	Reason       Reason
	Number       string
	TimeSeconds  int
	ServiceClass int
}

// ValidPasscode reports whether pin is exactly four ASCII digits.
func ValidPasscode(pin string) bool {
	if len(pin) != 4 {
		return false
	}
	for _, r := range pin {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
