// Package callsettings implements the call barring, call forwarding and
// call waiting panels on top of a ril.Connection.
//
// Every network request goes through one shared scheduler.Scheduler, so no
// two requests are ever in flight against the radio at the same time and a
// stale pending request is replaced by a newer one of the same category.
package callsettings

import "github.com/phrazzld/handset/internal/scheduler"

// Scheduler categories used by the panels.
const (
	CategoryCallBarring         scheduler.Category = "CALL_BARRING"
	CategoryCallBarringPasscode scheduler.Category = "CALL_BARRING_PASSCODE"
	CategoryCallForwarding      scheduler.Category = "CALL_FORWARDING"
	CategoryCallWaiting         scheduler.Category = "CALL_WAITING"
)
