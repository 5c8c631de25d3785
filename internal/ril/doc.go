// Package ril describes the radio interface layer the call-settings panels
// and the SIM importer talk to: call barring, call forwarding and call
// waiting requests on a mobile connection, and the ICC (SIM) phonebook.
//
// Real modem bindings live outside this module. StoreConnection and
// StoreICCProvider emulate a radio on top of a settings.Store so the daemon
// and CLI can run end to end.
package ril
