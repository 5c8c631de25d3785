// Package app wires the configured backends, the radio emulator, the call
// settings panels and the import controller into one set of dependencies
// shared by the daemon and the terminal client.
package app
