// Package terminal draws the import overlay, status line and retry prompt
// on a terminal for handsetctl.
package terminal
