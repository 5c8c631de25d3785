// Package events lets components announce state changes without knowing who
// listens.
//
// The importer emits TypeImportDone after contacts were written and the
// call-settings panels emit TypeCallSettingsChanged after a network request
// changed a setting. Handlers register on an EventEmitter, optionally for a
// single event type.
package events
