// Package settings is the device setting store: an asynchronous key/value
// surface persisted by one of several backends (memory, PostgreSQL, Redis).
// Values are opaque bytes; GetJSON/SetJSON and the timestamp helpers cover
// the structured values the rest of the module keeps here.
package settings
