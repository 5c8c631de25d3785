// Package importer imports contacts from a SIM card, a memory card or raw
// vCard text.
//
// A Pipeline turns one Source into a finite stream of events:
//
//	Read(total) Imported(contact)... Finished(summary)
//
// or, when the source cannot be read, a single Failed(err). Cancellation is
// cooperative through a CancelToken and takes effect at the next checkpoint:
// before the source is read, once it has been read, before each item and
// before the summary is produced. An item that is being imported when the
// token fires still completes.
//
// A Controller wraps pipelines with the user-facing behaviour: wake-lock,
// progress overlay, feedback delay, timestamp persistence, status message
// and the retry/cancel dialog.
package importer
