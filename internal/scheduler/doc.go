// Package scheduler serializes asynchronous device-setting operations.
//
// A Scheduler runs at most one operation at a time across all categories.
// Enqueuing an operation drops every not-yet-started operation of the same
// category, so only the latest request per category survives while it waits.
// The operation currently executing is never removed.
//
// Operations signal completion by calling the done continuation they are
// handed. The scheduler does not distinguish success from failure, and an
// operation that never calls done stalls the queue for the lifetime of the
// scheduler. Submit wraps a context-aware function so done is always called.
package scheduler
