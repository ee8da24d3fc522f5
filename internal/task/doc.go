// Package task runs background work for the dispatch pipeline: confirming
// dispatch of enqueued tasks once the engine has accepted them, and
// sweeping expired idempotency records. Work is queued in memory and
// processed by a fixed set of workers; unconfirmed rows are picked up again
// from storage when the runner starts.
package task
