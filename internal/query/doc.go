// Package query provides an in-process, keyed cache for asynchronous reads
// and a one-shot mutation primitive for writes.
//
// A Client owns every cache entry. Entries are addressed by a Key, hold the
// last value or error returned by their query function, and are observed by
// zero or more Observers. Key features:
//   - At most one in-flight fetch per key; concurrent reads share it
//   - Pending, error and success states with a separate fetching flag
//   - Stale-time based background refetch when a new observer subscribes
//   - Invalidation by key prefix
//   - Cancellation of a fetch once nothing is waiting for it any more
//   - Garbage collection of entries that have had no observers for GCTime
//
// Mutations never touch cache entries. Callers that need a list to reflect
// a write must invalidate it themselves.
//
// A Client has an explicit lifecycle: build it with New, pass it to whatever
// needs it, and Close it when the application shuts down.
package query
