package query

import (
	"context"
	"time"
)

// entry is the untyped cache record behind a Key. All fields are guarded by
// the owning Client's mutex.
type entry struct {
	key  Key
	hash string

	status         Status
	fetchStatus    FetchStatus
	data           any
	err            error
	dataUpdatedAt  time.Time
	errorUpdatedAt time.Time
	failureCount   int
	invalidated    bool

	// version increments on every change; changed is closed and replaced at
	// the same time so waiters can block on the next change.
	version uint64
	changed chan struct{}

	// observers counts live Observers; waiters counts Fetch calls blocked on
	// the in-flight result.
	observers int
	waiters   int

	// fn is the query function last registered for the key, used to refetch
	// on invalidation.
	fn queryFunc

	// fetchSeq identifies the current fetch so a cancelled one that returns
	// late cannot overwrite newer state.
	fetchSeq    uint64
	cancelFetch context.CancelFunc
	gcTimer     *time.Timer
}

func newEntry(key Key) *entry {
	return &entry{
		key:     key,
		hash:    key.Hash(),
		changed: make(chan struct{}),
	}
}

// isStale reports whether the entry should be refetched given staleTime.
// Entries without data and invalidated entries are always stale.
func (e *entry) isStale(staleTime time.Duration) bool {
	if e.status != StatusSuccess || e.invalidated {
		return true
	}
	return time.Since(e.dataUpdatedAt) >= staleTime
}

// age returns how long ago the data was last updated.
func (e *entry) age() time.Duration {
	if e.dataUpdatedAt.IsZero() {
		return 0
	}
	return time.Since(e.dataUpdatedAt)
}

// unused reports whether nothing is observing or waiting on the entry.
func (e *entry) unused() bool {
	return e.observers == 0 && e.waiters == 0
}

func (e *entry) stopGC() {
	if e.gcTimer != nil {
		e.gcTimer.Stop()
		e.gcTimer = nil
	}
}

// bump records a change and wakes everything blocked on the previous version.
func (e *entry) bump() {
	e.version++
	close(e.changed)
	e.changed = make(chan struct{})
}

func snapshot[T any](e *entry) State[T] {
	s := State[T]{
		Status:         e.status,
		FetchStatus:    e.fetchStatus,
		Err:            e.err,
		DataUpdatedAt:  e.dataUpdatedAt,
		ErrorUpdatedAt: e.errorUpdatedAt,
		FailureCount:   e.failureCount,
		Invalidated:    e.invalidated,
	}
	if v, ok := e.data.(T); ok {
		s.Data = v
	}
	return s
}
