package query

import "time"

// Status is the data status of an entry.
type Status int

const (
	// StatusPending means no value has been produced yet.
	StatusPending Status = iota
	// StatusError means the last fetch failed.
	StatusError
	// StatusSuccess means the entry holds a value.
	StatusSuccess
)

// String returns the lowercase status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusError:
		return "error"
	case StatusSuccess:
		return "success"
	default:
		return "unknown"
	}
}

// FetchStatus reports whether a fetch is currently running for an entry.
type FetchStatus int

const (
	// FetchIdle means no fetch is running.
	FetchIdle FetchStatus = iota
	// FetchFetching means a fetch is in flight.
	FetchFetching
)

// String returns the lowercase fetch status name.
func (f FetchStatus) String() string {
	if f == FetchFetching {
		return "fetching"
	}
	return "idle"
}

// State is a typed snapshot of a cache entry.
type State[T any] struct {
	Status         Status
	FetchStatus    FetchStatus
	Data           T
	Err            error
	DataUpdatedAt  time.Time
	ErrorUpdatedAt time.Time
	FailureCount   int
	Invalidated    bool
}

// IsPending reports whether no value has been produced yet.
func (s State[T]) IsPending() bool { return s.Status == StatusPending }

// IsError reports whether the last fetch failed.
func (s State[T]) IsError() bool { return s.Status == StatusError }

// IsSuccess reports whether the entry holds a value.
func (s State[T]) IsSuccess() bool { return s.Status == StatusSuccess }

// IsFetching reports whether a fetch is in flight.
func (s State[T]) IsFetching() bool { return s.FetchStatus == FetchFetching }
