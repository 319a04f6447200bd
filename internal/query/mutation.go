package query

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/codes"
)

// MutationStatus is the state of the most recent Mutate call.
type MutationStatus int

const (
	// MutationIdle means Mutate has not been called since creation or Reset.
	MutationIdle MutationStatus = iota
	// MutationPending means the latest call is running.
	MutationPending
	// MutationSuccess means the latest call returned a result.
	MutationSuccess
	// MutationError means the latest call failed.
	MutationError
)

// String returns the lowercase status name.
func (s MutationStatus) String() string {
	switch s {
	case MutationIdle:
		return "idle"
	case MutationPending:
		return "pending"
	case MutationSuccess:
		return "success"
	case MutationError:
		return "error"
	default:
		return "unknown"
	}
}

// MutationFunc performs a write with the given variables.
type MutationFunc[V, R any] func(ctx context.Context, vars V) (R, error)

// MutationState is a snapshot of the latest Mutate call.
type MutationState[V, R any] struct {
	Status      MutationStatus
	Variables   V
	Data        R
	Err         error
	SubmittedAt time.Time
}

// MutationOption configures a Mutation.
type MutationOption[V, R any] func(*Mutation[V, R])

// WithOnSuccess registers a callback run after every successful call.
func WithOnSuccess[V, R any](fn func(data R, vars V)) MutationOption[V, R] {
	return func(m *Mutation[V, R]) { m.onSuccess = fn }
}

// WithOnError registers a callback run after every failed call.
func WithOnError[V, R any](fn func(err error, vars V)) MutationOption[V, R] {
	return func(m *Mutation[V, R]) { m.onError = fn }
}

// Mutation is a one-shot write primitive. Every Mutate call runs the
// function again: calls are neither deduplicated nor retried, and nothing is
// written to the cache.
type Mutation[V, R any] struct {
	c         *Client
	fn        MutationFunc[V, R]
	onSuccess func(R, V)
	onError   func(error, V)

	mu    sync.Mutex
	seq   uint64
	state MutationState[V, R]
}

// NewMutation binds fn to the client.
func NewMutation[V, R any](c *Client, fn MutationFunc[V, R], opts ...MutationOption[V, R]) (*Mutation[V, R], error) {
	if fn == nil {
		return nil, ErrNilMutationFunc
	}
	m := &Mutation[V, R]{c: c, fn: fn}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Mutate runs the mutation with vars and returns its result.
// State reflects only the most recently started call.
func (m *Mutation[V, R]) Mutate(ctx context.Context, vars V) (R, error) {
	var zero R
	if m.c.Closed() {
		return zero, ErrClientClosed
	}

	m.mu.Lock()
	m.seq++
	seq := m.seq
	m.state = MutationState[V, R]{
		Status:      MutationPending,
		Variables:   vars,
		SubmittedAt: time.Now(),
	}
	m.mu.Unlock()

	ctx, span := m.c.tracer.Start(ctx, "query.mutate")
	defer span.End()

	data, err := m.fn(ctx, vars)

	m.mu.Lock()
	if seq == m.seq {
		if err != nil {
			m.state.Status = MutationError
			m.state.Err = err
		} else {
			m.state.Status = MutationSuccess
			m.state.Data = data
		}
	}
	m.mu.Unlock()

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		m.c.log.Debug().Err(err).Msg("mutation failed")
		if m.onError != nil {
			m.onError(err, vars)
		}
		return zero, err
	}

	m.c.log.Debug().Msg("mutation succeeded")
	if m.onSuccess != nil {
		m.onSuccess(data, vars)
	}
	return data, nil
}

// State returns the state of the most recent call.
func (m *Mutation[V, R]) State() MutationState[V, R] {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Reset returns the mutation to idle. A call still running will not
// overwrite the reset state.
func (m *Mutation[V, R]) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.state = MutationState[V, R]{}
}
