package query

import (
	"context"
	"sync"
)

// Observer is a live subscription to one key. It keeps the entry alive,
// starts a background fetch when the entry is stale at subscribe time, and
// lets the holder wait for the next change.
type Observer[T any] struct {
	c *Client
	e *entry

	// seen is the entry version last returned by Next; guarded by c.mu.
	seen uint64

	done      chan struct{}
	closeOnce sync.Once
}

// Observe subscribes to q.Key. Close the observer when the consumer goes away;
// the last Close cancels a fetch still in flight.
func Observe[T any](c *Client, q Query[T]) (*Observer[T], error) {
	if err := q.validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	e := c.entryLocked(q.Key)
	e.fn = q.erase()
	e.observers++
	e.stopGC()

	o := &Observer[T]{
		c:    c,
		e:    e,
		seen: e.version,
		done: make(chan struct{}),
	}

	fn := e.fn
	shouldFetch := e.fetchStatus == FetchIdle && e.isStale(c.opts.StaleTime)
	if shouldFetch {
		c.log.Debug().Str("key", q.Key.String()).Dur("age", e.age()).Msg("observer triggered fetch")
	}
	c.mu.Unlock()

	if shouldFetch {
		c.startFetch(e, fn)
	}
	return o, nil
}

// Key returns the observed key.
func (o *Observer[T]) Key() Key {
	return o.e.key
}

// Current returns the entry's state right now.
func (o *Observer[T]) Current() State[T] {
	o.c.mu.Lock()
	defer o.c.mu.Unlock()
	return snapshot[T](o.e)
}

// Next blocks until the entry has changed since the previous call to Next
// (or since Observe, for the first call) and returns the new state.
func (o *Observer[T]) Next(ctx context.Context) (State[T], error) {
	for {
		o.c.mu.Lock()
		if o.c.closed {
			o.c.mu.Unlock()
			return State[T]{}, ErrClientClosed
		}
		if o.isClosed() {
			o.c.mu.Unlock()
			return State[T]{}, ErrObserverClosed
		}
		if o.e.version != o.seen {
			o.seen = o.e.version
			s := snapshot[T](o.e)
			o.c.mu.Unlock()
			return s, nil
		}
		changed := o.e.changed
		o.c.mu.Unlock()

		select {
		case <-changed:
		case <-o.done:
			return State[T]{}, ErrObserverClosed
		case <-ctx.Done():
			return State[T]{}, ctx.Err()
		}
	}
}

// Close ends the subscription. It is safe to call more than once.
func (o *Observer[T]) Close() {
	o.closeOnce.Do(func() {
		close(o.done)

		o.c.mu.Lock()
		defer o.c.mu.Unlock()
		if o.c.closed {
			return
		}
		o.e.observers--
		o.c.releaseLocked(o.e)
	})
}

func (o *Observer[T]) isClosed() bool {
	select {
	case <-o.done:
		return true
	default:
		return false
	}
}
