package query

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var postsKey = Key{"posts"}

const waitTimeout = 2 * time.Second

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	c, err := New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

// countingQuery returns a query whose function counts calls and returns
// "v<n>" for the n-th call.
func countingQuery(key Key, calls *atomic.Int32) Query[string] {
	return Query[string]{
		Key: key,
		Fn: func(context.Context) (string, error) {
			n := calls.Add(1)
			return fmt.Sprintf("v%d", n), nil
		},
	}
}

func entryField(c *Client, key Key, read func(*entry) int) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key.Hash()]
	if !ok {
		return -1
	}
	return read(e)
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		c := newTestClient(t)
		assert.Equal(t, DefaultOptions().GCTime, c.Options().GCTime)
		assert.Equal(t, 0, c.Options().Retry)
		assert.Equal(t, 0, c.Len())
	})

	t.Run("rejects invalid options", func(t *testing.T) {
		_, err := New(WithRetry(-1, 0))
		require.ErrorIs(t, err, ErrInvalidRetry)

		_, err = New(WithStaleTime(-time.Second))
		require.Error(t, err)
	})
}

func TestFetch(t *testing.T) {
	t.Run("deduplicates concurrent reads of one key", func(t *testing.T) {
		c := newTestClient(t)
		release := make(chan struct{})
		var calls atomic.Int32
		q := Query[[]string]{
			Key: postsKey,
			Fn: func(context.Context) ([]string, error) {
				calls.Add(1)
				<-release
				return []string{"a", "b"}, nil
			},
		}

		const readers = 8
		var wg sync.WaitGroup
		results := make([][]string, readers)
		errs := make([]error, readers)
		for i := range readers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				results[i], errs[i] = Fetch(context.Background(), c, q)
			}()
		}

		require.Eventually(t, func() bool {
			return entryField(c, postsKey, func(e *entry) int { return e.waiters }) == readers
		}, waitTimeout, time.Millisecond)
		// Give the last reader time to move from the waiter count into the
		// shared call before it completes.
		time.Sleep(20 * time.Millisecond)
		close(release)
		wg.Wait()

		assert.Equal(t, int32(1), calls.Load())
		for i := range readers {
			require.NoError(t, errs[i])
			assert.Equal(t, []string{"a", "b"}, results[i])
		}
	})

	t.Run("distinct keys fetch independently", func(t *testing.T) {
		c := newTestClient(t)
		var calls atomic.Int32

		_, err := Fetch(context.Background(), c, countingQuery(Key{"posts"}, &calls))
		require.NoError(t, err)
		_, err = Fetch(context.Background(), c, countingQuery(Key{"users"}, &calls))
		require.NoError(t, err)

		assert.Equal(t, int32(2), calls.Load())
		assert.Equal(t, 2, c.Len())
	})

	t.Run("stale data is refetched", func(t *testing.T) {
		c := newTestClient(t)
		var calls atomic.Int32
		q := countingQuery(postsKey, &calls)

		first, err := Fetch(context.Background(), c, q)
		require.NoError(t, err)
		second, err := Fetch(context.Background(), c, q)
		require.NoError(t, err)

		assert.Equal(t, "v1", first)
		assert.Equal(t, "v2", second)
	})

	t.Run("fresh data is served from cache", func(t *testing.T) {
		c := newTestClient(t, WithStaleTime(time.Hour))
		var calls atomic.Int32
		q := countingQuery(postsKey, &calls)

		_, err := Fetch(context.Background(), c, q)
		require.NoError(t, err)
		v, err := Fetch(context.Background(), c, q)
		require.NoError(t, err)

		assert.Equal(t, "v1", v)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("error keeps previous data", func(t *testing.T) {
		c := newTestClient(t)
		boom := errors.New("boom")
		fail := false
		q := Query[string]{
			Key: postsKey,
			Fn: func(context.Context) (string, error) {
				if fail {
					return "", boom
				}
				return "ok", nil
			},
		}

		_, err := Fetch(context.Background(), c, q)
		require.NoError(t, err)

		fail = true
		_, err = Fetch(context.Background(), c, q)
		require.ErrorIs(t, err, boom)

		state, ok := GetState[string](c, postsKey)
		require.True(t, ok)
		assert.True(t, state.IsError())
		assert.ErrorIs(t, state.Err, boom)
		assert.Equal(t, "ok", state.Data)
		assert.Equal(t, 1, state.FailureCount)
		assert.False(t, state.IsFetching())
	})

	t.Run("validates query", func(t *testing.T) {
		c := newTestClient(t)

		_, err := Fetch(context.Background(), c, Query[string]{Key: Key{}, Fn: func(context.Context) (string, error) { return "", nil }})
		require.ErrorIs(t, err, ErrInvalidKey)

		_, err = Fetch(context.Background(), c, Query[string]{Key: postsKey})
		require.ErrorIs(t, err, ErrNilQueryFunc)
	})

	t.Run("cancelled caller cancels unobserved fetch", func(t *testing.T) {
		c := newTestClient(t)
		started := make(chan struct{})
		cancelled := make(chan struct{})
		q := Query[string]{
			Key: postsKey,
			Fn: func(ctx context.Context) (string, error) {
				close(started)
				<-ctx.Done()
				close(cancelled)
				return "", ctx.Err()
			},
		}

		ctx, cancel := context.WithCancel(context.Background())
		errCh := make(chan error, 1)
		go func() {
			_, err := Fetch(ctx, c, q)
			errCh <- err
		}()

		<-started
		cancel()

		require.ErrorIs(t, <-errCh, context.Canceled)
		select {
		case <-cancelled:
		case <-time.After(waitTimeout):
			t.Fatal("fetch was not cancelled")
		}

		state, ok := GetState[string](c, postsKey)
		require.True(t, ok)
		assert.True(t, state.IsPending())
		assert.False(t, state.IsFetching())
	})
}

func TestRetry(t *testing.T) {
	failing := func(failures int32, calls *atomic.Int32) Query[string] {
		return Query[string]{
			Key: postsKey,
			Fn: func(context.Context) (string, error) {
				if calls.Add(1) <= failures {
					return "", errors.New("transient")
				}
				return "ok", nil
			},
		}
	}

	t.Run("no retries by default", func(t *testing.T) {
		c := newTestClient(t)
		var calls atomic.Int32

		_, err := Fetch(context.Background(), c, failing(1, &calls))
		require.Error(t, err)
		assert.Equal(t, int32(1), calls.Load())
	})

	t.Run("retries when enabled", func(t *testing.T) {
		c := newTestClient(t, WithRetry(2, time.Millisecond))
		var calls atomic.Int32

		v, err := Fetch(context.Background(), c, failing(2, &calls))
		require.NoError(t, err)
		assert.Equal(t, "ok", v)
		assert.Equal(t, int32(3), calls.Load())

		state, _ := GetState[string](c, postsKey)
		assert.Equal(t, 0, state.FailureCount)
	})

	t.Run("gives up after retry budget", func(t *testing.T) {
		c := newTestClient(t, WithRetry(1, time.Millisecond))
		var calls atomic.Int32

		_, err := Fetch(context.Background(), c, failing(5, &calls))
		require.Error(t, err)
		assert.Equal(t, int32(2), calls.Load())

		state, _ := GetState[string](c, postsKey)
		assert.Equal(t, 2, state.FailureCount)
	})
}

func TestInvalidate(t *testing.T) {
	t.Run("refetches observed entries", func(t *testing.T) {
		c := newTestClient(t)
		var calls atomic.Int32

		o, err := Observe(c, countingQuery(postsKey, &calls))
		require.NoError(t, err)
		defer o.Close()
		waitForState(t, o, State[string].IsSuccess)

		assert.Equal(t, 1, c.Invalidate(Key{"posts"}))

		state := waitForState(t, o, func(s State[string]) bool { return s.Data == "v2" })
		assert.False(t, state.Invalidated)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("only marks unobserved entries", func(t *testing.T) {
		c := newTestClient(t)
		var calls atomic.Int32

		_, err := Fetch(context.Background(), c, countingQuery(Key{"posts", "1"}, &calls))
		require.NoError(t, err)
		_, err = Fetch(context.Background(), c, countingQuery(Key{"users"}, &calls))
		require.NoError(t, err)

		assert.Equal(t, 1, c.Invalidate(Key{"posts"}))

		state, ok := GetState[string](c, Key{"posts", "1"})
		require.True(t, ok)
		assert.True(t, state.Invalidated)
		assert.Equal(t, int32(2), calls.Load())
	})
}

// gatedQuery returns a query whose first call blocks until gate is closed or
// its context is cancelled. Later calls return "v<n>" right away.
func gatedQuery(key Key, calls *atomic.Int32, gate <-chan struct{}) Query[string] {
	return Query[string]{
		Key: key,
		Fn: func(ctx context.Context) (string, error) {
			n := calls.Add(1)
			if n == 1 {
				select {
				case <-gate:
				case <-ctx.Done():
					return "", ctx.Err()
				}
			}
			return fmt.Sprintf("v%d", n), nil
		},
	}
}

func TestInvalidateInFlight(t *testing.T) {
	t.Run("restarts the observed fetch", func(t *testing.T) {
		c := newTestClient(t, WithStaleTime(time.Hour))
		var calls atomic.Int32
		gate := make(chan struct{})
		defer close(gate)

		o, err := Observe(c, gatedQuery(postsKey, &calls, gate))
		require.NoError(t, err)
		defer o.Close()
		waitForState(t, o, State[string].IsFetching)

		c.Invalidate(postsKey)

		state := waitForState(t, o, State[string].IsSuccess)
		assert.Equal(t, "v2", state.Data)
		assert.False(t, state.Invalidated)
		assert.Equal(t, int32(2), calls.Load())
	})

	t.Run("waiting caller gets the restarted result", func(t *testing.T) {
		c := newTestClient(t, WithStaleTime(time.Hour))
		var calls atomic.Int32
		gate := make(chan struct{})
		defer close(gate)

		type result struct {
			v   string
			err error
		}
		done := make(chan result, 1)
		go func() {
			v, err := Fetch(context.Background(), c, gatedQuery(postsKey, &calls, gate))
			done <- result{v, err}
		}()

		require.Eventually(t, func() bool {
			state, ok := GetState[string](c, postsKey)
			return ok && state.IsFetching()
		}, waitTimeout, time.Millisecond)

		c.Invalidate(postsKey)

		select {
		case res := <-done:
			require.NoError(t, res.err)
			assert.Equal(t, "v2", res.v)
		case <-time.After(waitTimeout):
			t.Fatal("fetch did not return")
		}
		assert.Equal(t, int32(2), calls.Load())

		state, _ := GetState[string](c, postsKey)
		assert.False(t, state.Invalidated)
	})
}

func TestFetchWithoutCallers(t *testing.T) {
	c := newTestClient(t)
	var calls atomic.Int32
	q := countingQuery(postsKey, &calls)

	c.mu.Lock()
	e := c.entryLocked(postsKey)
	c.mu.Unlock()

	res := <-c.startFetch(e, q.erase())
	require.ErrorIs(t, res.Err, errSuperseded)
	assert.Zero(t, calls.Load())

	state, ok := GetState[string](c, postsKey)
	require.True(t, ok)
	assert.False(t, state.IsFetching())
}

func TestGarbageCollection(t *testing.T) {
	t.Run("drops unobserved entries after gc time", func(t *testing.T) {
		c := newTestClient(t, WithGCTime(10*time.Millisecond))
		var calls atomic.Int32

		_, err := Fetch(context.Background(), c, countingQuery(postsKey, &calls))
		require.NoError(t, err)

		require.Eventually(t, func() bool { return c.Len() == 0 }, waitTimeout, 5*time.Millisecond)
	})

	t.Run("keeps observed entries", func(t *testing.T) {
		c := newTestClient(t, WithGCTime(time.Millisecond))
		var calls atomic.Int32

		o, err := Observe(c, countingQuery(postsKey, &calls))
		require.NoError(t, err)
		waitForState(t, o, State[string].IsSuccess)

		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, 1, c.Len())

		o.Close()
		require.Eventually(t, func() bool { return c.Len() == 0 }, waitTimeout, 5*time.Millisecond)
	})

	t.Run("negative gc time keeps entries", func(t *testing.T) {
		c := newTestClient(t, WithGCTime(-1))
		var calls atomic.Int32

		_, err := Fetch(context.Background(), c, countingQuery(postsKey, &calls))
		require.NoError(t, err)

		time.Sleep(20 * time.Millisecond)
		assert.Equal(t, 1, c.Len())
	})
}

func TestClose(t *testing.T) {
	t.Run("is idempotent and rejects new work", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		require.NoError(t, c.Close())
		require.NoError(t, c.Close())
		assert.True(t, c.Closed())

		var calls atomic.Int32
		_, err = Fetch(context.Background(), c, countingQuery(postsKey, &calls))
		require.ErrorIs(t, err, ErrClientClosed)
		_, err = Observe(c, countingQuery(postsKey, &calls))
		require.ErrorIs(t, err, ErrClientClosed)
		assert.Zero(t, c.Invalidate(postsKey))
		assert.Equal(t, int32(0), calls.Load())
	})

	t.Run("cancels in-flight fetches", func(t *testing.T) {
		c, err := New()
		require.NoError(t, err)

		started := make(chan struct{})
		q := Query[string]{
			Key: postsKey,
			Fn: func(ctx context.Context) (string, error) {
				close(started)
				<-ctx.Done()
				return "", ctx.Err()
			},
		}

		errCh := make(chan error, 1)
		go func() {
			_, fetchErr := Fetch(context.Background(), c, q)
			errCh <- fetchErr
		}()

		<-started
		require.NoError(t, c.Close())

		select {
		case err = <-errCh:
			require.ErrorIs(t, err, ErrClientClosed)
		case <-time.After(waitTimeout):
			t.Fatal("fetch did not return after Close")
		}
		assert.Equal(t, 0, c.Len())
	})
}
