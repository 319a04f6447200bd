package query

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/rshade/postquery/internal/query"

// queryFunc is a type-erased query function.
type queryFunc func(ctx context.Context) (any, error)

// Query pairs a key with the function that produces its value.
type Query[T any] struct {
	Key Key
	Fn  func(ctx context.Context) (T, error)
}

func (q Query[T]) validate() error {
	if err := q.Key.validate(); err != nil {
		return err
	}
	if q.Fn == nil {
		return ErrNilQueryFunc
	}
	return nil
}

func (q Query[T]) erase() queryFunc {
	return func(ctx context.Context) (any, error) {
		return q.Fn(ctx)
	}
}

// Client is a keyed cache of query results. It is safe for concurrent use.
type Client struct {
	opts   Options
	log    zerolog.Logger
	tracer trace.Tracer

	// ctx is the parent of every fetch; Close cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	group singleflight.Group

	mu      sync.Mutex
	entries map[string]*entry
	closed  bool
}

// New creates a Client. The caller owns it and must Close it.
func New(opts ...Option) (*Client, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Client{
		opts:    o,
		log:     o.Logger,
		tracer:  otel.Tracer(tracerName),
		ctx:     ctx,
		cancel:  cancel,
		entries: make(map[string]*entry),
	}, nil
}

// Options returns the options the client was built with.
func (c *Client) Options() Options {
	return c.opts
}

// Close cancels in-flight fetches, wakes every observer and drops all entries.
// It is safe to call more than once.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	for _, e := range c.entries {
		e.stopGC()
		e.bump()
	}
	c.entries = make(map[string]*entry)
	c.mu.Unlock()

	c.cancel()
	c.log.Debug().Msg("query client closed")
	return nil
}

// Closed reports whether Close has been called.
func (c *Client) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Len returns the number of live entries.
func (c *Client) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Fetch returns the cached value for q.Key while it is fresh. Otherwise it
// runs q.Fn, or joins the fetch already in flight for that key, and waits.
// Cancelling ctx stops the wait; the fetch itself is cancelled only when
// nothing else is waiting on or observing the key.
func Fetch[T any](ctx context.Context, c *Client, q Query[T]) (T, error) {
	var zero T
	if err := q.validate(); err != nil {
		return zero, err
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return zero, ErrClientClosed
	}
	e := c.entryLocked(q.Key)
	e.fn = q.erase()
	if e.fetchStatus == FetchIdle && !e.isStale(c.opts.StaleTime) {
		s := snapshot[T](e)
		c.mu.Unlock()
		return s.Data, nil
	}
	e.waiters++
	e.stopGC()
	fn := e.fn
	c.mu.Unlock()

	for {
		ch := c.startFetch(e, fn)

		select {
		case res := <-ch:
			if errors.Is(res.Err, errSuperseded) {
				continue
			}
			c.mu.Lock()
			e.waiters--
			c.scheduleGCLocked(e)
			c.mu.Unlock()

			if res.Err != nil {
				return zero, res.Err
			}
			v, _ := res.Val.(T)
			return v, nil

		case <-ctx.Done():
			c.mu.Lock()
			e.waiters--
			c.releaseLocked(e)
			c.mu.Unlock()
			return zero, ctx.Err()
		}
	}
}

// GetState returns a snapshot of the entry for key, if one exists.
func GetState[T any](c *Client, key Key) (State[T], bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key.Hash()]
	if !ok {
		return State[T]{}, false
	}
	return snapshot[T](e), true
}

// Invalidate marks every entry whose key starts with prefix as stale and
// refetches the ones that currently have observers. It returns the number of
// entries marked.
func (c *Client) Invalidate(prefix Key) int {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return 0
	}

	type pending struct {
		e  *entry
		fn queryFunc
	}
	var refetch []pending
	marked := 0
	for _, e := range c.entries {
		if !e.key.HasPrefix(prefix) {
			continue
		}
		e.invalidated = true
		if e.fetchStatus == FetchFetching {
			c.supersedeLocked(e)
		}
		e.bump()
		marked++
		if e.fn != nil && (e.observers > 0 || e.waiters > 0) {
			refetch = append(refetch, pending{e: e, fn: e.fn})
		}
	}
	c.mu.Unlock()

	for _, p := range refetch {
		c.startFetch(p.e, p.fn)
	}

	c.log.Debug().Str("prefix", prefix.String()).Int("marked", marked).Int("refetched", len(refetch)).Msg("invalidated queries")
	return marked
}

// entryLocked returns the entry for key, creating it when missing.
func (c *Client) entryLocked(key Key) *entry {
	hash := key.Hash()
	if e, ok := c.entries[hash]; ok {
		return e
	}
	e := newEntry(key)
	c.entries[hash] = e
	return e
}

// startFetch starts a fetch for e or joins the one in flight. The returned
// channel is buffered, so callers may ignore it.
func (c *Client) startFetch(e *entry, fn queryFunc) <-chan singleflight.Result {
	return c.group.DoChan(e.hash, func() (any, error) {
		return c.doFetch(e, fn)
	})
}

func (c *Client) doFetch(e *entry, fn queryFunc) (any, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, ErrClientClosed
	}
	if e.unused() {
		// Every caller gave up before the fetch got going.
		c.mu.Unlock()
		c.log.Debug().Str("key", e.key.String()).Msg("fetch skipped")
		return nil, errSuperseded
	}
	fetchCtx, cancel := context.WithCancel(c.ctx)
	e.fetchSeq++
	seq := e.fetchSeq
	e.cancelFetch = cancel
	e.fetchStatus = FetchFetching
	e.stopGC()
	e.bump()
	c.mu.Unlock()
	defer cancel()

	ctx, span := c.tracer.Start(fetchCtx, "query.fetch",
		trace.WithAttributes(attribute.String("query.key", e.key.String())))
	defer span.End()

	start := time.Now()
	v, err := c.runQuery(ctx, e, fn)

	c.mu.Lock()
	defer c.mu.Unlock()

	switch {
	case c.closed:
		return nil, ErrClientClosed

	case seq != e.fetchSeq:
		// Nobody wanted the result any more; keep whatever state came before.
		span.SetStatus(codes.Error, "abandoned")
		c.log.Debug().Str("key", e.key.String()).Msg("fetch abandoned")
		return nil, errSuperseded

	case err != nil:
		e.cancelFetch = nil
		e.fetchStatus = FetchIdle
		e.status = StatusError
		e.err = err
		e.errorUpdatedAt = time.Now()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.log.Debug().Str("key", e.key.String()).Err(err).Int("failures", e.failureCount).Msg("fetch failed")

	default:
		e.cancelFetch = nil
		e.fetchStatus = FetchIdle
		e.status = StatusSuccess
		e.data = v
		e.err = nil
		e.failureCount = 0
		e.invalidated = false
		e.dataUpdatedAt = time.Now()
		c.log.Debug().Str("key", e.key.String()).Dur("duration", time.Since(start)).Msg("fetch succeeded")
	}

	e.bump()
	c.scheduleGCLocked(e)
	return v, err
}

// releaseLocked cancels the in-flight fetch of an entry nobody is interested
// in any more and schedules its collection.
func (c *Client) releaseLocked(e *entry) {
	if !e.unused() {
		return
	}
	if e.cancelFetch != nil {
		c.supersedeLocked(e)
		e.bump()
		c.log.Debug().Str("key", e.key.String()).Msg("cancelling unobserved fetch")
	}
	c.scheduleGCLocked(e)
}

// supersedeLocked cancels the fetch in flight for e. Its result is discarded
// and the next startFetch runs a fresh fetch instead of joining it.
func (c *Client) supersedeLocked(e *entry) {
	if e.cancelFetch != nil {
		e.cancelFetch()
		e.cancelFetch = nil
	}
	e.fetchSeq++
	e.fetchStatus = FetchIdle
	c.group.Forget(e.hash)
}

func (c *Client) scheduleGCLocked(e *entry) {
	if c.closed || !e.unused() || e.fetchStatus == FetchFetching || c.opts.GCTime < 0 {
		return
	}
	e.stopGC()
	e.gcTimer = time.AfterFunc(c.opts.GCTime, func() { c.collect(e) })
}

func (c *Client) collect(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.entries[e.hash] != e || !e.unused() || e.fetchStatus == FetchFetching {
		return
	}
	delete(c.entries, e.hash)
	e.gcTimer = nil
	c.log.Debug().Str("key", e.key.String()).Msg("entry collected")
}
