package query

import (
	"context"

	"github.com/cenkalti/backoff/v5"
)

// runQuery executes fn once, or up to Retry+1 times with exponential backoff
// when retries are enabled. Every failed attempt bumps the entry's failure count.
func (c *Client) runQuery(ctx context.Context, e *entry, fn queryFunc) (any, error) {
	if c.opts.Retry == 0 {
		v, err := fn(ctx)
		if err != nil {
			c.recordFailure(e)
		}
		return v, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.opts.RetryDelay

	op := func() (any, error) {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		c.recordFailure(e)
		if ctx.Err() != nil {
			return nil, backoff.Permanent(err)
		}
		return nil, err
	}

	//nolint:gosec // Retry is validated to [0, MaxRetry].
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(c.opts.Retry+1)),
	)
}

func (c *Client) recordFailure(e *entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e.failureCount++
}
