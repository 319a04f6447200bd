package query

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Defaults for a new Client.
const (
	// DefaultStaleTime marks data stale as soon as it arrives, so every new
	// observer triggers a background refetch.
	DefaultStaleTime = 0

	// DefaultGCTime is how long an unobserved entry is kept.
	DefaultGCTime = 5 * time.Minute

	// DefaultRetry disables automatic retries.
	DefaultRetry = 0

	// DefaultRetryDelay is the first backoff interval when retries are enabled.
	DefaultRetryDelay = time.Second

	// MaxRetry bounds WithRetry.
	MaxRetry = 10
)

// ErrInvalidRetry is returned by Options.Validate for an out-of-range retry count.
var ErrInvalidRetry = fmt.Errorf("retry must be between 0 and %d", MaxRetry)

// Options configure a Client.
type Options struct {
	// StaleTime is how long fetched data counts as fresh.
	StaleTime time.Duration

	// GCTime is how long an entry survives without observers.
	// A negative value keeps entries until Close.
	GCTime time.Duration

	// Retry is the number of extra attempts after a failed fetch.
	Retry int

	// RetryDelay is the initial backoff interval between attempts.
	RetryDelay time.Duration

	// Logger receives debug events about fetches and mutations.
	Logger zerolog.Logger
}

// DefaultOptions returns the options used by New when none are given.
func DefaultOptions() Options {
	return Options{
		StaleTime:  DefaultStaleTime,
		GCTime:     DefaultGCTime,
		Retry:      DefaultRetry,
		RetryDelay: DefaultRetryDelay,
		Logger:     zerolog.Nop(),
	}
}

// Validate checks the options for values the client cannot honor.
func (o Options) Validate() error {
	if o.StaleTime < 0 {
		return fmt.Errorf("stale time must be >= 0, got %s", o.StaleTime)
	}
	if o.Retry < 0 || o.Retry > MaxRetry {
		return fmt.Errorf("%w: got %d", ErrInvalidRetry, o.Retry)
	}
	if o.RetryDelay < 0 {
		return fmt.Errorf("retry delay must be >= 0, got %s", o.RetryDelay)
	}
	return nil
}

// Option mutates Options.
type Option func(*Options)

// WithStaleTime sets Options.StaleTime.
func WithStaleTime(d time.Duration) Option {
	return func(o *Options) { o.StaleTime = d }
}

// WithGCTime sets Options.GCTime.
func WithGCTime(d time.Duration) Option {
	return func(o *Options) { o.GCTime = d }
}

// WithRetry enables n retries with exponential backoff starting at delay.
func WithRetry(n int, delay time.Duration) Option {
	return func(o *Options) {
		o.Retry = n
		o.RetryDelay = delay
	}
}

// WithLogger sets Options.Logger.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}
