// Package transport talks to the remote posts collection over HTTP.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/rshade/postquery/internal/logging"
	"github.com/rshade/postquery/internal/post"
)

// DefaultEndpoint is the JSONPlaceholder posts collection.
const DefaultEndpoint = "https://jsonplaceholder.typicode.com/posts"

// maxErrorBody bounds how much of a failed response is kept for logging.
const maxErrorBody = 512

const tracerName = "github.com/rshade/postquery/internal/transport"

// Client issues GET and POST requests against a single posts collection URL.
type Client struct {
	endpoint string
	http     *http.Client
	timeout  time.Duration
	tracer   trace.Tracer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the pooled default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTimeout bounds each request, body included. Zero means no timeout.
// The HTTP client itself is left unchanged.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// New returns a Client for the collection at endpoint.
func New(endpoint string, opts ...Option) (*Client, error) {
	if err := ValidateEndpoint(endpoint); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint: endpoint,
		http:     cleanhttp.DefaultPooledClient(),
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// ValidateEndpoint checks that endpoint is an absolute http(s) URL.
func ValidateEndpoint(endpoint string) error {
	u, err := url.Parse(endpoint)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https, got %q", ErrInvalidEndpoint, u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidEndpoint)
	}
	return nil
}

// Endpoint returns the collection URL.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// ListPosts fetches the whole collection in server order.
func (c *Client) ListPosts(ctx context.Context) ([]post.Post, error) {
	var posts []post.Post
	if err := c.do(ctx, http.MethodGet, nil, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CreatePost sends p to the collection and returns the server's copy,
// including the assigned ID.
func (c *Client) CreatePost(ctx context.Context, p post.NewPost) (post.Post, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return post.Post{}, fmt.Errorf("encoding new post: %w", err)
	}

	var created post.Post
	if err := c.do(ctx, http.MethodPost, body, &created); err != nil {
		return post.Post{}, err
	}
	return created, nil
}

func (c *Client) do(ctx context.Context, method string, body []byte, out any) (err error) {
	ctx, span := c.tracer.Start(ctx, "posts "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", c.endpoint),
		),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	log := logging.FromContext(ctx)
	start := time.Now()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint, reader)
	if err != nil {
		return fmt.Errorf("%w: building request: %w", ErrRequest, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequest, err)
	}
	defer resp.Body.Close()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	log.Debug().
		Ctx(ctx).
		Str("method", method).
		Str("url", c.endpoint).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("posts request completed")

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		log.Debug().Ctx(ctx).Bytes("body", snippet).Msg("posts request rejected")
		return fmt.Errorf("%w: %s", ErrUnexpectedStatus, resp.Status)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}
