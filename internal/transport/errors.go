package transport

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Transport failure classes. Callers compare with errors.Is; the views
// collapse all of them into one generic error state.
const (
	// ErrInvalidEndpoint indicates the configured collection URL cannot be used.
	ErrInvalidEndpoint = constError("invalid posts endpoint")

	// ErrRequest indicates the request never produced a response
	// (DNS, connection refused, context cancelled).
	ErrRequest = constError("posts request failed")

	// ErrUnexpectedStatus indicates a non-2xx response.
	ErrUnexpectedStatus = constError("unexpected response status")

	// ErrDecode indicates the response body was not the expected JSON.
	ErrDecode = constError("decoding posts response")
)
