package query

// constError is an immutable error type for sentinel errors.
type constError string

func (e constError) Error() string { return string(e) }

// Common query errors.
const (
	ErrInvalidKey      = constError("query key cannot be empty")
	ErrNilQueryFunc    = constError("query function cannot be nil")
	ErrClientClosed    = constError("query client is closed")
	ErrObserverClosed  = constError("query observer is closed")
	ErrNilMutationFunc = constError("mutation function cannot be nil")
)

// errSuperseded is the result of a fetch replaced by a newer one. Fetch
// callers waiting on it join the replacement.
const errSuperseded = constError("query fetch superseded")
