package llm

import (
	"context"
)

// Provider is the adapter contract every backend family implements: format
// the canonical request into the backend's wire body, issue the call, and
// parse the heterogeneous response back into the canonical Response.
type Provider interface {
	// Name returns the provider id ("openai", "anthropic", ...).
	Name() string

	// Chat sends a request and returns the complete canonical response.
	Chat(ctx context.Context, req *Request) (*Response, error)

	// Stream sends a request and returns an incremental token stream.
	// The caller drives iteration; backpressure follows from reads.
	Stream(ctx context.Context, req *Request) (Stream, error)
}

// Stream is a pull-based sequence of text tokens terminated by a canonical
// Response. After Next returns false with a nil Err, Response returns the
// terminal value assembled from the stream.
type Stream interface {
	// Next advances to the next token. Returns false at end of stream or on
	// error.
	Next() bool

	// Token returns the current text token. Valid only after Next returned
	// true.
	Token() string

	// Err returns the error that terminated the stream, if any.
	Err() error

	// Response returns the terminal canonical response. Valid once Next has
	// returned false with a nil Err.
	Response() *Response

	// Close releases the underlying connection.
	Close() error
}
