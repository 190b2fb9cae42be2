package responsecache

import (
	"context"
	"net/http"
)

// Request carries the request metadata the cache decision depends on.
// RawPath is still percent-encoded; Query is the raw query string without "?".
type Request struct {
	Method     string
	RawPath    string
	Query      string
	Header     http.Header
	Attributes map[string]string
}

// Attribute returns a request attribute or "" when absent.
func (r *Request) Attribute(name string) string {
	if r == nil || r.Attributes == nil {
		return ""
	}
	return r.Attributes[name]
}

// Response is a fully materialized downstream response.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Handler is the downstream handler wrapped by the Interceptor.
type Handler func(ctx context.Context, req *Request) (*Response, error)

// Keyer maps a cacheable request/response pair to a storage key. Returning
// ok == false means the response must not be stored.
type Keyer func(req *Request, res *Response) (key string, ok bool)

// Store persists a body under a key. It is the only capability the
// interceptor needs from a storage backend.
type Store interface {
	Put(ctx context.Context, key string, body []byte) error
}

// StoreFunc adapts a function to the Store interface.
type StoreFunc func(ctx context.Context, key string, body []byte) error

// Put makes StoreFunc satisfy Store.
func (f StoreFunc) Put(ctx context.Context, key string, body []byte) error {
	return f(ctx, key, body)
}

// Attribute keys populated by the transport adapters.
const (
	AttrHost       = "host"
	AttrRemoteAddr = "remote_addr"
	AttrRequestID  = "request_id"
)
