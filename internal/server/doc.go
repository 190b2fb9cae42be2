// Package server hosts the Fiber HTTP service that fronts the origin
// application. NewApp wires the middleware chain in a fixed order (panic
// recovery, request id, page-cache write-through) and hands every
// non-diagnostics request to the injected proxy handler. Diagnostics routes
// under /-/ are registered by the routes subpackage and bypass both the cache
// and the proxy. Keep exports narrow and accept explicit dependencies so tests
// can inject fake proxies and interceptors.
package server
