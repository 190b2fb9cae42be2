// Package responsecache implements the write-through page cache that sits in
// front of the origin handler. For every completed response it evaluates the
// cacheability predicate (GET, empty query, 200, no `no-cache`/`private`
// directive), asks the configured key rule for a storage key and writes the
// body through a single Store capability. The package never reads from the
// cache and never alters the response handed back to the caller; adapters for
// Fiber and net/http live next to the transport-neutral core.
package responsecache
