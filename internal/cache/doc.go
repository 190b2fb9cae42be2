// Package cache holds the write-only storage sinks behind the page cache. The
// filesystem sink translates keys into <Root>/<key> files with temp file +
// rename semantics so a front-end static server never observes a partial
// page; the associative sinks (memory, Redis, SQLite) persist the same bodies
// under the same keys. Sinks never read entries back on the request path.
package cache
