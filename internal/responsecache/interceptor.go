package responsecache

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/pagecache/internal/cache"
)

// WritePolicy decides what happens to a failed cache write once the
// downstream response has been produced.
type WritePolicy string

const (
	// WritePolicyLog logs the failure and delivers the response untouched.
	WritePolicyLog WritePolicy = "log"
	// WritePolicyPropagate hands the failure back to the caller.
	WritePolicyPropagate WritePolicy = "propagate"
)

// ParseWritePolicy normalizes a configured policy name; "" means log.
func ParseWritePolicy(raw string) (WritePolicy, error) {
	switch WritePolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", WritePolicyLog:
		return WritePolicyLog, nil
	case WritePolicyPropagate:
		return WritePolicyPropagate, nil
	default:
		return "", fmt.Errorf("unsupported write policy: %s", raw)
	}
}

// Options configures an Interceptor. Exactly one storage target is used:
// Root selects the filesystem sink and takes precedence over Store.
type Options struct {
	Root        string
	Store       Store
	KeyRule     Keyer
	Logger      *logrus.Logger
	WritePolicy WritePolicy
	// Backend 仅用于日志字段，留空时按存储目标推断。
	Backend string
}

// Interceptor writes cacheable downstream responses through a Store.
type Interceptor struct {
	store   Store
	keyer   Keyer
	logger  *logrus.Logger
	policy  WritePolicy
	backend string
}

// New resolves the storage target once and returns a ready Interceptor.
func New(opts Options) (*Interceptor, error) {
	store := opts.Store
	backend := opts.Backend
	if opts.Root != "" {
		sink, err := cache.NewFileSink(opts.Root)
		if err != nil {
			return nil, fmt.Errorf("open filesystem sink: %w", err)
		}
		store = sink
		if backend == "" {
			backend = "filesystem"
		}
	}
	if store == nil {
		return nil, ErrNoStorageTarget
	}
	if backend == "" {
		backend = "store"
	}

	keyer := opts.KeyRule
	if keyer == nil {
		keyer = DefaultKeyer
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.New()
		logger.SetOutput(io.Discard)
	}
	policy := opts.WritePolicy
	if policy == "" {
		policy = WritePolicyLog
	}

	return &Interceptor{
		store:   store,
		keyer:   keyer,
		logger:  logger,
		policy:  policy,
		backend: backend,
	}, nil
}

// Policy returns the configured write policy.
func (i *Interceptor) Policy() WritePolicy {
	return i.policy
}

// Serve calls next exactly once and writes its response through the cache.
// The response is returned as produced by next; a write failure is only
// returned under WritePolicyPropagate.
func (i *Interceptor) Serve(ctx context.Context, req *Request, next Handler) (*Response, error) {
	res, err := next(ctx, req)
	if err != nil || res == nil {
		return res, err
	}
	if _, err := i.WriteThrough(ctx, req, res); err != nil {
		return res, i.resolveWriteError(err)
	}
	return res, nil
}

// WriteThrough stores res when it is cacheable and the key rule yields a key.
// It returns the key that was written, or "" when nothing was stored.
func (i *Interceptor) WriteThrough(ctx context.Context, req *Request, res *Response) (string, error) {
	if !Cacheable(req, res) {
		return "", nil
	}
	key, ok := i.keyer(req, res)
	if !ok || key == "" {
		return "", nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	fields := logrus.Fields{
		"action":  "cache_write",
		"backend": i.backend,
		"key":     key,
		"bytes":   len(res.Body),
	}
	if reqID := req.Attribute(AttrRequestID); reqID != "" {
		fields["request_id"] = reqID
	}

	if err := i.store.Put(ctx, key, res.Body); err != nil {
		i.logger.WithFields(fields).WithError(err).Warn("cache_write_failed")
		return "", &WriteError{Key: key, Err: err}
	}
	i.logger.WithFields(fields).Debug("cache_write_complete")
	return key, nil
}

// resolveWriteError applies the write policy to a failure already logged by
// WriteThrough.
func (i *Interceptor) resolveWriteError(err error) error {
	if i.policy == WritePolicyPropagate {
		return err
	}
	return nil
}
