package responsecache

import (
	"errors"
	"fmt"
)

var (
	// ErrNoStorageTarget 表示构造时既没有根目录也没有 Store。
	ErrNoStorageTarget = errors.New("responsecache: storage target required")
	// ErrWriteFailed 匹配所有缓存写入失败，便于 errors.Is 判断。
	ErrWriteFailed = errors.New("responsecache: cache write failed")
)

// WriteError 携带写入失败的 key 与底层原因。
type WriteError struct {
	Key string
	Err error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("cache write %s: %v", e.Key, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, ErrWriteFailed) match any WriteError.
func (e *WriteError) Is(target error) bool {
	return target == ErrWriteFailed
}
