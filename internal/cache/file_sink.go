package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// FileSink 将 key 映射为 root 下的文件，目录结构与 URL 路径一致。
type FileSink struct {
	root string

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

// NewFileSink 以 root 为根目录构建磁盘写入端，root 不存在时自动创建。
func NewFileSink(root string) (*FileSink, error) {
	if root == "" {
		return nil, errors.New("storage root required")
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve storage root: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}

	return &FileSink{
		root:  abs,
		locks: make(map[string]*entryLock),
	}, nil
}

// Root 返回解析后的绝对根目录。
func (s *FileSink) Root() string {
	return s.root
}

// Put 先写入同目录临时文件再 rename 覆盖目标文件，失败时清理临时文件。
func (s *FileSink) Put(ctx context.Context, key string, body []byte) error {
	filePath, err := s.Path(key)
	if err != nil {
		return err
	}

	unlock := s.lockEntry(filePath)
	defer unlock()

	// MkdirAll 对并发创建同一目录视为成功。
	if err := os.MkdirAll(filepath.Dir(filePath), 0o755); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(filepath.Dir(filePath), ".pagecache-*")
	if err != nil {
		return err
	}
	tempName := tempFile.Name()

	_, err = copyWithContext(ctx, tempFile, bytes.NewReader(body))
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return err
	}

	if err := os.Chmod(tempName, 0o644); err != nil {
		os.Remove(tempName)
		return err
	}
	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return err
	}
	return nil
}

// Path 返回 key 对应的绝对文件路径，越出 root 的 key 返回 ErrInvalidKey。
func (s *FileSink) Path(key string) (string, error) {
	rel := strings.TrimPrefix(key, "/")
	if rel == "" || strings.HasSuffix(rel, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, segment := range strings.Split(rel, "/") {
		if segment == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
		}
	}

	rel = strings.TrimPrefix(path.Clean("/"+rel), "/")
	filePath := filepath.Join(s.root, filepath.FromSlash(rel))
	prefix := s.root
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}
	if !strings.HasPrefix(filePath, prefix) {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return filePath, nil
}

func (s *FileSink) lockEntry(key string) func() {
	s.mu.Lock()
	lock := s.locks[key]
	if lock == nil {
		lock = &entryLock{}
		s.locks[key] = lock
	}
	lock.refs++
	s.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		s.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(s.locks, key)
		}
		s.mu.Unlock()
	}
}

func copyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	var copied int64
	buf := make([]byte, 32*1024)
	for {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		n, err := src.Read(buf)
		if n > 0 {
			w, wErr := dst.Write(buf[:n])
			copied += int64(w)
			if wErr != nil {
				return copied, wErr
			}
			if w < n {
				return copied, io.ErrShortWrite
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return copied, nil
			}
			return copied, err
		}
	}
}
