package cache

import (
	"context"
	"sort"
	"sync"
)

// MemorySink 是进程内的关联存储，适合测试与单实例部署。
type MemorySink struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemorySink 创建空的内存写入端。
func NewMemorySink() *MemorySink {
	return &MemorySink{entries: make(map[string][]byte)}
}

func (s *MemorySink) Put(ctx context.Context, key string, body []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if key == "" {
		return ErrInvalidKey
	}
	stored := append([]byte(nil), body...)
	s.mu.Lock()
	s.entries[key] = stored
	s.mu.Unlock()
	return nil
}

// Get returns a copy of the body stored under key.
func (s *MemorySink) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	body, ok := s.entries[key]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), body...), true
}

// Len returns the number of stored keys.
func (s *MemorySink) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns the stored keys in sorted order.
func (s *MemorySink) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
