package cache

import (
	"context"
	"errors"
)

// Sink 是缓存写入端的唯一能力：将 body 以 key 写入后端存储。
// 实现需保证并发安全，同 key 的并发写入以最后一次为准。
type Sink interface {
	Put(ctx context.Context, key string, body []byte) error
}

// ErrInvalidKey 表示 key 为空或解析后越出根目录。
var ErrInvalidKey = errors.New("invalid cache key")

// Backend 名称，与配置文件中的 Storage.Backend 一致。
const (
	BackendFilesystem = "filesystem"
	BackendMemory     = "memory"
	BackendRedis      = "redis"
	BackendSQLite     = "sqlite"
)
