package cache

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// OpenOptions 描述配置文件选定的关联存储后端。
type OpenOptions struct {
	Backend        string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	RedisTTL       time.Duration
	SQLitePath     string
}

// NopCloser 用于无需释放资源的写入端（memory、filesystem）。
type NopCloser struct{}

func (NopCloser) Close() error { return nil }

// Open 构建 memory/redis/sqlite 写入端；filesystem 由调用方以根目录方式选择，
// 不经过此函数。返回的 io.Closer 用于释放连接，调用方负责关闭。
func Open(ctx context.Context, opts OpenOptions) (Sink, io.Closer, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case BackendMemory:
		return NewMemorySink(), NopCloser{}, nil
	case BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     opts.RedisAddr,
			Password: opts.RedisPassword,
			DB:       opts.RedisDB,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("connect redis %s: %w", opts.RedisAddr, err)
		}
		sink, err := NewRedisSink(client, RedisOptions{KeyPrefix: opts.RedisKeyPrefix, TTL: opts.RedisTTL})
		if err != nil {
			client.Close()
			return nil, nil, err
		}
		return sink, client, nil
	case BackendSQLite:
		sink, err := NewSQLiteSink(opts.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return sink, sink, nil
	case BackendFilesystem:
		return nil, nil, fmt.Errorf("backend %s is selected by storage root, not Open", BackendFilesystem)
	default:
		return nil, nil, fmt.Errorf("unsupported storage backend: %s", opts.Backend)
	}
}
