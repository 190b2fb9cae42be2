package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisOptions 控制 Redis 写入端的 key 前缀与过期时间。
type RedisOptions struct {
	KeyPrefix string
	// TTL 为 0 时条目永不过期；它只限制存储时长，不参与请求判定。
	TTL time.Duration
}

// RedisSink 以 SET 命令写入页面正文，兼容 redis.Client 与 redis.ClusterClient。
type RedisSink struct {
	client redis.Cmdable
	opts   RedisOptions
}

// NewRedisSink 基于已建立的客户端构建写入端。
func NewRedisSink(client redis.Cmdable, opts RedisOptions) (*RedisSink, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if opts.TTL < 0 {
		opts.TTL = 0
	}
	return &RedisSink{client: client, opts: opts}, nil
}

func (s *RedisSink) Put(ctx context.Context, key string, body []byte) error {
	if key == "" {
		return ErrInvalidKey
	}
	return s.client.Set(ctx, s.opts.KeyPrefix+key, body, s.opts.TTL).Err()
}
