package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/any-hub/pagecache/internal/cache"
	"github.com/any-hub/pagecache/internal/keyrule"
	"github.com/any-hub/pagecache/internal/responsecache"
)

var supportedBackends = map[string]struct{}{
	cache.BackendFilesystem: {},
	cache.BackendMemory:     {},
	cache.BackendRedis:      {},
	cache.BackendSQLite:     {},
}

const supportedBackendList = "filesystem|memory|redis|sqlite"

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.UpstreamTimeout.DurationValue() <= 0 {
		return newFieldError("Global.UpstreamTimeout", "必须大于 0")
	}
	if err := validateUpstream(g.Upstream); err != nil {
		return fmt.Errorf("Global.Upstream: %w", err)
	}
	if _, ok := keyrule.Resolve(g.KeyRule); !ok {
		return newFieldError("Global.KeyRule", fmt.Sprintf("未注册规则: %s，可选 %s", g.KeyRule, strings.Join(keyrule.Names(), "|")))
	}
	if _, err := responsecache.ParseWritePolicy(g.WritePolicy); err != nil {
		return newFieldError("Global.WritePolicy", "仅支持 log/propagate")
	}

	return c.Storage.validate()
}

func (s StorageConfig) validate() error {
	backend := strings.ToLower(strings.TrimSpace(s.Backend))
	if _, ok := supportedBackends[backend]; !ok {
		return newFieldError(storageField("Backend"), "仅支持 "+supportedBackendList)
	}

	switch backend {
	case cache.BackendFilesystem:
		if strings.TrimSpace(s.Root) == "" {
			return newFieldError(storageField("Root"), "filesystem 后端不能为空")
		}
	case cache.BackendRedis:
		if strings.TrimSpace(s.RedisAddr) == "" {
			return newFieldError(storageField("RedisAddr"), "redis 后端不能为空")
		}
		if s.RedisDB < 0 {
			return newFieldError(storageField("RedisDB"), "不能为负数")
		}
	case cache.BackendSQLite:
		if strings.TrimSpace(s.SQLitePath) == "" {
			return newFieldError(storageField("SQLitePath"), "sqlite 后端不能为空")
		}
	}
	return nil
}

func validateUpstream(raw string) error {
	if raw == "" {
		return errors.New("缺少上游地址")
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https，上游: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("上游缺少 Host: %s", raw)
	}
	return nil
}
