package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/any-hub/pagecache/internal/cache"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述全局运行时行为：监听端口、日志、上游与缓存策略。
type GlobalConfig struct {
	ListenPort      int      `mapstructure:"ListenPort"`
	LogLevel        string   `mapstructure:"LogLevel"`
	LogFilePath     string   `mapstructure:"LogFilePath"`
	LogMaxSize      int      `mapstructure:"LogMaxSize"`
	LogMaxBackups   int      `mapstructure:"LogMaxBackups"`
	LogCompress     bool     `mapstructure:"LogCompress"`
	Upstream        string   `mapstructure:"Upstream"`
	UpstreamTimeout Duration `mapstructure:"UpstreamTimeout"`
	KeyRule         string   `mapstructure:"KeyRule"`
	WritePolicy     string   `mapstructure:"WritePolicy"`
}

// StorageConfig 对应 [Storage] 段，决定缓存页面写入哪个后端。
type StorageConfig struct {
	Backend        string   `mapstructure:"Backend"`
	Root           string   `mapstructure:"Root"`
	RedisAddr      string   `mapstructure:"RedisAddr"`
	RedisPassword  string   `mapstructure:"RedisPassword"`
	RedisDB        int      `mapstructure:"RedisDB"`
	RedisKeyPrefix string   `mapstructure:"RedisKeyPrefix"`
	RedisTTL       Duration `mapstructure:"RedisTTL"`
	SQLitePath     string   `mapstructure:"SQLitePath"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global  GlobalConfig  `mapstructure:",squash"`
	Storage StorageConfig `mapstructure:"Storage"`
}

// IsFilesystem 表示是否以目录树方式落盘。
func (s StorageConfig) IsFilesystem() bool {
	return s.Backend == cache.BackendFilesystem
}

// OpenOptions 将关联存储相关字段转换为 cache.Open 的参数。
func (s StorageConfig) OpenOptions() cache.OpenOptions {
	return cache.OpenOptions{
		Backend:        s.Backend,
		RedisAddr:      s.RedisAddr,
		RedisPassword:  s.RedisPassword,
		RedisDB:        s.RedisDB,
		RedisKeyPrefix: s.RedisKeyPrefix,
		RedisTTL:       s.RedisTTL.DurationValue(),
		SQLitePath:     s.SQLitePath,
	}
}
