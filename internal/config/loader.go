package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"

	"github.com/any-hub/pagecache/internal/cache"
	"github.com/any-hub/pagecache/internal/keyrule"
	"github.com/any-hub/pagecache/internal/responsecache"
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyStorageDefaults(&cfg.Storage)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := absolutizeStorage(&cfg.Storage); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 8080)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("UpstreamTimeout", "30s")
	v.SetDefault("KeyRule", keyrule.DefaultName)
	v.SetDefault("WritePolicy", string(responsecache.WritePolicyLog))
	v.SetDefault("Storage.Backend", cache.BackendFilesystem)
	v.SetDefault("Storage.Root", "./public")
	v.SetDefault("Storage.RedisKeyPrefix", "")
	v.SetDefault("Storage.RedisTTL", 0)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 8080
	}
	if g.UpstreamTimeout.DurationValue() == 0 {
		g.UpstreamTimeout = Duration(30 * time.Second)
	}
	g.KeyRule = strings.ToLower(strings.TrimSpace(g.KeyRule))
	if g.KeyRule == "" {
		g.KeyRule = keyrule.DefaultName
	}
	g.WritePolicy = strings.ToLower(strings.TrimSpace(g.WritePolicy))
	if g.WritePolicy == "" {
		g.WritePolicy = string(responsecache.WritePolicyLog)
	}
}

func applyStorageDefaults(s *StorageConfig) {
	s.Backend = strings.ToLower(strings.TrimSpace(s.Backend))
	if s.Backend == "" {
		s.Backend = cache.BackendFilesystem
	}
	if s.RedisTTL.DurationValue() < 0 {
		s.RedisTTL = Duration(0)
	}
}

// absolutizeStorage 将磁盘相关路径转换为绝对路径，避免工作目录变化带来的歧义。
func absolutizeStorage(s *StorageConfig) error {
	if s.Root != "" {
		abs, err := filepath.Abs(s.Root)
		if err != nil {
			return fmt.Errorf("无法解析缓存目录: %w", err)
		}
		s.Root = abs
	}
	if s.SQLitePath != "" {
		abs, err := filepath.Abs(s.SQLitePath)
		if err != nil {
			return fmt.Errorf("无法解析 SQLite 路径: %w", err)
		}
		s.SQLitePath = abs
	}
	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
