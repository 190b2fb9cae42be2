package logging

import (
	"time"

	"github.com/sirupsen/logrus"
)

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 提供单次请求的公共字段，request_id 为空时省略。
func RequestFields(method, path, requestID string, status int, elapsed time.Duration) logrus.Fields {
	fields := logrus.Fields{
		"method":     method,
		"path":       path,
		"status":     status,
		"elapsed_ms": elapsed.Milliseconds(),
	}
	if requestID != "" {
		fields["request_id"] = requestID
	}
	return fields
}

// StorageFields 描述缓存后端，用于启动与诊断日志。
func StorageFields(backend, keyRule, writePolicy string) logrus.Fields {
	return logrus.Fields{
		"backend":      backend,
		"key_rule":     keyRule,
		"write_policy": writePolicy,
	}
}
