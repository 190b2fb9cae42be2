package routes

import (
	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/pagecache/internal/keyrule"
	"github.com/any-hub/pagecache/internal/responsecache"
	"github.com/any-hub/pagecache/internal/version"
)

// StatusInfo 汇总启动时确定的运行参数，供诊断接口输出。
type StatusInfo struct {
	Upstream    string
	Backend     string
	KeyRule     string
	WritePolicy string
}

// RegisterStatusRoutes 暴露 /-/status、/-/content-types 与 /-/key-rules 诊断接口。
func RegisterStatusRoutes(app *fiber.App, info StatusInfo) {
	if app == nil {
		return
	}

	app.Get("/-/status", func(c fiber.Ctx) error {
		return c.JSON(encodeStatus(info))
	})

	app.Get("/-/content-types", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"content_types": encodeContentTypes(),
		})
	})

	app.Get("/-/key-rules", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"key_rules": encodeKeyRules(keyrule.List(), info.KeyRule),
		})
	})
}

type statusPayload struct {
	Version     string `json:"version"`
	Upstream    string `json:"upstream"`
	Backend     string `json:"backend"`
	KeyRule     string `json:"key_rule"`
	WritePolicy string `json:"write_policy"`
}

type contentTypePayload struct {
	ContentType string   `json:"content_type"`
	Extensions  []string `json:"extensions"`
}

type keyRulePayload struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
}

func encodeStatus(info StatusInfo) statusPayload {
	return statusPayload{
		Version:     version.Full(),
		Upstream:    info.Upstream,
		Backend:     info.Backend,
		KeyRule:     info.KeyRule,
		WritePolicy: info.WritePolicy,
	}
}

func encodeContentTypes() []contentTypePayload {
	types := responsecache.ContentTypes()
	result := make([]contentTypePayload, 0, len(types))
	for _, contentType := range types {
		exts, _ := responsecache.ExtensionsFor(contentType)
		result = append(result, contentTypePayload{
			ContentType: contentType,
			Extensions:  exts,
		})
	}
	return result
}

func encodeKeyRules(rules []keyrule.Rule, active string) []keyRulePayload {
	if len(rules) == 0 {
		return nil
	}
	result := make([]keyRulePayload, 0, len(rules))
	for _, rule := range rules {
		result = append(result, keyRulePayload{
			Name:        rule.Name,
			Description: rule.Description,
			Active:      rule.Name == active,
		})
	}
	return result
}
