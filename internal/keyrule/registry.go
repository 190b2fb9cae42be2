package keyrule

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/any-hub/pagecache/internal/responsecache"
)

// DefaultName 是配置中 KeyRule 留空时生效的规则，即按解码后的 URL 路径镜像目录结构。
const DefaultName = "default"

// Rule 把配置中的 KeyRule 名称绑定到一个 responsecache.Keyer。
// Keyer 返回 ok=false 时该响应不写入存储。
type Rule struct {
	Name        string
	Description string
	Keyer       responsecache.Keyer
}

var globalRegistry = newRegistry()

type registry struct {
	mu    sync.RWMutex
	rules map[string]Rule
}

func newRegistry() *registry {
	return &registry{rules: make(map[string]Rule)}
}

// Register 登记一条 key 规则。名称不区分大小写，空名称、nil Keyer
// 或已存在的名称都会被拒绝，已有规则不会被覆盖。
func Register(rule Rule) error {
	return globalRegistry.register(rule)
}

// MustRegister 供内置规则在 init() 中登记，失败即 panic。
func MustRegister(rule Rule) {
	if err := Register(rule); err != nil {
		panic(err)
	}
}

// Resolve 按配置中的 KeyRule 查找规则；空白名称回落到 DefaultName，
// 未知名称返回 false，由配置校验转成 FieldError。
func Resolve(name string) (Rule, bool) {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	return globalRegistry.resolve(name)
}

// List 返回全部规则，按名称排序，供 /-/key-rules 诊断输出。
func List() []Rule {
	return globalRegistry.list()
}

// Names 返回规则名称，用于校验失败时提示可选值。
func Names() []string {
	items := List()
	result := make([]string, len(items))
	for i, rule := range items {
		result[i] = rule.Name
	}
	return result
}

func (r *registry) normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func (r *registry) register(rule Rule) error {
	name := r.normalizeName(rule.Name)
	if name == "" {
		return fmt.Errorf("key rule name is required")
	}
	if rule.Keyer == nil {
		return fmt.Errorf("key rule %s has no keyer", name)
	}
	rule.Name = name

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.rules[name]; exists {
		return fmt.Errorf("key rule %s already registered", name)
	}
	r.rules[name] = rule
	return nil
}

func (r *registry) resolve(name string) (Rule, bool) {
	normalized := r.normalizeName(name)

	r.mu.RLock()
	defer r.mu.RUnlock()

	rule, ok := r.rules[normalized]
	return rule, ok
}

func (r *registry) list() []Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.rules) == 0 {
		return nil
	}

	names := make([]string, 0, len(r.rules))
	for name := range r.rules {
		names = append(names, name)
	}
	sort.Strings(names)

	result := make([]Rule, 0, len(names))
	for _, name := range names {
		result = append(result, r.rules[name])
	}
	return result
}
