package keyrule

import (
	"strings"

	"github.com/any-hub/pagecache/internal/responsecache"
)

// FlatName 对应把目录层级压平成单段 key 的规则。
const FlatName = "flat"

func init() {
	MustRegister(Rule{
		Name:        DefaultName,
		Description: "mirror the decoded URL path, adding the canonical extension or index.html",
		Keyer:       responsecache.DefaultKeyer,
	})
	MustRegister(Rule{
		Name:        FlatName,
		Description: "default key with directory separators collapsed to '-'",
		Keyer:       FlatKeyer,
	})
}

// FlatKeyer 在默认规则的结果上把前导 "/" 之后的分隔符替换为 "-"，
// 例如 /path/to/blah.html 变为 /path-to-blah.html，适合扁平的 KV 命名空间。
// 压平不可逆："/a-b/c" 与 "/a/b-c" 得到同一个 key "/a-b-c.html"，后写入者覆盖先写入者。
func FlatKeyer(req *responsecache.Request, res *responsecache.Response) (string, bool) {
	key, ok := responsecache.DefaultKeyer(req, res)
	if !ok {
		return "", false
	}
	return "/" + strings.ReplaceAll(strings.TrimPrefix(key, "/"), "/", "-"), true
}
