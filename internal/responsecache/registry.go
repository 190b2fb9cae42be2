package responsecache

import "sort"

// contentTypes 是可缓存的 MIME 类型白名单，首个扩展名为默认扩展名。
var contentTypes = map[string][]string{
	"application/pdf":        {"pdf"},
	"application/xhtml+xml":  {"xhtml"},
	"text/css":               {"css"},
	"text/csv":               {"csv"},
	"text/html":              {"html", "htm"},
	"text/javascript":        {"js"},
	"application/javascript": {"js"},
	"text/plain":             {"txt"},
	"text/xml":               {"xml"},
	"text/x-component":       {"htc"},
}

// allowedExtensions 为所有类型扩展名的并集，包初始化时计算一次。
var allowedExtensions = buildAllowedExtensions(contentTypes)

func buildAllowedExtensions(types map[string][]string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, exts := range types {
		for _, ext := range exts {
			set[ext] = struct{}{}
		}
	}
	return set
}

// ExtensionsFor 返回 contentType 允许的扩展名副本，未登记时 ok 为 false。
func ExtensionsFor(contentType string) ([]string, bool) {
	exts, ok := contentTypes[contentType]
	if !ok {
		return nil, false
	}
	return append([]string(nil), exts...), true
}

// IsAllowedExtension reports whether ext (without the leading dot) belongs to
// any registered content type.
func IsAllowedExtension(ext string) bool {
	_, ok := allowedExtensions[ext]
	return ok
}

// ContentTypes 按字母序列出已登记的 MIME 类型，供诊断接口输出。
func ContentTypes() []string {
	result := make([]string, 0, len(contentTypes))
	for ct := range contentTypes {
		result = append(result, ct)
	}
	sort.Strings(result)
	return result
}
