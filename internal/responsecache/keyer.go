package responsecache

import (
	"net/url"
	"path"
	"slices"
	"strings"
)

const htmlContentType = "text/html"

// DefaultKeyer derives the storage key from the unescaped request path:
//
//   - paths containing ".." or with a content type outside the registry are rejected
//   - "/dir/" + text/html becomes "/dir/index.html"; other types ending in "/" are rejected
//   - a trailing "." is rejected
//   - a missing extension, or an unknown one on text/html, gets the canonical extension appended
//   - a known extension that disagrees with the content type is rejected
func DefaultKeyer(req *Request, res *Response) (string, bool) {
	if req == nil || res == nil {
		return "", false
	}
	p, err := url.PathUnescape(req.RawPath)
	if err != nil {
		return "", false
	}
	if strings.Contains(p, "..") {
		return "", false
	}

	contentType := mediaType(res.Header.Get("Content-Type"))
	allowed, ok := contentTypes[contentType]
	if !ok {
		return "", false
	}

	ext := strings.TrimPrefix(path.Ext(p), ".")
	switch {
	case strings.HasSuffix(p, "/") && contentType == htmlContentType:
		return p + "index.html", true
	case strings.HasSuffix(p, "/"), strings.HasSuffix(p, "."):
		return "", false
	case ext == "" || (!IsAllowedExtension(ext) && contentType == htmlContentType):
		return p + "." + allowed[0], true
	case !slices.Contains(allowed, ext):
		return "", false
	default:
		return p, true
	}
}

// mediaType drops Content-Type parameters such as charset.
func mediaType(value string) string {
	if i := strings.IndexByte(value, ';'); i >= 0 {
		value = value[:i]
	}
	return strings.TrimSpace(value)
}
