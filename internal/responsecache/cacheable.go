package responsecache

import (
	"net/http"
	"strings"
)

// Cacheable reports whether the pair may be written to the cache: a GET with
// an empty query string answered with 200 and no `no-cache` or `private`
// Cache-Control directive.
func Cacheable(req *Request, res *Response) bool {
	if req == nil || res == nil {
		return false
	}
	if req.Method != http.MethodGet || req.Query != "" {
		return false
	}
	if res.StatusCode != http.StatusOK {
		return false
	}
	for _, directive := range cacheControlDirectives(res.Header) {
		if directive == "no-cache" || directive == "private" {
			return false
		}
	}
	return true
}

// cacheControlDirectives splits every Cache-Control line on commas and trims
// each token. Directive values (max-age=...) are kept verbatim.
func cacheControlDirectives(header http.Header) []string {
	if header == nil {
		return nil
	}
	var directives []string
	for _, line := range header.Values("Cache-Control") {
		for _, token := range strings.Split(line, ",") {
			directives = append(directives, strings.TrimSpace(token))
		}
	}
	return directives
}
