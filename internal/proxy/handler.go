package proxy

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/pagecache/internal/logging"
	"github.com/any-hub/pagecache/internal/server"
)

// Handler 将请求原样转发到源站，并把源站响应写回 Fiber 上下文，
// 之后由缓存中间件决定是否落盘。
type Handler struct {
	client   *http.Client
	logger   *logrus.Logger
	upstream *url.URL
}

// NewHandler constructs a proxy handler for a single origin.
func NewHandler(client *http.Client, logger *logrus.Logger, upstream string) (*Handler, error) {
	if client == nil {
		return nil, errors.New("http client is required")
	}
	if logger == nil {
		logger = logging.NewDiscard()
	}
	parsed, err := url.Parse(upstream)
	if err != nil {
		return nil, fmt.Errorf("parse upstream: %w", err)
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return nil, fmt.Errorf("upstream must be absolute: %s", upstream)
	}
	return &Handler{
		client:   client,
		logger:   logger,
		upstream: parsed,
	}, nil
}

// Handle 实现 server.ProxyHandler。
func (h *Handler) Handle(c fiber.Ctx) error {
	started := time.Now()
	requestID := server.RequestID(c)
	upstreamURL := resolveUpstreamURL(h.upstream, c)

	req, err := h.buildUpstreamRequest(c, upstreamURL, requestID)
	if err != nil {
		h.logResult(c, upstreamURL.String(), requestID, fiber.StatusBadGateway, started, err)
		return h.writeError(c, fiber.StatusBadGateway, "upstream_failed")
	}

	resp, err := h.client.Do(req)
	if err != nil {
		h.logResult(c, upstreamURL.String(), requestID, fiber.StatusBadGateway, started, err)
		return h.writeError(c, fiber.StatusBadGateway, "upstream_failed")
	}
	defer resp.Body.Close()

	copyResponseHeaders(c, resp.Header)
	c.Status(resp.StatusCode)

	if c.Method() == http.MethodHead {
		h.logResult(c, upstreamURL.String(), requestID, resp.StatusCode, started, nil)
		return nil
	}

	_, err = io.Copy(c.Response().BodyWriter(), resp.Body)
	h.logResult(c, upstreamURL.String(), requestID, resp.StatusCode, started, err)
	if err != nil {
		return fiber.NewError(fiber.StatusBadGateway, fmt.Sprintf("proxy stream failed: %v", err))
	}
	return nil
}

func (h *Handler) buildUpstreamRequest(c fiber.Ctx, upstream *url.URL, requestID string) (*http.Request, error) {
	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, c.Method(), upstream.String(), bytesReader(c.Body()))
	if err != nil {
		return nil, err
	}

	server.CopyHeaders(req.Header, fiberHeadersAsHTTP(c))
	// 交由 Transport 协商压缩并透明解压，缓存文件始终是未压缩的正文。
	req.Header.Del("Accept-Encoding")
	req.Header.Del("Host")
	req.Host = upstream.Host
	req.Header.Set("X-Forwarded-Host", c.Hostname())
	if ip := c.IP(); ip != "" {
		if prior := req.Header.Get("X-Forwarded-For"); prior != "" {
			req.Header.Set("X-Forwarded-For", prior+", "+ip)
		} else {
			req.Header.Set("X-Forwarded-For", ip)
		}
	}
	req.Header.Set("X-Forwarded-Proto", c.Scheme())
	if requestID != "" {
		req.Header.Set("X-Request-ID", requestID)
	}
	return req, nil
}

func (h *Handler) writeError(c fiber.Ctx, status int, code string) error {
	return c.Status(status).JSON(fiber.Map{"error": code})
}

func (h *Handler) logResult(c fiber.Ctx, upstream, requestID string, status int, started time.Time, err error) {
	fields := logging.RequestFields(c.Method(), string(c.Request().URI().PathOriginal()), requestID, status, time.Since(started))
	fields["action"] = "proxy"
	fields["upstream"] = upstream
	if err != nil {
		fields["error"] = err.Error()
		h.logger.WithFields(fields).Error("proxy_failed")
		return
	}
	h.logger.WithFields(fields).Info("proxy_complete")
}

// resolveUpstreamURL 保留原始（未解码）路径与查询串，拼接到源站地址上。
func resolveUpstreamURL(base *url.URL, c fiber.Ctx) *url.URL {
	uri := c.Request().URI()
	rawPath := string(uri.PathOriginal())
	if rawPath == "" {
		rawPath = "/"
	}
	decoded, err := url.PathUnescape(rawPath)
	if err != nil {
		decoded = rawPath
	}

	target := *base
	target.Path = joinPath(base.Path, decoded)
	target.RawPath = joinPath(base.EscapedPath(), rawPath)
	target.RawQuery = string(uri.QueryString())
	target.Fragment = ""
	return &target
}

func joinPath(prefix, p string) string {
	prefix = strings.TrimSuffix(prefix, "/")
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return prefix + p
}

func bytesReader(b []byte) io.Reader {
	if len(b) == 0 {
		return http.NoBody
	}
	return bytes.NewReader(b)
}

func fiberHeadersAsHTTP(c fiber.Ctx) http.Header {
	header := http.Header{}
	c.Request().Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})
	return header
}

// copyResponseHeaders 透传源站响应头；Content-Length 由 fasthttp 按实际正文计算。
func copyResponseHeaders(c fiber.Ctx, headers http.Header) {
	respHeader := &c.Response().Header
	if headers.Get("Content-Type") == "" {
		respHeader.SetNoDefaultContentType(true)
	}
	for key, values := range headers {
		if server.IsHopByHopHeader(key) || strings.EqualFold(key, "Content-Length") {
			continue
		}
		for i, value := range values {
			if i == 0 {
				respHeader.Set(key, value)
				continue
			}
			respHeader.Add(key, value)
		}
	}
}
