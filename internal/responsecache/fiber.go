package responsecache

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v3"
)

// Middleware returns a Fiber handler that lets the rest of the chain build the
// response and then writes it through the cache. Under WritePolicyPropagate a
// failed write is returned to Fiber's error handler.
func (i *Interceptor) Middleware() fiber.Handler {
	return func(c fiber.Ctx) error {
		if err := c.Next(); err != nil {
			return err
		}

		ctx := c.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if _, err := i.WriteThrough(ctx, requestFromFiber(c), responseFromFiber(c)); err != nil {
			return i.resolveWriteError(err)
		}
		return nil
	}
}

func requestFromFiber(c fiber.Ctx) *Request {
	uri := c.Request().URI()
	header := http.Header{}
	c.Request().Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})
	attrs := map[string]string{
		AttrHost:       c.Hostname(),
		AttrRemoteAddr: c.IP(),
	}
	if reqID := c.Response().Header.Peek("X-Request-ID"); len(reqID) > 0 {
		attrs[AttrRequestID] = string(reqID)
	}
	return &Request{
		Method:     c.Method(),
		RawPath:    string(uri.PathOriginal()),
		Query:      string(uri.QueryString()),
		Header:     header,
		Attributes: attrs,
	}
}

// responseFromFiber materializes the response; Body() drains a body stream
// into the response buffer so the client still receives it.
func responseFromFiber(c fiber.Ctx) *Response {
	resp := c.Response()
	header := http.Header{}
	resp.Header.VisitAll(func(key, value []byte) {
		header.Add(string(key), string(value))
	})
	return &Response{
		StatusCode: resp.StatusCode(),
		Header:     header,
		Body:       append([]byte(nil), resp.Body()...),
	}
}
