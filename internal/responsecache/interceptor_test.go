package responsecache

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/any-hub/pagecache/internal/cache"
)

func TestNewRequiresStorageTarget(t *testing.T) {
	if _, err := New(Options{}); !errors.Is(err, ErrNoStorageTarget) {
		t.Fatalf("expected ErrNoStorageTarget, got %v", err)
	}
}

func TestNewRootTakesPrecedence(t *testing.T) {
	root := t.TempDir()
	sink := cache.NewMemorySink()
	interceptor, err := New(Options{Root: root, Store: sink})
	if err != nil {
		t.Fatalf("new interceptor: %v", err)
	}

	key, err := interceptor.WriteThrough(context.Background(), htmlRequest("/path/to/blah"), htmlResponse("hello from origin"))
	if err != nil || key != "/path/to/blah.html" {
		t.Fatalf("unexpected write result key=%q err=%v", key, err)
	}
	if sink.Len() != 0 {
		t.Fatalf("store should be ignored when root is set")
	}

	got, err := os.ReadFile(filepath.Join(root, "path", "to", "blah.html"))
	if err != nil {
		t.Fatalf("read cached file: %v", err)
	}
	if string(got) != "hello from origin" {
		t.Fatalf("unexpected cached body %q", got)
	}
}

func TestServeStoresInAssociativeSink(t *testing.T) {
	sink := cache.NewMemorySink()
	interceptor := mustInterceptor(t, Options{Store: sink})

	calls := 0
	next := func(ctx context.Context, req *Request) (*Response, error) {
		calls++
		return htmlResponse("hello from origin"), nil
	}

	res, err := interceptor.Serve(context.Background(), htmlRequest("/path/to/blah"), next)
	if err != nil {
		t.Fatalf("serve error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected exactly one downstream call, got %d", calls)
	}
	if string(res.Body) != "hello from origin" || res.StatusCode != http.StatusOK {
		t.Fatalf("response altered: %+v", res)
	}
	body, ok := sink.Get("/path/to/blah.html")
	if !ok || string(body) != "hello from origin" {
		t.Fatalf("expected body stored, got %q ok=%v", body, ok)
	}
}

func TestServeIdempotentWrites(t *testing.T) {
	sink := cache.NewMemorySink()
	interceptor := mustInterceptor(t, Options{Store: sink})
	next := func(ctx context.Context, req *Request) (*Response, error) {
		return htmlResponse("same"), nil
	}

	for i := 0; i < 2; i++ {
		if _, err := interceptor.Serve(context.Background(), htmlRequest("/"), next); err != nil {
			t.Fatalf("serve error: %v", err)
		}
	}
	if sink.Len() != 1 {
		t.Fatalf("expected a single key, got %v", sink.Keys())
	}
	if body, _ := sink.Get("/index.html"); string(body) != "same" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestServeSkipsUncacheable(t *testing.T) {
	testCases := []struct {
		name string
		req  *Request
		res  *Response
	}{
		{"post", &Request{Method: http.MethodPost, RawPath: "/a"}, htmlResponse("x")},
		{"query", &Request{Method: http.MethodGet, RawPath: "/a", Query: "q=1"}, htmlResponse("x")},
		{"status", htmlRequest("/a"), &Response{StatusCode: http.StatusNotFound, Header: http.Header{"Content-Type": []string{"text/html"}}}},
		{"private", htmlRequest("/a"), withCacheControl(htmlResponse("x"), "private")},
		{"mismatch", htmlRequest("/d.css"), htmlResponse("x")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			sink := cache.NewMemorySink()
			interceptor := mustInterceptor(t, Options{Store: sink})
			res, err := interceptor.Serve(context.Background(), tc.req, func(context.Context, *Request) (*Response, error) {
				return tc.res, nil
			})
			if err != nil {
				t.Fatalf("serve error: %v", err)
			}
			if res != tc.res {
				t.Fatalf("expected the downstream response to be returned as-is")
			}
			if sink.Len() != 0 {
				t.Fatalf("expected no write, got %v", sink.Keys())
			}
		})
	}
}

func TestServePropagatesDownstreamError(t *testing.T) {
	writes := 0
	interceptor := mustInterceptor(t, Options{Store: StoreFunc(func(context.Context, string, []byte) error {
		writes++
		return nil
	})})
	boom := errors.New("downstream failed")

	_, err := interceptor.Serve(context.Background(), htmlRequest("/a"), func(context.Context, *Request) (*Response, error) {
		return nil, boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected downstream error, got %v", err)
	}
	if writes != 0 {
		t.Fatalf("no write expected after downstream failure")
	}
}

func TestCustomKeyRule(t *testing.T) {
	t.Run("negative signal", func(t *testing.T) {
		sink := cache.NewMemorySink()
		interceptor := mustInterceptor(t, Options{Store: sink, KeyRule: func(*Request, *Response) (string, bool) {
			return "", false
		}})
		if _, err := interceptor.WriteThrough(context.Background(), htmlRequest("/a"), htmlResponse("x")); err != nil {
			t.Fatalf("write error: %v", err)
		}
		if sink.Len() != 0 {
			t.Fatalf("expected nothing stored")
		}
	})

	t.Run("empty key", func(t *testing.T) {
		sink := cache.NewMemorySink()
		interceptor := mustInterceptor(t, Options{Store: sink, KeyRule: func(*Request, *Response) (string, bool) {
			return "", true
		}})
		if key, _ := interceptor.WriteThrough(context.Background(), htmlRequest("/a"), htmlResponse("x")); key != "" || sink.Len() != 0 {
			t.Fatalf("empty key must not be stored")
		}
	})

	t.Run("fixed key", func(t *testing.T) {
		sink := cache.NewMemorySink()
		var seenReq *Request
		var seenRes *Response
		interceptor := mustInterceptor(t, Options{Store: sink, KeyRule: func(req *Request, res *Response) (string, bool) {
			seenReq, seenRes = req, res
			return "1", true
		}})
		req := &Request{Method: http.MethodGet, RawPath: "/image.png"}
		res := &Response{StatusCode: http.StatusOK, Header: http.Header{"Content-Type": []string{"image/png"}}, Body: []byte("png")}
		key, err := interceptor.WriteThrough(context.Background(), req, res)
		if err != nil || key != "1" {
			t.Fatalf("unexpected result key=%q err=%v", key, err)
		}
		if seenReq != req || seenRes != res {
			t.Fatalf("key rule did not receive the request/response pair")
		}
		if body, ok := sink.Get("1"); !ok || string(body) != "png" {
			t.Fatalf("expected body under key 1")
		}
	})

	t.Run("predicate still applies", func(t *testing.T) {
		called := false
		interceptor := mustInterceptor(t, Options{Store: cache.NewMemorySink(), KeyRule: func(*Request, *Response) (string, bool) {
			called = true
			return "1", true
		}})
		req := &Request{Method: http.MethodPost, RawPath: "/a"}
		if _, err := interceptor.WriteThrough(context.Background(), req, htmlResponse("x")); err != nil {
			t.Fatalf("write error: %v", err)
		}
		if called {
			t.Fatalf("key rule must not run for uncacheable responses")
		}
	})
}

func TestWritePolicy(t *testing.T) {
	diskFull := errors.New("disk full")
	failing := StoreFunc(func(context.Context, string, []byte) error { return diskFull })
	next := func(context.Context, *Request) (*Response, error) { return htmlResponse("body"), nil }

	t.Run("log swallows failures", func(t *testing.T) {
		interceptor := mustInterceptor(t, Options{Store: failing})
		res, err := interceptor.Serve(context.Background(), htmlRequest("/a"), next)
		if err != nil {
			t.Fatalf("expected failure to be swallowed, got %v", err)
		}
		if string(res.Body) != "body" {
			t.Fatalf("response must still be delivered")
		}
	})

	t.Run("propagate returns failures", func(t *testing.T) {
		interceptor := mustInterceptor(t, Options{Store: failing, WritePolicy: WritePolicyPropagate})
		res, err := interceptor.Serve(context.Background(), htmlRequest("/a"), next)
		if !errors.Is(err, ErrWriteFailed) || !errors.Is(err, diskFull) {
			t.Fatalf("expected wrapped write failure, got %v", err)
		}
		var writeErr *WriteError
		if !errors.As(err, &writeErr) || writeErr.Key != "/a.html" {
			t.Fatalf("expected WriteError for /a.html, got %v", err)
		}
		if res == nil || string(res.Body) != "body" {
			t.Fatalf("response must be returned alongside the error")
		}
	})
}

func TestParseWritePolicy(t *testing.T) {
	testCases := map[string]WritePolicy{
		"":            WritePolicyLog,
		"log":         WritePolicyLog,
		" Propagate ": WritePolicyPropagate,
	}
	for raw, want := range testCases {
		got, err := ParseWritePolicy(raw)
		if err != nil || got != want {
			t.Fatalf("ParseWritePolicy(%q) = %q, %v", raw, got, err)
		}
	}
	if _, err := ParseWritePolicy("retry"); err == nil {
		t.Fatalf("expected unsupported policy error")
	}
}

func mustInterceptor(t *testing.T, opts Options) *Interceptor {
	t.Helper()
	interceptor, err := New(opts)
	if err != nil {
		t.Fatalf("new interceptor: %v", err)
	}
	return interceptor
}

func htmlRequest(rawPath string) *Request {
	return &Request{Method: http.MethodGet, RawPath: rawPath, Header: http.Header{}}
}

func htmlResponse(body string) *Response {
	return &Response{
		StatusCode: http.StatusOK,
		Header:     http.Header{"Content-Type": []string{"text/html"}},
		Body:       []byte(body),
	}
}

func withCacheControl(res *Response, value string) *Response {
	res.Header.Set("Cache-Control", value)
	return res
}
