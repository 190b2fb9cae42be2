package responsecache

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/any-hub/pagecache/internal/cache"
)

func TestHTTPHandlerUnderChi(t *testing.T) {
	sink := cache.NewMemorySink()
	server := httptest.NewServer(newChiTestRouter(t, Options{Store: sink}))
	defer server.Close()

	resp, err := http.Get(server.URL + "/path/to/blah")
	if err != nil {
		t.Fatalf("request error: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "hello from origin" {
		t.Fatalf("response altered, status=%d body=%q", resp.StatusCode, body)
	}

	stored, ok := sink.Get("/path/to/blah.html")
	if !ok || string(stored) != "hello from origin" {
		t.Fatalf("expected stored body, keys=%v", sink.Keys())
	}
}

func TestHTTPHandlerSkipsErrors(t *testing.T) {
	sink := cache.NewMemorySink()
	router := newChiTestRouter(t, Options{Store: sink})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
	if sink.Len() != 0 {
		t.Fatalf("404 must not be stored, got %v", sink.Keys())
	}
}

func TestHTTPHandlerWriteFailureDoesNotAffectClient(t *testing.T) {
	failing := StoreFunc(func(context.Context, string, []byte) error {
		return errors.New("connection refused")
	})
	router := newChiTestRouter(t, Options{Store: failing, WritePolicy: WritePolicyPropagate})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/page", nil))
	if rec.Code != http.StatusOK || rec.Body.String() != "hello from origin" {
		t.Fatalf("client response changed, status=%d body=%q", rec.Code, rec.Body.String())
	}
}

func TestResponseSaverDefaultsToOK(t *testing.T) {
	rec := httptest.NewRecorder()
	saver := newResponseSaver(rec)
	saver.Header().Set("Content-Type", "text/plain")
	if _, err := saver.Write([]byte("hello")); err != nil {
		t.Fatalf("write error: %v", err)
	}
	saver.WriteHeader(http.StatusTeapot)

	res := saver.response()
	if res.StatusCode != http.StatusOK || string(res.Body) != "hello" {
		t.Fatalf("unexpected recorded response: %d %q", res.StatusCode, res.Body)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("late WriteHeader must be ignored, got %d", rec.Code)
	}
}

func newChiTestRouter(t *testing.T, opts Options) http.Handler {
	t.Helper()
	interceptor := mustInterceptor(t, opts)
	r := chi.NewRouter()
	r.Use(interceptor.Handler)
	r.Get("/missing", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("not found"))
	})
	r.Get("/*", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte("hello from origin"))
	})
	return r
}
