package responsecache

import (
	"bytes"
	"net/http"
)

// Handler wraps a net/http handler. The downstream response is streamed to the
// client while being recorded; once it completes the recording is written
// through the cache. The client already has the response at that point, so a
// failed write is only logged, at error level under WritePolicyPropagate.
func (i *Interceptor) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		saver := newResponseSaver(w)
		next.ServeHTTP(saver, r)

		if _, err := i.WriteThrough(r.Context(), requestFromHTTP(r), saver.response()); err != nil {
			if i.policy == WritePolicyPropagate {
				i.logger.WithError(err).WithField("action", "cache_write").Error("cache_write_propagated")
			}
		}
	})
}

func requestFromHTTP(r *http.Request) *Request {
	attrs := map[string]string{
		AttrHost:       r.Host,
		AttrRemoteAddr: r.RemoteAddr,
	}
	if reqID := r.Header.Get("X-Request-ID"); reqID != "" {
		attrs[AttrRequestID] = reqID
	}
	return &Request{
		Method:     r.Method,
		RawPath:    r.URL.EscapedPath(),
		Query:      r.URL.RawQuery,
		Header:     r.Header.Clone(),
		Attributes: attrs,
	}
}

// responseSaver tees an http.ResponseWriter into a buffer.
type responseSaver struct {
	rw          http.ResponseWriter
	body        bytes.Buffer
	status      int
	wroteHeader bool
}

func newResponseSaver(w http.ResponseWriter) *responseSaver {
	return &responseSaver{rw: w}
}

func (s *responseSaver) Header() http.Header {
	return s.rw.Header()
}

func (s *responseSaver) WriteHeader(statusCode int) {
	if s.wroteHeader {
		return
	}
	s.wroteHeader = true
	s.status = statusCode
	s.rw.WriteHeader(statusCode)
}

func (s *responseSaver) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	n, err := s.rw.Write(b)
	s.body.Write(b[:n])
	return n, err
}

// Flush keeps streaming handlers working behind the saver.
func (s *responseSaver) Flush() {
	if f, ok := s.rw.(http.Flusher); ok {
		f.Flush()
	}
}

func (s *responseSaver) response() *Response {
	status := s.status
	if !s.wroteHeader {
		status = http.StatusOK
	}
	return &Response{
		StatusCode: status,
		Header:     s.rw.Header().Clone(),
		Body:       s.body.Bytes(),
	}
}
