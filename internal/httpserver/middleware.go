package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const headerRequestID = "X-Request-ID"

type ctxKey int

const requestInfoKey ctxKey = iota

// requestInfo is shared between the outer observer and the inner auth
// wrapper so the access log can name the user.
type requestInfo struct {
	id   string
	user string
}

func infoFromContext(ctx context.Context) *requestInfo {
	v, _ := ctx.Value(requestInfoKey).(*requestInfo)
	return v
}

// RequestID returns the id assigned to the request, or "".
func RequestID(ctx context.Context) string {
	if info := infoFromContext(ctx); info != nil {
		return info.id
	}
	return ""
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Permissions-Policy", "interest-cohort=()")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// observe assigns a request id, then logs and measures every request. The
// route label is the mux pattern, so path parameters never explode the
// label set.
func (s *Server) observe(mux *http.ServeMux) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		id := r.Header.Get(headerRequestID)
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
		}
		w.Header().Set(headerRequestID, id)

		info := &requestInfo{id: id}
		r = r.WithContext(context.WithValue(r.Context(), requestInfoKey, info))

		_, route := mux.Handler(r)

		s.rec.HTTPStarted()
		sw := &statusWriter{ResponseWriter: w}
		defer func() {
			// net/http recovers handler panics; report them as 500 and re-panic.
			p := recover()
			status := sw.Status()
			if p != nil && sw.status == 0 {
				status = http.StatusInternalServerError
			}
			elapsed := time.Since(start)
			s.rec.HTTPFinished(r.Method, route, status, elapsed)

			args := []any{
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"bytes", sw.bytes,
				"duration", elapsed,
				"request_id", id,
			}
			if info.user != "" {
				args = append(args, "user", info.user)
			}
			s.log.Info(r.Context(), "request", args...)
			if p != nil {
				panic(p)
			}
		}()
		mux.ServeHTTP(sw, r)
	})
}

// trimTrailingSlash routes "/api/v1/files/upload/" like
// "/api/v1/files/upload". Only API paths are rewritten; the static tree and
// WebDAV keep their directory slashes.
func trimTrailingSlash(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := r.URL.Path
		if strings.HasPrefix(p, "/api/") && strings.HasSuffix(p, "/") {
			u := *r.URL
			u.Path = strings.TrimRight(p, "/")
			u.RawPath = ""
			r2 := r.Clone(r.Context())
			r2.URL = &u
			r = r2
		}
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int64
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += int64(n)
	return n, err
}

func (w *statusWriter) Status() int {
	if w.status == 0 {
		return http.StatusOK
	}
	return w.status
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
