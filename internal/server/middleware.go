package server

import (
	"context"
	"log"
	"net/http"
	"runtime/debug"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/venturelab/adsgw/internal/logger"
	"github.com/venturelab/adsgw/internal/logger/sanitize"
)

// HeaderRequestID carries the per-request id in both directions.
const HeaderRequestID = "X-Request-ID"

type contextKey string

const requestIDKey contextKey = "request-id"

var logMiddleware = logger.New("server:middleware")

// withRequestID keeps a caller supplied X-Request-ID or assigns a new one,
// echoes it on the response and stores it in the request context.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" || len(id) > 128 {
			var err error
			if id, err = gonanoid.New(); err != nil {
				id = "unknown"
			}
		}
		w.Header().Set(HeaderRequestID, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// withRecover turns a handler panic into a 500 instead of a dropped connection.
func withRecover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				logger.LogError("server", "Panic serving %s %s: %v\n%s", r.Method, r.URL.Path, rec, debug.Stack())
				logRuntimeError("panic", "handler panicked", r)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// withResponseLogging records every request with its status, size and
// latency, plus a sanitized preview of the response body where it holds no
// result rows.
func withResponseLogging(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lw := newResponseWriter(w)
		handler.ServeHTTP(lw, r)

		elapsed := time.Since(start)
		id := requestIDFrom(r.Context())
		log.Printf("[%s] %s %s - Status: %d, Bytes: %d, Duration: %s, Request: %s",
			r.RemoteAddr, r.Method, r.URL.Path, lw.StatusCode(), lw.Written(), elapsed.Round(time.Millisecond), id)
		logger.LogInfo("http", "%s %s status=%d bytes=%d duration=%s request_id=%s",
			r.Method, r.URL.Path, lw.StatusCode(), lw.Written(), elapsed, id)
		if preview := responsePreview(r.URL.Path, lw.StatusCode(), lw.Preview()); preview != "" {
			logMiddleware.Printf("Response %s: %s", id, preview)
		}
	})
}

// responsePreview returns the sanitized body preview worth logging for a
// response. Successful search bodies hold account rows and are never
// previewed; handleSearch logs their shape instead.
func responsePreview(path string, status int, body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if path == searchPath && status < http.StatusBadRequest {
		return ""
	}
	return sanitize.SanitizeString(string(body))
}
