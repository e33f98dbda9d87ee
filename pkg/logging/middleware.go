package logging

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDMiddleware tags each HTTP request with an ID, taken from the
// X-Request-ID header or generated, and logs its completion. Event streams
// are long-lived and only logged at DEBUG.
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		ctx := WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		start := time.Now()
		streaming := IsStreamPath(r.URL.Path)
		if streaming {
			DebugContext(ctx, "stream opened", "path", r.URL.Path, "remoteAddr", r.RemoteAddr)
		}

		next.ServeHTTP(wrapped, r)

		args := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.statusCode,
			"durationMs", time.Since(start).Milliseconds(),
		}
		switch {
		case wrapped.statusCode >= 400:
			ErrorContext(ctx, "request failed", args...)
		case streaming:
			DebugContext(ctx, "stream closed", args...)
		default:
			InfoContext(ctx, "request completed", args...)
		}
	})
}

// StreamPathPrefix prefixes the long-lived event stream routes
const StreamPathPrefix = "/api/subscribe/"

// IsStreamPath reports whether path names an event stream
func IsStreamPath(path string) bool {
	return strings.HasPrefix(path, StreamPathPrefix)
}

// NewRunContext returns ctx tagged with a fresh analysis run ID
func NewRunContext(ctx context.Context) (context.Context, string) {
	runID := uuid.New().String()
	return WithRunID(ctx, runID), runID
}

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Flush implements http.Flusher for SSE support
func (rw *responseWriter) Flush() {
	if flusher, ok := rw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}
