// Package middleware provides HTTP middleware for the console server.
package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/salvationministries/console/internal/logging"
)

// Logger logs one structured entry per request.
//
// It must run after chi's RequestID so the entry carries the request ID.
// The entry is written after the handler returns, so when Session runs
// inside Logger the user fields are taken from the request that reached
// the handler.
//
// Log fields: method, path, status, bytes, duration_ms, ip, user_agent,
// and request_id / user_id / role via logging.FromContext.
func Logger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := NewStatusRecorder(w)

		next.ServeHTTP(rec, r.WithContext(context.WithValue(r.Context(), recorderKey{}, rec)))

		ctx := r.Context()
		if rec.Request != nil {
			ctx = rec.Request.Context()
		}
		logger := logging.FromContext(ctx)

		level := logger.Info
		if rec.Status >= http.StatusInternalServerError {
			level = logger.Error
		} else if rec.Status >= http.StatusBadRequest {
			level = logger.Warn
		}
		level("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.Status,
			"bytes", rec.Bytes,
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", r.RemoteAddr,
			"user_agent", r.UserAgent(),
		)
	})
}

// StatusRecorder wraps http.ResponseWriter to capture the status code and
// the number of body bytes written.
type StatusRecorder struct {
	http.ResponseWriter
	Status int
	Bytes  int

	// Request is the request as last passed to Observe, so outer middleware
	// can read context values added further down the chain.
	Request *http.Request

	wroteHeader bool
}

// NewStatusRecorder wraps w. The status defaults to 200.
func NewStatusRecorder(w http.ResponseWriter) *StatusRecorder {
	if rec, ok := w.(*StatusRecorder); ok {
		return rec
	}
	return &StatusRecorder{ResponseWriter: w, Status: http.StatusOK}
}

type recorderKey struct{}

// Observe records r on the recorder installed by Logger, if any. Writers
// between Logger and the caller may be wrapped, so the recorder travels in
// the request context.
func Observe(r *http.Request) {
	if rec, ok := r.Context().Value(recorderKey{}).(*StatusRecorder); ok {
		rec.Request = r
	}
}

func (w *StatusRecorder) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}
	w.Status = status
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(status)
}

func (w *StatusRecorder) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(http.StatusOK)
	}
	n, err := w.ResponseWriter.Write(b)
	w.Bytes += n
	return n, err
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (w *StatusRecorder) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}
