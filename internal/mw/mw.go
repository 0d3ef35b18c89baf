package mw

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

type logmwkey int

const key logmwkey = iota

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	written    int
	statusCode int
}

func (i *statusRecorder) Write(buf []byte) (int, error) {
	written, err := i.ResponseWriter.Write(buf)
	i.written += written
	return written, err
}

func (i *statusRecorder) WriteHeader(statusCode int) {
	i.statusCode = statusCode
	i.ResponseWriter.WriteHeader(statusCode)
}

func (i *statusRecorder) Unwrap() http.ResponseWriter {
	return i.ResponseWriter
}

// NewLoggerMiddleware logs one line per request once the handler returns.
// Handlers can retrieve the request-scoped logger with Extract.
func NewLoggerMiddleware(logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			l := logger.With(
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)

			ctx := context.WithValue(r.Context(), key, l)

			rec := statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(&rec, r.WithContext(ctx))

			l = l.With(
				"duration", time.Since(start),
				"status", rec.statusCode,
				"bytes_written", rec.written,
			)

			logHTTPStatus(r.Context(), l, rec.statusCode)
		})
	}
}

func logHTTPStatus(ctx context.Context, l *slog.Logger, status int) {
	var msg string
	if msg = http.StatusText(status); msg == "" {
		msg = "unknown status " + strconv.Itoa(status)
	}

	level := slog.LevelInfo
	if status >= 500 {
		level = slog.LevelError
	}

	l.Log(ctx, level, msg)
}

// Extract returns the logger set by mw.
func Extract(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(key).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
