package mw

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoggerMiddleware(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	var extracted *slog.Logger
	h := NewLoggerMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		extracted = Extract(r.Context())
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte("Note created"))
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/notes/", nil))

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.NotNil(t, extracted)

	out := buf.String()
	assert.Contains(t, out, "level=INFO")
	assert.Contains(t, out, "method=POST")
	assert.Contains(t, out, "path=/notes/")
	assert.Contains(t, out, "status=201")
	assert.Contains(t, out, "bytes_written=12")
}

func TestLoggerMiddleware_ServerErrorLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	h := NewLoggerMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/notes/", nil))

	assert.Contains(t, buf.String(), "level=ERROR")
	assert.Contains(t, buf.String(), "status=503")
}

func TestExtract_Default(t *testing.T) {
	assert.Equal(t, slog.Default(), Extract(context.Background()))
}
