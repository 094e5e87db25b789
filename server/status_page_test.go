package server

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"JNChoral/core/auth"
	"JNChoral/logger"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// brokenWriter accepts headers but fails every body write.
type brokenWriter struct {
	header http.Header
	status int
}

func (b *brokenWriter) Header() http.Header { return b.header }
func (b *brokenWriter) WriteHeader(code int) { b.status = code }
func (b *brokenWriter) Write([]byte) (int, error) { return 0, errors.New("connection reset by peer") }

func TestStatusPageLogsWriteFailure(t *testing.T) {
	s := newTestServer(t)
	core, logs := observer.New(zapcore.ErrorLevel)
	defer logger.Replace(zap.New(core))()

	req := httptest.NewRequest(http.MethodGet, "/auditions/status", nil)
	req = req.WithContext(auth.WithPrincipal(req.Context(), &auth.Principal{ID: "user-1", Email: "ada@example.com"}))
	w := &brokenWriter{header: http.Header{}}
	s.handler.StatusPage(w, req)

	assert.Equal(t, "text/html; charset=utf-8", w.header.Get("Content-Type"))
	entries := logs.FilterMessage("写入申请状态页失败").All()
	if assert.Len(t, entries, 1) {
		assert.Equal(t, "connection reset by peer", entries[0].ContextMap()["error"])
	}
}
