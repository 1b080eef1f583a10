package logger

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func echoBody(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write(b)
	})
}

func TestMiddleware_RestoresBodyAndLogs(t *testing.T) {
	AddBodyLogPaths("/csp/logged/")
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewMiddleware(zap.New(core)).Middleware()(echoBody(t))

	req := httptest.NewRequest(http.MethodPost, "/csp/logged", strings.NewReader(`{"id":1}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, `{"id":1}`, rec.Body.String())

	entries := logs.FilterMessage("http").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "/csp/logged", fields["uri"])
	assert.Equal(t, int64(http.StatusCreated), fields["status"])
	assert.Equal(t, `{"id":1}`, fields["requestData"])
}

func TestMiddleware_RedactsUnlistedBodies(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewMiddleware(zap.New(core)).Middleware()(echoBody(t))

	req := httptest.NewRequest(http.MethodPost, "/csp/secret", strings.NewReader(`{"token":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	h.ServeHTTP(httptest.NewRecorder(), req)

	entries := logs.All()
	require.Len(t, entries, 1)
	_, ok := entries[0].ContextMap()["requestData"]
	assert.False(t, ok)
}

func TestShouldLogBody(t *testing.T) {
	AddBodyLogPaths("/csp/math", "  ", "")

	mk := func(method, path, ct string) *http.Request {
		r := httptest.NewRequest(method, path, nil)
		r.Header.Set("Content-Type", ct)
		return r
	}
	body := []byte(`{"id":1}`)

	assert.True(t, shouldLogBody(mk(http.MethodPost, "/csp/math", "application/json"), body))
	assert.True(t, shouldLogBody(mk(http.MethodPost, "/csp/math/add", "application/json; charset=utf-8"), body))
	assert.False(t, shouldLogBody(mk(http.MethodPost, "/csp/mathx", "application/json"), body))
	assert.False(t, shouldLogBody(mk(http.MethodGet, "/csp/math", "application/json"), body))
	assert.False(t, shouldLogBody(mk(http.MethodPost, "/csp/math", "text/plain"), body))
	assert.False(t, shouldLogBody(mk(http.MethodPost, "/csp/math", "application/json"), nil))
	assert.False(t, shouldLogBody(mk(http.MethodPost, "/csp/math", "application/json"), make([]byte, 1<<16+1)))
}

func TestNewLog_WritesFile(t *testing.T) {
	dir := t.TempDir()
	log := NewLog(dir, "system.log", "debug")
	log.Debug("hello", zap.String("k", "v"))
	_ = log.Sync()

	assert.FileExists(t, filepath.Join(dir, "system.log"))
}

func TestNewLog_BadLevelFallsBackToInfo(t *testing.T) {
	log := NewLog(t.TempDir(), "system.log", "loud")
	assert.False(t, log.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, log.Core().Enabled(zapcore.InfoLevel))
}

type countingBody struct {
	r io.Reader
	n int64
}

func (c *countingBody) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func (c *countingBody) Close() error { return nil }

func TestMiddleware_DoesNotBufferOversizedBody(t *testing.T) {
	AddBodyLogPaths("/csp/big")
	core, logs := observer.New(zapcore.InfoLevel)
	limited := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(http.MaxBytesReader(w, r.Body, 64)); err != nil {
			http.Error(w, "too large", http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	h := NewMiddleware(zap.New(core)).Middleware()(limited)

	src := &countingBody{r: io.LimitReader(zeroReader{}, 32<<20)}
	req := httptest.NewRequest(http.MethodPost, "/csp/big", nil)
	req.Body = src
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.LessOrEqual(t, src.n, int64(2*(maxLoggedBody+1)))

	entries := logs.All()
	require.Len(t, entries, 1)
	_, ok := entries[0].ContextMap()["requestData"]
	assert.False(t, ok)
}

func TestMiddleware_PassesLargeBodyThroughIntact(t *testing.T) {
	AddBodyLogPaths("/csp/big")
	core, logs := observer.New(zapcore.InfoLevel)
	h := NewMiddleware(zap.New(core)).Middleware()(echoBody(t))

	payload := bytes.Repeat([]byte("x"), maxLoggedBody+10)
	req := httptest.NewRequest(http.MethodPost, "/csp/big", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, len(payload), rec.Body.Len())
	require.Len(t, logs.All(), 1)
	_, ok := logs.All()[0].ContextMap()["requestData"]
	assert.False(t, ok)
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = '0'
	}
	return len(p), nil
}
