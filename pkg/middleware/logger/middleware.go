package logger

import (
	"bytes"
	"io"
	"net/http"
	"time"

	chimd "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Middleware writes one access record per request.
type Middleware struct {
	access *zap.Logger
}

func NewMiddleware(access *zap.Logger) *Middleware {
	if access == nil {
		access = zap.NewNop()
	}
	return &Middleware{access: access}
}

func (m *Middleware) Middleware() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimd.NewWrapResponseWriter(w, r.ProtoMajor)

			// Peek at most maxLoggedBody+1 bytes and hand downstream the same
			// stream, so the dispatcher's own body limit still applies.
			var body []byte
			if r.Body != nil {
				prefix, _ := io.ReadAll(io.LimitReader(r.Body, maxLoggedBody+1))
				if len(prefix) <= maxLoggedBody {
					body = prefix
				}
				r.Body = replayBody{Reader: io.MultiReader(bytes.NewReader(prefix), r.Body), Closer: r.Body}
			}

			start := time.Now()
			defer func() {
				log := m.access.With(
					zap.String("requestId", chimd.GetReqID(r.Context())),
					zap.String("httpProto", r.Proto),
					zap.String("httpMethod", r.Method),
					zap.String("remoteAddr", r.RemoteAddr),
					zap.String("uri", r.URL.Path),
					zap.Duration("lat", time.Since(start)),
					zap.Int("responseSize", ww.BytesWritten()),
					zap.Int("status", ww.Status()),
				)

				// Redact by default; allowlist small JSON bodies only.
				if shouldLogBody(r, body) {
					log.Info("http", zap.ByteString("requestData", body))
				} else {
					log.Info("http")
				}
			}()

			next.ServeHTTP(ww, r)
		})
	}
}

type replayBody struct {
	io.Reader
	io.Closer
}
