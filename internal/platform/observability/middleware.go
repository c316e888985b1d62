package observability

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/chatscai10/friedg-sub006/internal/platform/requestctx"
)

// RequestLogger emits one structured log line per request and stores a
// request-scoped logger on the context.
func RequestLogger(base *zap.Logger) func(http.Handler) http.Handler {
	if base == nil {
		base = zap.NewNop()
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
			}
			if reqID := middleware.GetReqID(ctx); reqID != "" {
				fields = append(fields, zap.String("request_id", reqID))
			}
			if traceID := requestctx.TraceID(ctx); traceID != "" {
				fields = append(fields, zap.String("trace_id", traceID))
			}

			logger := base.With(fields...)
			ctx = requestctx.WithLogger(ctx, logger)

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			logger.Info("request completed",
				zap.Int("status", ww.Status()),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
			)
		})
	}
}
