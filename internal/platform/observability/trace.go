package observability

import (
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/chatscai10/friedg-sub006/internal/platform/requestctx"
)

const cloudTraceHeader = "X-Cloud-Trace-Context"

var tracer = otel.Tracer("github.com/chatscai10/friedg-sub006/internal/platform/observability")

// TraceMiddleware extracts Cloud Trace headers, starts a server span, and
// stores trace metadata on the request context.
func TraceMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			if remote, ok := parseCloudTraceContext(r.Header.Get(cloudTraceHeader)); ok {
				ctx = trace.ContextWithRemoteSpanContext(ctx, remote)
			}

			ctx, span := tracer.Start(ctx, fmt.Sprintf("%s %s", r.Method, r.URL.Path),
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", r.Method),
					attribute.String("url.path", r.URL.Path),
				),
			)
			defer span.End()

			spanCtx := span.SpanContext()
			ctx = requestctx.WithTrace(ctx, requestctx.TraceInfo{
				TraceID: spanCtx.TraceID().String(),
				SpanID:  spanCtx.SpanID().String(),
				Sampled: spanCtx.IsSampled(),
			})

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseCloudTraceContext decodes "TRACE_ID/SPAN_ID;o=1" headers produced by
// Google front ends. Decimal span identifiers are not supported; callers fall
// back to a fresh root span when parsing fails.
func parseCloudTraceContext(header string) (trace.SpanContext, bool) {
	header = strings.TrimSpace(header)
	if header == "" {
		return trace.SpanContext{}, false
	}

	parts := strings.SplitN(header, "/", 2)
	if len(parts) != 2 {
		return trace.SpanContext{}, false
	}

	traceID, err := trace.TraceIDFromHex(strings.TrimSpace(parts[0]))
	if err != nil {
		return trace.SpanContext{}, false
	}

	spanPart := parts[1]
	sampled := false
	if idx := strings.Index(spanPart, ";"); idx >= 0 {
		sampled = strings.Contains(spanPart[idx+1:], "o=1")
		spanPart = spanPart[:idx]
	}

	spanHex := strings.TrimSpace(spanPart)
	if len(spanHex) < 16 {
		spanHex = strings.Repeat("0", 16-len(spanHex)) + spanHex
	}
	spanID, err := trace.SpanIDFromHex(spanHex)
	if err != nil {
		return trace.SpanContext{}, false
	}

	flags := trace.TraceFlags(0)
	if sampled {
		flags = trace.FlagsSampled
	}

	return trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: flags,
		Remote:     true,
	}), true
}
