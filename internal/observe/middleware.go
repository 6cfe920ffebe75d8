package observe

import (
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// statusWriter remembers the status code written through it.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Middleware wraps an HTTP handler with a server span, an X-Correlation-ID
// response header, the request duration histogram and a completion log line.
//
// The route attribute is the matched ServeMux pattern ("unmatched" when the
// request hit no pattern), so arbitrary paths never become metric labels.
func Middleware(m *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx, span := StartSpan(r.Context(), "HTTP "+r.Method, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			id := CorrelationID(ctx)
			w.Header().Set("X-Correlation-ID", id)

			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			r = r.WithContext(ctx)
			next.ServeHTTP(sw, r)

			route := "unmatched"
			if r.Pattern != "" {
				route = r.Pattern
				span.SetName("HTTP " + route)
			}
			elapsed := time.Since(start)
			attrs := []attribute.KeyValue{
				attribute.String("method", r.Method),
				attribute.String("path", route),
				attribute.Int("status", sw.status),
			}
			span.SetAttributes(attrs...)
			m.HTTPRequestDuration.Record(ctx, elapsed.Seconds(), metric.WithAttributes(attrs...))

			slog.LogAttrs(ctx, slog.LevelInfo, "request completed",
				slog.String("trace_id", id),
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", sw.status),
				slog.Duration("duration", elapsed),
			)
		})
	}
}
