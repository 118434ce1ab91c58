package httpmiddleware

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

// Instrument traces every request and records OpenTelemetry HTTP metrics.
// Server spans start out named after the operation and are renamed to the
// ServeMux pattern once routing has resolved it, so traces and the route
// counter group by route rather than by raw URL.
func Instrument(operation string, tp trace.TracerProvider, mp metric.MeterProvider) Middleware {
	meter := mp.Meter("httpmiddleware")
	requests, _ := meter.Int64Counter("http.server.requests_by_route",
		metric.WithDescription("Requests served, partitioned by resolved route pattern"),
	)
	return func(next http.Handler) http.Handler {
		routed := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Pattern == "" {
				return
			}
			route := attribute.String("http.route", r.Pattern)
			span := trace.SpanFromContext(r.Context())
			span.SetName(r.Pattern)
			span.SetAttributes(route)
			requests.Add(r.Context(), 1, metric.WithAttributes(route))
		})
		return otelhttp.NewHandler(routed, operation,
			otelhttp.WithTracerProvider(tp),
			otelhttp.WithMeterProvider(mp),
		)
	}
}
