package otel

import (
	"net/http"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// HTTPMiddleware returns chi middleware that opens a server span per request
// on the decision API. Health probes and the websocket feed are excluded:
// probes fire constantly and say nothing, and ws connections are long-lived
// so a single span would span the whole session.
func HTTPMiddleware(serviceName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return otelhttp.NewHandler(next, serviceName,
			otelhttp.WithFilter(func(r *http.Request) bool {
				return r.URL.Path != "/health" && r.URL.Path != "/ws"
			}),
		)
	}
}
