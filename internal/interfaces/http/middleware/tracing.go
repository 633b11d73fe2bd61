package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing instruments every request with an OpenTelemetry span and enriches
// it with the request id and the authenticated actor. Spans are no-ops until
// a tracer provider is installed, so mounting this without an exporter
// configured costs nothing.
func Tracing(serviceName string) gin.HandlerFunc {
	instrument := otelgin.Middleware(serviceName)

	return func(c *gin.Context) {
		instrument(c)

		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if actor, ok := GetActor(c); ok {
			span.SetAttributes(attribute.String("actor_id", actor.String()))
		}
		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			span.SetStatus(codes.Error, http.StatusText(status))
			span.SetAttributes(attribute.Int("http.response.status_code", status))
		}
	}
}
