package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing starts a server span per request with otelgin. Server errors
// mark the span failed.
func Tracing(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// SpanAttributes copies request, tenant and user ids onto the current
// span once they are known, and marks 5xx responses as errors. Place it
// after TenantContext.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}
		if id := GetRequestID(c); id != "" {
			span.SetAttributes(attribute.String("clearbook.request_id", id))
		}
		if id, ok := GetTenantID(c); ok {
			span.SetAttributes(attribute.String("clearbook.tenant_id", id.String()))
		}
		if id, ok := GetUserID(c); ok {
			span.SetAttributes(attribute.String("clearbook.user_id", id.String()))
		}

		c.Next()

		if status := c.Writer.Status(); status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}
