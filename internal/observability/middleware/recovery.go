package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// PanicRecoveryGin turns a panic in a later handler into a 500 JSON response.
func PanicRecoveryGin() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			rec := recover()
			if rec == nil {
				return
			}

			ctx := c.Request.Context()
			span := trace.SpanFromContext(ctx)
			span.SetStatus(codes.Error, "panic")
			span.RecordError(fmt.Errorf("panic: %v", rec))

			slog.ErrorContext(ctx, "panic recovered",
				slog.String("error", fmt.Sprint(rec)),
				slog.String("stack", string(debug.Stack())),
			)

			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"error":   "internal_error",
				"message": "internal server error",
			})
		}()

		c.Next()
	}
}
