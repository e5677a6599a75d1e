package middleware

import (
	"log/slog"

	"github.com/labstack/echo/v4"

	"github.com/askdoc/askdoc/server/internal/observability"
)

// RequestLogger attaches a RequestContext to every request, logs its
// completion, and feeds the in-process metrics counters. The operation label
// is "METHOD /route/path" using the matched route, not the raw URL, so path
// parameters do not explode the cardinality.
func RequestLogger() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			operation := c.Request().Method + " " + c.Path()
			reqCtx := observability.NewRequestContext(slog.Default(), operation, 0)
			c.Set("request_id", reqCtx.RequestID)
			c.SetRequest(c.Request().WithContext(
				observability.WithRequestContext(c.Request().Context(), reqCtx)))

			err := next(c)

			status := c.Response().Status
			metrics := observability.GlobalMetrics()
			metrics.RecordRequest(operation)
			metrics.RecordDuration(operation, reqCtx.Duration())
			if err != nil || status >= 500 {
				metrics.RecordFailure(operation)
			}

			reqCtx.Info("http request",
				slog.Int("status", status),
				slog.Int64(observability.LogFieldDuration, reqCtx.DurationMs()))
			return err
		}
	}
}
