package middleware

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// RequestTimeout puts a deadline on the request context. A handler that is
// still running when the deadline passes gets a 504 in its place. A zero
// timeout disables the middleware.
func RequestTimeout(timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if timeout <= 0 {
			return next
		}
		return func(c echo.Context) error {
			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()

			c.SetRequest(c.Request().WithContext(ctx))

			done := make(chan error, 1)
			panicked := make(chan interface{}, 1)
			go func() {
				// Re-raised on the request goroutine so Recovery sees it.
				defer func() {
					if r := recover(); r != nil {
						panicked <- r
					}
				}()
				done <- next(c)
			}()

			select {
			case err := <-done:
				return err
			case r := <-panicked:
				panic(r)
			case <-ctx.Done():
				if errors.Is(ctx.Err(), context.DeadlineExceeded) {
					return echo.NewHTTPError(http.StatusGatewayTimeout, "Request processing exceeded the allowed time limit")
				}
				return ctx.Err()
			}
		}
	}
}
