package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/toshahriar/documenter/internal/utils"
)

const requestIDHeader = "X-Request-Id"

// RequestID attaches a correlation id to every request. An incoming
// X-Request-Id header is honoured so upstream proxies can trace calls;
// otherwise a fresh uuid is generated. The id is echoed back on the
// response and included in every response envelope.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id := c.Request().Header.Get(requestIDHeader)
			if id == "" {
				id = uuid.NewString()
			}
			c.Set(utils.RequestIDKey, id)
			c.Response().Header().Set(requestIDHeader, id)
			return next(c)
		}
	}
}
