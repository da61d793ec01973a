// Package middleware contains reusable HTTP middleware for the API server.
package middleware

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/toshahriar/documenter/internal/apperr"
	"github.com/toshahriar/documenter/internal/model"
	"github.com/toshahriar/documenter/internal/utils"
)

// Context keys set by Auth for downstream handlers.
const (
	UserKey        = "user"
	UserIDKey      = "user_id"
	AccessTokenKey = "access_token"
)

// Auth validates the access token and injects the authenticated user into
// the request context. The token is read from the Authorization header
// (Bearer scheme) or, failing that, from the accessToken cookie set at
// login. Refresh tokens are rejected here; they are only accepted by the
// refresh endpoint itself.
func Auth(secret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw := bearerToken(c)
			if raw == "" {
				return apperr.Authentication("Authentication token is missing")
			}

			claims, err := utils.VerifyToken(secret, raw, model.TokenTypeAccess)
			if err != nil {
				return apperr.Authentication("Invalid or expired token")
			}

			c.Set(UserKey, claims)
			c.Set(UserIDKey, claims.User.ID)
			c.Set(AccessTokenKey, raw)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) string {
	auth := c.Request().Header.Get(echo.HeaderAuthorization)
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	if cookie, err := c.Cookie("accessToken"); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	return ""
}

// CurrentUser returns the claims stored by Auth, or nil on unauthenticated
// routes.
func CurrentUser(c echo.Context) *utils.TokenClaims {
	if v, ok := c.Get(UserKey).(*utils.TokenClaims); ok {
		return v
	}
	return nil
}
