// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/toshahriar/documenter/internal/handler"
	"github.com/toshahriar/documenter/internal/middleware"
)

// Handlers bundles everything the route table needs.
type Handlers struct {
	Auth     *handler.AuthHandler
	Document *handler.DocumentHandler
	Docusign *handler.DocusignHandler
	Health   echo.HandlerFunc
}

// Register mounts the full /v1 route table. Public routes carry the rate
// limiter passed in limit; protected routes additionally require a valid
// access token. The provider callback and webhook stay public because the
// provider calls them without our cookies.
func Register(e *echo.Echo, h Handlers, jwtSecret string, limit echo.MiddlewareFunc) {
	e.GET("/healthz", h.Health)

	v1 := e.Group("/v1")
	authed := middleware.Auth(jwtSecret)

	auth := v1.Group("/auth", limit)
	auth.POST("/register", h.Auth.Register)
	auth.GET("/account-verify", h.Auth.AccountVerify)
	auth.POST("/token", h.Auth.AuthToken)
	auth.POST("/refresh-token", h.Auth.RefreshToken)
	auth.POST("/forgot-password", h.Auth.ForgotPassword)
	auth.POST("/reset-password", h.Auth.ResetPassword)
	auth.POST("/me", h.Auth.Me, authed)
	auth.POST("/logout", h.Auth.Logout, authed)

	v1.GET("/docusign/auth", h.Docusign.Auth, authed)
	v1.GET("/docusign/auth/callback", h.Docusign.AuthCallback)
	v1.POST("/docusign/webhook", h.Docusign.Webhook)

	doc := v1.Group("/document", authed)
	doc.GET("/analytic", h.Document.Analytic)
	doc.GET("", h.Document.All)
	doc.POST("", h.Document.Store)
	doc.GET("/:id", h.Document.Show)
	doc.PUT("/:id", h.Document.Update)
	doc.DELETE("/:id", h.Document.Delete)
	doc.GET("/:id/send", h.Document.Send)

	v1.POST("/profile", h.Auth.UpdateProfile, authed)
}
