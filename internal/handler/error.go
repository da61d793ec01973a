package handler

import (
	"errors"
	"fmt"
	"net/http"
	"runtime/debug"

	"github.com/labstack/echo/v4"

	"github.com/toshahriar/documenter/internal/apperr"
	"github.com/toshahriar/documenter/internal/utils"
)

// NewHTTPErrorHandler translates errors returned by handlers and middleware
// into the uniform response envelope. Classified errors keep their message;
// anything unclassified becomes an opaque 500. Stack traces are attached
// only in debug mode.
func NewHTTPErrorHandler(debugMode bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Internal server error"
		var fields any

		var ae *apperr.Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			code = ae.HTTPStatus()
			message = ae.Message
			if len(ae.Fields) > 0 {
				fields = ae.Fields
			}
		case errors.As(err, &he):
			code = he.Code
			message = fmt.Sprint(he.Message)
		default:
			c.Logger().Errorf("unhandled error: %v", err)
		}

		r := utils.Respond(c).
			Status(utils.StatusError).
			Code(code).
			Message(message).
			Errors(fields)
		if debugMode {
			r = r.Stack(fmt.Sprintf("%v\n%s", err, debug.Stack()))
		}
		if sendErr := r.Send(); sendErr != nil {
			c.Logger().Errorf("failed to write error response: %v", sendErr)
		}
	}
}
