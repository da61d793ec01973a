package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/toshahriar/documenter/internal/config"
	"github.com/toshahriar/documenter/internal/utils"
)

// Health reports liveness plus basic build context for load balancers and
// monitoring.
func Health(cfg config.Config) echo.HandlerFunc {
	return func(c echo.Context) error {
		return utils.Respond(c).
			Message("Application is running!").
			Data(map[string]any{
				"name":  "documenter",
				"env":   cfg.Env,
				"debug": cfg.Debug,
			}).
			Send()
	}
}
