package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// RequireScope enforces that the authenticated caller was issued the expected scope.
// It is a passthrough when authentication is disabled.
func RequireScope(scope string, enabled bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if !enabled {
			return next
		}
		return func(c echo.Context) error {
			value, ok := c.Get(ContextKeyScope).(string)
			if !ok || value == "" {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "missing scope"})
			}
			if value != scope {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "insufficient permissions"})
			}
			return next(c)
		}
	}
}
