package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/silicondon/columbia-compliance-portal/pkg/logger"

	"github.com/labstack/echo/v4"
)

// APIKeyMiddleware guards machine-to-machine endpoints, like the notification
// trigger called by the external cron, with a shared key in the x-api-key
// header
func APIKeyMiddleware(expectedKey string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			provided := c.Request().Header.Get("x-api-key")
			if provided == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(expectedKey)) != 1 {
				log.Warn("Rejected request with missing or invalid API key")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid API key"})
			}

			return next(c)
		}
	}
}
