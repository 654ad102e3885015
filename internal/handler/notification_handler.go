package handler

import (
	"net/http"
	"time"

	"github.com/silicondon/columbia-compliance-portal/internal/notification"
	"github.com/silicondon/columbia-compliance-portal/pkg/logger"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

var notificationScheduler *notification.Scheduler

// SetNotificationScheduler injects the scheduler used by the trigger endpoint
func SetNotificationScheduler(s *notification.Scheduler) {
	notificationScheduler = s
}

// RunNotificationChecks triggers one pass of all notification checks. Meant to
// be called by a cron job, so it is guarded by API key instead of JWT.
func RunNotificationChecks(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Notification check run triggered")

	if notificationScheduler == nil {
		log.Error("Notification scheduler is not configured")
		return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "Notification scheduler is not available"})
	}

	now := time.Now()
	result, err := notificationScheduler.Run(c.Request().Context(), now)
	if err != nil {
		log.Error("Notification check run failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{
			"success": false,
			"error":   "Notification check run failed",
		})
	}

	log.Info("Notification check run complete",
		zap.Int("expiring", len(result.Expiring)),
		zap.Int("expired", len(result.Expired)),
		zap.Int("non_compliant", len(result.NonCompliant)),
		zap.Int("pending", len(result.Pending)),
		zap.Int("total_sent", result.Total()))

	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"timestamp": now.Format(time.RFC3339),
		"results": echo.Map{
			"expiring_certificates": echo.Map{
				"count":         len(result.Expiring),
				"notifications": result.Expiring,
			},
			"expired_certificates": echo.Map{
				"count":         len(result.Expired),
				"notifications": result.Expired,
			},
			"non_compliant_vendors": echo.Map{
				"count":         len(result.NonCompliant),
				"notifications": result.NonCompliant,
			},
			"pending_requests": echo.Map{
				"count":         len(result.Pending),
				"notifications": result.Pending,
			},
		},
		"total_sent": result.Total(),
	})
}

// NotificationHealth reports whether the notification endpoint is reachable
func NotificationHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"status":    "ok",
		"message":   "Notification check endpoint is active. Use POST with x-api-key to trigger checks.",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}
