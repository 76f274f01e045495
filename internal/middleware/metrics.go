package middleware

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Ananth-NQI/washpe-backend/internal/metrics"
)

// RecordRequests reports every response to rec
func RecordRequests(rec metrics.Recorder) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()

		status := c.Response().StatusCode()
		if err != nil {
			status = fiber.StatusInternalServerError
			var fiberErr *fiber.Error
			if errors.As(err, &fiberErr) {
				status = fiberErr.Code
			}
		}
		rec.RecordHTTPRequest(c.Method(), status, time.Since(start))
		return err
	}
}
