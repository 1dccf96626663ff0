package middlewares

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ilask/weather-data/system"
)

// Prometheus records request count and latency for every handled request.
func Prometheus() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start).Seconds()
		system.RecordRequest(c.Method(), c.Route().Path, c.Response().StatusCode(), duration)

		return err
	}
}
