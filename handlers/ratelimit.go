package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ilask/weather-data/services"
	"github.com/ilask/weather-data/system"
)

// clientID extracts the mandatory x-client-id header.
func clientID(c *fiber.Ctx) (string, bool) {
	id := c.Get("x-client-id")
	return id, id != ""
}

// CheckRateLimit decides whether the calling client may proceed. The client
// id comes from the x-client-id header; requests without it are rejected
// before any backend work.
func (h *Handler) CheckRateLimit(c *fiber.Ctx) error {
	id, ok := clientID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "client id is required"})
	}

	decision, err := h.RateLimiter.Check(id, c.Method(), c.Path())
	if err != nil {
		if errors.Is(err, services.ErrClientNotConfigured) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "client is not configured"})
		}
		system.Error("Rate limit check failed for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	if decision.Blocked {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "client is blocked"})
	}
	if !decision.Allowed {
		return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "rate limit exceeded"})
	}

	return c.JSON(fiber.Map{
		"allowed":   true,
		"remaining": decision.Remaining,
	})
}

type updateLimitRequest struct {
	RequestsPerMinute *int `json:"requests_per_minute"`
}

// UpdateRateLimit sets a client's per-minute budget, creating the config row
// on first write.
func (h *Handler) UpdateRateLimit(c *fiber.Ctx) error {
	id, ok := clientID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "client id is required"})
	}

	var req updateLimitRequest
	if err := c.BodyParser(&req); err != nil || req.RequestsPerMinute == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit value"})
	}

	if err := h.RateLimiter.UpdateLimit(id, *req.RequestsPerMinute); err != nil {
		if errors.Is(err, services.ErrInvalidLimit) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid limit value"})
		}
		system.Error("Rate limit update failed for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"updated_limit": *req.RequestsPerMinute,
	})
}

// GetRateLimitConfig returns the stored configuration for the calling client.
func (h *Handler) GetRateLimitConfig(c *fiber.Ctx) error {
	id, ok := clientID(c)
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "client id is required"})
	}

	config, err := h.RateLimiter.Config(id)
	if err != nil {
		if errors.Is(err, services.ErrClientNotConfigured) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "client is not configured"})
		}
		system.Error("Rate limit config lookup failed for %s: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(config)
}
