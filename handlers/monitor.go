package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ilask/weather-data/services"
	"github.com/ilask/weather-data/system"
)

type evaluateRequest struct {
	Metrics map[string]interface{} `json:"metrics"`
	Rules   *services.AnomalyRules `json:"rules"`
}

// EvaluateMetrics runs one anomaly evaluation over a submitted snapshot.
func (h *Handler) EvaluateMetrics(c *fiber.Ctx) error {
	var req evaluateRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	metrics, err := services.ParseMetrics(req.Metrics)
	if err != nil {
		if errors.Is(err, services.ErrMetricsRequired) || errors.Is(err, services.ErrInvalidMetrics) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	result, err := h.Monitor.Evaluate(metrics, req.Rules)
	if err != nil {
		system.Error("Anomaly evaluation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(result)
}

// GetCurrentMetrics returns a live snapshot of the host running the console.
func (h *Handler) GetCurrentMetrics(c *fiber.Ctx) error {
	snapshot, err := h.SysInfo.Snapshot()
	if err != nil {
		system.Error("Failed to sample system metrics: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to read system metrics"})
	}
	return c.JSON(snapshot)
}

// GetSystemLogs returns the newest system log entries for the log viewer.
func (h *Handler) GetSystemLogs(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", 50)
	logs, err := services.RecentSystemLogs(h.DB, limit)
	if err != nil {
		system.Error("Failed to load system logs: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load system logs"})
	}
	return c.JSON(fiber.Map{"logs": logs})
}
