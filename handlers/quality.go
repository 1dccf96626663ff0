package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/ilask/weather-data/system"
)

type qualityReportRequest struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// GenerateQualityReport scores stored records over a date range. Both dates
// default to today.
func (h *Handler) GenerateQualityReport(c *fiber.Ctx) error {
	var req qualityReportRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	today := time.Now().Format("2006-01-02")
	if req.StartDate == "" {
		req.StartDate = today
	}
	if req.EndDate == "" {
		req.EndDate = today
	}

	start, err := time.Parse("2006-01-02", req.StartDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid date"})
	}
	end, err := time.Parse("2006-01-02", req.EndDate)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid date"})
	}
	end = end.Add(24 * time.Hour)

	report, err := h.Quality.GenerateReport(start, end)
	if err != nil {
		system.Error("Quality report generation failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to generate quality report"})
	}

	return c.JSON(report)
}
