package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ilask/weather-data/services"
	"github.com/ilask/weather-data/system"
)

// StartExport validates the request and launches a background export job.
func (h *Handler) StartExport(c *fiber.Ctx) error {
	var params services.ExportParams
	if err := c.BodyParser(&params); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if err := params.Validate(); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid export parameters"})
	}

	jobID, err := h.Exporter.StartJob(params)
	if err != nil {
		system.Error("Failed to start export job: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to start export"})
	}

	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"message": "export started",
		"jobId":   jobID,
	})
}

// GetExportJob returns the state of one export job.
func (h *Handler) GetExportJob(c *fiber.Ctx) error {
	jobID := c.Query("jobId")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "job id is required"})
	}

	job, err := h.Exporter.Job(jobID)
	if err != nil {
		if errors.Is(err, services.ErrExportJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "export job not found"})
		}
		system.Error("Failed to load export job %s: %v", jobID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(job)
}
