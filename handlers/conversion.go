package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ilask/weather-data/services"
	"github.com/ilask/weather-data/system"
)

type conversionRequest struct {
	Data  []map[string]float64 `json:"data"`
	Rules map[string]string    `json:"rules"`
}

// StartConversion validates the rules and launches a background conversion.
func (h *Handler) StartConversion(c *fiber.Ctx) error {
	var req conversionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if len(req.Data) == 0 || len(req.Rules) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "data and rules are required"})
	}
	if err := services.ValidateRules(req.Rules); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid conversion rule"})
	}

	jobID, err := h.Converter.StartJob(req.Data, req.Rules)
	if err != nil {
		system.Error("Failed to start conversion job: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to start conversion"})
	}

	return c.JSON(fiber.Map{
		"jobId":  jobID,
		"status": "processing",
	})
}

// GetConversionJob returns the state of one conversion job.
func (h *Handler) GetConversionJob(c *fiber.Ctx) error {
	jobID := c.Query("jobId")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "job id is required"})
	}

	job, err := h.Converter.Job(jobID)
	if err != nil {
		if errors.Is(err, services.ErrConversionJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "conversion job not found"})
		}
		system.Error("Failed to load conversion job %s: %v", jobID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(job)
}

// CancelConversion marks a conversion job as cancelled.
func (h *Handler) CancelConversion(c *fiber.Ctx) error {
	jobID := c.Query("jobId")
	if jobID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "job id is required"})
	}

	if err := h.Converter.Cancel(jobID); err != nil {
		if errors.Is(err, services.ErrConversionJobNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "conversion job not found"})
		}
		system.Error("Failed to cancel conversion job %s: %v", jobID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{
		"jobId":  jobID,
		"status": "cancelled",
	})
}
