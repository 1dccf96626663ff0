package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/ilask/weather-data/services"
	"github.com/ilask/weather-data/system"
)

type backupRequest struct {
	Type        string `json:"type"`
	Description string `json:"description"`
}

// ExecuteBackup snapshots all weather records into object storage.
func (h *Handler) ExecuteBackup(c *fiber.Ctx) error {
	var req backupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "backup type is required"})
	}

	record, err := h.Backup.Run(req.Type, req.Description)
	if err != nil {
		if errors.Is(err, services.ErrNoBackupData) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "no data to back up"})
		}
		system.Error("Backup failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"backupId": record.ID,
		"backup":   record,
	})
}

// ArchiveData moves records older than one year into object storage.
func (h *Handler) ArchiveData(c *fiber.Ctx) error {
	count, key, err := h.Archiver.Run()
	if err != nil {
		system.Error("Archive failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"error":   err.Error(),
		})
	}

	if count == 0 {
		return c.JSON(fiber.Map{
			"success":       true,
			"message":       "no data to archive",
			"archivedCount": 0,
		})
	}

	return c.JSON(fiber.Map{
		"success":       true,
		"message":       "archive completed",
		"archivedCount": count,
		"archiveFile":   key,
	})
}
