package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/services"
	"github.com/ilask/weather-data/system"
)

// GetPendingTasks returns active tasks whose next run time has passed.
func (h *Handler) GetPendingTasks(c *fiber.Ctx) error {
	tasks, err := h.Tasks.Pending()
	if err != nil {
		system.Error("Failed to load pending tasks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load tasks"})
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}

type executeTasksRequest struct {
	TaskID  string   `json:"taskId"`
	TaskIDs []string `json:"taskIds"`
	Notify  bool     `json:"notify"`
}

// ExecuteTasks runs the requested tasks by id.
func (h *Handler) ExecuteTasks(c *fiber.Ctx) error {
	var req executeTasksRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}

	ids := req.TaskIDs
	if len(ids) == 0 && req.TaskID != "" {
		ids = []string{req.TaskID}
	}
	if len(ids) == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "no task id specified"})
	}

	results, err := h.Tasks.Execute(ids, req.Notify)
	if err != nil {
		if errors.Is(err, services.ErrTasksNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "tasks not found"})
		}
		system.Error("Task execution failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}

	return c.JSON(fiber.Map{"results": results})
}

// ListTasks returns all registered tasks.
func (h *Handler) ListTasks(c *fiber.Ctx) error {
	tasks, err := h.Tasks.List()
	if err != nil {
		system.Error("Failed to list tasks: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to load tasks"})
	}
	return c.JSON(fiber.Map{"tasks": tasks})
}

type createTaskRequest struct {
	Name     string `json:"name"`
	Schedule string `json:"schedule"`
	Status   string `json:"status"`
}

// CreateTask registers a new maintenance task.
func (h *Handler) CreateTask(c *fiber.Ctx) error {
	var req createTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid input"})
	}
	if req.Name == "" || req.Schedule == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "name and schedule are required"})
	}

	task := models.Task{
		ID:       uuid.NewString(),
		Name:     req.Name,
		Schedule: req.Schedule,
		Status:   req.Status,
	}
	if err := h.Tasks.Create(&task); err != nil {
		system.Error("Failed to create task: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "failed to create task"})
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}
