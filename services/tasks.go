package services

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/system"
)

// ErrTasksNotFound means none of the requested task ids exist.
var ErrTasksNotFound = errors.New("tasks not found")

// TaskResult is the outcome of running one task.
type TaskResult struct {
	TaskID  string `json:"taskId"`
	Name    string `json:"name"`
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// TaskService runs scheduled maintenance tasks on demand and advances their
// schedules. Nothing triggers tasks automatically; the console asks for due
// tasks and executes them explicitly.
type TaskService struct {
	db             *gorm.DB
	notifyEndpoint string
	client         *http.Client
	now            func() time.Time
}

// NewTaskService creates a new TaskService.
func NewTaskService(db *gorm.DB, notifyEndpoint string) *TaskService {
	return &TaskService{
		db:             db,
		notifyEndpoint: notifyEndpoint,
		client:         &http.Client{Timeout: 10 * time.Second},
		now:            time.Now,
	}
}

// Pending returns active tasks whose next run time has passed.
func (s *TaskService) Pending() ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.Where("status = ? AND next_run <= ?", models.TaskStatusActive, s.now()).
		Order("next_run asc").Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to load pending tasks: %w", err)
	}
	return tasks, nil
}

// List returns all tasks.
func (s *TaskService) List() ([]models.Task, error) {
	var tasks []models.Task
	if err := s.db.Order("created_at asc").Find(&tasks).Error; err != nil {
		return nil, err
	}
	return tasks, nil
}

// Create registers a new task and computes its first run time.
func (s *TaskService) Create(task *models.Task) error {
	if task.Status == "" {
		task.Status = models.TaskStatusActive
	}
	next := NextRun(task.Schedule, s.now())
	task.NextRun = &next
	return s.db.Create(task).Error
}

// Execute runs the requested tasks. Inactive tasks are skipped but still
// reported. Each result is appended to the system log; a log write failure
// fails the whole call because the audit trail is part of the contract.
func (s *TaskService) Execute(taskIDs []string, notify bool) ([]TaskResult, error) {
	var tasks []models.Task
	if err := s.db.Where("id IN ?", taskIDs).Find(&tasks).Error; err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}
	if len(tasks) == 0 {
		return nil, ErrTasksNotFound
	}

	results := make([]TaskResult, 0, len(tasks))
	for i := range tasks {
		task := &tasks[i]

		if task.Status != models.TaskStatusActive {
			results = append(results, TaskResult{
				TaskID:  task.ID,
				Name:    task.Name,
				Success: true,
				Message: "task is inactive, skipped",
			})
			continue
		}

		result := s.runTask(task)
		results = append(results, result)

		if notify && result.Success {
			s.sendNotification(task, result)
		}
	}

	if err := s.recordResults(results); err != nil {
		return nil, fmt.Errorf("failed to record task results: %w", err)
	}

	return results, nil
}

// runTask advances the task's schedule state. The task body itself is owned
// by the console's maintenance endpoints; executing here means marking the
// run and computing the next one.
func (s *TaskService) runTask(task *models.Task) TaskResult {
	now := s.now()
	next := NextRun(task.Schedule, now)

	if err := s.db.Model(task).Updates(map[string]interface{}{
		"last_run": now,
		"next_run": next,
	}).Error; err != nil {
		return TaskResult{
			TaskID:  task.ID,
			Name:    task.Name,
			Success: false,
			Error:   fmt.Sprintf("failed to update task state: %v", err),
		}
	}

	return TaskResult{
		TaskID:  task.ID,
		Name:    task.Name,
		Success: true,
		Message: "task executed successfully",
	}
}

// NextRun computes the next fire time for a standard 5-field cron schedule.
// An unparsable schedule falls back to one day out so a bad expression never
// wedges a task in the pending list.
func NextRun(schedule string, from time.Time) time.Time {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		system.Warn("Unparsable task schedule %q: %v", schedule, err)
		return from.Add(24 * time.Hour)
	}
	return sched.Next(from)
}

func (s *TaskService) recordResults(results []TaskResult) error {
	for _, result := range results {
		level := models.LogLevelInfo
		message := fmt.Sprintf("task %s: %s", result.TaskID, result.Message)
		if !result.Success {
			level = models.LogLevelError
			message = fmt.Sprintf("task %s failed", result.TaskID)
		}

		entry := models.SystemLog{LogLevel: level, Message: message}
		if err := entry.SetDetails(result); err != nil {
			return err
		}
		if err := s.db.Create(&entry).Error; err != nil {
			return err
		}
	}
	return nil
}

// sendNotification posts the result to the configured webhook. Best effort.
func (s *TaskService) sendNotification(task *models.Task, result TaskResult) {
	if s.notifyEndpoint == "" {
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"taskId":   task.ID,
		"taskName": task.Name,
		"result":   result,
	})
	if err != nil {
		return
	}

	resp, err := s.client.Post(s.notifyEndpoint, "application/json", bytes.NewReader(payload))
	system.RecordUpstreamCall("task-webhook", err)
	if err != nil {
		system.Warn("Failed to notify task completion for %s: %v", task.ID, err)
		return
	}
	resp.Body.Close()
}
