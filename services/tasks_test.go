package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/ilask/weather-data/models"
)

func TestNextRun(t *testing.T) {
	from := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)

	t.Run("daily schedule", func(t *testing.T) {
		next := NextRun("0 0 * * *", from)
		require.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC), next)
	})

	t.Run("hourly schedule", func(t *testing.T) {
		next := NextRun("0 * * * *", from)
		require.Equal(t, time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC), next)
	})

	t.Run("unparsable schedule falls back to one day", func(t *testing.T) {
		next := NextRun("not a schedule", from)
		require.Equal(t, from.Add(24*time.Hour), next)
	})
}

func seedTask(t *testing.T, svc *TaskService, id, status string, nextRun time.Time) {
	t.Helper()
	task := models.Task{
		ID:       id,
		Name:     "task " + id,
		Schedule: "0 0 * * *",
		Status:   status,
		NextRun:  &nextRun,
	}
	require.NoError(t, svc.db.Create(&task).Error)
}

func TestPendingTasks(t *testing.T) {
	svc := NewTaskService(newTestDB(t), "")
	now := time.Now()
	svc.now = func() time.Time { return now }

	seedTask(t, svc, "due", models.TaskStatusActive, now.Add(-time.Hour))
	seedTask(t, svc, "future", models.TaskStatusActive, now.Add(time.Hour))
	seedTask(t, svc, "inactive", models.TaskStatusInactive, now.Add(-time.Hour))

	tasks, err := svc.Pending()
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	require.Equal(t, "due", tasks[0].ID)
}

func TestExecuteUnknownTasks(t *testing.T) {
	svc := NewTaskService(newTestDB(t), "")

	_, err := svc.Execute([]string{"missing"}, false)
	require.ErrorIs(t, err, ErrTasksNotFound)
}

func TestExecuteAdvancesSchedule(t *testing.T) {
	svc := NewTaskService(newTestDB(t), "")
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	seedTask(t, svc, "t1", models.TaskStatusActive, now.Add(-time.Hour))

	results, err := svc.Execute([]string{"t1"}, false)
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.True(t, results[0].Success)

	var task models.Task
	require.NoError(t, svc.db.First(&task, "id = ?", "t1").Error)
	require.NotNil(t, task.LastRun)
	require.Equal(t, now.Unix(), task.LastRun.Unix())
	require.NotNil(t, task.NextRun)
	require.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC).Unix(), task.NextRun.Unix())

	// Every result lands in the audit log.
	var count int64
	require.NoError(t, svc.db.Model(&models.SystemLog{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestExecuteSkipsInactiveTasks(t *testing.T) {
	svc := NewTaskService(newTestDB(t), "")
	now := time.Now()
	svc.now = func() time.Time { return now }

	seedTask(t, svc, "active", models.TaskStatusActive, now.Add(-time.Hour))
	seedTask(t, svc, "paused", models.TaskStatusInactive, now.Add(-time.Hour))

	results, err := svc.Execute([]string{"active", "paused"}, false)
	require.NoError(t, err)
	require.Len(t, results, 2)

	byID := map[string]TaskResult{}
	for _, result := range results {
		byID[result.TaskID] = result
	}
	require.Contains(t, byID["paused"].Message, "inactive")
	require.Equal(t, "task executed successfully", byID["active"].Message)
}

func TestCreateComputesFirstRun(t *testing.T) {
	svc := NewTaskService(newTestDB(t), "")
	now := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	task := models.Task{ID: "t1", Name: "nightly", Schedule: "0 0 * * *"}
	require.NoError(t, svc.Create(&task))

	require.Equal(t, models.TaskStatusActive, task.Status)
	require.NotNil(t, task.NextRun)
	require.Equal(t, time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC).Unix(), task.NextRun.Unix())
}
