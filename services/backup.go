package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/system"
)

// ErrNoBackupData means there are no weather records to back up.
var ErrNoBackupData = errors.New("no data to back up")

// BackupRecord describes one completed backup.
type BackupRecord struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	Size        string    `json:"size"`
	Description string    `json:"description,omitempty"`
}

// BackupService snapshots all weather records into object storage.
type BackupService struct {
	db      *gorm.DB
	storage ObjectStorage
	llm     TextGenerator
	now     func() time.Time
}

// NewBackupService creates a new BackupService.
func NewBackupService(db *gorm.DB, storage ObjectStorage, llm TextGenerator) *BackupService {
	return &BackupService{db: db, storage: storage, llm: llm, now: time.Now}
}

// Run executes one full backup: fetch every record, upload the JSON snapshot
// and append an audit log entry. The completion notice is best effort.
func (s *BackupService) Run(backupType, description string) (*BackupRecord, error) {
	var records []models.WeatherRecord
	if err := s.db.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load weather records: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoBackupData
	}

	content, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("failed to encode backup content: %w", err)
	}

	if s.storage == nil || !s.storage.Enabled() {
		return nil, errors.New("object storage is not configured")
	}

	now := s.now()
	key := fmt.Sprintf("backups/backup-%s.json", now.Format("20060102-150405"))
	if _, err := s.storage.Upload(context.Background(), key, content, "application/json"); err != nil {
		return nil, err
	}

	record := BackupRecord{
		ID:          fmt.Sprintf("backup-%d", now.UnixMilli()),
		Timestamp:   now,
		Type:        backupType,
		Status:      "success",
		Size:        fmt.Sprintf("%.2fMB", float64(len(content))/(1024*1024)),
		Description: description,
	}

	entry := models.SystemLog{
		LogLevel: models.LogLevelInfo,
		Message:  fmt.Sprintf("backup completed: %s", record.ID),
	}
	if err := entry.SetDetails(record); err != nil {
		return nil, err
	}
	if err := s.db.Create(&entry).Error; err != nil {
		return nil, fmt.Errorf("failed to record backup history: %w", err)
	}

	s.notify(&record)

	return &record, nil
}

// notify generates a short completion notice. Failures are logged and
// discarded, the backup itself already succeeded.
func (s *BackupService) notify(record *BackupRecord) {
	if s.llm == nil || !s.llm.Enabled() {
		return
	}

	prompt := fmt.Sprintf(
		"A %s backup finished at %s covering %s of weather data. Write a one-line status notice for the operations dashboard.",
		record.Type, record.Timestamp.Format(time.RFC3339), record.Size,
	)
	notice, err := s.llm.Generate("You are an operations assistant for a weather data platform.", prompt)
	if err != nil {
		system.Warn("Failed to generate backup notice: %v", err)
		return
	}

	RecordSystemLog(s.db, models.LogLevelInfo, "backup notice", map[string]string{
		"backup_id": record.ID,
		"notice":    notice,
	})
}
