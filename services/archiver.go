package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ilask/weather-data/models"
)

// ArchiveService moves weather records older than one year into object
// storage and removes them from the live table.
type ArchiveService struct {
	db      *gorm.DB
	storage ObjectStorage
	now     func() time.Time
}

// NewArchiveService creates a new ArchiveService.
func NewArchiveService(db *gorm.DB, storage ObjectStorage) *ArchiveService {
	return &ArchiveService{db: db, storage: storage, now: time.Now}
}

// Run archives all records past the retention cutoff. It returns the number
// of archived records and the storage key; a zero count with nil error means
// there was nothing old enough to archive.
func (s *ArchiveService) Run() (int, string, error) {
	cutoff := s.now().AddDate(-1, 0, 0)

	var records []models.WeatherRecord
	if err := s.db.Where("created_at <= ?", cutoff).Find(&records).Error; err != nil {
		return 0, "", fmt.Errorf("failed to load archive candidates: %w", err)
	}
	if len(records) == 0 {
		return 0, "", nil
	}

	if s.storage == nil || !s.storage.Enabled() {
		return 0, "", errors.New("object storage is not configured")
	}

	content, err := json.Marshal(records)
	if err != nil {
		return 0, "", fmt.Errorf("failed to encode archive content: %w", err)
	}

	key := fmt.Sprintf("archives/weather_archive_%s.json", s.now().Format("20060102-150405"))
	if _, err := s.storage.Upload(context.Background(), key, content, "application/json"); err != nil {
		return 0, "", err
	}

	// Upload first, delete second. A failure here leaves duplicates in
	// storage rather than losing data.
	if err := s.db.Where("created_at <= ?", cutoff).Delete(&models.WeatherRecord{}).Error; err != nil {
		return 0, "", fmt.Errorf("failed to delete archived records: %w", err)
	}

	RecordSystemLog(s.db, models.LogLevelInfo,
		fmt.Sprintf("data archive completed: archived %d records", len(records)),
		map[string]interface{}{
			"archive_file":   key,
			"archived_count": len(records),
			"archive_date":   s.now().Format(time.RFC3339),
		})

	return len(records), key, nil
}
