package services

import (
	"gorm.io/gorm"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/system"
)

// RecordSystemLog appends one SystemLog row, best effort. Callers that need
// a fatal write use the database directly.
func RecordSystemLog(db *gorm.DB, level, message string, details interface{}) {
	entry := models.SystemLog{LogLevel: level, Message: message}
	if details != nil {
		if err := entry.SetDetails(details); err != nil {
			system.Warn("Failed to encode log details: %v", err)
		}
	}
	if err := db.Create(&entry).Error; err != nil {
		system.Error("Failed to record system log: %v", err)
	}
}

// RecentSystemLogs returns the newest log entries, capped at limit.
func RecentSystemLogs(db *gorm.DB, limit int) ([]models.SystemLog, error) {
	if limit <= 0 || limit > 500 {
		limit = 50
	}
	var logs []models.SystemLog
	if err := db.Order("created_at desc").Limit(limit).Find(&logs).Error; err != nil {
		return nil, err
	}
	return logs, nil
}
