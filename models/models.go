package models

import (
	"encoding/json"
	"time"
)

// Log levels stored in SystemLog rows.
const (
	LogLevelInfo    = "INFO"
	LogLevelWarning = "WARNING"
	LogLevelError   = "ERROR"
)

// SystemLog is the append-only audit/log table. Every anomaly evaluation,
// task run, backup and archive writes here; the anomaly evaluator also reads
// the most recent row back to compare against the previous metric snapshot.
type SystemLog struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	LogLevel     string    `gorm:"not null;index" json:"log_level"`
	Message      string    `gorm:"not null" json:"message"`
	ErrorDetails string    `gorm:"type:text" json:"error_details,omitempty"`
	CreatedAt    time.Time `gorm:"index" json:"created_at"`
}

// SetDetails marshals v into the ErrorDetails column.
func (l *SystemLog) SetDetails(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	l.ErrorDetails = string(data)
	return nil
}

// Details unmarshals the ErrorDetails column into v.
func (l *SystemLog) Details(v interface{}) error {
	if l.ErrorDetails == "" {
		return nil
	}
	return json.Unmarshal([]byte(l.ErrorDetails), v)
}

// RateLimitConfig is the per-client request budget. Read on every rate-limit
// check, written only by the admin PUT operation.
type RateLimitConfig struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ClientID          string    `gorm:"unique;not null" json:"client_id"`
	RequestsPerMinute int       `gorm:"not null;default:60" json:"requests_per_minute"`
	IsBlocked         bool      `gorm:"default:false" json:"is_blocked"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// APIAccessLog records one allowed inbound request. The trailing-window
// request count is a SQL aggregate over this table keyed by client_id.
type APIAccessLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	ClientID  string    `gorm:"not null;index" json:"client_id"`
	Method    string    `json:"method"`
	Path      string    `json:"path"`
	Status    string    `json:"status,omitempty"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// WeatherRecord holds one fetched observation as raw JSON plus its area code.
type WeatherRecord struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	AreaCode  string    `gorm:"not null;index" json:"area_code"`
	Data      string    `gorm:"type:text" json:"weather_data"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// SetData marshals v into the Data column.
func (w *WeatherRecord) SetData(v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	w.Data = string(data)
	return nil
}

// DecodeData unmarshals the Data column into v.
func (w *WeatherRecord) DecodeData(v interface{}) error {
	if w.Data == "" {
		return nil
	}
	return json.Unmarshal([]byte(w.Data), v)
}

// Export job states.
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// ExportJob tracks one background data export.
type ExportJob struct {
	ID               string    `gorm:"primaryKey" json:"id"`
	Status           string    `gorm:"not null" json:"status"`
	Params           string    `gorm:"type:text" json:"params,omitempty"`
	Progress         int       `json:"progress"`
	TotalRecords     int       `json:"totalRecords"`
	ProcessedRecords int       `json:"processedRecords"`
	DownloadURL      string    `json:"downloadUrl,omitempty"`
	Error            string    `json:"error,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// ConversionJob tracks one background unit-conversion run.
type ConversionJob struct {
	ID        string    `gorm:"primaryKey" json:"id"`
	Status    string    `gorm:"not null" json:"status"`
	Result    string    `gorm:"type:text" json:"result,omitempty"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// QualityReport is one generated data-quality report.
type QualityReport struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	ReportDate time.Time `json:"report_date"`
	Metrics    string    `gorm:"type:text" json:"quality_metrics"`
	Issues     string    `gorm:"type:text" json:"issues_found"`
	CreatedAt  time.Time `json:"created_at"`
}

// Task states.
const (
	TaskStatusActive   = "active"
	TaskStatusInactive = "inactive"
)

// Task is a schedulable maintenance job. Nothing runs it automatically;
// the task-execute endpoint runs due tasks on demand.
type Task struct {
	ID        string     `gorm:"primaryKey" json:"id"`
	Name      string     `gorm:"not null" json:"name"`
	Schedule  string     `gorm:"not null" json:"schedule"`
	Status    string     `gorm:"not null;default:active" json:"status"`
	LastRun   *time.Time `json:"lastRun"`
	NextRun   *time.Time `gorm:"index" json:"nextRun"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Admin is a console operator account.
type Admin struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	Username          string     `gorm:"unique;not null" json:"username"`
	Password          string     `gorm:"not null" json:"-"`
	FailedAttempts    int        `gorm:"default:0" json:"-"`
	LastFailedAttempt *time.Time `json:"-"`
	LockedUntil       *time.Time `json:"-"`
	CreatedAt         time.Time  `json:"created_at"`
}

// All returns every model for AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&SystemLog{},
		&RateLimitConfig{},
		&APIAccessLog{},
		&WeatherRecord{},
		&ExportJob{},
		&ConversionJob{},
		&QualityReport{},
		&Task{},
		&Admin{},
	}
}
