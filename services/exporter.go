package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/system"
)

// exportChunkSize controls how often job progress is written back.
const exportChunkSize = 1000

// Supported export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatJSON = "json"
)

var (
	// ErrInvalidExportParams means the export request failed validation.
	ErrInvalidExportParams = errors.New("invalid export parameters")
	// ErrExportJobNotFound means no job exists with the given id.
	ErrExportJobNotFound = errors.New("export job not found")
)

var areaCodePattern = regexp.MustCompile(`^\d{6}$`)

// ExportParams describes one export request.
type ExportParams struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
	Format    string `json:"format"`
	AreaCode  string `json:"areaCode,omitempty"`
}

// Validate checks dates, format and the optional area code filter.
func (p ExportParams) Validate() error {
	if _, err := time.Parse("2006-01-02", p.StartDate); err != nil {
		return ErrInvalidExportParams
	}
	if _, err := time.Parse("2006-01-02", p.EndDate); err != nil {
		return ErrInvalidExportParams
	}
	if p.Format != ExportFormatCSV && p.Format != ExportFormatJSON {
		return ErrInvalidExportParams
	}
	if p.AreaCode != "" && !areaCodePattern.MatchString(p.AreaCode) {
		return ErrInvalidExportParams
	}
	return nil
}

// ExportService renders weather records to CSV or JSON in the background and
// uploads the artifact to object storage.
type ExportService struct {
	db      *gorm.DB
	storage ObjectStorage
}

// NewExportService creates a new ExportService.
func NewExportService(db *gorm.DB, storage ObjectStorage) *ExportService {
	return &ExportService{db: db, storage: storage}
}

// StartJob records a pending job and launches the export in the background.
func (s *ExportService) StartJob(params ExportParams) (string, error) {
	jobID := uuid.NewString()

	encoded, err := json.Marshal(params)
	if err != nil {
		return "", err
	}

	job := models.ExportJob{
		ID:     jobID,
		Status: models.JobStatusPending,
		Params: string(encoded),
	}
	if err := s.db.Create(&job).Error; err != nil {
		return "", fmt.Errorf("failed to create export job: %w", err)
	}

	go s.process(jobID, params)

	return jobID, nil
}

// Job returns the stored state of one export job.
func (s *ExportService) Job(jobID string) (*models.ExportJob, error) {
	var job models.ExportJob
	if err := s.db.First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrExportJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

func (s *ExportService) process(jobID string, params ExportParams) {
	start, _ := time.Parse("2006-01-02", params.StartDate)
	end, _ := time.Parse("2006-01-02", params.EndDate)
	end = end.Add(24 * time.Hour)

	query := s.db.Where("created_at >= ? AND created_at < ?", start, end)
	if params.AreaCode != "" {
		query = query.Where("area_code = ?", params.AreaCode)
	}

	var records []models.WeatherRecord
	if err := query.Order("created_at asc").Find(&records).Error; err != nil {
		s.fail(jobID, fmt.Errorf("failed to load records: %w", err))
		return
	}

	if err := s.db.Model(&models.ExportJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":        models.JobStatusProcessing,
		"total_records": len(records),
	}).Error; err != nil {
		system.Error("Failed to update export job %s: %v", jobID, err)
		return
	}

	// Progress is written per chunk so the console can poll long exports.
	for processed := 0; processed < len(records); {
		processed += min(exportChunkSize, len(records)-processed)
		progress := 0
		if len(records) > 0 {
			progress = processed * 100 / len(records)
		}
		if err := s.db.Model(&models.ExportJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
			"processed_records": processed,
			"progress":          progress,
		}).Error; err != nil {
			system.Warn("Failed to update export progress for %s: %v", jobID, err)
		}
	}

	content, contentType, err := renderExport(records, params.Format)
	if err != nil {
		s.fail(jobID, err)
		return
	}

	if s.storage == nil || !s.storage.Enabled() {
		s.fail(jobID, errors.New("object storage is not configured"))
		return
	}

	key := fmt.Sprintf("exports/export_%s.%s", jobID, params.Format)
	url, err := s.storage.Upload(context.Background(), key, content, contentType)
	if err != nil {
		s.fail(jobID, err)
		return
	}

	if err := s.db.Model(&models.ExportJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status":       models.JobStatusCompleted,
		"progress":     100,
		"download_url": url,
	}).Error; err != nil {
		system.Error("Failed to complete export job %s: %v", jobID, err)
	}
}

func (s *ExportService) fail(jobID string, cause error) {
	system.Error("Export job %s failed: %v", jobID, cause)
	if err := s.db.Model(&models.ExportJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status": models.JobStatusFailed,
		"error":  cause.Error(),
	}).Error; err != nil {
		system.Error("Failed to mark export job %s as failed: %v", jobID, err)
	}
}

func renderExport(records []models.WeatherRecord, format string) ([]byte, string, error) {
	switch format {
	case ExportFormatCSV:
		var buf bytes.Buffer
		w := csv.NewWriter(&buf)
		if err := w.Write([]string{"id", "area_code", "weather_data", "created_at"}); err != nil {
			return nil, "", err
		}
		for _, r := range records {
			row := []string{
				strconv.FormatUint(uint64(r.ID), 10),
				r.AreaCode,
				r.Data,
				r.CreatedAt.Format(time.RFC3339),
			}
			if err := w.Write(row); err != nil {
				return nil, "", err
			}
		}
		w.Flush()
		if err := w.Error(); err != nil {
			return nil, "", err
		}
		return buf.Bytes(), "text/csv", nil

	case ExportFormatJSON:
		content, err := json.MarshalIndent(records, "", "  ")
		if err != nil {
			return nil, "", err
		}
		return content, "application/json", nil

	default:
		return nil, "", ErrInvalidExportParams
	}
}
