package services

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/system"
)

// Supported conversion rules.
const (
	RuleCelsiusToFahrenheit = "celsius_to_fahrenheit"
	RuleMMToInch            = "mm_to_inch"
)

var (
	// ErrInvalidConversionRule means an unsupported rule name was supplied.
	ErrInvalidConversionRule = errors.New("invalid conversion rule")
	// ErrConversionJobNotFound means no job exists with the given id.
	ErrConversionJobNotFound = errors.New("conversion job not found")
)

// ValidateRules checks every requested rule against the supported set.
func ValidateRules(rules map[string]string) error {
	for field, rule := range rules {
		switch rule {
		case RuleCelsiusToFahrenheit, RuleMMToInch:
		default:
			return fmt.Errorf("%w: %s for field %s", ErrInvalidConversionRule, rule, field)
		}
	}
	return nil
}

// Convert applies the per-field rules to each item. Output items carry only
// the converted fields.
func Convert(data []map[string]float64, rules map[string]string) []map[string]float64 {
	converted := make([]map[string]float64, 0, len(data))
	for _, item := range data {
		out := make(map[string]float64, len(rules))
		for field, rule := range rules {
			value, ok := item[field]
			if !ok {
				continue
			}
			switch rule {
			case RuleCelsiusToFahrenheit:
				out[field] = value*9/5 + 32
			case RuleMMToInch:
				out[field] = value * 0.0393701
			}
		}
		converted = append(converted, out)
	}
	return converted
}

// ConversionService runs unit conversions as background jobs.
type ConversionService struct {
	db  *gorm.DB
	llm TextGenerator
}

// NewConversionService creates a new ConversionService.
func NewConversionService(db *gorm.DB, llm TextGenerator) *ConversionService {
	return &ConversionService{db: db, llm: llm}
}

// StartJob records a processing job and converts in the background.
func (s *ConversionService) StartJob(data []map[string]float64, rules map[string]string) (string, error) {
	jobID := uuid.NewString()

	job := models.ConversionJob{
		ID:     jobID,
		Status: models.JobStatusProcessing,
	}
	if err := s.db.Create(&job).Error; err != nil {
		return "", fmt.Errorf("failed to create conversion job: %w", err)
	}

	go s.process(jobID, data, rules)

	return jobID, nil
}

// Job returns the stored state of one conversion job.
func (s *ConversionService) Job(jobID string) (*models.ConversionJob, error) {
	var job models.ConversionJob
	if err := s.db.First(&job, "id = ?", jobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConversionJobNotFound
		}
		return nil, err
	}
	return &job, nil
}

// Cancel marks a job as cancelled. A finished job is overwritten; the
// conversion itself is not interruptible.
func (s *ConversionService) Cancel(jobID string) error {
	result := s.db.Model(&models.ConversionJob{}).Where("id = ?", jobID).
		Update("status", models.JobStatusCancelled)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrConversionJobNotFound
	}
	return nil
}

func (s *ConversionService) process(jobID string, data []map[string]float64, rules map[string]string) {
	converted := Convert(data, rules)

	encoded, err := json.Marshal(converted)
	if err != nil {
		s.failJob(jobID, err)
		return
	}

	if err := s.db.Model(&models.ConversionJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status": models.JobStatusCompleted,
		"result": string(encoded),
	}).Error; err != nil {
		system.Error("Failed to complete conversion job %s: %v", jobID, err)
		return
	}

	s.evaluate(jobID, converted)
}

func (s *ConversionService) failJob(jobID string, cause error) {
	system.Error("Conversion job %s failed: %v", jobID, cause)
	if err := s.db.Model(&models.ConversionJob{}).Where("id = ?", jobID).Updates(map[string]interface{}{
		"status": models.JobStatusFailed,
		"error":  cause.Error(),
	}).Error; err != nil {
		system.Error("Failed to mark conversion job %s as failed: %v", jobID, err)
	}
}

// evaluate asks the text generator for a short quality assessment of the
// converted sample. Best effort, the job already completed.
func (s *ConversionService) evaluate(jobID string, converted []map[string]float64) {
	if s.llm == nil || !s.llm.Enabled() {
		return
	}

	sample := converted
	if len(sample) > 5 {
		sample = sample[:5]
	}
	encoded, err := json.Marshal(sample)
	if err != nil {
		return
	}

	evaluation, err := s.llm.Generate(
		"You are a data quality expert for weather datasets.",
		fmt.Sprintf("Review this converted sample and give a one-paragraph quality assessment: %s", encoded),
	)
	if err != nil {
		system.Warn("Failed to evaluate conversion job %s: %v", jobID, err)
		return
	}

	RecordSystemLog(s.db, models.LogLevelInfo, "conversion quality evaluation", map[string]string{
		"job_id":     jobID,
		"evaluation": evaluation,
	})
}
