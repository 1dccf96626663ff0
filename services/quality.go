package services

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/system"
)

// Quality issue types.
const (
	IssueMissingValue = "missing_value"
	IssueAnomaly      = "anomaly"
	IssueCritical     = "critical"
)

// Plausible bounds for stored observations.
const (
	minValidHumidity      = 0
	maxValidHumidity      = 100
	maxValidPrecipitation = 1000
)

// QualityMetrics are the three aggregate scores of a report, each 0-100.
type QualityMetrics struct {
	Completeness float64 `json:"completeness"`
	Accuracy     float64 `json:"accuracy"`
	Consistency  float64 `json:"consistency"`
}

// QualityIssue is one problem found in a stored record.
type QualityIssue struct {
	RecordID    uint     `json:"recordId"`
	Type        string   `json:"type"`
	Field       string   `json:"field,omitempty"`
	Value       *float64 `json:"value,omitempty"`
	Description string   `json:"description"`
}

// QualityReportResult is the response payload of one generated report.
type QualityReportResult struct {
	ReportID  uint           `json:"reportId"`
	Metrics   QualityMetrics `json:"metrics"`
	Issues    []QualityIssue `json:"issues"`
	Timestamp time.Time      `json:"timestamp"`
}

// weatherFields is the subset of stored observation data the quality checks
// look at. Absent fields stay nil.
type weatherFields struct {
	Temperature   *float64 `json:"temperature"`
	Humidity      *float64 `json:"humidity"`
	Precipitation *float64 `json:"rainfall"`
}

// QualityService scores stored weather records for completeness, accuracy
// and consistency.
type QualityService struct {
	db  *gorm.DB
	llm TextGenerator
	now func() time.Time
}

// NewQualityService creates a new QualityService.
func NewQualityService(db *gorm.DB, llm TextGenerator) *QualityService {
	return &QualityService{db: db, llm: llm, now: time.Now}
}

// GenerateReport scores all records in [start, end), persists the report and
// returns it. Critical issues trigger a best-effort operator notification.
func (s *QualityService) GenerateReport(start, end time.Time) (*QualityReportResult, error) {
	var records []models.WeatherRecord
	if err := s.db.Where("created_at >= ? AND created_at < ?", start, end).
		Find(&records).Error; err != nil {
		return nil, fmt.Errorf("failed to load records for quality report: %w", err)
	}

	fields := make([]weatherFields, len(records))
	for i, record := range records {
		if err := record.DecodeData(&fields[i]); err != nil {
			system.Warn("Failed to decode weather record %d: %v", record.ID, err)
		}
	}

	metrics := calculateMetrics(fields)
	issues := detectIssues(records, fields)

	report := models.QualityReport{ReportDate: s.now()}
	encodedMetrics, err := json.Marshal(metrics)
	if err != nil {
		return nil, err
	}
	encodedIssues, err := json.Marshal(issues)
	if err != nil {
		return nil, err
	}
	report.Metrics = string(encodedMetrics)
	report.Issues = string(encodedIssues)

	if err := s.db.Create(&report).Error; err != nil {
		return nil, fmt.Errorf("failed to persist quality report: %w", err)
	}

	if hasCriticalIssue(issues) {
		s.notifyCritical(report.ID, issues)
	}

	return &QualityReportResult{
		ReportID:  report.ID,
		Metrics:   metrics,
		Issues:    issues,
		Timestamp: report.ReportDate,
	}, nil
}

// calculateMetrics scores the decoded fields. An empty record set scores 100
// across the board: no data means no detected defects.
func calculateMetrics(fields []weatherFields) QualityMetrics {
	if len(fields) == 0 {
		return QualityMetrics{Completeness: 100, Accuracy: 100, Consistency: 100}
	}

	totalFields := len(fields) * 3
	var present, accurate, consistent int

	for _, f := range fields {
		if f.Temperature != nil {
			present++
			if isValidTemperature(*f.Temperature) {
				accurate++
			}
		}
		if f.Humidity != nil {
			present++
			if isValidHumidity(*f.Humidity) {
				accurate++
			}
		}
		if f.Precipitation != nil {
			present++
			if isValidPrecipitation(*f.Precipitation) {
				accurate++
			}
		}
		if isConsistent(f) {
			consistent++
		}
	}

	return QualityMetrics{
		Completeness: round2(float64(present) / float64(totalFields) * 100),
		Accuracy:     round2(float64(accurate) / float64(totalFields) * 100),
		Consistency:  round2(float64(consistent) / float64(len(fields)) * 100),
	}
}

// detectIssues reports per-record problems. Precipitation anomalies are
// critical because they corrupt downstream flood analysis.
func detectIssues(records []models.WeatherRecord, fields []weatherFields) []QualityIssue {
	var issues []QualityIssue

	for i, f := range fields {
		id := records[i].ID

		if f.Temperature == nil {
			issues = append(issues, QualityIssue{
				RecordID:    id,
				Type:        IssueMissingValue,
				Field:       "temperature",
				Description: "temperature value is missing",
			})
		} else if !isValidTemperature(*f.Temperature) {
			issues = append(issues, QualityIssue{
				RecordID:    id,
				Type:        IssueAnomaly,
				Field:       "temperature",
				Value:       f.Temperature,
				Description: fmt.Sprintf("temperature %.1f is out of the expected range", *f.Temperature),
			})
		}

		if f.Humidity != nil && !isValidHumidity(*f.Humidity) {
			issues = append(issues, QualityIssue{
				RecordID:    id,
				Type:        IssueAnomaly,
				Field:       "humidity",
				Value:       f.Humidity,
				Description: fmt.Sprintf("humidity %.1f is out of the expected range", *f.Humidity),
			})
		}

		if f.Precipitation != nil && !isValidPrecipitation(*f.Precipitation) {
			issues = append(issues, QualityIssue{
				RecordID:    id,
				Type:        IssueCritical,
				Field:       "rainfall",
				Value:       f.Precipitation,
				Description: fmt.Sprintf("rainfall %.1f is out of the expected range", *f.Precipitation),
			})
		}

		if !isConsistent(f) {
			issues = append(issues, QualityIssue{
				RecordID:    id,
				Type:        IssueAnomaly,
				Description: "warm rainy observation with implausibly low humidity",
			})
		}
	}

	return issues
}

func isValidTemperature(v float64) bool {
	return v >= minValidTemperature && v <= maxValidTemperature
}

func isValidHumidity(v float64) bool {
	return v >= minValidHumidity && v <= maxValidHumidity
}

func isValidPrecipitation(v float64) bool {
	return v >= 0 && v <= maxValidPrecipitation
}

// isConsistent flags the physically implausible combination of warm rain
// with very dry air.
func isConsistent(f weatherFields) bool {
	if f.Temperature == nil || f.Humidity == nil || f.Precipitation == nil {
		return true
	}
	if *f.Temperature > 0 && *f.Precipitation > 0 && *f.Humidity < 30 {
		return false
	}
	return true
}

func hasCriticalIssue(issues []QualityIssue) bool {
	for _, issue := range issues {
		if issue.Type == IssueCritical {
			return true
		}
	}
	return false
}

// notifyCritical generates an operator summary of the critical issues.
// Failures are logged and discarded.
func (s *QualityService) notifyCritical(reportID uint, issues []QualityIssue) {
	if s.llm == nil || !s.llm.Enabled() {
		return
	}

	var critical []QualityIssue
	for _, issue := range issues {
		if issue.Type == IssueCritical {
			critical = append(critical, issue)
		}
	}

	encoded, err := json.Marshal(critical)
	if err != nil {
		return
	}

	summary, err := s.llm.Generate(
		"You are an operations assistant for a weather data platform.",
		fmt.Sprintf("Summarize these critical data quality issues for the on-call operator: %s", encoded),
	)
	if err != nil {
		system.Warn("Failed to generate quality issue summary: %v", err)
		return
	}

	RecordSystemLog(s.db, models.LogLevelWarning, "critical data quality issues detected", map[string]interface{}{
		"report_id": reportID,
		"summary":   summary,
	})
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
