package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/ilask/weather-data/models"
	"github.com/ilask/weather-data/system"
)

// Alert types emitted by the anomaly evaluator.
const (
	AlertTypeCPU             = "cpu"
	AlertTypeMemory          = "memory"
	AlertTypeDisk            = "disk"
	AlertTypeNetworkIncoming = "network_incoming"
	AlertTypeNetworkOutgoing = "network_outgoing"
	AlertTypeRapidChange     = "rapid_change"
)

// Alert severities.
const (
	SeverityWarning  = "warning"
	SeverityCritical = "critical"
)

// Evaluation statuses.
const (
	StatusNormal   = "normal"
	StatusWarning  = "warning"
	StatusCritical = "critical"
)

// Hard cutoffs above which a threshold alert escalates to critical.
// Network alerts never escalate.
const (
	cpuCriticalCutoff    = 90
	memoryCriticalCutoff = 90
	diskCriticalCutoff   = 95
	rapidChangeCPUDelta  = 30
)

// NetworkMetrics holds the two directional transfer rates of a snapshot.
type NetworkMetrics struct {
	Incoming float64 `json:"incoming"`
	Outgoing float64 `json:"outgoing"`
}

// MetricSnapshot is one observation of system metrics.
type MetricSnapshot struct {
	CPU     float64        `json:"cpu"`
	Memory  float64        `json:"memory"`
	Disk    float64        `json:"disk"`
	Network NetworkMetrics `json:"network"`
}

// AnomalyRules maps monitored metrics to their alert thresholds.
// Comparisons are strictly greater-than. A nil threshold means the caller
// set no rule for that metric and it never alerts.
type AnomalyRules struct {
	CPU     *float64      `json:"cpu,omitempty"`
	Memory  *float64      `json:"memory,omitempty"`
	Disk    *float64      `json:"disk,omitempty"`
	Network *NetworkRules `json:"network,omitempty"`
}

// NetworkRules holds the directional rate thresholds.
type NetworkRules struct {
	Incoming *float64 `json:"incoming,omitempty"`
	Outgoing *float64 `json:"outgoing,omitempty"`
}

// DefaultAnomalyRules is used when a request supplies no custom rules.
var DefaultAnomalyRules = AnomalyRules{
	CPU:    threshold(80),
	Memory: threshold(85),
	Disk:   threshold(90),
	Network: &NetworkRules{
		Incoming: threshold(900),
		Outgoing: threshold(700),
	},
}

func threshold(v float64) *float64 { return &v }

// Alert is one detected anomaly. Never mutated after creation.
type Alert struct {
	Type     string `json:"type"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

// EvaluationResult is the outcome of one anomaly evaluation.
type EvaluationResult struct {
	Status  string  `json:"status"`
	Message string  `json:"message,omitempty"`
	Alerts  []Alert `json:"alerts,omitempty"`
}

var (
	// ErrMetricsRequired means the metrics object was missing or empty.
	ErrMetricsRequired = errors.New("metrics data is required")
	// ErrInvalidMetrics means a monitored field was missing or not numeric.
	ErrInvalidMetrics = errors.New("invalid metrics data")
)

// ParseMetrics validates a loosely-typed metrics payload into a
// MetricSnapshot. Validation happens before any I/O so malformed input never
// reaches the evaluator.
func ParseMetrics(raw map[string]interface{}) (MetricSnapshot, error) {
	var snap MetricSnapshot

	if len(raw) == 0 {
		return snap, ErrMetricsRequired
	}

	var ok bool
	if snap.CPU, ok = numberField(raw, "cpu"); !ok {
		return snap, ErrInvalidMetrics
	}
	if snap.Memory, ok = numberField(raw, "memory"); !ok {
		return snap, ErrInvalidMetrics
	}
	if snap.Disk, ok = numberField(raw, "disk"); !ok {
		return snap, ErrInvalidMetrics
	}

	network, ok := raw["network"].(map[string]interface{})
	if !ok {
		return snap, ErrInvalidMetrics
	}
	if snap.Network.Incoming, ok = numberField(network, "incoming"); !ok {
		return snap, ErrInvalidMetrics
	}
	if snap.Network.Outgoing, ok = numberField(network, "outgoing"); !ok {
		return snap, ErrInvalidMetrics
	}

	return snap, nil
}

func numberField(m map[string]interface{}, key string) (float64, bool) {
	v, ok := m[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	return f, ok
}

// DetectAnomalies runs the pure threshold rules over one snapshot.
// Thresholds are strict: a value equal to its threshold does not alert, and
// metrics without a threshold are not checked at all.
func DetectAnomalies(m MetricSnapshot, rules AnomalyRules) []Alert {
	var alerts []Alert

	if rules.CPU != nil && m.CPU > *rules.CPU {
		severity := SeverityWarning
		if m.CPU > cpuCriticalCutoff {
			severity = SeverityCritical
		}
		alerts = append(alerts, Alert{
			Type:     AlertTypeCPU,
			Severity: severity,
			Message:  fmt.Sprintf("CPU usage at %.1f%% exceeds threshold", m.CPU),
		})
	}

	if rules.Memory != nil && m.Memory > *rules.Memory {
		severity := SeverityWarning
		if m.Memory > memoryCriticalCutoff {
			severity = SeverityCritical
		}
		alerts = append(alerts, Alert{
			Type:     AlertTypeMemory,
			Severity: severity,
			Message:  fmt.Sprintf("Memory usage at %.1f%% exceeds threshold", m.Memory),
		})
	}

	if rules.Disk != nil && m.Disk > *rules.Disk {
		severity := SeverityWarning
		if m.Disk > diskCriticalCutoff {
			severity = SeverityCritical
		}
		alerts = append(alerts, Alert{
			Type:     AlertTypeDisk,
			Severity: severity,
			Message:  fmt.Sprintf("Disk usage at %.1f%% exceeds threshold", m.Disk),
		})
	}

	if rules.Network != nil {
		if rules.Network.Incoming != nil && m.Network.Incoming > *rules.Network.Incoming {
			alerts = append(alerts, Alert{
				Type:     AlertTypeNetworkIncoming,
				Severity: SeverityWarning,
				Message:  "Network incoming rate exceeds threshold",
			})
		}

		if rules.Network.Outgoing != nil && m.Network.Outgoing > *rules.Network.Outgoing {
			alerts = append(alerts, Alert{
				Type:     AlertTypeNetworkOutgoing,
				Severity: SeverityWarning,
				Message:  "Network outgoing rate exceeds threshold",
			})
		}
	}

	return alerts
}

// MonitorService evaluates metric snapshots against anomaly rules, keeps the
// anomaly audit log and notifies the operator on critical alerts.
type MonitorService struct {
	db       *gorm.DB
	notifier Notifier
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(db *gorm.DB, notifier Notifier) *MonitorService {
	return &MonitorService{db: db, notifier: notifier}
}

// anomalyDetails is the error_details payload of an anomaly log entry.
type anomalyDetails struct {
	Alerts  []Alert        `json:"alerts"`
	Metrics MetricSnapshot `json:"metrics"`
}

// Evaluate runs one anomaly evaluation: threshold rules, best-effort
// rapid-change comparison against the previous stored snapshot, log
// persistence and critical-alert notification. Custom rules replace the
// defaults wholesale; metrics they leave out are simply not checked. Only
// the log write is fatal; history lookup and notification failures are
// logged and discarded.
func (s *MonitorService) Evaluate(metrics MetricSnapshot, rules *AnomalyRules) (*EvaluationResult, error) {
	ruleset := DefaultAnomalyRules
	if rules != nil {
		ruleset = *rules
	}

	alerts := DetectAnomalies(metrics, ruleset)
	alerts = append(alerts, s.checkRapidChange(metrics)...)

	if len(alerts) == 0 {
		return &EvaluationResult{
			Status:  StatusNormal,
			Message: "system is operating normally",
		}, nil
	}

	if err := s.logAnomalies(alerts, metrics); err != nil {
		return nil, fmt.Errorf("failed to record anomaly log: %w", err)
	}

	s.notifyCritical(alerts)

	status := StatusWarning
	if hasCritical(alerts) {
		status = StatusCritical
	}

	return &EvaluationResult{
		Status:  status,
		Message: "anomalies detected",
		Alerts:  alerts,
	}, nil
}

// checkRapidChange compares the current snapshot against the metrics stored
// in the most recent log entry. Best-effort: any failure is logged and an
// empty alert list returned.
func (s *MonitorService) checkRapidChange(current MetricSnapshot) []Alert {
	var last models.SystemLog
	if err := s.db.Order("created_at desc").First(&last).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			system.Warn("Failed to fetch metric history: %v", err)
		}
		return nil
	}

	var details struct {
		Metrics *MetricSnapshot `json:"metrics"`
	}
	if err := last.Details(&details); err != nil {
		system.Warn("Failed to decode previous metrics: %v", err)
		return nil
	}
	if details.Metrics == nil {
		return nil
	}

	if current.CPU-details.Metrics.CPU > rapidChangeCPUDelta {
		return []Alert{{
			Type:     AlertTypeRapidChange,
			Severity: SeverityWarning,
			Message:  "CPU usage is rising rapidly",
		}}
	}

	return nil
}

func (s *MonitorService) logAnomalies(alerts []Alert, metrics MetricSnapshot) error {
	level := models.LogLevelWarning
	if hasCritical(alerts) {
		level = models.LogLevelError
	}

	entry := models.SystemLog{
		LogLevel: level,
		Message:  "anomalies detected",
	}
	if err := entry.SetDetails(anomalyDetails{Alerts: alerts, Metrics: metrics}); err != nil {
		return err
	}

	return s.db.Create(&entry).Error
}

// notifyCritical mails the critical alerts to the operator. Failure is
// recorded as a secondary log entry and never propagated; notification is an
// enhancement, not part of the evaluation contract.
func (s *MonitorService) notifyCritical(alerts []Alert) {
	var messages []string
	for _, alert := range alerts {
		if alert.Severity == SeverityCritical {
			messages = append(messages, alert.Message)
		}
	}
	if len(messages) == 0 {
		return
	}
	if s.notifier == nil || !s.notifier.Enabled() {
		return
	}

	if err := s.notifier.Send("[URGENT] System anomaly detected", strings.Join(messages, "\n")); err != nil {
		system.Error("Failed to send anomaly notification: %v", err)
		entry := models.SystemLog{
			LogLevel: models.LogLevelError,
			Message:  "failed to send anomaly notification",
		}
		_ = entry.SetDetails(map[string]string{"error": err.Error()})
		if dbErr := s.db.Create(&entry).Error; dbErr != nil {
			system.Error("Failed to record notification failure: %v", dbErr)
		}
	}
}

func hasCritical(alerts []Alert) bool {
	for _, alert := range alerts {
		if alert.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
