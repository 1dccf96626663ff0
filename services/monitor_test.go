package services

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ilask/weather-data/models"
)

func snapshot(cpu, memory, disk, in, out float64) MetricSnapshot {
	return MetricSnapshot{
		CPU:    cpu,
		Memory: memory,
		Disk:   disk,
		Network: NetworkMetrics{
			Incoming: in,
			Outgoing: out,
		},
	}
}

func TestParseMetrics(t *testing.T) {
	t.Run("empty payload", func(t *testing.T) {
		_, err := ParseMetrics(nil)
		require.ErrorIs(t, err, ErrMetricsRequired)

		_, err = ParseMetrics(map[string]interface{}{})
		require.ErrorIs(t, err, ErrMetricsRequired)
	})

	t.Run("missing field", func(t *testing.T) {
		_, err := ParseMetrics(map[string]interface{}{
			"cpu":    50.0,
			"memory": 60.0,
			"network": map[string]interface{}{
				"incoming": 100.0,
				"outgoing": 100.0,
			},
		})
		require.ErrorIs(t, err, ErrInvalidMetrics)
	})

	t.Run("non numeric field", func(t *testing.T) {
		_, err := ParseMetrics(map[string]interface{}{
			"cpu":    "high",
			"memory": 60.0,
			"disk":   70.0,
			"network": map[string]interface{}{
				"incoming": 100.0,
				"outgoing": 100.0,
			},
		})
		require.ErrorIs(t, err, ErrInvalidMetrics)
	})

	t.Run("missing network object", func(t *testing.T) {
		_, err := ParseMetrics(map[string]interface{}{
			"cpu":    50.0,
			"memory": 60.0,
			"disk":   70.0,
		})
		require.ErrorIs(t, err, ErrInvalidMetrics)
	})

	t.Run("valid payload", func(t *testing.T) {
		snap, err := ParseMetrics(map[string]interface{}{
			"cpu":    50.0,
			"memory": 60.0,
			"disk":   70.0,
			"network": map[string]interface{}{
				"incoming": 100.0,
				"outgoing": 200.0,
			},
		})
		require.NoError(t, err)
		require.Equal(t, snapshot(50, 60, 70, 100, 200), snap)
	})
}

func TestDetectAnomalies(t *testing.T) {
	t.Run("all below thresholds", func(t *testing.T) {
		alerts := DetectAnomalies(snapshot(50, 60, 70, 100, 100), DefaultAnomalyRules)
		require.Empty(t, alerts)
	})

	t.Run("value equal to threshold does not alert", func(t *testing.T) {
		alerts := DetectAnomalies(snapshot(80, 85, 90, 900, 700), DefaultAnomalyRules)
		require.Empty(t, alerts)
	})

	t.Run("cpu warning", func(t *testing.T) {
		alerts := DetectAnomalies(snapshot(85, 60, 70, 100, 100), DefaultAnomalyRules)
		require.Len(t, alerts, 1)
		require.Equal(t, AlertTypeCPU, alerts[0].Type)
		require.Equal(t, SeverityWarning, alerts[0].Severity)
	})

	t.Run("cpu critical above cutoff", func(t *testing.T) {
		alerts := DetectAnomalies(snapshot(95, 60, 70, 100, 100), DefaultAnomalyRules)
		require.Len(t, alerts, 1)
		require.Equal(t, SeverityCritical, alerts[0].Severity)
	})

	t.Run("disk critical above cutoff", func(t *testing.T) {
		alerts := DetectAnomalies(snapshot(50, 60, 96, 100, 100), DefaultAnomalyRules)
		require.Len(t, alerts, 1)
		require.Equal(t, AlertTypeDisk, alerts[0].Type)
		require.Equal(t, SeverityCritical, alerts[0].Severity)
	})

	t.Run("network alerts never escalate", func(t *testing.T) {
		alerts := DetectAnomalies(snapshot(50, 60, 70, 5000, 5000), DefaultAnomalyRules)
		require.Len(t, alerts, 2)
		for _, alert := range alerts {
			require.Equal(t, SeverityWarning, alert.Severity)
		}
	})

	t.Run("custom rules override defaults", func(t *testing.T) {
		rules := DefaultAnomalyRules
		rules.CPU = threshold(30)
		alerts := DetectAnomalies(snapshot(40, 60, 70, 100, 100), rules)
		require.Len(t, alerts, 1)
		require.Equal(t, AlertTypeCPU, alerts[0].Type)
	})

	t.Run("unset thresholds are not checked", func(t *testing.T) {
		// Only a CPU rule is supplied; the other metrics would all breach
		// the defaults but must stay silent.
		rules := AnomalyRules{CPU: threshold(85)}
		alerts := DetectAnomalies(snapshot(50, 99, 99, 5000, 5000), rules)
		require.Empty(t, alerts)
	})
}

func TestEvaluateNormal(t *testing.T) {
	db := newTestDB(t)
	svc := NewMonitorService(db, nil)

	result, err := svc.Evaluate(snapshot(50, 60, 70, 100, 100), nil)
	require.NoError(t, err)
	require.Equal(t, StatusNormal, result.Status)
	require.Empty(t, result.Alerts)

	var count int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&count).Error)
	require.Zero(t, count, "a normal evaluation must not write a log entry")
}

func TestEvaluatePartialRules(t *testing.T) {
	db := newTestDB(t)
	svc := NewMonitorService(db, nil)

	result, err := svc.Evaluate(snapshot(50, 60, 70, 100, 100), &AnomalyRules{CPU: threshold(85)})
	require.NoError(t, err)
	require.Equal(t, StatusNormal, result.Status)
	require.Empty(t, result.Alerts)

	var count int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestEvaluateWarning(t *testing.T) {
	db := newTestDB(t)
	svc := NewMonitorService(db, nil)

	result, err := svc.Evaluate(snapshot(85, 60, 70, 100, 100), nil)
	require.NoError(t, err)
	require.Equal(t, StatusWarning, result.Status)
	require.Len(t, result.Alerts, 1)

	var entry models.SystemLog
	require.NoError(t, db.First(&entry).Error)
	require.Equal(t, models.LogLevelWarning, entry.LogLevel)

	var details anomalyDetails
	require.NoError(t, entry.Details(&details))
	require.Len(t, details.Alerts, 1)
	require.Equal(t, 85.0, details.Metrics.CPU)
}

func TestEvaluateCriticalNotifies(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{enabled: true}
	svc := NewMonitorService(db, notifier)

	result, err := svc.Evaluate(snapshot(95, 87, 70, 100, 100), nil)
	require.NoError(t, err)
	require.Equal(t, StatusCritical, result.Status)
	require.Len(t, result.Alerts, 2)

	var entry models.SystemLog
	require.NoError(t, db.First(&entry).Error)
	require.Equal(t, models.LogLevelError, entry.LogLevel)

	// Only the critical CPU alert is mailed, not the memory warning.
	require.Len(t, notifier.bodies, 1)
	require.Contains(t, notifier.bodies[0], "CPU usage")
	require.NotContains(t, notifier.bodies[0], "Memory usage")
}

func TestEvaluateNotificationFailureIsSwallowed(t *testing.T) {
	db := newTestDB(t)
	notifier := &fakeNotifier{enabled: true, err: errors.New("relay unreachable")}
	svc := NewMonitorService(db, notifier)

	result, err := svc.Evaluate(snapshot(95, 60, 70, 100, 100), nil)
	require.NoError(t, err)
	require.Equal(t, StatusCritical, result.Status)

	var count int64
	require.NoError(t, db.Model(&models.SystemLog{}).Count(&count).Error)
	require.EqualValues(t, 2, count, "expected the anomaly entry plus the notification failure entry")
}

func TestEvaluateRapidChange(t *testing.T) {
	db := newTestDB(t)
	svc := NewMonitorService(db, nil)

	// Seed a previous snapshot via a custom-rule evaluation that alerts at
	// low CPU so the metrics get logged.
	rules := DefaultAnomalyRules
	rules.CPU = threshold(30)
	_, err := svc.Evaluate(snapshot(40, 60, 70, 100, 100), &rules)
	require.NoError(t, err)

	result, err := svc.Evaluate(snapshot(71, 60, 70, 100, 100), nil)
	require.NoError(t, err)
	require.Equal(t, StatusWarning, result.Status)
	require.Len(t, result.Alerts, 1)
	require.Equal(t, AlertTypeRapidChange, result.Alerts[0].Type)
}

func TestEvaluateRapidChangeRequiresHistory(t *testing.T) {
	db := newTestDB(t)
	svc := NewMonitorService(db, nil)

	// No previous snapshot exists; a high-but-below-threshold CPU stays normal.
	result, err := svc.Evaluate(snapshot(79, 60, 70, 100, 100), nil)
	require.NoError(t, err)
	require.Equal(t, StatusNormal, result.Status)
}
