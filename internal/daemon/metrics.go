package daemon

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks daemon operational counters: alarms delivered, passes run,
// snoozes taken, doses acknowledged.
type Metrics struct {
	alarmsDelivered atomic.Int64
	alarmsFailed    atomic.Int64
	passesRun       atomic.Int64
	snoozesTaken    atomic.Int64
	dosesTaken      atomic.Int64
	errorsTotal     atomic.Int64

	mu               sync.RWMutex
	lastAlarmAt      time.Time
	lastPassAt       time.Time
	lastError        string
	lastErrorAt      time.Time
	errorsByCategory map[string]int64
}

// NewMetrics creates a new metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{
		errorsByCategory: make(map[string]int64),
	}
}

// MetricsSnapshot represents a point-in-time view of metrics.
type MetricsSnapshot struct {
	AlarmsDeliveredTotal int64            `json:"alarms_delivered_total"`
	AlarmsFailedTotal    int64            `json:"alarms_failed_total"`
	PassesRunTotal       int64            `json:"passes_run_total"`
	SnoozesTakenTotal    int64            `json:"snoozes_taken_total"`
	DosesTakenTotal      int64            `json:"doses_taken_total"`
	ErrorsTotal          int64            `json:"errors_total"`
	LastAlarmAt          *time.Time       `json:"last_alarm_at,omitempty"`
	LastPassAt           *time.Time       `json:"last_pass_at,omitempty"`
	LastError            string           `json:"last_error,omitempty"`
	LastErrorAt          *time.Time       `json:"last_error_at,omitempty"`
	ErrorsByCategory     map[string]int64 `json:"errors_by_category,omitempty"`
}

// Snapshot returns a copy of current metrics.
func (m *Metrics) Snapshot() MetricsSnapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := MetricsSnapshot{
		AlarmsDeliveredTotal: m.alarmsDelivered.Load(),
		AlarmsFailedTotal:    m.alarmsFailed.Load(),
		PassesRunTotal:       m.passesRun.Load(),
		SnoozesTakenTotal:    m.snoozesTaken.Load(),
		DosesTakenTotal:      m.dosesTaken.Load(),
		ErrorsTotal:          m.errorsTotal.Load(),
		LastError:            m.lastError,
		ErrorsByCategory:     make(map[string]int64, len(m.errorsByCategory)),
	}

	if !m.lastAlarmAt.IsZero() {
		snap.LastAlarmAt = &m.lastAlarmAt
	}
	if !m.lastPassAt.IsZero() {
		snap.LastPassAt = &m.lastPassAt
	}
	if !m.lastErrorAt.IsZero() {
		snap.LastErrorAt = &m.lastErrorAt
	}

	for k, v := range m.errorsByCategory {
		snap.ErrorsByCategory[k] = v
	}
	return snap
}

// JSON returns metrics as JSON.
func (m *Metrics) JSON() ([]byte, error) {
	return json.MarshalIndent(m.Snapshot(), "", "  ")
}

// RecordAlarmDelivered records a delivered alarm.
func (m *Metrics) RecordAlarmDelivered() {
	m.alarmsDelivered.Add(1)

	m.mu.Lock()
	m.lastAlarmAt = time.Now()
	m.mu.Unlock()
}

// RecordAlarmFailed records a failed alarm delivery.
func (m *Metrics) RecordAlarmFailed(err error) {
	m.alarmsFailed.Add(1)
	m.RecordError("delivery", err)
}

// RecordPass records one evaluation pass.
func (m *Metrics) RecordPass() {
	m.passesRun.Add(1)

	m.mu.Lock()
	m.lastPassAt = time.Now()
	m.mu.Unlock()
}

// RecordSnooze records a snooze deferral.
func (m *Metrics) RecordSnooze() {
	m.snoozesTaken.Add(1)
}

// RecordDoseTaken records an acknowledged dose.
func (m *Metrics) RecordDoseTaken() {
	m.dosesTaken.Add(1)
}

// RecordError records an error with category.
func (m *Metrics) RecordError(category string, err error) {
	m.errorsTotal.Add(1)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastError = err.Error()
	m.lastErrorAt = time.Now()
	if category != "" {
		m.errorsByCategory[category]++
	}
}

// AlarmsDelivered returns the total alarms delivered.
func (m *Metrics) AlarmsDelivered() int64 {
	return m.alarmsDelivered.Load()
}

// AlarmsFailed returns the total failed deliveries.
func (m *Metrics) AlarmsFailed() int64 {
	return m.alarmsFailed.Load()
}

// PassesRun returns the total evaluation passes.
func (m *Metrics) PassesRun() int64 {
	return m.passesRun.Load()
}

// ErrorsTotal returns the total errors.
func (m *Metrics) ErrorsTotal() int64 {
	return m.errorsTotal.Load()
}

// Reset resets all metrics to zero.
func (m *Metrics) Reset() {
	m.alarmsDelivered.Store(0)
	m.alarmsFailed.Store(0)
	m.passesRun.Store(0)
	m.snoozesTaken.Store(0)
	m.dosesTaken.Store(0)
	m.errorsTotal.Store(0)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.lastAlarmAt = time.Time{}
	m.lastPassAt = time.Time{}
	m.lastError = ""
	m.lastErrorAt = time.Time{}
	m.errorsByCategory = make(map[string]int64)
}

// GlobalMetrics is the default metrics instance.
var GlobalMetrics = NewMetrics()
