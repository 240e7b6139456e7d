package model

import (
	"fmt"
	"time"
)

// DoseLog records a completed dose: which medicine, the scheduled time it
// answered, and when it was actually taken.
type DoseLog struct {
	Key           string    `json:"key"`
	UserID        string    `json:"user_id"`
	MedicineName  string    `json:"medicine_name"`
	ScheduledTime string    `json:"scheduled_time"` // "HH:MM"
	TakenAt       time.Time `json:"taken_at"`
	EvidenceRef   string    `json:"evidence_ref,omitempty"`
}

// SetKey sets the database key for this log entry.
func (l *DoseLog) SetKey(key string) {
	l.Key = key
}

// GetKey returns the database key for this log entry.
func (l *DoseLog) GetKey() string {
	return l.Key
}

// IsOn reports whether the dose was taken on the given calendar day.
func (l *DoseLog) IsOn(day time.Time) bool {
	y1, m1, d1 := l.TakenAt.Date()
	y2, m2, d2 := day.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}

// GenerateDoseLogKey generates a database key for a dose log using UUID.
func GenerateDoseLogKey(uuid string) string {
	return fmt.Sprintf("%s:%s", PrefixDoseLog, uuid)
}

// NewDoseLog creates a dose log entry taken now.
func NewDoseLog(userID, medicineName, scheduledTime string) *DoseLog {
	return &DoseLog{
		UserID:        userID,
		MedicineName:  medicineName,
		ScheduledTime: scheduledTime,
		TakenAt:       time.Now(),
	}
}
