package model

import (
	"fmt"
	"regexp"
	"time"
)

// Medicine represents a registered medicine with its dosing schedule.
type Medicine struct {
	Key            string    `json:"key"`
	UserID         string    `json:"user_id"`
	Name           string    `json:"name"`
	Dosage         string    `json:"dosage,omitempty"`
	Timing         string    `json:"timing,omitempty"` // "before_meal", "after_meal", "anytime"
	Times          []string  `json:"times"`            // "HH:MM", zero-padded
	Days           []Weekday `json:"days,omitempty"`   // empty means every day
	Enabled        bool      `json:"enabled"`
	SnoozeCount    int       `json:"snooze_count,omitempty"`    // max snoozes per firing, 0 = use default
	SnoozeInterval int       `json:"snooze_interval,omitempty"` // minutes, 0 = use default
	CreatedAt      time.Time `json:"created_at"`
}

// SetKey sets the database key for this medicine.
func (m *Medicine) SetKey(key string) {
	m.Key = key
}

// GetKey returns the database key for this medicine.
func (m *Medicine) GetKey() string {
	return m.Key
}

// EffectiveDays returns the weekdays this medicine is scheduled for.
// An absent/empty day list means every day.
func (m *Medicine) EffectiveDays() []Weekday {
	if len(m.Days) == 0 {
		return AllWeekdays()
	}
	return m.Days
}

// SnoozeDelay returns the snooze deferral for this medicine, falling back to
// the given default when the medicine carries no interval of its own.
func (m *Medicine) SnoozeDelay(fallback time.Duration) time.Duration {
	if m.SnoozeInterval > 0 {
		return time.Duration(m.SnoozeInterval) * time.Minute
	}
	return fallback
}

// MaxSnoozes returns the snooze cap per firing, falling back to the given
// default when the medicine carries no cap of its own.
func (m *Medicine) MaxSnoozes(fallback int) int {
	if m.SnoozeCount > 0 {
		return m.SnoozeCount
	}
	return fallback
}

// ShortID returns the first 6 characters of the UUID for display.
func (m *Medicine) ShortID() string {
	// Key format: "medicine:uuid"
	prefix := len(PrefixMedicine) + 1
	if len(m.Key) > prefix+6 {
		return m.Key[prefix : prefix+6]
	}
	return m.Key
}

// GenerateMedicineKey generates a database key for a medicine using UUID.
func GenerateMedicineKey(uuid string) string {
	return fmt.Sprintf("%s:%s", PrefixMedicine, uuid)
}

// NewMedicine creates an enabled medicine for the given user.
func NewMedicine(userID, name string, times []string, days []Weekday) *Medicine {
	return &Medicine{
		UserID:    userID,
		Name:      name,
		Times:     times,
		Days:      days,
		Enabled:   true,
		CreatedAt: time.Now(),
	}
}

var timeOfDayRe = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

// IsValidTimeOfDay reports whether s is a zero-padded "HH:MM" clock time.
// Fixed-width zero padding is what makes lexicographic time sorting correct.
func IsValidTimeOfDay(s string) bool {
	return timeOfDayRe.MatchString(s)
}
