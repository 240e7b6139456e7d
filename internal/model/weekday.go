package model

import (
	"sort"
	"strings"
	"time"
)

// Weekday is a day-of-week in scheduling rules, stored as its short
// lowercase English name.
type Weekday string

// Weekday values, ordered Monday first to match how dosing schedules read.
const (
	Monday    Weekday = "mon"
	Tuesday   Weekday = "tue"
	Wednesday Weekday = "wed"
	Thursday  Weekday = "thu"
	Friday    Weekday = "fri"
	Saturday  Weekday = "sat"
	Sunday    Weekday = "sun"
)

// weekdayOrder maps each weekday to its position for sorting signatures.
var weekdayOrder = map[Weekday]int{
	Monday: 0, Tuesday: 1, Wednesday: 2, Thursday: 3, Friday: 4, Saturday: 5, Sunday: 6,
}

// AllWeekdays returns every weekday, Monday through Sunday.
func AllWeekdays() []Weekday {
	return []Weekday{Monday, Tuesday, Wednesday, Thursday, Friday, Saturday, Sunday}
}

// WeekdayOf converts a time.Weekday to a Weekday.
func WeekdayOf(d time.Weekday) Weekday {
	switch d {
	case time.Monday:
		return Monday
	case time.Tuesday:
		return Tuesday
	case time.Wednesday:
		return Wednesday
	case time.Thursday:
		return Thursday
	case time.Friday:
		return Friday
	case time.Saturday:
		return Saturday
	default:
		return Sunday
	}
}

// ParseWeekday parses a weekday from user input. It accepts short and full
// English names, case-insensitive.
func ParseWeekday(s string) (Weekday, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "mon", "monday":
		return Monday, true
	case "tue", "tues", "tuesday":
		return Tuesday, true
	case "wed", "wednesday":
		return Wednesday, true
	case "thu", "thur", "thurs", "thursday":
		return Thursday, true
	case "fri", "friday":
		return Friday, true
	case "sat", "saturday":
		return Saturday, true
	case "sun", "sunday":
		return Sunday, true
	default:
		return "", false
	}
}

// IsValidWeekday reports whether s parses as a weekday.
func IsValidWeekday(s string) bool {
	_, ok := ParseWeekday(s)
	return ok
}

// ContainsWeekday reports whether days includes d.
func ContainsWeekday(days []Weekday, d Weekday) bool {
	for _, day := range days {
		if day == d {
			return true
		}
	}
	return false
}

// DaysSignature returns the canonical signature for a weekday set: "daily"
// when all seven days are present, otherwise the sorted short names joined
// with dots ("mon.wed.fri"). Duplicates are collapsed. The signature is the
// deterministic half of a trigger-group merge key, so two schedules with the
// same days always produce the same signature regardless of input order.
func DaysSignature(days []Weekday) string {
	if len(days) == 0 {
		return "daily"
	}

	seen := make(map[Weekday]bool, len(days))
	var unique []Weekday
	for _, d := range days {
		if _, ok := weekdayOrder[d]; !ok {
			continue
		}
		if !seen[d] {
			seen[d] = true
			unique = append(unique, d)
		}
	}

	if len(unique) == len(weekdayOrder) {
		return "daily"
	}

	sort.Slice(unique, func(i, j int) bool {
		return weekdayOrder[unique[i]] < weekdayOrder[unique[j]]
	})

	parts := make([]string, len(unique))
	for i, d := range unique {
		parts[i] = string(d)
	}
	return strings.Join(parts, ".")
}
