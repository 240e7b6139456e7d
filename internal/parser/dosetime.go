// Package parser turns natural language dose-time and day expressions from
// the CLI into the canonical forms the schedule layer stores.
package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/hojoonlee/pilltick/internal/model"
)

// ParseDoseTime parses a dose time expression into a zero-padded "HH:MM"
// string. Accepts clock times ("08:00", "8:00") and natural language
// ("8am", "9:15 pm").
func ParseDoseTime(input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("empty time expression")
	}

	if model.IsValidTimeOfDay(input) {
		return input, nil
	}

	// Tolerate a missing leading zero before falling back to the full parser.
	if len(input) == 4 && input[1] == ':' {
		padded := "0" + input
		if model.IsValidTimeOfDay(padded) {
			return padded, nil
		}
	}

	cfg := &dateparser.Configuration{
		CurrentTime: time.Now(),
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return "", fmt.Errorf("cannot parse time %q: %w", input, err)
	}

	return result.Time.Format("15:04"), nil
}

// ParseDoseTimes parses a list of dose time expressions, deduplicating the
// results while preserving input order.
func ParseDoseTimes(inputs []string) ([]string, error) {
	seen := make(map[string]bool, len(inputs))
	var times []string
	for _, in := range inputs {
		t, err := ParseDoseTime(in)
		if err != nil {
			return nil, err
		}
		if !seen[t] {
			seen[t] = true
			times = append(times, t)
		}
	}
	return times, nil
}

// ParseDays parses a day expression into a weekday set. An empty expression,
// "daily" or "everyday" means every day and returns nil. "weekdays" and
// "weekend" expand to their usual sets. Anything else is a comma or dot
// separated list of weekday names.
func ParseDays(input string) ([]model.Weekday, error) {
	input = strings.ToLower(strings.TrimSpace(input))

	switch input {
	case "", "daily", "everyday", "every day":
		return nil, nil
	case "weekdays":
		return []model.Weekday{model.Monday, model.Tuesday, model.Wednesday, model.Thursday, model.Friday}, nil
	case "weekend", "weekends":
		return []model.Weekday{model.Saturday, model.Sunday}, nil
	}

	parts := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == '.' || r == ' '
	})

	var days []model.Weekday
	for _, p := range parts {
		day, ok := model.ParseWeekday(p)
		if !ok {
			return nil, fmt.Errorf("unknown weekday %q", p)
		}
		if !model.ContainsWeekday(days, day) {
			days = append(days, day)
		}
	}
	return days, nil
}

// ParseDay parses a natural language date expression ("today", "yesterday",
// "2026-08-30") into a calendar day.
func ParseDay(input string) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" || strings.EqualFold(input, "today") {
		return time.Now(), nil
	}

	cfg := &dateparser.Configuration{
		CurrentTime: time.Now(),
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil {
		return time.Time{}, fmt.Errorf("cannot parse date %q: %w", input, err)
	}
	return result.Time, nil
}
