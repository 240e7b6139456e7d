// Package schedule turns stored dosing rules into the trigger groups the
// evaluator acts on. Medicines sharing the exact same clock time and weekday
// set merge into one group so one dose time produces one notification.
package schedule

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hojoonlee/pilltick/internal/logging"
	"github.com/hojoonlee/pilltick/internal/model"
)

// DoseTime is an immutable (clock time, weekday set) pair derived from a
// medicine's schedule.
type DoseTime struct {
	Time string // "HH:MM", zero-padded
	Days []model.Weekday
}

// MergeKey returns the bucket key for this dose time. Two dose times merge
// only when both the clock time and the canonical days signature match.
func (d DoseTime) MergeKey() string {
	return d.Time + "|" + model.DaysSignature(d.Days)
}

// TriggerGroup is the unit the evaluator fires: every medicine due at one
// (time, weekday-set). The ID is derived from the merge key, so it is stable
// across rebuilds from the same input but changes when the medicine set at a
// shared time changes.
type TriggerGroup struct {
	ID            string
	Time          string // "HH:MM"
	Days          []model.Weekday
	MedicineNames []string // first-seen insertion order
}

// Matches reports whether the group is due at the given weekday and clock time.
func (g *TriggerGroup) Matches(day model.Weekday, timeOfDay string) bool {
	return g.Time == timeOfDay && model.ContainsWeekday(g.Days, day)
}

// Tag returns the notification tag for this group.
func (g *TriggerGroup) Tag() string {
	return "alarm-" + g.ID
}

// Title returns the notification title for this group.
func (g *TriggerGroup) Title() string {
	return model.DefaultPushTitle
}

// Body returns the notification body for this group: the time followed by
// every medicine due at it.
func (g *TriggerGroup) Body() string {
	return fmt.Sprintf("%s - %s", g.Time, strings.Join(g.MedicineNames, ", "))
}

// Data returns the structured payload for this group's notifications.
func (g *TriggerGroup) Data() model.NotificationData {
	return model.NotificationData{
		GroupID:       g.ID,
		MedicineNames: g.MedicineNames,
		Time:          g.Time,
	}
}

// groupID derives the deterministic group identity from the merge key.
func groupID(timeOfDay, daysSignature string) string {
	return timeOfDay + "-" + daysSignature
}

// BuildTriggerGroups merges the dose times of all enabled medicines into
// trigger groups, sorted by time ascending. It is a pure function of its
// input: no side effects beyond debug logging, deterministic output,
// and no medicine with at least one valid time is ever dropped.
func BuildTriggerGroups(medicines []*model.Medicine) []*TriggerGroup {
	buckets := make(map[string]*TriggerGroup)
	var order []string

	for _, med := range medicines {
		if !med.Enabled {
			logging.DebugLog("skipping disabled medicine", logging.KeyMedicine, med.Name)
			continue
		}
		if len(med.Times) == 0 {
			// Not an error: a medicine without times simply has no triggers.
			logging.DebugLog("medicine has no dose times", logging.KeyMedicine, med.Name)
			continue
		}

		days := med.EffectiveDays()
		signature := model.DaysSignature(days)

		for _, timeOfDay := range med.Times {
			if !model.IsValidTimeOfDay(timeOfDay) {
				logging.Warn("ignoring malformed dose time",
					logging.KeyMedicine, med.Name,
					logging.KeyTime, timeOfDay)
				continue
			}

			key := timeOfDay + "|" + signature
			group, ok := buckets[key]
			if !ok {
				group = &TriggerGroup{
					ID:   groupID(timeOfDay, signature),
					Time: timeOfDay,
					Days: append([]model.Weekday(nil), days...),
				}
				buckets[key] = group
				order = append(order, key)
			}
			group.MedicineNames = append(group.MedicineNames, med.Name)
		}
	}

	groups := make([]*TriggerGroup, 0, len(order))
	for _, key := range order {
		groups = append(groups, buckets[key])
	}

	// Lexicographic sort is correct for zero-padded HH:MM. The ID tiebreak
	// keeps distinct weekday-sets at the same time in a stable order.
	sort.SliceStable(groups, func(i, j int) bool {
		if groups[i].Time != groups[j].Time {
			return groups[i].Time < groups[j].Time
		}
		return groups[i].ID < groups[j].ID
	})

	return groups
}
