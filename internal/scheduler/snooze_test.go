package scheduler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hojoonlee/pilltick/internal/errors"
	"github.com/hojoonlee/pilltick/internal/model"
	"github.com/hojoonlee/pilltick/internal/schedule"
)

type snoozeRecorder struct {
	mu   sync.Mutex
	tags []string
}

func (r *snoozeRecorder) deliver(tag string, data model.NotificationData) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tags = append(r.tags, tag)
}

func (r *snoozeRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.tags...)
}

func snoozeGroup() *schedule.TriggerGroup {
	return &schedule.TriggerGroup{
		ID:            "08:00-daily",
		Time:          "08:00",
		Days:          model.AllWeekdays(),
		MedicineNames: []string{"Aspirin"},
	}
}

func TestSnoozeNumbersDistinctTags(t *testing.T) {
	rec := &snoozeRecorder{}
	s := NewSnoozeScheduler(rec.deliver)
	s.defaultDelay = time.Millisecond

	group := snoozeGroup()
	meds := []*model.Medicine{{Name: "Aspirin", SnoozeCount: 3}}

	for i := 0; i < 3; i++ {
		_, err := s.Snooze(group, meds)
		require.NoError(t, err)
	}

	require.Eventually(t, func() bool {
		return len(rec.snapshot()) == 3
	}, time.Second, time.Millisecond)

	assert.ElementsMatch(t, []string{
		"alarm-08:00-daily-snooze-1",
		"alarm-08:00-daily-snooze-2",
		"alarm-08:00-daily-snooze-3",
	}, rec.snapshot())
}

func TestSnoozeCapReached(t *testing.T) {
	s := NewSnoozeScheduler((&snoozeRecorder{}).deliver)
	s.defaultDelay = time.Hour // deferrals never elapse during the test
	defer s.StopAll()

	group := snoozeGroup()
	meds := []*model.Medicine{{Name: "Aspirin", SnoozeCount: 2}}

	_, err := s.Snooze(group, meds)
	require.NoError(t, err)
	_, err = s.Snooze(group, meds)
	require.NoError(t, err)

	_, err = s.Snooze(group, meds)
	assert.True(t, errors.Is(err, errors.ErrSnoozeLimitReached))
	assert.Equal(t, 2, s.Count(group.ID))
}

func TestSnoozeStrictestMedicineGoverns(t *testing.T) {
	s := NewSnoozeScheduler((&snoozeRecorder{}).deliver)
	s.defaultDelay = time.Hour
	defer s.StopAll()

	group := snoozeGroup()
	meds := []*model.Medicine{
		{Name: "Aspirin", SnoozeCount: 5, SnoozeInterval: 10},
		{Name: "Iron", SnoozeCount: 1, SnoozeInterval: 2},
	}

	delay, err := s.Snooze(group, meds)
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, delay)

	_, err = s.Snooze(group, meds)
	assert.True(t, errors.Is(err, errors.ErrSnoozeLimitReached))
}

func TestSnoozeDefaultsWhenMedicinesCarryNone(t *testing.T) {
	s := NewSnoozeScheduler((&snoozeRecorder{}).deliver)
	defer s.StopAll()

	delay, err := s.Snooze(snoozeGroup(), []*model.Medicine{{Name: "Aspirin"}})
	require.NoError(t, err)
	assert.Equal(t, s.defaultDelay, delay)
}

func TestResetDayRefundsSnoozes(t *testing.T) {
	s := NewSnoozeScheduler((&snoozeRecorder{}).deliver)
	s.defaultDelay = time.Hour
	defer s.StopAll()

	group := snoozeGroup()
	meds := []*model.Medicine{{Name: "Aspirin", SnoozeCount: 1}}

	_, err := s.Snooze(group, meds)
	require.NoError(t, err)
	_, err = s.Snooze(group, meds)
	require.Error(t, err)

	s.ResetDay()
	_, err = s.Snooze(group, meds)
	assert.NoError(t, err)
}

func TestStopAllCancelsDeferrals(t *testing.T) {
	rec := &snoozeRecorder{}
	s := NewSnoozeScheduler(rec.deliver)
	s.defaultDelay = 20 * time.Millisecond

	_, err := s.Snooze(snoozeGroup(), nil)
	require.NoError(t, err)
	s.StopAll()

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
