package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hojoonlee/pilltick/internal/model"
)

func TestParseDoseTimeClockFormats(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"08:00", "08:00"},
		{"8:00", "08:00"},
		{"  21:30 ", "21:30"},
		{"8am", "08:00"},
		{"9:15 pm", "21:15"},
	}

	for _, tt := range tests {
		got, err := ParseDoseTime(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got, "input %q", tt.input)
	}
}

func TestParseDoseTimeInvalid(t *testing.T) {
	_, err := ParseDoseTime("")
	assert.Error(t, err)

	_, err = ParseDoseTime("not a time at all zzz")
	assert.Error(t, err)
}

func TestParseDoseTimesDeduplicates(t *testing.T) {
	times, err := ParseDoseTimes([]string{"8:00", "08:00", "20:00"})
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "20:00"}, times)
}

func TestParseDaysDaily(t *testing.T) {
	for _, input := range []string{"", "daily", "everyday", "Every Day"} {
		days, err := ParseDays(input)
		require.NoError(t, err)
		assert.Nil(t, days, "input %q", input)
	}
}

func TestParseDaysSets(t *testing.T) {
	days, err := ParseDays("weekdays")
	require.NoError(t, err)
	assert.Len(t, days, 5)

	days, err = ParseDays("weekend")
	require.NoError(t, err)
	assert.Equal(t, []model.Weekday{model.Saturday, model.Sunday}, days)
}

func TestParseDaysList(t *testing.T) {
	days, err := ParseDays("mon,wed,fri")
	require.NoError(t, err)
	assert.Equal(t, []model.Weekday{model.Monday, model.Wednesday, model.Friday}, days)

	days, err = ParseDays("Monday.wednesday")
	require.NoError(t, err)
	assert.Equal(t, []model.Weekday{model.Monday, model.Wednesday}, days)
}

func TestParseDaysUnknown(t *testing.T) {
	_, err := ParseDays("mon,funday")
	assert.Error(t, err)
}

func TestParseDayToday(t *testing.T) {
	day, err := ParseDay("today")
	require.NoError(t, err)
	assert.False(t, day.IsZero())

	_, err = ParseDay("???")
	assert.Error(t, err)
}
