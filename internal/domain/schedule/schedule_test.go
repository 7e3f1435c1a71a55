package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/standsync/server/internal/model"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, Date{Year: 2024, Month: time.March, Day: 11}, d)
	assert.Equal(t, "2024-03-11", d.String())

	_, err = ParseDate("11/03/2024")
	assert.Error(t, err)
}

func TestDateAddDays(t *testing.T) {
	d := Date{Year: 2024, Month: time.February, Day: 28}
	assert.Equal(t, "2024-02-29", d.AddDays(1).String()) // leap year
	assert.Equal(t, "2024-03-01", d.AddDays(2).String())
}

func TestLocalDay(t *testing.T) {
	// 2024-03-10 23:30 UTC is already Monday morning in Tokyo but still
	// Sunday evening in New York.
	instant := time.Date(2024, 3, 10, 23, 30, 0, 0, time.UTC)

	wd, hhmm, err := LocalDay(instant, "Asia/Tokyo")
	require.NoError(t, err)
	assert.Equal(t, 1, wd)
	assert.Equal(t, "08:30", hhmm)

	wd, hhmm, err = LocalDay(instant, "America/New_York")
	require.NoError(t, err)
	assert.Equal(t, 0, wd)
	assert.Equal(t, "19:30", hhmm)

	_, _, err = LocalDay(instant, "Not/AZone")
	assert.Error(t, err)
}

func TestIsDue(t *testing.T) {
	monday, err := ParseDate("2024-03-11")
	require.NoError(t, err)

	tests := []struct {
		name     string
		weekdays []int
		tz       string
		date     Date
		want     bool
	}{
		{"matching weekday", []int{1, 3, 5}, "America/New_York", monday, true},
		{"non-matching weekday", []int{2, 4}, "America/New_York", monday, false},
		{"empty set never due", nil, "America/New_York", monday, false},
		{"weekday is local to the date, not the zone", []int{1}, "Pacific/Auckland", monday, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IsDue(tt.weekdays, tt.tz, tt.date)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = IsDue([]int{1}, "Not/AZone", monday)
	assert.Error(t, err)
}

func TestNextDueDate(t *testing.T) {
	friday, err := ParseDate("2024-03-08")
	require.NoError(t, err)

	next, err := NextDueDate([]int{1}, "America/New_York", friday)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "2024-03-11", next.String())

	// From a due date itself, that date wins.
	next, err = NextDueDate([]int{5}, "America/New_York", friday)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, "2024-03-08", next.String())

	// Empty weekday set has no next due date.
	next, err = NextDueDate(nil, "America/New_York", friday)
	require.NoError(t, err)
	assert.Nil(t, next)
}

func TestWindowDSTTransition(t *testing.T) {
	// US DST begins 2024-03-10; on Monday 2024-03-11 New York is on EDT
	// (UTC-4). A fixed-offset table would produce 14:00Z here.
	snap := &model.ConfigSnapshot{
		Weekdays:             []int{1},
		LocalTime:            "09:00",
		Timezone:             "America/New_York",
		ResponseTimeoutHours: 2,
	}
	target, err := ParseDate("2024-03-11")
	require.NoError(t, err)

	start, end, err := Window(snap, target)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2024, 3, 11, 13, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 3, 11, 15, 0, 0, 0, time.UTC), end)
}

func TestWindowIsReproducible(t *testing.T) {
	snap := &model.ConfigSnapshot{
		LocalTime:            "22:30",
		Timezone:             "Pacific/Auckland",
		ResponseTimeoutHours: 12,
	}
	target, err := ParseDate("2024-06-15")
	require.NoError(t, err)

	start1, end1, err := Window(snap, target)
	require.NoError(t, err)
	start2, end2, err := Window(snap, target)
	require.NoError(t, err)

	assert.True(t, start1.Equal(start2))
	assert.True(t, end1.Equal(end2))
}

func TestWindowErrors(t *testing.T) {
	target, err := ParseDate("2024-06-15")
	require.NoError(t, err)

	_, _, err = Window(&model.ConfigSnapshot{Timezone: "Not/AZone", LocalTime: "09:00"}, target)
	assert.Error(t, err)

	_, _, err = Window(&model.ConfigSnapshot{Timezone: "UTC", LocalTime: "9am"}, target)
	assert.Error(t, err)
}

func TestReminderAt(t *testing.T) {
	start := time.Date(2024, 3, 11, 13, 0, 0, 0, time.UTC)

	at := ReminderAt(start, 15)
	require.NotNil(t, at)
	assert.Equal(t, start.Add(-15*time.Minute), *at)

	assert.Nil(t, ReminderAt(start, 0))
	assert.Nil(t, ReminderAt(start, -5))
}
