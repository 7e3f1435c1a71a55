// Package schedule contains the pure calendar arithmetic behind standup
// scheduling: resolving local weekdays through real IANA timezone data,
// matching recurrence rules, and deriving collection windows. Nothing in
// this package performs I/O.
package schedule

import (
	"fmt"
	"time"

	// Embed the IANA timezone database so lookups work on scratch
	// containers without a system tzdata install.
	_ "time/tzdata"

	"github.com/standsync/server/internal/model"
)

const dateLayout = "2006-01-02"

// Date is a calendar date with no time-of-day and no timezone. Target
// dates are inherently local to a team, so the timezone is supplied at
// the point a Date is resolved to an instant.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses a date in YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, err)
	}
	return DateOf(t), nil
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// String returns the date in YYYY-MM-DD form.
func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// IsZero reports whether d is the zero date.
func (d Date) IsZero() bool {
	return d == Date{}
}

// In returns local midnight of the date in the given location.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// AddDays returns the date n days after d.
func (d Date) AddDays(n int) Date {
	return DateOf(d.In(time.UTC).AddDate(0, 0, n))
}

// Before reports whether d is before other.
func (d Date) Before(other Date) bool {
	return d.In(time.UTC).Before(other.In(time.UTC))
}

// LocalDay maps a UTC instant to the local weekday (0-6, Sunday=0) and
// local clock time ("HH:MM") in the given IANA timezone.
func LocalDay(t time.Time, tz string) (int, string, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return 0, "", fmt.Errorf("load timezone %q: %w", tz, err)
	}
	local := t.In(loc)
	return int(local.Weekday()), local.Format("15:04"), nil
}

// IsDue reports whether targetDate matches the recurrence rule: its local
// weekday, resolved at local midnight in tz, is in weekdays. An empty
// weekday set is never due.
func IsDue(weekdays []int, tz string, targetDate Date) (bool, error) {
	if len(weekdays) == 0 {
		return false, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return false, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	wd := int(targetDate.In(loc).Weekday())
	for _, d := range weekdays {
		if d == wd {
			return true, nil
		}
	}
	return false, nil
}

// NextDueDate returns the first date on or after from that matches the
// recurrence rule, or nil when the weekday set is empty.
func NextDueDate(weekdays []int, tz string, from Date) (*Date, error) {
	if len(weekdays) == 0 {
		return nil, nil
	}
	// A non-empty weekday set always matches within a week.
	for i := 0; i < 7; i++ {
		d := from.AddDays(i)
		due, err := IsDue(weekdays, tz, d)
		if err != nil {
			return nil, err
		}
		if due {
			return &d, nil
		}
	}
	return nil, nil
}

// Window derives the collection window for an instance snapshot on a
// target date. The start is the snapshot's local send time on that date,
// interpreted in the snapshot's timezone (never the team's current one)
// and converted to UTC; the end is start plus the response timeout. The
// result is a pure function of its inputs: recomputing it for the same
// snapshot and date always yields the same pair.
func Window(snap *model.ConfigSnapshot, targetDate Date) (startUTC, endUTC time.Time, err error) {
	loc, err := time.LoadLocation(snap.Timezone)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("load timezone %q: %w", snap.Timezone, err)
	}
	hour, minute, err := parseClock(snap.LocalTime)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}

	start := time.Date(targetDate.Year, targetDate.Month, targetDate.Day, hour, minute, 0, 0, loc)
	startUTC = start.UTC()
	endUTC = startUTC.Add(time.Duration(snap.ResponseTimeoutHours) * time.Hour)
	return startUTC, endUTC, nil
}

// ReminderAt returns the reminder instant: leadMinutes before the window
// end, or nil when no reminder lead is configured.
func ReminderAt(endUTC time.Time, leadMinutes int) *time.Time {
	if leadMinutes <= 0 {
		return nil
	}
	at := endUTC.Add(-time.Duration(leadMinutes) * time.Minute)
	return &at
}

// parseClock parses a local time-of-day in HH:MM form.
func parseClock(s string) (hour, minute int, err error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("parse local time %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}
