// Package calendar holds pure date computations: the week index used by
// biweekly subject rotations and the holiday/make-up-workday compensation
// calendar.
package calendar

import "time"

// DateLayout is the calendar date format used throughout the service.
const DateLayout = "2006-01-02"

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

// Weeks counts elapsed calendar weeks from start to end, inclusive of both
// ends' ISO weeks: the start is shifted back to its Monday and the end forward
// to its Sunday before dividing by seven. A start on Sunday with an end on the
// following Monday therefore counts as two weeks.
func Weeks(start, end time.Time) int {
	shiftedEnd := end.AddDate(0, 0, 7-isoweekdayOf(end))
	shiftedStart := start.AddDate(0, 0, -isoweekdayOf(start))
	return int(shiftedEnd.Sub(shiftedStart).Hours()/24) / 7
}

func isoweekdayOf(t time.Time) int { return isoWeekday(t) }

// WeekIndex converts a schedule start date string and a target date into the
// zero-based rotation index. An unparseable start yields index 0 so a broken
// document still resolves. A start after the target date yields a negative
// index; Rotation.Pick wraps it onto the tail of the alternation.
func WeekIndex(start string, date time.Time) int {
	s, err := ParseDate(start)
	if err != nil {
		return 0
	}
	return Weeks(s, date) - 1
}

// WeekdayIndex maps a date to the schedule document's day slot, where
// Sunday is 0 and Saturday is 6.
func WeekdayIndex(t time.Time) int { return isoWeekday(t) % 7 }
