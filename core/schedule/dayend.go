package schedule

import (
	"strings"
	"time"

	"github.com/classboard/classboard/core/calendar"
	"github.com/classboard/classboard/core/model"
)

// LastPeriodEnd returns the wall-clock end of the last period of the class
// day described by doc and tt on date. ok is false when the day has no
// periods or the documents cannot describe it.
func LastPeriodEnd(doc model.ScheduleDoc, tt model.TimetableDoc, date time.Time) (end time.Time, ok bool) {
	if len(doc.DailyClass) != 7 {
		return time.Time{}, false
	}
	day := doc.DailyClass[calendar.WeekdayIndex(date)]
	entry, found := tt.Timetable[day.Timetable]
	if !found {
		return time.Time{}, false
	}
	var latest time.Time
	for span, v := range entry {
		switch v.(type) {
		case int, float64:
		default:
			continue
		}
		parts := strings.SplitN(span, "-", 2)
		if len(parts) != 2 {
			continue
		}
		t, err := time.Parse("15:04", strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}
		at := time.Date(date.Year(), date.Month(), date.Day(), t.Hour(), t.Minute(), 0, 0, date.Location())
		if at.After(latest) {
			latest = at
		}
	}
	if latest.IsZero() {
		return time.Time{}, false
	}
	return latest, true
}
