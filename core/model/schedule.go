package model

// PlaceholderSubject fills missing periods when a day's class list is shorter
// than its bell-schedule requires.
const PlaceholderSubject = "课"

// DefaultTimetableLabel is the bell-schedule label used by the fallback
// documents.
const DefaultTimetableLabel = "workday"

// DayPlan is one weekday entry of a class's weekly schedule. ClassList slots
// hold one subject per period; a slot with more than one entry is a biweekly
// rotation resolved by week index. Index 0 of the week is Sunday, matching
// isoweekday() % 7 of the source data.
type DayPlan struct {
	Chinese   string     `json:"Chinese"`
	English   string     `json:"English"`
	ClassList []Rotation `json:"classList"`
	Timetable string     `json:"timetable"`
}

// Rotation is a period slot: a single subject or an alternation list.
// It marshals a one-element list back to a bare string to keep the stored
// documents in their compact legacy form.
type Rotation []string

// Pick resolves the slot for the given zero-based week index.
func (r Rotation) Pick(weekIndex int) string {
	if len(r) == 0 {
		return PlaceholderSubject
	}
	if len(r) == 1 {
		return r[0]
	}
	i := weekIndex % len(r)
	if i < 0 {
		i += len(r)
	}
	return r[i]
}

// ScheduleDoc is the per-class base weekly schedule document.
type ScheduleDoc struct {
	DailyClass []DayPlan `json:"daily_class"`
	Start      string    `json:"start,omitempty"`
}

// TimetableDoc is the per-grade bell-schedule document. Each label maps a
// "HH:MM-HH:MM" time range either to a period index (int) or to a named
// break (string).
type TimetableDoc struct {
	Timetable map[string]map[string]any `json:"timetable"`
	Divider   map[string][]int          `json:"divider"`
	Start     string                    `json:"start"`
}

// PeriodCount returns the number of periods implied by the entry for label:
// max period index + 1. Zero when the label is unknown or holds no periods.
func (t TimetableDoc) PeriodCount(label string) int {
	entry, ok := t.Timetable[label]
	if !ok {
		return 0
	}
	return EntryPeriodCount(entry)
}

// MaxPeriodCount returns the largest period count across all labels.
func (t TimetableDoc) MaxPeriodCount() int {
	maxCount := 0
	for label := range t.Timetable {
		if c := t.PeriodCount(label); c > maxCount {
			maxCount = c
		}
	}
	return maxCount
}

// EntryPeriodCount counts the periods of a single bell-schedule entry.
// JSON numbers arrive as float64; stored ints are accepted too.
func EntryPeriodCount(entry map[string]any) int {
	maxIdx := -1
	for _, v := range entry {
		var idx int
		switch n := v.(type) {
		case int:
			idx = n
		case float64:
			idx = int(n)
		default:
			continue
		}
		if idx > maxIdx {
			maxIdx = idx
		}
	}
	return maxIdx + 1
}

// SubjectsDoc maps subject abbreviations to full names for one grade.
type SubjectsDoc struct {
	SubjectName map[string]string `json:"subject_name"`
}

// SettingsDoc is the per-class display configuration.
type SettingsDoc struct {
	CountdownTarget      string            `json:"countdown_target"`
	WeatherAlertOverride bool              `json:"weather_alert_override"`
	WeatherAlertBrief    bool              `json:"weather_alert_brief"`
	WeekDisplay          bool              `json:"week_display"`
	BannerText           string            `json:"banner_text"`
	CSSStyle             map[string]string `json:"css_style"`
}
